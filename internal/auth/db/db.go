package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"etickets/internal/database"
	"etickets/internal/errs"
	"etickets/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := new(models.User)
	err := d.Bun.NewSelect().Model(user).Where("LOWER(u.email) = ?", strings.ToLower(email)).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", errs.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", email, err)
	}
	return user, nil
}

func (d *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := new(models.User)
	err := d.Bun.NewSelect().Model(user).Where("u.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

// CreateUser inserts user. An email that is already registered gives
// ErrConflict.
func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.User)(nil)).
			Where("LOWER(email) = ?", strings.ToLower(user.Email)).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check email %s: %w", user.Email, err)
		}
		if exists {
			return fmt.Errorf("%w: email %s is already registered", errs.ErrConflict, user.Email)
		}
		if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
			// The unique index still catches a concurrent registration.
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("%w: email %s is already registered", errs.ErrConflict, user.Email)
			}
			return fmt.Errorf("insert user %s: %w", user.Email, err)
		}
		return nil
	})
}

// SetToken stores the current session token. An empty token logs the user out.
func (d *DB) SetToken(ctx context.Context, userID int64, token string) error {
	q := d.Bun.NewUpdate().Model((*models.User)(nil)).Where("id = ?", userID)
	if token == "" {
		q = q.Set("token = NULL")
	} else {
		q = q.Set("token = ?", token)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("set token for user %d: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %d", errs.ErrNotFound, userID)
	}
	return nil
}
