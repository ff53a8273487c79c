package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"etickets/internal/errs"
	"etickets/internal/logger"
	"etickets/internal/models"
	"etickets/internal/utils"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
)

type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type Middleware struct {
	Tokens *TokenManager
	Users  UserLookup
	Logger *logger.Logger
}

func NewMiddleware(tokens *TokenManager, users UserLookup, log *logger.Logger) *Middleware {
	return &Middleware{Tokens: tokens, Users: users, Logger: log}
}

// Authenticate accepts a valid token that is still the user's current one.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.authenticate(r)
		if err != nil {
			m.Logger.LogSecurity("AUTH_FAILED", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
			utils.WriteError(w, m.Logger, "AUTH", err)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, user.ID)
		ctx = context.WithValue(ctx, roleKey, user.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin is Authenticate plus a role check.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Role(r.Context()) != models.RoleAdmin {
			m.Logger.LogSecurity("FORBIDDEN", fmt.Sprintf("user %d on %s %s", UserID(r.Context()), r.Method, r.URL.Path))
			utils.WriteError(w, m.Logger, "AUTH", fmt.Errorf("%w: admin access required", errs.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (m *Middleware) authenticate(r *http.Request) (*models.User, error) {
	raw, err := ExtractTokenFromRequest(r)
	if err != nil {
		return nil, err
	}
	claims, err := m.Tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	user, err := m.Users.GetUserByID(r.Context(), id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown user", errs.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	// Rotation: only the token from the latest login is accepted.
	if user.Token == "" || user.Token != raw {
		return nil, fmt.Errorf("%w: token has been revoked", errs.ErrUnauthorized)
	}
	return user, nil
}

// Helper to extract user ID in handlers
func UserID(ctx context.Context) int64 {
	if uid, ok := ctx.Value(userIDKey).(int64); ok {
		return uid
	}
	return 0
}

func Role(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}
