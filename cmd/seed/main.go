// Command seed creates the admin account and, on an empty database, a few
// sample events.
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"etickets/internal/auth"
	authdb "etickets/internal/auth/db"
	"etickets/internal/config"
	"etickets/internal/database"
	"etickets/internal/errs"
	"etickets/internal/logger"
	"etickets/internal/models"
)

func sampleEvents() []models.Event {
	return []models.Event{
		{
			Title:       "Amman Jazz Night",
			Description: "An evening of jazz under the stars at the Roman Theatre.",
			Date:        "2025-11-20",
			Time:        "20:00",
			Venue:       "Roman Theatre, Amman",
			Price:       decimal.RequireFromString("25.00"),
			Quantity:    300,
			Status:      models.EventStatusActive,
		},
		{
			Title:       "Wadi Rum Desert Concert",
			Description: "Live music among the red dunes.",
			Date:        "2025-12-12",
			Time:        "18:30",
			Venue:       "Wadi Rum Protected Area",
			Price:       decimal.RequireFromString("40.00"),
			Quantity:    150,
			Status:      models.EventStatusActive,
		},
		{
			Title:       "Aqaba Beach Festival",
			Description: "Food, music and sunset on the Red Sea.",
			Date:        "2026-04-03",
			Time:        "16:00",
			Venue:       "South Beach, Aqaba",
			Price:       decimal.RequireFromString("15.00"),
			Quantity:    500,
			Status:      models.EventStatusActive,
		},
	}
}

func seedAdmin(ctx context.Context, users *authdb.DB, cfg config.SeedConfig, logger *logger.Logger) error {
	_, err := users.GetUserByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		logger.Info("SEED", fmt.Sprintf("Admin %s already exists", cfg.AdminEmail))
		return nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:    cfg.AdminEmail,
		Password: hash,
		Name:     cfg.AdminName,
		Role:     models.RoleAdmin,
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		return err
	}
	logger.Info("SEED", fmt.Sprintf("Created admin %s (id %d)", admin.Email, admin.ID))
	return nil
}

func seedEvents(ctx context.Context, db *bun.DB, logger *logger.Logger) error {
	count, err := db.NewSelect().Model((*models.Event)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}
	if count > 0 {
		logger.Info("SEED", fmt.Sprintf("%d events present, skipping samples", count))
		return nil
	}

	events := sampleEvents()
	if _, err := db.NewInsert().Model(&events).Exec(ctx); err != nil {
		return fmt.Errorf("insert sample events: %w", err)
	}
	logger.Info("SEED", fmt.Sprintf("Inserted %d sample events", len(events)))
	return nil
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := logger.NewLogger(cfg.LogDir)
	defer logger.Close()
	ctx := context.Background()

	bunDB, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := database.Prepare(ctx, cfg.Database, bunDB, logger); err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	if err := seedAdmin(ctx, &authdb.DB{Bun: bunDB}, cfg.Seed, logger); err != nil {
		logger.Fatal("SEED", err.Error())
	}
	if err := seedEvents(ctx, bunDB, logger); err != nil {
		logger.Fatal("SEED", err.Error())
	}
	logger.Info("SEED", "✅ Done")
}
