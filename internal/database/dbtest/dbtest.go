// Package dbtest gives package tests an in-memory SQLite bun handle with the
// application schema.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"etickets/internal/database"
	"etickets/internal/models"
)

func New(t testing.TB) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	if err := database.CreateSchema(context.Background(), bunDB); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })
	return bunDB
}

// SeedEvent inserts an active event and returns it.
func SeedEvent(t testing.TB, db *bun.DB, price string, quantity, sold int) *models.Event {
	t.Helper()

	event := &models.Event{
		Title:    "Wadi Rum Desert Concert",
		Date:     "2025-10-10",
		Time:     "19:00",
		Venue:    "Wadi Rum",
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
		Sold:     sold,
		Status:   models.EventStatusActive,
	}
	if _, err := db.NewInsert().Model(event).Exec(context.Background()); err != nil {
		t.Fatalf("Failed to seed event: %v", err)
	}
	return event
}
