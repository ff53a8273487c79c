package main

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authdb "etickets/internal/auth/db"
	"etickets/internal/config"
	"etickets/internal/database/dbtest"
	"etickets/internal/logger"
	"etickets/internal/models"
)

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	bunDB := dbtest.New(t)
	users := &authdb.DB{Bun: bunDB}
	log := logger.NewWithWriter(io.Discard)
	cfg := config.SeedConfig{AdminEmail: "admin@etickets.jo", AdminPassword: "admin123", AdminName: "Administrator"}

	for i := 0; i < 2; i++ {
		require.NoError(t, seedAdmin(ctx, users, cfg, log))
		require.NoError(t, seedEvents(ctx, bunDB, log))
	}

	admin, err := users.GetUserByEmail(ctx, cfg.AdminEmail)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("admin123")))

	count, err := bunDB.NewSelect().Model((*models.Event)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(sampleEvents()), count)
}
