package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etickets/internal/errs"
	"etickets/internal/models"
)

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	user := &models.User{ID: 42, Email: "admin@etickets.jo", Role: models.RoleAdmin}

	first, err := m.Issue(user)
	require.NoError(t, err)
	second, err := m.Issue(user)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "each token gets its own jti")

	claims, err := m.Parse(first)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "admin@etickets.jo", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestParseRejectsBadTokens(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	user := &models.User{ID: 1, Role: models.RoleAdmin}

	other := NewTokenManager("another-secret", time.Hour)
	forged, err := other.Issue(user)
	require.NoError(t, err)
	_, err = m.Parse(forged)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))

	expired := NewTokenManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(user)
	require.NoError(t, err)
	_, err = m.Parse(old)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
	assert.Contains(t, err.Error(), "expired")

	_, err = m.Parse("not.a.jwt")
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestExtractTokenFromRequest(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"", "", false},
		{"Token abc", "", false},
		{"Bearer", "", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		got, err := ExtractTokenFromRequest(req)
		if tc.ok {
			require.NoError(t, err, tc.header)
			assert.Equal(t, tc.want, got)
		} else {
			assert.True(t, errors.Is(err, errs.ErrUnauthorized), tc.header)
		}
	}
}

func TestExtractTokenFromQueryForEventSource(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/admin/orders/stream?access_token=abc.def", nil)
	got, err := ExtractTokenFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "abc.def", got)
}
