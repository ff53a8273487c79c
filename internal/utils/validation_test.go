package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etickets/internal/errs"
	"etickets/internal/models"
)

func TestValidateStructNamesJSONFields(t *testing.T) {
	v := NewValidator()
	req := models.OrderRequest{
		EventID:       1,
		CustomerName:  "Sara",
		CustomerEmail: "not-an-email",
		CustomerPhone: "0790000000",
		CustomerAge:   150,
		Quantity:      1,
	}

	err := ValidateStruct(v, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
	assert.Contains(t, err.Error(), "customer_email must be a valid email address")
	assert.Contains(t, err.Error(), "customer_age must be at most 120")

	req.CustomerEmail = "sara@example.com"
	req.CustomerAge = 30
	assert.NoError(t, ValidateStruct(v, req))
}
