package store

import (
	"testing"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetCurrencies(t *testing.T) {
	s := NewStore("Shop", "usd")
	assert.True(t, s.SupportsCurrency("USD"))

	require.NoError(t, s.SetCurrencies("eur", []string{"usd", "EUR", "eur"}))
	assert.Equal(t, "EUR", s.DefaultCurrencyCode)
	assert.Equal(t, []string{"USD", "EUR"}, s.SupportedCurrencies)

	err := s.SetCurrencies("gbp", []string{"usd"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "default_currency_code", verr.Issues[0].Path)
}

func TestSalesChannel(t *testing.T) {
	sc, err := NewSalesChannel("Web", "")
	require.NoError(t, err)
	assert.False(t, sc.IsDisabled)

	require.NoError(t, sc.Update("Web", "main", true))
	assert.True(t, sc.IsDisabled)

	_, err = NewSalesChannel("  ", "")
	assert.Error(t, err)
}
