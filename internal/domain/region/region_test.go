package region

import (
	"testing"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegion(t *testing.T) {
	r, err := NewRegion(" Europe ", "eur", true)
	require.NoError(t, err)
	assert.Equal(t, "Europe", r.Name)
	assert.Equal(t, "EUR", r.CurrencyCode)

	_, err = NewRegion("", "euro", false)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues, 2)
}

func TestRegion_AssignCountries(t *testing.T) {
	r, err := NewRegion("Europe", "EUR", false)
	require.NoError(t, err)

	require.NoError(t, r.AssignCountries([]Country{{ISO2: "dk"}, {ISO2: "de"}}))
	require.NoError(t, r.AssignCountries([]Country{{ISO2: "dk", RegionID: &r.ID}}))
	assert.Equal(t, []string{"dk", "de"}, r.CountryCodes())
	assert.True(t, r.HasCountry("DK"))

	other := uuid.New()
	err = r.AssignCountries([]Country{{ISO2: "us", RegionID: &other}})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, shared.IssueNotUnique, verr.Kind())

	r.RemoveCountries([]string{"DK"})
	assert.Equal(t, []string{"de"}, r.CountryCodes())
}
