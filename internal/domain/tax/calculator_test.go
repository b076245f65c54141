package tax

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRate(t *testing.T, region *Region, code string, pct int64, isDefault, combinable bool, rules ...Rule) {
	t.Helper()
	r, err := NewRate(region.ID, code, code, decimal.NewFromInt(pct), isDefault, combinable, rules)
	require.NoError(t, err)
	region.Rates = append(region.Rates, *r)
}

func TestCalculate(t *testing.T) {
	us, err := NewRegion("US", "", nil)
	require.NoError(t, err)
	mustRate(t, us, "US", 0, true, false)

	ca, err := NewRegion("us", "CA", &us.ID)
	require.NoError(t, err)
	mustRate(t, ca, "CA", 10, true, true)

	book := uuid.New()
	mustRate(t, ca, "CA-BOOKS", 2, false, false, Rule{Reference: ReferenceProduct, ReferenceID: book})

	shippingOption := uuid.New()
	mustRate(t, us, "US-SHIP", 5, false, false, Rule{Reference: ReferenceShippingOption, ReferenceID: shippingOption})

	shirt := uuid.New()
	items := []Item{
		{ID: uuid.New(), ProductID: &shirt, Taxable: decimal.RequireFromString("19.99")},
		{ID: uuid.New(), ProductID: &book, Taxable: decimal.NewFromInt(50)},
	}
	shipping := []ShippingItem{{ID: uuid.New(), ShippingOptionID: &shippingOption, Taxable: decimal.NewFromInt(10)}}

	lines := Calculate(us, ca, items, shipping, "USD")
	require.Len(t, lines, 4)

	// shirt: combinable CA default stacks on the US default
	assert.Equal(t, "US", lines[0].Code)
	assert.True(t, lines[0].Amount.IsZero())
	assert.Equal(t, "CA", lines[1].Code)
	assert.Equal(t, "2", lines[1].Amount.String())

	assert.Equal(t, "CA-BOOKS", lines[2].Code)
	assert.Equal(t, "1", lines[2].Amount.String())

	assert.Equal(t, "US-SHIP", lines[3].Code)
	assert.True(t, lines[3].Shipped)
	assert.Equal(t, "0.5", lines[3].Amount.String())
}

func TestCalculate_CountryOnly(t *testing.T) {
	dk, err := NewRegion("dk", "", nil)
	require.NoError(t, err)
	mustRate(t, dk, "DK", 25, true, false)

	lines := Calculate(dk, nil, []Item{{ID: uuid.New(), Taxable: decimal.NewFromInt(100)}}, nil, "DKK")
	require.Len(t, lines, 1)
	assert.Equal(t, "25", lines[0].Amount.String())

	assert.Empty(t, Calculate(nil, nil, []Item{{ID: uuid.New(), Taxable: decimal.NewFromInt(1)}}, nil, "DKK"))
}

func TestNewRegionAndRateValidation(t *testing.T) {
	_, err := NewRegion("usa", "ca", nil)
	assert.Error(t, err)

	_, err = NewRate(uuid.New(), "x", "x", decimal.NewFromInt(101), false, false, nil)
	assert.Error(t, err)

	_, err = NewRate(uuid.New(), "x", "x", decimal.NewFromInt(5), true, false, []Rule{{Reference: ReferenceProduct, ReferenceID: uuid.New()}})
	assert.Error(t, err)
}
