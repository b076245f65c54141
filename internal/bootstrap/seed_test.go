package bootstrap

import (
	"context"
	"testing"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_ReferenceData(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	res, err := Seed(ctx, app, SeedOptions{AdminEmail: "admin@example.com", AdminPassword: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, len(seedCurrencies), res.Currencies)
	assert.Equal(t, len(seedCountries), res.Countries)
	assert.Zero(t, res.Regions)
	require.NotNil(t, res.AdminID)

	user, err := app.Services.Users.GetByID(ctx, *res.AdminID)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
}

func TestSeed_Idempotent(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	opts := SeedOptions{AdminEmail: "admin@example.com", AdminPassword: "supersecret", Demo: true}

	first, err := Seed(ctx, app, opts)
	require.NoError(t, err)
	assert.Equal(t, len(seedRegions), first.Regions)
	assert.Equal(t, len(seedProducts), first.Products)

	second, err := Seed(ctx, app, opts)
	require.NoError(t, err)
	assert.Zero(t, second.Currencies)
	assert.Zero(t, second.Regions)
	assert.Zero(t, second.Products)
	assert.Nil(t, second.AdminID)

	regions, err := app.Services.Regions.List(ctx, shared.NewListQuery())
	require.NoError(t, err)
	assert.EqualValues(t, len(seedRegions), regions.Count)
}

func TestSeed_DemoStoreDefaults(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	_, err := Seed(ctx, app, SeedOptions{Demo: true})
	require.NoError(t, err)

	st, err := app.Services.Store.Retrieve(ctx)
	require.NoError(t, err)
	require.NotNil(t, st.DefaultRegionID)
	require.NotNil(t, st.DefaultLocationID)
	assert.Len(t, st.SupportedCurrencies, len(seedCurrencies))

	region, err := app.Services.Regions.Retrieve(ctx, *st.DefaultRegionID)
	require.NoError(t, err)
	assert.Equal(t, "North America", region.Name)
}
