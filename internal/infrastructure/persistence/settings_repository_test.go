package persistence

import (
	"context"
	"testing"

	"github.com/commerce/backend/internal/domain/currency"
	"github.com/commerce/backend/internal/domain/region"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCurrencyRepository_Upsert(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormCurrencyRepository(db)

	eur, err := currency.New("eur", "Euro", "€", "€")
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, eur))

	eur.Name = "Euro (EU)"
	require.NoError(t, repo.Upsert(ctx, eur))

	found, err := repo.FindByCode(ctx, "eur")
	require.NoError(t, err)
	assert.Equal(t, "Euro (EU)", found.Name)
	assert.Equal(t, int32(2), found.DecimalDigits)

	_, total, err := repo.List(ctx, shared.NewListQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, err = repo.FindByCode(ctx, "XXX")
	assert.True(t, shared.IsNotFound(err))
}

func TestGormRegionRepository_Countries(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	regions := NewGormRegionRepository(db)
	countries := NewGormCountryRepository(db)

	require.NoError(t, countries.Upsert(ctx, []region.Country{
		{ISO2: "de", ISO3: "deu", NumCode: 276, Name: "GERMANY", DisplayName: "Germany"},
		{ISO2: "fr", ISO3: "fra", NumCode: 250, Name: "FRANCE", DisplayName: "France"},
		{ISO2: "us", ISO3: "usa", NumCode: 840, Name: "UNITED STATES", DisplayName: "United States"},
	}))

	eu, err := region.NewRegion("Europe", "eur", true)
	require.NoError(t, err)
	require.NoError(t, regions.Create(ctx, eu))

	found, err := countries.FindByISO2(ctx, []string{"DE", "fr"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.NoError(t, eu.AssignCountries(found))
	require.NoError(t, countries.SetRegion(ctx, eu.CountryCodes(), &eu.ID))

	t.Run("loads countries with the region", func(t *testing.T) {
		loaded, err := regions.FindByID(ctx, eu.ID)
		require.NoError(t, err)
		assert.Equal(t, "EUR", loaded.CurrencyCode)
		assert.ElementsMatch(t, []string{"de", "fr"}, loaded.CountryCodes())
	})

	t.Run("filters regions by country", func(t *testing.T) {
		q := shared.NewListQuery().WithFilter("country_code", "FR")
		list, total, err := regions.List(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, eu.ID, list[0].ID)
	})

	t.Run("lists unassigned countries", func(t *testing.T) {
		q := shared.NewListQuery().WithFilter("region_id", nil)
		list, total, err := countries.List(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "us", list[0].ISO2)
	})

	t.Run("delete releases countries", func(t *testing.T) {
		require.NoError(t, regions.Delete(ctx, eu.ID))
		found, err := countries.FindByISO2(ctx, []string{"de"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Nil(t, found[0].RegionID)

		_, err = regions.FindByID(ctx, eu.ID)
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestGormStoreRepository_GetAndSave(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormStoreRepository(db)

	_, err := repo.Get(ctx)
	assert.True(t, shared.IsNotFound(err))

	s := store.NewStore("Commerce", "usd")
	require.NoError(t, repo.Save(ctx, s))
	require.NoError(t, s.SetCurrencies("EUR", []string{"usd", "eur"}))
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "EUR", got.DefaultCurrencyCode)
	assert.ElementsMatch(t, []string{"USD", "EUR"}, got.SupportedCurrencies)
}

func TestGormSalesChannelRepository_CRUD(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormSalesChannelRepository(db)

	sc, err := store.NewSalesChannel("Webshop", "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, sc))

	require.NoError(t, sc.Update("Web", "main shop", true))
	require.NoError(t, repo.Update(ctx, sc))

	got, err := repo.FindByID(ctx, sc.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDisabled)
	assert.Equal(t, "Web", got.Name)

	require.NoError(t, repo.Delete(ctx, sc.ID))
	assert.True(t, shared.IsNotFound(repo.Update(ctx, sc)))
}
