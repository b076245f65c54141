package region

import (
	"context"
	"testing"

	"github.com/commerce/backend/internal/domain/currency"
	"github.com/commerce/backend/internal/domain/region"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockRegionRepository struct {
	mock.Mock
}

func (m *MockRegionRepository) Create(ctx context.Context, r *region.Region) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRegionRepository) Update(ctx context.Context, r *region.Region) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRegionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRegionRepository) FindByID(ctx context.Context, id uuid.UUID) (*region.Region, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*region.Region), args.Error(1)
}

func (m *MockRegionRepository) List(ctx context.Context, q shared.ListQuery) ([]*region.Region, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]*region.Region), args.Get(1).(int64), args.Error(2)
}

type MockCountryRepository struct {
	mock.Mock
}

func (m *MockCountryRepository) FindByISO2(ctx context.Context, codes []string) ([]region.Country, error) {
	args := m.Called(ctx, codes)
	return args.Get(0).([]region.Country), args.Error(1)
}

func (m *MockCountryRepository) List(ctx context.Context, q shared.ListQuery) ([]region.Country, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]region.Country), args.Get(1).(int64), args.Error(2)
}

func (m *MockCountryRepository) SetRegion(ctx context.Context, codes []string, regionID *uuid.UUID) error {
	return m.Called(ctx, codes, regionID).Error(0)
}

func (m *MockCountryRepository) ReleaseRegion(ctx context.Context, regionID uuid.UUID) error {
	return m.Called(ctx, regionID).Error(0)
}

type currencyTable map[string]*currency.Currency

func (c currencyTable) Upsert(_ context.Context, cur *currency.Currency) error {
	c[cur.Code] = cur
	return nil
}

func (c currencyTable) FindByCode(_ context.Context, code string) (*currency.Currency, error) {
	if cur, ok := c[code]; ok {
		return cur, nil
	}
	return nil, shared.NewNotFoundError("Currency", code)
}

func (c currencyTable) List(context.Context, shared.ListQuery) ([]*currency.Currency, int64, error) {
	return nil, 0, nil
}

func newCurrencies(t *testing.T, codes ...string) currencyTable {
	table := currencyTable{}
	for _, code := range codes {
		cur, err := currency.New(code, "", "", "")
		require.NoError(t, err)
		table[cur.Code] = cur
	}
	return table
}

func TestService_Create(t *testing.T) {
	regions, countries := new(MockRegionRepository), new(MockCountryRepository)
	svc := NewService(regions, countries, newCurrencies(t, "EUR"), zap.NewNop())

	countries.On("FindByISO2", mock.Anything, []string{"DE", "fr"}).
		Return([]region.Country{{ISO2: "de", Name: "Germany"}, {ISO2: "fr", Name: "France"}}, nil)
	regions.On("Create", mock.Anything, mock.AnythingOfType("*region.Region")).Return(nil)
	countries.On("SetRegion", mock.Anything, []string{"de", "fr"}, mock.AnythingOfType("*uuid.UUID")).Return(nil)

	resp, err := svc.Create(context.Background(), CreateRegionRequest{Name: "Europe", CurrencyCode: "eur", Countries: []string{"DE", "fr"}})
	require.NoError(t, err)
	assert.Equal(t, "EUR", resp.CurrencyCode)
	assert.True(t, resp.AutomaticTaxes)
	require.Len(t, resp.Countries, 2)
	assert.Equal(t, resp.ID, *resp.Countries[0].RegionID)
	countries.AssertExpectations(t)
}

func TestService_Create_UnknownCurrency(t *testing.T) {
	svc := NewService(new(MockRegionRepository), new(MockCountryRepository), newCurrencies(t), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateRegionRequest{Name: "US", CurrencyCode: "USD"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "currency_code", verr.Issues[0].Path)
}

func TestService_Create_CountryOwnedElsewhere(t *testing.T) {
	regions, countries := new(MockRegionRepository), new(MockCountryRepository)
	svc := NewService(regions, countries, newCurrencies(t, "EUR"), zap.NewNop())
	other := uuid.New()
	countries.On("FindByISO2", mock.Anything, []string{"de"}).Return([]region.Country{{ISO2: "de", RegionID: &other}}, nil)

	_, err := svc.Create(context.Background(), CreateRegionRequest{Name: "Europe", CurrencyCode: "EUR", Countries: []string{"de"}})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, shared.IssueNotUnique, verr.Kind())
	regions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Create_UnknownCountry(t *testing.T) {
	countries := new(MockCountryRepository)
	svc := NewService(new(MockRegionRepository), countries, newCurrencies(t, "EUR"), zap.NewNop())
	countries.On("FindByISO2", mock.Anything, []string{"de", "xx"}).Return([]region.Country{{ISO2: "de"}}, nil)

	_, err := svc.Create(context.Background(), CreateRegionRequest{Name: "Europe", CurrencyCode: "EUR", Countries: []string{"de", "xx"}})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "countries.1", verr.Issues[0].Path)
}

func TestService_RemoveCountries(t *testing.T) {
	regions, countries := new(MockRegionRepository), new(MockCountryRepository)
	svc := NewService(regions, countries, newCurrencies(t, "EUR"), zap.NewNop())

	r, err := region.NewRegion("Europe", "EUR", true)
	require.NoError(t, err)
	require.NoError(t, r.AssignCountries([]region.Country{{ISO2: "de"}, {ISO2: "fr"}}))
	regions.On("FindByID", mock.Anything, r.ID).Return(r, nil)
	countries.On("SetRegion", mock.Anything, []string{"de"}, (*uuid.UUID)(nil)).Return(nil)

	resp, err := svc.RemoveCountries(context.Background(), r.ID, CountriesRequest{Countries: []string{"DE", "it"}})
	require.NoError(t, err)
	require.Len(t, resp.Countries, 1)
	assert.Equal(t, "fr", resp.Countries[0].ISO2)
	countries.AssertExpectations(t)
}

func TestService_Update(t *testing.T) {
	regions := new(MockRegionRepository)
	svc := NewService(regions, new(MockCountryRepository), newCurrencies(t, "EUR", "USD"), zap.NewNop())

	r, err := region.NewRegion("Europe", "EUR", true)
	require.NoError(t, err)
	regions.On("FindByID", mock.Anything, r.ID).Return(r, nil)
	regions.On("Update", mock.Anything, r).Return(nil)

	code, taxes := "USD", false
	resp, err := svc.Update(context.Background(), r.ID, UpdateRegionRequest{CurrencyCode: &code, AutomaticTaxes: &taxes})
	require.NoError(t, err)
	assert.Equal(t, "Europe", resp.Name)
	assert.Equal(t, "USD", resp.CurrencyCode)
	assert.False(t, resp.AutomaticTaxes)
}
