package store

import (
	"context"
	"testing"

	"github.com/commerce/backend/internal/domain/currency"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	store *store.Store
}

func (m *memoryStore) Get(context.Context) (*store.Store, error) {
	if m.store == nil {
		return nil, shared.NewNotFoundError("Store", "default")
	}
	return m.store, nil
}

func (m *memoryStore) Save(_ context.Context, s *store.Store) error {
	m.store = s
	return nil
}

type memoryChannels map[uuid.UUID]*store.SalesChannel

func (m memoryChannels) Create(_ context.Context, sc *store.SalesChannel) error {
	m[sc.ID] = sc
	return nil
}

func (m memoryChannels) Update(_ context.Context, sc *store.SalesChannel) error {
	m[sc.ID] = sc
	return nil
}

func (m memoryChannels) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m[id]; !ok {
		return shared.NewNotFoundError("SalesChannel", id)
	}
	delete(m, id)
	return nil
}

func (m memoryChannels) FindByID(_ context.Context, id uuid.UUID) (*store.SalesChannel, error) {
	if sc, ok := m[id]; ok {
		return sc, nil
	}
	return nil, shared.NewNotFoundError("SalesChannel", id)
}

func (m memoryChannels) List(context.Context, shared.ListQuery) ([]*store.SalesChannel, int64, error) {
	out := make([]*store.SalesChannel, 0, len(m))
	for _, sc := range m {
		out = append(out, sc)
	}
	return out, int64(len(out)), nil
}

type currencyTable map[string]bool

func (c currencyTable) Upsert(context.Context, *currency.Currency) error { return nil }

func (c currencyTable) FindByCode(_ context.Context, code string) (*currency.Currency, error) {
	if !c[code] {
		return nil, shared.NewNotFoundError("Currency", code)
	}
	return &currency.Currency{Code: code}, nil
}

func (c currencyTable) List(context.Context, shared.ListQuery) ([]*currency.Currency, int64, error) {
	return nil, 0, nil
}

func setup() (*Service, *memoryStore, memoryChannels) {
	st := &memoryStore{store: store.NewStore("Shop", "usd")}
	channels := memoryChannels{}
	return NewService(st, channels, currencyTable{"USD": true, "EUR": true}), st, channels
}

func TestService_UpdateCurrencies(t *testing.T) {
	svc, _, _ := setup()
	def := "eur"

	resp, err := svc.Update(context.Background(), UpdateStoreRequest{DefaultCurrencyCode: &def, SupportedCurrencies: []string{"usd", "eur"}})
	require.NoError(t, err)
	assert.Equal(t, "EUR", resp.DefaultCurrencyCode)
	assert.Equal(t, []string{"USD", "EUR"}, resp.SupportedCurrencies)

	_, err = svc.Update(context.Background(), UpdateStoreRequest{SupportedCurrencies: []string{"EUR", "GBP"}})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "supported_currencies.1", verr.Issues[0].Path)

	_, err = svc.Update(context.Background(), UpdateStoreRequest{SupportedCurrencies: []string{"USD"}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "default_currency_code", verr.Issues[0].Path)
}

func TestService_SalesChannels(t *testing.T) {
	svc, _, channels := setup()
	ctx := context.Background()

	web, err := svc.CreateSalesChannel(ctx, SalesChannelRequest{Name: "Web"})
	require.NoError(t, err)
	require.NoError(t, svc.EnsureChannelEnabled(ctx, web.ID))

	_, err = svc.UpdateSalesChannel(ctx, web.ID, SalesChannelRequest{Name: "Web", IsDisabled: true})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.EnsureChannelEnabled(ctx, web.ID), store.ErrSalesChannelDisabled)

	_, err = svc.Update(ctx, UpdateStoreRequest{DefaultSalesChannelID: &web.ID})
	require.NoError(t, err)
	require.Error(t, svc.DeleteSalesChannel(ctx, web.ID), "default channel is protected")

	pos, err := svc.CreateSalesChannel(ctx, SalesChannelRequest{Name: "POS"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSalesChannel(ctx, pos.ID))
	assert.Len(t, channels, 1)

	missing := uuid.New()
	_, err = svc.Update(ctx, UpdateStoreRequest{DefaultSalesChannelID: &missing})
	assert.True(t, shared.IsNotFound(err))
}

func TestService_EnsureDefaults(t *testing.T) {
	st := &memoryStore{}
	channels := memoryChannels{}
	svc := NewService(st, channels, currencyTable{"USD": true})
	ctx := context.Background()

	created, err := svc.EnsureDefaults(ctx, "Shop", "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", created.DefaultCurrencyCode)
	require.NotNil(t, created.DefaultSalesChannelID)
	assert.Contains(t, channels, *created.DefaultSalesChannelID)

	again, err := svc.EnsureDefaults(ctx, "Other", "eur")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Shop", again.Name)
	assert.Len(t, channels, 1)
}
