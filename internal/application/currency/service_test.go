package currency

import (
	"context"
	"testing"

	"github.com/commerce/backend/internal/domain/currency"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository map[string]*currency.Currency

func (m memoryRepository) Upsert(_ context.Context, c *currency.Currency) error {
	m[c.Code] = c
	return nil
}

func (m memoryRepository) FindByCode(_ context.Context, code string) (*currency.Currency, error) {
	if c, ok := m[code]; ok {
		return c, nil
	}
	return nil, shared.NewNotFoundError("Currency", code)
}

func (m memoryRepository) List(_ context.Context, q shared.ListQuery) ([]*currency.Currency, int64, error) {
	out := make([]*currency.Currency, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func TestService_Create(t *testing.T) {
	repo := memoryRepository{}
	svc := NewService(repo)

	resp, err := svc.Create(context.Background(), CreateCurrencyRequest{Code: "jpy"})
	require.NoError(t, err)
	assert.Equal(t, "JPY", resp.Code)
	assert.Equal(t, int32(0), resp.DecimalDigits)
	assert.NotEmpty(t, resp.Symbol)

	_, err = svc.Create(context.Background(), CreateCurrencyRequest{Code: "JPY"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, shared.IssueNotUnique, verr.Kind())

	_, err = svc.Create(context.Background(), CreateCurrencyRequest{Code: "ABC"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "code", verr.Issues[0].Path)
}

func TestService_RetrieveAndExists(t *testing.T) {
	svc := NewService(memoryRepository{})
	_, err := svc.Create(context.Background(), CreateCurrencyRequest{Code: "EUR", Name: "Euro"})
	require.NoError(t, err)

	got, err := svc.Retrieve(context.Background(), "EUR")
	require.NoError(t, err)
	assert.Equal(t, "Euro", got.Name)
	assert.Equal(t, int32(2), got.DecimalDigits)

	ok, err := svc.Exists(context.Background(), "USD")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := svc.List(context.Background(), shared.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Count)
	assert.Equal(t, shared.DefaultListLimit, list.Limit)
}
