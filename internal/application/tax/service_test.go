package tax

import (
	"context"
	"testing"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/commerce/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTax struct {
	regions []*tax.Region
}

func (m *memoryTax) CreateRegion(_ context.Context, r *tax.Region) error {
	m.regions = append(m.regions, r)
	return nil
}

func (m *memoryTax) DeleteRegion(context.Context, uuid.UUID) error { return nil }

func (m *memoryTax) FindRegion(_ context.Context, id uuid.UUID) (*tax.Region, error) {
	for _, r := range m.regions {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, shared.NewNotFoundError("TaxRegion", id)
}

func (m *memoryTax) FindRegionsFor(_ context.Context, country, province string) ([]*tax.Region, error) {
	var countryRegion, provinceRegion *tax.Region
	for _, r := range m.regions {
		if r.CountryCode != normalize(country) {
			continue
		}
		if r.ProvinceCode == "" {
			countryRegion = r
		} else if province != "" && r.ProvinceCode == normalize(province) {
			provinceRegion = r
		}
	}
	if countryRegion == nil {
		return nil, nil
	}
	out := []*tax.Region{countryRegion}
	if provinceRegion != nil {
		out = append(out, provinceRegion)
	}
	return out, nil
}

func (m *memoryTax) ListRegions(context.Context, shared.ListQuery) ([]*tax.Region, int64, error) {
	return m.regions, int64(len(m.regions)), nil
}

func (m *memoryTax) CreateRate(ctx context.Context, rate *tax.Rate) error {
	region, err := m.FindRegion(ctx, rate.TaxRegionID)
	if err != nil {
		return err
	}
	if rate.IsDefault {
		for i := range region.Rates {
			region.Rates[i].IsDefault = false
		}
	}
	region.Rates = append(region.Rates, *rate)
	return nil
}

func (m *memoryTax) UpdateRate(context.Context, *tax.Rate) error { return nil }
func (m *memoryTax) DeleteRate(context.Context, uuid.UUID) error { return nil }

func (m *memoryTax) FindRate(_ context.Context, id uuid.UUID) (*tax.Rate, error) {
	for _, r := range m.regions {
		for i := range r.Rates {
			if r.Rates[i].ID == id {
				return &r.Rates[i], nil
			}
		}
	}
	return nil, shared.NewNotFoundError("TaxRate", id)
}

func (m *memoryTax) ListRates(context.Context, shared.ListQuery) ([]*tax.Rate, int64, error) {
	return nil, 0, nil
}

func TestService_CreateRegion(t *testing.T) {
	repo := &memoryTax{}
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreateRegion(ctx, CreateRegionRequest{CountryCode: "CA", ProvinceCode: "QC"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr, "province needs a country region")

	ca, err := svc.CreateRegion(ctx, CreateRegionRequest{
		CountryCode: "CA",
		DefaultRate: &DefaultRateRequest{Name: "GST", Code: "GST", Rate: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)
	require.Len(t, ca.Rates, 1)
	assert.True(t, ca.Rates[0].IsDefault)

	qc, err := svc.CreateRegion(ctx, CreateRegionRequest{CountryCode: "ca", ProvinceCode: "QC"})
	require.NoError(t, err)
	assert.Equal(t, ca.ID, *qc.ParentID)

	_, err = svc.CreateRegion(ctx, CreateRegionRequest{CountryCode: "CA"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, shared.IssueNotUnique, verr.Kind())
}

func TestService_CalculateTaxLines(t *testing.T) {
	repo := &memoryTax{}
	svc := NewService(repo)
	ctx := context.Background()

	ca, err := svc.CreateRegion(ctx, CreateRegionRequest{
		CountryCode: "ca",
		DefaultRate: &DefaultRateRequest{Name: "GST", Code: "GST", Rate: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)
	qc, err := svc.CreateRegion(ctx, CreateRegionRequest{CountryCode: "ca", ProvinceCode: "qc"})
	require.NoError(t, err)
	_, err = svc.CreateRate(ctx, RateRequest{
		TaxRegionID: qc.ID, Name: "QST", Code: "QST", Rate: decimal.RequireFromString("9.975"), IsDefault: true, IsCombinable: true,
	})
	require.NoError(t, err)

	books := uuid.New()
	_, err = svc.CreateRate(ctx, RateRequest{
		TaxRegionID: ca.ID, Name: "Books", Code: "ZERO", Rate: decimal.Zero,
		Rules: []RuleRequest{{Reference: "product", ReferenceID: books}},
	})
	require.NoError(t, err)

	shirt := tax.Item{ID: uuid.New(), Taxable: decimal.NewFromInt(100)}
	novel := tax.Item{ID: uuid.New(), ProductID: &books, Taxable: decimal.NewFromInt(20)}
	addr := valueobject.Address{CountryCode: "CA", Province: "QC"}

	lines, err := svc.CalculateTaxLines(ctx, []tax.Item{shirt, novel}, nil, addr, "CAD")
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "GST", lines[0].Code)
	assert.Equal(t, "5", lines[0].Amount.String())
	assert.Equal(t, "QST", lines[1].Code)
	assert.Equal(t, "9.98", lines[1].Amount.String())
	assert.Equal(t, "ZERO", lines[2].Code)

	lines, err = svc.CalculateTaxLines(ctx, []tax.Item{shirt}, nil, valueobject.Address{CountryCode: "US"}, "USD")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
