package catalog

import (
	"context"
	"strings"
	"testing"

	pricingapp "github.com/commerce/backend/internal/application/pricing"
	"github.com/commerce/backend/internal/domain/shared"
	csvimport "github.com/commerce/backend/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedPricer struct {
	calls map[uuid.UUID]pricingapp.SetPricesRequest
	err   error
}

func (p *recordedPricer) SetVariantPrices(_ context.Context, variantID uuid.UUID, req pricingapp.SetPricesRequest) ([]pricingapp.PriceResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.calls == nil {
		p.calls = make(map[uuid.UUID]pricingapp.SetPricesRequest)
	}
	p.calls[variantID] = req
	return nil, nil
}

func setupImportService() (*ImportService, *MockProductRepository, *MockVariantRepository, *recordedPricer) {
	svc, products, variants, items, _ := setupProductService()
	products.On("ExistsByHandle", mock.Anything, mock.Anything, (*uuid.UUID)(nil)).Return(false, nil).Maybe()
	variants.On("ExistsBySKU", mock.Anything, mock.Anything, (*uuid.UUID)(nil)).Return(false, nil).Maybe()
	products.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	items.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	variants.On("SetInventoryItem", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	pricer := &recordedPricer{}
	return NewImportService(svc, pricer, ImportServiceConfig{MaxRows: 50}, zap.NewNop()), products, variants, pricer
}

const productCSV = `product_handle,product_title,product_status,option_1_name,option_1_value,variant_title,variant_sku,variant_manage_inventory,price_usd,price_eur
tee,Classic Tee,published,Size,S,Small,TEE-S,true,25,23
tee,,,Size,M,Medium,TEE-M,true,25,23.50
tote,Canvas Tote,,,,Default,TOTE-1,false,15,
`

func TestImportService_Import(t *testing.T) {
	svc, products, _, pricer := setupImportService()

	res, err := svc.Import(context.Background(), strings.NewReader(productCSV), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 2, res.ProductsCreated)
	assert.Equal(t, 3, res.VariantsCreated)
	assert.Zero(t, res.ProductsFailed)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Products, 2)
	assert.Equal(t, "tee", res.Products[0].Handle)
	assert.NotNil(t, res.Products[0].ID)
	products.AssertNumberOfCalls(t, "Create", 2)

	require.Len(t, pricer.calls, 3)
	var eur []string
	for _, req := range pricer.calls {
		for _, p := range req.Prices {
			if p.CurrencyCode == "eur" {
				eur = append(eur, p.Amount.String())
			}
		}
	}
	assert.ElementsMatch(t, []string{"23", "23.5"}, eur)
}

func TestImportService_DryRun(t *testing.T) {
	svc, products, _, pricer := setupImportService()

	res, err := svc.Import(context.Background(), strings.NewReader(productCSV), ImportOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.Zero(t, res.ProductsCreated)
	require.Len(t, res.Products, 2)
	assert.Nil(t, res.Products[0].ID)
	assert.Equal(t, 2, res.Products[0].Variants)
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, pricer.calls)
}

func TestImportService_RowErrors(t *testing.T) {
	svc, products, _, _ := setupImportService()
	csv := `product_handle,product_title,product_status,variant_title,variant_sku,variant_weight,price_usd
tee,Classic Tee,live,Small,TEE-S,,25
tee,Other Title,,Medium,TEE-M,,25
tote,Canvas Tote,,Default,TEE-S,,15
mug,Mug,,Default,MUG-1,heavy,abc
cap,Cap,,Default,CAP-1,100,12
`

	res, err := svc.Import(context.Background(), strings.NewReader(csv), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.ProductsCreated)
	assert.Equal(t, 3, res.ProductsFailed)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "cap", res.Products[0].Handle)
	products.AssertNumberOfCalls(t, "Create", 1)

	codes := make(map[string]int)
	for _, e := range res.Errors {
		codes[e.Code]++
	}
	assert.Equal(t, 1, codes[csvimport.ErrCodeInvalidValue], "status")
	assert.Equal(t, 1, codes[csvimport.ErrCodeInconsistentGroup], "title")
	assert.Equal(t, 1, codes[csvimport.ErrCodeDuplicateInFile], "sku")
	assert.Equal(t, 2, codes[csvimport.ErrCodeInvalidFormat], "weight and price")
	assert.Equal(t, len(res.Errors), res.ErrorCount)
}

func TestImportService_HandleExists(t *testing.T) {
	svc, products, variants, items, _ := setupProductService()
	products.On("ExistsByHandle", mock.Anything, "tee", (*uuid.UUID)(nil)).Return(true, nil)
	products.On("ExistsByHandle", mock.Anything, "tote", (*uuid.UUID)(nil)).Return(false, nil)
	variants.On("ExistsBySKU", mock.Anything, mock.Anything, (*uuid.UUID)(nil)).Return(false, nil)
	products.On("Create", mock.Anything, mock.Anything).Return(nil)
	items.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	variants.On("SetInventoryItem", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	importer := NewImportService(svc, &recordedPricer{}, ImportServiceConfig{}, zap.NewNop())

	res, err := importer.Import(context.Background(), strings.NewReader(productCSV), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.ProductsCreated)
	assert.Equal(t, 1, res.ProductsFailed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, csvimport.ErrCodeDuplicateInDB, res.Errors[0].Code)
	assert.Equal(t, 2, res.Errors[0].Row)
}

func TestImportService_FileErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty file", ""},
		{"missing columns", "product_title,variant_sku\nTee,TEE-1\n"},
		{"no data rows", "product_handle,variant_title\n"},
		{"too many rows", "product_handle,variant_title\n" + strings.Repeat("tee,Small\n", 51)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := setupImportService()
			_, err := svc.Import(context.Background(), strings.NewReader(tt.csv), ImportOptions{})
			var verr *shared.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "file", verr.Issues[0].Path)
		})
	}
}

func TestCollectOptions(t *testing.T) {
	options := collectOptions([]VariantRequest{
		{Options: map[string]string{"Size": "S", "Color": "Red"}},
		{Options: map[string]string{"Size": "M", "Color": "Red"}},
		{Options: map[string]string{"Size": "S", "Color": "Blue"}},
	})

	require.Len(t, options, 2)
	assert.Equal(t, OptionRequest{Title: "Color", Values: []string{"Red", "Blue"}}, options[0])
	assert.Equal(t, OptionRequest{Title: "Size", Values: []string{"S", "M"}}, options[1])
}
