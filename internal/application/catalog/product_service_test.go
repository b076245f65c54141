package catalog

import (
	"context"
	"testing"

	"github.com/commerce/backend/internal/domain/catalog"
	"github.com/commerce/backend/internal/domain/inventory"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByHandle(ctx context.Context, handle string) (*catalog.Product, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) ExistsByHandle(ctx context.Context, handle string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, handle, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, q shared.ListQuery) ([]*catalog.Product, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]*catalog.Product), args.Get(1).(int64), args.Error(2)
}

// MockVariantRepository is a mock implementation of catalog.VariantRepository
type MockVariantRepository struct {
	mock.Mock
}

func (m *MockVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.ProductVariant, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*catalog.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) ExistsBySKU(ctx context.Context, sku string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, sku, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVariantRepository) SetInventoryItem(ctx context.Context, variantID, inventoryItemID uuid.UUID) error {
	return m.Called(ctx, variantID, inventoryItemID).Error(0)
}

// MockItemRepository is a mock implementation of inventory.ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Create(ctx context.Context, item *inventory.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockItemRepository) Update(ctx context.Context, item *inventory.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Item), args.Error(1)
}

func (m *MockItemRepository) ExistsBySKU(ctx context.Context, sku string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, sku, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockItemRepository) List(ctx context.Context, q shared.ListQuery) ([]*inventory.Item, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]*inventory.Item), args.Get(1).(int64), args.Error(2)
}

type publishedEvents struct {
	types []string
}

func (p *publishedEvents) Publish(_ context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

func setupProductService() (*ProductService, *MockProductRepository, *MockVariantRepository, *MockItemRepository, *publishedEvents) {
	products := new(MockProductRepository)
	variants := new(MockVariantRepository)
	items := new(MockItemRepository)
	events := &publishedEvents{}
	return NewProductService(products, variants, items, events), products, variants, items, events
}

func shirtRequest() CreateProductRequest {
	noInventory := false
	return CreateProductRequest{
		Title:   "Classic Tee",
		Options: []OptionRequest{{Title: "Size", Values: []string{"S", "M"}}},
		Variants: []VariantRequest{
			{Title: "S", SKU: "TEE-S", Options: map[string]string{"Size": "S"}},
			{Title: "M", SKU: "TEE-M", Options: map[string]string{"Size": "M"}, ManageInventory: &noInventory},
		},
	}
}

func TestProductService_Create(t *testing.T) {
	svc, products, variants, items, events := setupProductService()

	products.On("ExistsByHandle", mock.Anything, "classic-tee", (*uuid.UUID)(nil)).Return(false, nil)
	variants.On("ExistsBySKU", mock.Anything, mock.Anything, (*uuid.UUID)(nil)).Return(false, nil)
	products.On("Create", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)
	items.On("Create", mock.Anything, mock.MatchedBy(func(i *inventory.Item) bool { return i.SKU == "TEE-S" })).Return(nil)
	variants.On("SetInventoryItem", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.Create(context.Background(), shirtRequest())
	require.NoError(t, err)

	assert.Equal(t, "classic-tee", resp.Handle)
	assert.Equal(t, "draft", resp.Status)
	require.Len(t, resp.Variants, 2)
	assert.NotNil(t, resp.Variants[0].InventoryItemID, "managed variant is linked")
	assert.Nil(t, resp.Variants[1].InventoryItemID)
	items.AssertNumberOfCalls(t, "Create", 1)
	assert.Equal(t, []string{catalog.EventTypeProductCreated, catalog.EventTypeProductUpdated}, events.types)
}

func TestProductService_Create_HandleTaken(t *testing.T) {
	svc, products, _, _, _ := setupProductService()
	products.On("ExistsByHandle", mock.Anything, "classic-tee", (*uuid.UUID)(nil)).Return(true, nil)

	_, err := svc.Create(context.Background(), shirtRequest())
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, shared.IssueNotUnique, verr.Kind())
	assert.Equal(t, "handle", verr.Issues[0].Path)
}

func TestProductService_Create_DuplicateCombination(t *testing.T) {
	svc, products, variants, _, _ := setupProductService()
	products.On("ExistsByHandle", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	variants.On("ExistsBySKU", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	req := shirtRequest()
	req.Variants[1].Options = map[string]string{"Size": "S"}

	_, err := svc.Create(context.Background(), req)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "variants.1.options", verr.Issues[0].Path)
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductService_Create_MissingOptionValue(t *testing.T) {
	svc, products, variants, _, _ := setupProductService()
	products.On("ExistsByHandle", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	variants.On("ExistsBySKU", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	req := shirtRequest()
	req.Variants[0].Options = map[string]string{}

	_, err := svc.Create(context.Background(), req)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, shared.IssueInvalidData, verr.Kind())
}

func TestProductService_Create_SKUTaken(t *testing.T) {
	svc, products, variants, _, _ := setupProductService()
	products.On("ExistsByHandle", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	variants.On("ExistsBySKU", mock.Anything, "TEE-S", (*uuid.UUID)(nil)).Return(true, nil)

	_, err := svc.Create(context.Background(), shirtRequest())
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sku", verr.Issues[0].Path)
}

func TestProductService_AddVariant(t *testing.T) {
	svc, products, variants, items, _ := setupProductService()
	product, err := catalog.NewProduct("Mug", "")
	require.NoError(t, err)

	products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	products.On("Save", mock.Anything, product).Return(nil)
	variants.On("ExistsBySKU", mock.Anything, "MUG", (*uuid.UUID)(nil)).Return(false, nil)
	items.On("Create", mock.Anything, mock.AnythingOfType("*inventory.Item")).Return(nil)
	variants.On("SetInventoryItem", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.AddVariant(context.Background(), product.ID, VariantRequest{Title: "Default", SKU: "MUG"})
	require.NoError(t, err)
	require.Len(t, resp.Variants, 1)
	assert.NotNil(t, resp.Variants[0].InventoryItemID)
}

func TestProductService_UpdateHandleConflict(t *testing.T) {
	svc, products, _, _, _ := setupProductService()
	product, err := catalog.NewProduct("Mug", "")
	require.NoError(t, err)
	handle := "cup"

	products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	products.On("ExistsByHandle", mock.Anything, "cup", &product.ID).Return(true, nil)

	_, err = svc.Update(context.Background(), product.ID, UpdateProductRequest{Handle: &handle})
	require.Error(t, err)
	products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_GetPublished(t *testing.T) {
	svc, products, _, _, _ := setupProductService()
	channel := uuid.New()
	product, err := catalog.NewProduct("Mug", "")
	require.NoError(t, err)
	products.On("FindByHandle", mock.Anything, "mug").Return(product, nil)

	_, err = svc.GetPublished(context.Background(), "mug", nil)
	assert.True(t, shared.IsNotFound(err), "drafts are hidden")

	status := catalog.ProductStatusPublished
	require.NoError(t, product.Update(catalog.ProductUpdate{Status: &status}))
	require.NoError(t, product.SetSalesChannels([]uuid.UUID{channel}))

	resp, err := svc.GetPublished(context.Background(), "mug", &channel)
	require.NoError(t, err)
	assert.Equal(t, product.ID, resp.ID)

	other := uuid.New()
	_, err = svc.GetPublished(context.Background(), "mug", &other)
	assert.True(t, shared.IsNotFound(err))
}

func TestProductService_Delete(t *testing.T) {
	svc, products, _, _, events := setupProductService()
	product, err := catalog.NewProduct("Mug", "")
	require.NoError(t, err)
	product.ClearDomainEvents()
	products.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	products.On("Delete", mock.Anything, product.ID).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), product.ID))
	assert.Equal(t, []string{catalog.EventTypeProductDeleted}, events.types)
}
