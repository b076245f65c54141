package cart

import (
	"context"
	"testing"
	"time"

	"github.com/commerce/backend/internal/domain/cart"
	"github.com/commerce/backend/internal/domain/catalog"
	"github.com/commerce/backend/internal/domain/fulfillment"
	"github.com/commerce/backend/internal/domain/inventory"
	"github.com/commerce/backend/internal/domain/pricing"
	"github.com/commerce/backend/internal/domain/promotion"
	"github.com/commerce/backend/internal/domain/region"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/commerce/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memoryCarts struct {
	rows map[uuid.UUID]*cart.Cart
}

func (m *memoryCarts) Create(_ context.Context, c *cart.Cart) error {
	m.rows[c.ID] = c
	return nil
}

func (m *memoryCarts) Save(_ context.Context, c *cart.Cart) error {
	m.rows[c.ID] = c
	return nil
}

func (m *memoryCarts) FindByID(_ context.Context, id uuid.UUID) (*cart.Cart, error) {
	if c, ok := m.rows[id]; ok {
		return c, nil
	}
	return nil, shared.NewNotFoundError("Cart", id)
}

func (m *memoryCarts) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

func (m *memoryCarts) List(context.Context, shared.ListQuery) ([]*cart.Cart, int64, error) {
	out := make([]*cart.Cart, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (m *memoryCarts) DeleteAbandoned(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, c := range m.rows {
		if !c.IsCompleted() && c.UpdatedAt.Before(before) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

type regionTable map[uuid.UUID]*region.Region

func (t regionTable) Create(_ context.Context, r *region.Region) error {
	t[r.ID] = r
	return nil
}

func (t regionTable) Update(_ context.Context, r *region.Region) error {
	t[r.ID] = r
	return nil
}

func (t regionTable) Delete(_ context.Context, id uuid.UUID) error {
	delete(t, id)
	return nil
}

func (t regionTable) List(context.Context, shared.ListQuery) ([]*region.Region, int64, error) {
	return nil, 0, nil
}

func (t regionTable) FindByID(_ context.Context, id uuid.UUID) (*region.Region, error) {
	if r, ok := t[id]; ok {
		return r, nil
	}
	return nil, shared.NewNotFoundError("Region", id)
}

type productTable map[uuid.UUID]*catalog.Product

func (t productTable) Create(_ context.Context, p *catalog.Product) error {
	t[p.ID] = p
	return nil
}

func (t productTable) Save(_ context.Context, p *catalog.Product) error {
	t[p.ID] = p
	return nil
}

func (t productTable) Delete(_ context.Context, id uuid.UUID) error {
	delete(t, id)
	return nil
}

func (t productTable) FindByHandle(context.Context, string) (*catalog.Product, error) {
	return nil, shared.NewNotFoundError("Product", "handle")
}

func (t productTable) ExistsByHandle(context.Context, string, *uuid.UUID) (bool, error) {
	return false, nil
}

func (t productTable) List(context.Context, shared.ListQuery) ([]*catalog.Product, int64, error) {
	return nil, 0, nil
}

func (t productTable) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if p, ok := t[id]; ok {
		return p, nil
	}
	return nil, shared.NewNotFoundError("Product", id)
}

// variantTable reads variants out of the products
type variantTable struct {
	products productTable
}

func (t variantTable) FindByID(_ context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	for _, p := range t.products {
		if v, ok := p.Variant(id); ok {
			return v, nil
		}
	}
	return nil, shared.NewNotFoundError("ProductVariant", id)
}

func (t variantTable) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.ProductVariant, error) {
	var out []*catalog.ProductVariant
	for _, id := range ids {
		if v, err := t.FindByID(ctx, id); err == nil {
			out = append(out, v)
		}
	}
	return out, nil
}

func (t variantTable) ExistsBySKU(context.Context, string, *uuid.UUID) (bool, error) {
	return false, nil
}

func (t variantTable) SetInventoryItem(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

type itemTable map[uuid.UUID]*inventory.Item

func (t itemTable) Create(_ context.Context, item *inventory.Item) error {
	t[item.ID] = item
	return nil
}

func (t itemTable) Update(_ context.Context, item *inventory.Item) error {
	t[item.ID] = item
	return nil
}

func (t itemTable) Delete(_ context.Context, id uuid.UUID) error {
	delete(t, id)
	return nil
}

func (t itemTable) ExistsBySKU(context.Context, string, *uuid.UUID) (bool, error) {
	return false, nil
}

func (t itemTable) List(context.Context, shared.ListQuery) ([]*inventory.Item, int64, error) {
	return nil, 0, nil
}

func (t itemTable) FindByID(_ context.Context, id uuid.UUID) (*inventory.Item, error) {
	if item, ok := t[id]; ok {
		return item, nil
	}
	return nil, shared.NewNotFoundError("InventoryItem", id)
}

type storeDefaults struct {
	regionID  *uuid.UUID
	channelID *uuid.UUID
}

func (d storeDefaults) DefaultRegion(context.Context) (*uuid.UUID, error) {
	return d.regionID, nil
}

func (d storeDefaults) DefaultSalesChannel(context.Context) (*uuid.UUID, error) {
	return d.channelID, nil
}

func (d storeDefaults) EnsureChannelEnabled(_ context.Context, id uuid.UUID) error {
	if d.channelID == nil || id != *d.channelID {
		return shared.NewNotFoundError("SalesChannel", id)
	}
	return nil
}

// priceTable maps currency and variant to a unit price
type priceTable map[string]map[uuid.UUID]decimal.Decimal

func (t priceTable) CalculatePrices(_ context.Context, variantIDs []uuid.UUID, pc pricing.Context) (map[uuid.UUID]pricing.CalculatedPrice, error) {
	out := make(map[uuid.UUID]pricing.CalculatedPrice, len(variantIDs))
	for _, id := range variantIDs {
		amount, ok := t[pc.CurrencyCode][id]
		if !ok {
			return nil, shared.NewNotFoundError("Price", id)
		}
		out[id] = pricing.CalculatedPrice{VariantID: id, CalculatedAmount: amount, OriginalAmount: amount, CurrencyCode: pc.CurrencyCode}
	}
	return out, nil
}

// tenPercentOff knows one code, SAVE10, which takes 10% off every item
type tenPercentOff struct {
	promotionID uuid.UUID
}

func (p tenPercentOff) ValidateCodes(_ context.Context, codes []string) ([]string, error) {
	var v shared.Validator
	for _, code := range codes {
		v.Check(code == "SAVE10", "promo_codes.0", "promotion code "+code+" is invalid or inactive")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

func (p tenPercentOff) ComputeActions(_ context.Context, codes []string, cc promotion.CartContext) ([]promotion.Adjustment, error) {
	var out []promotion.Adjustment
	for _, code := range codes {
		if code != "SAVE10" {
			continue
		}
		for _, item := range cc.Items {
			subtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			out = append(out, promotion.Adjustment{
				ItemID:      item.ID,
				PromotionID: p.promotionID,
				Code:        code,
				Amount:      subtotal.Mul(decimal.RequireFromString("0.1")),
			})
		}
	}
	return out, nil
}

// flatTax charges 10% on every item and shipping method
type flatTax struct{}

func (flatTax) CalculateTaxLines(_ context.Context, items []tax.Item, shipping []tax.ShippingItem, _ valueobject.Address, _ string) ([]tax.Line, error) {
	rate := decimal.NewFromInt(10)
	var lines []tax.Line
	for _, it := range items {
		lines = append(lines, tax.Line{ItemID: it.ID, Code: "VAT", Rate: rate, Amount: it.Taxable.Mul(decimal.RequireFromString("0.1"))})
	}
	for _, sm := range shipping {
		lines = append(lines, tax.Line{ItemID: sm.ID, Code: "VAT", Rate: rate, Amount: sm.Taxable.Mul(decimal.RequireFromString("0.1")), Shipped: true})
	}
	return lines, nil
}

type optionTable map[uuid.UUID]*fulfillment.ShippingOption

func (t optionTable) ListCartOptions(_ context.Context, regionID uuid.UUID, subtotal decimal.Decimal) ([]*fulfillment.ShippingOption, error) {
	var out []*fulfillment.ShippingOption
	for _, so := range t {
		if so.AvailableFor(regionID, subtotal) {
			out = append(out, so)
		}
	}
	return out, nil
}

func (t optionTable) ResolveCartOption(_ context.Context, optionID, regionID uuid.UUID, subtotal decimal.Decimal) (*fulfillment.ShippingOption, error) {
	so, ok := t[optionID]
	if !ok {
		return nil, shared.NewInvalidDataError("option_id", "shipping option does not exist")
	}
	if !so.AvailableFor(regionID, subtotal) {
		return nil, fulfillment.ErrOptionUnavailable
	}
	return so, nil
}

type stockTable map[uuid.UUID]int

func (t stockTable) ConfirmAvailability(_ context.Context, itemID uuid.UUID, _ []uuid.UUID, quantity int) (bool, error) {
	return t[itemID] >= quantity, nil
}

func (t stockTable) LocationIDsForChannel(context.Context, *uuid.UUID) ([]uuid.UUID, error) {
	return []uuid.UUID{uuid.New()}, nil
}

type fixture struct {
	svc       *Service
	carts     *memoryCarts
	us, eu    *region.Region
	channelID uuid.UUID
	shirt     *catalog.Product
	small     uuid.UUID // shirt variant, unmanaged
	mug       uuid.UUID // managed variant with 2 in stock
	express   *fulfillment.ShippingOption
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{carts: &memoryCarts{rows: map[uuid.UUID]*cart.Cart{}}, channelID: uuid.New()}

	var err error
	f.us, err = region.NewRegion("United States", "usd", true)
	require.NoError(t, err)
	require.NoError(t, f.us.AssignCountries([]region.Country{{ISO2: "us", Name: "United States"}}))
	f.eu, err = region.NewRegion("Europe", "eur", false)
	require.NoError(t, err)
	require.NoError(t, f.eu.AssignCountries([]region.Country{{ISO2: "de", Name: "Germany"}}))
	regions := regionTable{f.us.ID: f.us, f.eu.ID: f.eu}

	items := itemTable{}
	mugItem, err := inventory.NewItem("MUG", "Mug", true)
	require.NoError(t, err)
	items[mugItem.ID] = mugItem

	f.shirt, err = catalog.NewProduct("Shirt", "")
	require.NoError(t, err)
	f.shirt.Status = catalog.ProductStatusPublished
	f.shirt.Discountable = true
	f.shirt.SalesChannelIDs = []uuid.UUID{f.channelID}
	f.small = uuid.New()
	f.mug = uuid.New()
	f.shirt.Variants = []catalog.ProductVariant{
		{BaseEntity: shared.BaseEntity{ID: f.small}, ProductID: f.shirt.ID, Title: "Small", SKU: "SHIRT-S"},
		{BaseEntity: shared.BaseEntity{ID: f.mug}, ProductID: f.shirt.ID, Title: "Mug", SKU: "MUG", ManageInventory: true, InventoryItemID: &mugItem.ID},
	}
	products := productTable{f.shirt.ID: f.shirt}

	f.express, err = fulfillment.NewShippingOption(fulfillment.ShippingOptionInput{
		Name: "Express", RegionID: f.us.ID, ProviderID: "manual", PriceType: fulfillment.PriceTypeFlat,
		Amount: decimal.NewFromInt(10), MinSubtotal: ptr(decimal.NewFromInt(30)),
	})
	require.NoError(t, err)

	f.svc = NewService(ServiceConfig{
		Carts:          f.carts,
		Regions:        regions,
		Products:       products,
		Variants:       variantTable{products: products},
		InventoryItems: items,
		Store:          storeDefaults{regionID: &f.us.ID, channelID: &f.channelID},
		Pricing: priceTable{
			"USD": {f.small: decimal.NewFromInt(20), f.mug: decimal.NewFromInt(5)},
			"EUR": {f.small: decimal.NewFromInt(18)},
		},
		Promotions:   tenPercentOff{promotionID: uuid.New()},
		Taxes:        flatTax{},
		Shipping:     optionTable{f.express.ID: f.express},
		Availability: stockTable{mugItem.ID: 2},
	})
	return f
}

func ptr[T any](v T) *T {
	return &v
}

func usAddress() *valueobject.Address {
	return &valueobject.Address{Address1: "1 Main St", City: "Springfield", CountryCode: "US"}
}

func TestService_Create_Defaults(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.Create(context.Background(), CreateCartRequest{
		Email: "Ann@Example.com",
		Items: []LineItemRequest{{VariantID: f.small, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, f.us.ID, resp.RegionID)
	assert.Equal(t, "USD", resp.CurrencyCode)
	assert.Equal(t, &f.channelID, resp.SalesChannelID)
	assert.Equal(t, "ann@example.com", resp.Email)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Shirt", resp.Items[0].Title)
	assert.Equal(t, "Small", resp.Items[0].Subtitle)
	assert.True(t, resp.Items[0].RequiresShipping)
	assert.Equal(t, "40", resp.ItemSubtotal.String())
	assert.Equal(t, "40", resp.Total.String())
	assert.Contains(t, f.carts.rows, resp.ID)
}

func TestService_Create_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateCartRequest{RegionID: ptr(uuid.New())})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "region_id", verr.Issues[0].Path)

	_, err = f.svc.Create(ctx, CreateCartRequest{Items: []LineItemRequest{{VariantID: uuid.New(), Quantity: 1}}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items.0.variant_id", verr.Issues[0].Path)

	_, err = f.svc.Create(ctx, CreateCartRequest{ShippingAddress: &valueobject.Address{Address1: "Hauptstr. 1", CountryCode: "de"}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "shipping_address.country_code", verr.Issues[0].Path)

	_, err = f.svc.Create(ctx, CreateCartRequest{PromoCodes: []string{"BOGUS"}})
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, f.carts.rows)
}

func TestService_AddLineItem_MergesVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, CreateCartRequest{Items: []LineItemRequest{{VariantID: f.small, Quantity: 1}}})
	require.NoError(t, err)

	resp, err := f.svc.AddLineItem(ctx, c.ID, LineItemRequest{VariantID: f.small, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Quantity)
	assert.Equal(t, "60", resp.ItemSubtotal.String())
}

func TestService_AddLineItem_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, CreateCartRequest{})
	require.NoError(t, err)

	_, err = f.svc.AddLineItem(ctx, c.ID, LineItemRequest{VariantID: f.mug, Quantity: 3})
	assert.ErrorIs(t, err, ErrVariantUnavailable)

	resp, err := f.svc.AddLineItem(ctx, c.ID, LineItemRequest{VariantID: f.mug, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.UpdateLineItem(ctx, c.ID, resp.Items[0].ID, UpdateLineItemRequest{Quantity: 3})
	assert.ErrorIs(t, err, ErrVariantUnavailable)

	f.shirt.Status = catalog.ProductStatusDraft
	_, err = f.svc.AddLineItem(ctx, c.ID, LineItemRequest{VariantID: f.small, Quantity: 1})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Issues[0].Message, "not published")

	f.shirt.Status = catalog.ProductStatusPublished
	f.shirt.SalesChannelIDs = nil
	_, err = f.svc.AddLineItem(ctx, c.ID, LineItemRequest{VariantID: f.small, Quantity: 1})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Issues[0].Message, "sales channel")
}

func TestService_Totals_WithPromotionShippingAndTax(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, CreateCartRequest{
		ShippingAddress: usAddress(),
		Items:           []LineItemRequest{{VariantID: f.small, Quantity: 2}},
	})
	require.NoError(t, err)

	options, err := f.svc.ListShippingOptions(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, options, 1)

	_, err = f.svc.AddShippingMethod(ctx, c.ID, ShippingMethodRequest{OptionID: f.express.ID})
	require.NoError(t, err)
	resp, err := f.svc.ApplyPromotions(ctx, c.ID, PromotionsRequest{PromoCodes: []string{"SAVE10"}})
	require.NoError(t, err)

	// 40 items - 4 discount, taxed 3.6; 10 shipping taxed 1
	assert.Equal(t, []string{"SAVE10"}, resp.PromoCodes)
	assert.Equal(t, "40", resp.ItemSubtotal.String())
	assert.Equal(t, "4", resp.DiscountTotal.String())
	assert.Equal(t, "10", resp.ShippingSubtotal.String())
	assert.Equal(t, "4.6", resp.TaxTotal.String())
	assert.Equal(t, "50.6", resp.Total.String())
	require.Len(t, resp.Items[0].Adjustments, 1)
	assert.Equal(t, "SAVE10", resp.Items[0].Adjustments[0].Code)

	resp, err = f.svc.RemovePromotions(ctx, c.ID, PromotionsRequest{PromoCodes: []string{"save10"}})
	require.NoError(t, err)
	assert.Empty(t, resp.PromoCodes)
	assert.True(t, resp.DiscountTotal.IsZero())
	assert.Equal(t, "55", resp.Total.String())
}

func TestService_RemovingItemsDropsUnavailableShipping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, CreateCartRequest{Items: []LineItemRequest{{VariantID: f.small, Quantity: 2}}})
	require.NoError(t, err)
	_, err = f.svc.AddShippingMethod(ctx, c.ID, ShippingMethodRequest{OptionID: f.express.ID})
	require.NoError(t, err)

	resp, err := f.svc.UpdateLineItem(ctx, c.ID, c.Items[0].ID, UpdateLineItemRequest{Quantity: 1})
	require.NoError(t, err)
	assert.Empty(t, resp.ShippingMethods, "subtotal below the option minimum")

	_, err = f.svc.AddShippingMethod(ctx, c.ID, ShippingMethodRequest{OptionID: f.express.ID})
	assert.ErrorIs(t, err, fulfillment.ErrOptionUnavailable)

	resp, err = f.svc.UpdateLineItem(ctx, c.ID, c.Items[0].ID, UpdateLineItemRequest{Quantity: 0})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestService_Update_RegionChangeReprices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, CreateCartRequest{
		ShippingAddress: usAddress(),
		Items:           []LineItemRequest{{VariantID: f.small, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = f.svc.AddShippingMethod(ctx, c.ID, ShippingMethodRequest{OptionID: f.express.ID})
	require.NoError(t, err)

	resp, err := f.svc.Update(ctx, c.ID, UpdateCartRequest{RegionID: &f.eu.ID})
	require.NoError(t, err)
	assert.Equal(t, "EUR", resp.CurrencyCode)
	assert.Equal(t, "18", resp.Items[0].UnitPrice.String())
	assert.Empty(t, resp.ShippingMethods)
	assert.Nil(t, resp.ShippingAddress, "US address is outside the new region")
	assert.True(t, resp.TaxTotal.IsZero())

	resp, err = f.svc.Update(ctx, c.ID, UpdateCartRequest{
		ShippingAddress: &valueobject.Address{Address1: "Hauptstr. 1", CountryCode: "DE"},
	})
	require.NoError(t, err)
	assert.True(t, resp.TaxTotal.IsZero(), "region without automatic taxes")

	refreshed, err := f.svc.Refresh(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "3.6", refreshed.TaxTotal.String())
}

func TestService_Update_RegionWithoutPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, CreateCartRequest{Items: []LineItemRequest{{VariantID: f.mug, Quantity: 1}}})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, c.ID, UpdateCartRequest{RegionID: &f.eu.ID})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items", verr.Issues[0].Path)
}

func TestService_CompletedCartIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, CreateCartRequest{Items: []LineItemRequest{{VariantID: f.small, Quantity: 1}}})
	require.NoError(t, err)
	require.NoError(t, f.carts.rows[c.ID].Complete(time.Now()))

	_, err = f.svc.AddLineItem(ctx, c.ID, LineItemRequest{VariantID: f.small, Quantity: 1})
	assert.ErrorIs(t, err, cart.ErrCartCompleted)
	_, err = f.svc.Refresh(ctx, c.ID)
	assert.ErrorIs(t, err, cart.ErrCartCompleted)

	got, err := f.svc.Retrieve(ctx, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.CompletedAt)
}

func TestService_DeleteAbandoned(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := newFixture(t)
	f.svc.logger = zap.New(core)
	ctx := context.Background()

	stale, err := f.svc.Create(ctx, CreateCartRequest{})
	require.NoError(t, err)
	fresh, err := f.svc.Create(ctx, CreateCartRequest{})
	require.NoError(t, err)
	f.carts.rows[stale.ID].UpdatedAt = time.Now().Add(-48 * time.Hour)

	n, err := f.svc.DeleteAbandoned(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, f.carts.rows, stale.ID)
	assert.Contains(t, f.carts.rows, fresh.ID)
	assert.Equal(t, 1, logs.FilterMessage("Deleted abandoned carts").Len())
}
