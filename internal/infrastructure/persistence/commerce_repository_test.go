package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/commerce/backend/internal/domain/cart"
	"github.com/commerce/backend/internal/domain/fulfillment"
	"github.com/commerce/backend/internal/domain/order"
	"github.com/commerce/backend/internal/domain/payment"
	"github.com/commerce/backend/internal/domain/pricing"
	"github.com/commerce/backend/internal/domain/promotion"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartWithItem(t *testing.T) *cart.Cart {
	t.Helper()
	c, err := cart.NewCart(uuid.New(), "eur")
	require.NoError(t, err)
	variant := uuid.New()
	_, err = c.AddLineItem(cart.LineItem{
		VariantID:        &variant,
		Title:            "Mug",
		SKU:              "MUG-1",
		Quantity:         2,
		UnitPrice:        decimal.NewFromInt(10),
		IsDiscountable:   true,
		RequiresShipping: true,
		ManageInventory:  true,
	})
	require.NoError(t, err)
	require.NoError(t, c.SetShippingMethod(cart.ShippingMethod{
		ShippingOptionID: uuid.New(),
		Name:             "Standard",
		Amount:           decimal.NewFromInt(5),
	}))
	return c
}

func TestGormPricingRepository(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormPricingRepository(db)
	variant := uuid.New()

	base, err := pricing.NormalizePrices(variant, []pricing.Price{
		{Amount: decimal.NewFromInt(20), CurrencyCode: "eur"},
		{Amount: decimal.NewFromInt(25), CurrencyCode: "usd"},
	})
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceVariantPrices(ctx, variant, base))

	pl, err := pricing.NewPriceList("Summer sale", "", pricing.PriceListTypeSale)
	require.NoError(t, err)
	pl.Prices, err = pricing.NormalizePrices(variant, []pricing.Price{{Amount: decimal.NewFromInt(15), CurrencyCode: "EUR"}})
	require.NoError(t, err)
	require.NoError(t, repo.CreatePriceList(ctx, pl))

	t.Run("finds base and list prices by currency", func(t *testing.T) {
		prices, err := repo.FindPrices(ctx, []uuid.UUID{variant}, "eur")
		require.NoError(t, err)
		assert.Len(t, prices, 2)

		own, err := repo.FindVariantPrices(ctx, variant)
		require.NoError(t, err)
		assert.Len(t, own, 2)
	})

	t.Run("replacing base prices keeps list prices", func(t *testing.T) {
		require.NoError(t, repo.ReplaceVariantPrices(ctx, variant, nil))
		prices, err := repo.FindPrices(ctx, []uuid.UUID{variant}, "EUR")
		require.NoError(t, err)
		require.Len(t, prices, 1)
		assert.NotNil(t, prices[0].PriceListID)
	})

	t.Run("deleted list stops resolving", func(t *testing.T) {
		got, err := repo.FindPriceList(ctx, pl.ID)
		require.NoError(t, err)
		assert.Len(t, got.Prices, 1)

		require.NoError(t, repo.DeletePriceList(ctx, pl.ID))
		prices, err := repo.FindPrices(ctx, []uuid.UUID{variant}, "EUR")
		require.NoError(t, err)
		assert.Empty(t, prices)
	})
}

func TestGormTaxRepository(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormTaxRepository(db)

	country, err := tax.NewRegion("CA", "", nil)
	require.NoError(t, err)
	require.NoError(t, repo.CreateRegion(ctx, country))
	province, err := tax.NewRegion("ca", "QC", &country.ID)
	require.NoError(t, err)
	require.NoError(t, repo.CreateRegion(ctx, province))

	gst, err := tax.NewRate(country.ID, "GST", "GST", decimal.NewFromInt(5), true, false, nil)
	require.NoError(t, err)
	require.NoError(t, repo.CreateRate(ctx, gst))
	other, err := tax.NewRate(country.ID, "Alt", "ALT", decimal.NewFromInt(7), true, false, nil)
	require.NoError(t, err)
	require.NoError(t, repo.CreateRate(ctx, other))

	t.Run("duplicate region is rejected", func(t *testing.T) {
		dup, err := tax.NewRegion("ca", "", nil)
		require.NoError(t, err)
		var verr *shared.ValidationError
		require.ErrorAs(t, repo.CreateRegion(ctx, dup), &verr)
		assert.Equal(t, shared.IssueNotUnique, verr.Kind())
	})

	t.Run("a new default demotes the previous one", func(t *testing.T) {
		got, err := repo.FindRate(ctx, gst.ID)
		require.NoError(t, err)
		assert.False(t, got.IsDefault)
	})

	t.Run("resolves country then province", func(t *testing.T) {
		regions, err := repo.FindRegionsFor(ctx, "CA", "qc")
		require.NoError(t, err)
		require.Len(t, regions, 2)
		assert.Equal(t, country.ID, regions[0].ID)
		assert.Len(t, regions[0].Rates, 2)
		assert.Equal(t, province.ID, regions[1].ID)

		regions, err = repo.FindRegionsFor(ctx, "de", "")
		require.NoError(t, err)
		assert.Empty(t, regions)
	})

	t.Run("deleting a country removes its provinces and rates", func(t *testing.T) {
		require.NoError(t, repo.DeleteRegion(ctx, country.ID))
		_, err := repo.FindRegion(ctx, province.ID)
		assert.True(t, shared.IsNotFound(err))
		_, total, err := repo.ListRates(ctx, shared.ListQuery{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestGormPromotionRepository(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	promotions := NewGormPromotionRepository(db)
	campaigns := NewGormCampaignRepository(db)

	limit := decimal.NewFromInt(10)
	campaign, err := promotion.NewCampaign("Spring", "SPRING-24", "", nil, nil,
		&promotion.Budget{Type: promotion.BudgetSpend, Limit: &limit, CurrencyCode: "EUR"})
	require.NoError(t, err)
	require.NoError(t, campaigns.Create(ctx, campaign))

	promo, err := promotion.NewPromotion("spring10", false, promotion.ApplicationMethod{
		Type:       promotion.MethodPercentage,
		TargetType: promotion.TargetItems,
		Allocation: promotion.AllocationEach,
		Value:      decimal.NewFromInt(10),
	}, nil)
	require.NoError(t, err)
	promo.CampaignID = &campaign.ID
	require.NoError(t, promo.SetStatus(promotion.StatusActive))
	require.NoError(t, promotions.Create(ctx, promo))

	t.Run("codes match in any case and load the campaign", func(t *testing.T) {
		found, err := promotions.FindByCodes(ctx, []string{"Spring10"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		require.NotNil(t, found[0].Campaign)
		assert.Equal(t, "SPRING-24", found[0].Campaign.Identifier)

		ok, err := promotions.ExistsByCode(ctx, "SPRING10", nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("list attaches campaigns", func(t *testing.T) {
		list, total, err := promotions.List(ctx, shared.ListQuery{Filters: map[string]any{"status": "active"}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.NotNil(t, list[0].Campaign)
	})

	t.Run("budget usage is guarded", func(t *testing.T) {
		require.NoError(t, campaigns.AdjustBudgetUsage(ctx, campaign.ID, decimal.NewFromInt(8)))
		err := campaigns.AdjustBudgetUsage(ctx, campaign.ID, decimal.NewFromInt(3))
		assert.True(t, errors.Is(err, promotion.ErrBudgetExceeded))

		require.NoError(t, campaigns.AdjustBudgetUsage(ctx, campaign.ID, decimal.NewFromInt(-20)))
		got, err := campaigns.FindByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.True(t, got.Budget.Used.IsZero())

		err = campaigns.AdjustBudgetUsage(ctx, uuid.New(), decimal.NewFromInt(1))
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("campaign update leaves usage alone", func(t *testing.T) {
		require.NoError(t, campaigns.AdjustBudgetUsage(ctx, campaign.ID, decimal.NewFromInt(4)))
		campaign.Name = "Spring sale"
		require.NoError(t, campaigns.Update(ctx, campaign))
		got, err := campaigns.FindByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, "Spring sale", got.Name)
		assert.True(t, got.Budget.Used.Equal(decimal.NewFromInt(4)))
	})
}

func TestGormCartRepository(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormCartRepository(db)

	c := newCartWithItem(t)
	require.NoError(t, repo.Create(ctx, c))

	t.Run("round trip", func(t *testing.T) {
		got, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "EUR", got.CurrencyCode)
		require.Len(t, got.Items, 1)
		assert.Equal(t, 2, got.Items[0].Quantity)
		require.Len(t, got.ShippingMethods, 1)
		assert.True(t, got.Totals().Total.Equal(decimal.NewFromInt(25)))
	})

	t.Run("stale save conflicts", func(t *testing.T) {
		first, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)

		require.NoError(t, first.UpdateLineItemQuantity(first.Items[0].ID, 3))
		require.NoError(t, repo.Save(ctx, first))
		assert.Equal(t, second.Version+1, first.Version)

		require.NoError(t, second.RemoveLineItem(second.Items[0].ID))
		err = repo.Save(ctx, second)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))

		got, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, 3, got.Items[0].Quantity)
	})

	t.Run("abandoned carts are removed", func(t *testing.T) {
		n, err := repo.DeleteAbandoned(ctx, time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = repo.DeleteAbandoned(ctx, time.Now().Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		_, err = repo.FindByID(ctx, c.ID)
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestGormOrderRepository(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormOrderRepository(db)
	returns := NewGormReturnRepository(db)

	c := newCartWithItem(t)
	first, err := order.NewFromCart(c)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, int64(1), first.DisplayID)

	second, err := order.NewFromCart(newCartWithItem(t))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, int64(2), second.DisplayID)

	t.Run("one order per cart", func(t *testing.T) {
		dup, err := order.NewFromCart(c)
		require.NoError(t, err)
		var verr *shared.ValidationError
		require.ErrorAs(t, repo.Create(ctx, dup), &verr)
		assert.Equal(t, shared.IssueNotUnique, verr.Kind())

		got, err := repo.FindByCartID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
	})

	t.Run("save persists fulfillment progress", func(t *testing.T) {
		got, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		items := []fulfillment.Item{{LineItemID: got.Items[0].ID, Quantity: 2}}
		require.NoError(t, got.RegisterFulfillment(items))
		got.RegisterShipment(items)
		require.NoError(t, repo.Save(ctx, got))

		reloaded, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, reloaded.Items[0].ShippedQuantity)
		assert.Equal(t, got.FulfillmentStatus, reloaded.FulfillmentStatus)
	})

	t.Run("returns by order", func(t *testing.T) {
		got, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		ret, err := order.NewReturn(got, []order.ReturnItem{{LineItemID: got.Items[0].ID, Quantity: 1}}, nil)
		require.NoError(t, err)
		require.NoError(t, returns.Create(ctx, ret))
		require.NoError(t, ret.Receive(time.Now()))
		require.NoError(t, returns.Update(ctx, ret))

		list, err := returns.FindByOrder(ctx, first.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, order.ReturnReceived, list[0].Status)
		assert.Equal(t, 1, list[0].Items[0].Quantity)
	})

	t.Run("list filters and sorts", func(t *testing.T) {
		list, total, err := repo.List(ctx, shared.ListQuery{Order: "-display_id"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, second.ID, list[0].ID)

		_, _, err = repo.List(ctx, shared.ListQuery{Order: "password"})
		require.Error(t, err)
	})
}

func TestGormPaymentRepository(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()
	repo := NewGormPaymentRepository(db)

	orderID := uuid.New()
	col, err := payment.NewCollection("eur", decimal.NewFromInt(25))
	require.NoError(t, err)
	col.OrderID = &orderID
	require.NoError(t, repo.Create(ctx, col))

	p, err := col.AddAuthorizedPayment("manual", decimal.NewFromInt(25), nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, col))

	_, err = col.Capture(p.ID, nil, "admin", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, col))

	got, err := repo.FindByPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, col.ID, got.ID)
	require.Len(t, got.Payments, 1)
	assert.Equal(t, payment.StatusCaptured, got.Payments[0].Status)
	assert.Len(t, got.Payments[0].Captures, 1)

	byOrder, err := repo.FindByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, col.ID, byOrder.ID)

	payments, total, err := repo.ListPayments(ctx, shared.ListQuery{Filters: map[string]any{"order_id": orderID}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, p.ID, payments[0].ID)
}
