package promotion

import (
	"testing"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func activePromotion(t *testing.T, code string, method ApplicationMethod, rules ...Rule) *Promotion {
	t.Helper()
	p, err := NewPromotion(code, false, method, rules)
	require.NoError(t, err)
	require.NoError(t, p.SetStatus(StatusActive))
	return p
}

func testCart() CartContext {
	return CartContext{
		CurrencyCode: "USD",
		Items: []CartItem{
			{ID: uuid.New(), ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 2, UnitPrice: dec("30"), Discountable: true},
			{ID: uuid.New(), ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 1, UnitPrice: dec("10"), Discountable: true},
			{ID: uuid.New(), ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 1, UnitPrice: dec("100"), Discountable: false},
		},
		ShippingMethods: []CartShipping{{ID: uuid.New(), ShippingOptionID: uuid.New(), Amount: dec("8")}},
	}
}

func TestNewPromotion_Validation(t *testing.T) {
	_, err := NewPromotion("", false, ApplicationMethod{Type: "bogus", TargetType: TargetItems, Allocation: AllocationEach}, nil)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Issues), 3)

	p, err := NewPromotion("save10", false, ApplicationMethod{Type: MethodPercentage, TargetType: TargetOrder, Value: dec("10")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", p.Code)
	assert.Equal(t, AllocationAcross, p.Method.Allocation)
	assert.False(t, p.IsActiveAt(time.Now()))
}

func TestComputeActions_PercentageEach(t *testing.T) {
	cart := testCart()
	p := activePromotion(t, "TEN", ApplicationMethod{Type: MethodPercentage, TargetType: TargetItems, Allocation: AllocationEach, Value: dec("10")})

	adjs := ComputeActions([]*Promotion{p}, cart)
	require.Len(t, adjs, 2)
	assert.Equal(t, cart.Items[0].ID, adjs[0].ItemID)
	assert.Equal(t, "6", adjs[0].Amount.String())
	assert.Equal(t, "1", adjs[1].Amount.String())
	assert.Equal(t, "TEN", adjs[0].Code)
}

func TestComputeActions_FixedEachRespectsMaxQuantityAndTargets(t *testing.T) {
	cart := testCart()
	maxQty := 1
	p := activePromotion(t, "FIVE", ApplicationMethod{
		Type: MethodFixed, TargetType: TargetItems, Allocation: AllocationEach, Value: dec("5"), CurrencyCode: "usd", MaxQuantity: &maxQty,
		TargetRules: []Rule{{Attribute: "product_id", Operator: OpIn, Values: []string{cart.Items[0].ProductID.String()}}},
	})

	adjs := ComputeActions([]*Promotion{p}, cart)
	require.Len(t, adjs, 1)
	assert.Equal(t, "5", adjs[0].Amount.String())
}

func TestComputeActions_FixedAcrossAllocatesProRata(t *testing.T) {
	cart := testCart()
	p := activePromotion(t, "TWENTY", ApplicationMethod{Type: MethodFixed, TargetType: TargetOrder, Value: dec("20"), CurrencyCode: "USD"})

	adjs := ComputeActions([]*Promotion{p}, cart)
	require.Len(t, adjs, 2)
	assert.Equal(t, "17.14", adjs[0].Amount.String())
	assert.Equal(t, "2.86", adjs[1].Amount.String())
}

func TestComputeActions_AcrossRoundingStaysWithinValue(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		prices []string
	}{
		{"remainder on a tiny line", "14.99", []string{"10", "10", "10", "0.01"}},
		{"value spread over cent lines", "0.02", []string{"0.01", "0.01", "0.01", "0.01", "0.01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := CartContext{CurrencyCode: "USD"}
			for _, price := range tt.prices {
				cart.Items = append(cart.Items, CartItem{ID: uuid.New(), ProductID: uuid.New(), VariantID: uuid.New(), Quantity: 1, UnitPrice: dec(price), Discountable: true})
			}
			p := activePromotion(t, "ROUND", ApplicationMethod{Type: MethodFixed, TargetType: TargetItems, Allocation: AllocationAcross, Value: dec(tt.value), CurrencyCode: "USD"})

			adjs := ComputeActions([]*Promotion{p}, cart)
			subtotals := map[uuid.UUID]decimal.Decimal{}
			for _, it := range cart.Items {
				subtotals[it.ID] = it.UnitPrice
			}
			total := decimal.Zero
			for _, a := range adjs {
				assert.True(t, a.Amount.IsPositive())
				assert.True(t, a.Amount.LessThanOrEqual(subtotals[a.ItemID]), "adjustment %s exceeds line %s", a.Amount, subtotals[a.ItemID])
				total = total.Add(a.Amount)
			}
			assert.True(t, total.Equal(dec(tt.value)), "adjustments total %s", total)
		})
	}
}

func TestComputeActions_NeverExceedsRemaining(t *testing.T) {
	cart := testCart()
	big := activePromotion(t, "BIG", ApplicationMethod{Type: MethodFixed, TargetType: TargetItems, Allocation: AllocationEach, Value: dec("50"), CurrencyCode: "USD"})
	more := activePromotion(t, "MORE", ApplicationMethod{Type: MethodPercentage, TargetType: TargetItems, Allocation: AllocationEach, Value: dec("50")})

	adjs := ComputeActions([]*Promotion{big, more}, cart)
	perItem := map[uuid.UUID]decimal.Decimal{}
	for _, a := range adjs {
		perItem[a.ItemID] = perItem[a.ItemID].Add(a.Amount)
	}
	assert.True(t, perItem[cart.Items[0].ID].LessThanOrEqual(dec("60")))
	assert.True(t, perItem[cart.Items[1].ID].Equal(dec("10")))
}

func TestComputeActions_Shipping(t *testing.T) {
	cart := testCart()
	p := activePromotion(t, "FREESHIP", ApplicationMethod{Type: MethodPercentage, TargetType: TargetShippingMethods, Allocation: AllocationEach, Value: dec("100")})

	adjs := ComputeActions([]*Promotion{p}, cart)
	require.Len(t, adjs, 1)
	assert.True(t, adjs[0].IsShipping)
	assert.Equal(t, "8", adjs[0].Amount.String())
}

func TestComputeActions_RulesAndCurrency(t *testing.T) {
	cart := testCart()
	group := uuid.New()

	grouped := activePromotion(t, "VIP", ApplicationMethod{Type: MethodPercentage, TargetType: TargetItems, Allocation: AllocationEach, Value: dec("10")},
		Rule{Attribute: "customer_group_id", Operator: OpIn, Values: []string{group.String()}})
	assert.Empty(t, ComputeActions([]*Promotion{grouped}, cart))

	cart.CustomerGroupIDs = []uuid.UUID{group}
	assert.NotEmpty(t, ComputeActions([]*Promotion{grouped}, cart))

	minTotal := activePromotion(t, "MIN100", ApplicationMethod{Type: MethodPercentage, TargetType: TargetItems, Allocation: AllocationEach, Value: dec("10")},
		Rule{Attribute: "item_total", Operator: OpGte, Values: []string{"500"}})
	assert.Empty(t, ComputeActions([]*Promotion{minTotal}, cart))

	eur := activePromotion(t, "EUR5", ApplicationMethod{Type: MethodFixed, TargetType: TargetItems, Allocation: AllocationEach, Value: dec("5"), CurrencyCode: "EUR"})
	assert.Empty(t, ComputeActions([]*Promotion{eur}, cart))
}

func TestComputeActions_CampaignWindowAndBudget(t *testing.T) {
	cart := testCart()
	limit := dec("5")
	campaign, err := NewCampaign("Spring", "spring", "", nil, nil, &Budget{Type: BudgetSpend, Limit: &limit, CurrencyCode: "USD"})
	require.NoError(t, err)

	p := activePromotion(t, "TEN", ApplicationMethod{Type: MethodPercentage, TargetType: TargetItems, Allocation: AllocationEach, Value: dec("10")})
	p.CampaignID = &campaign.ID
	p.Campaign = campaign

	assert.Empty(t, ComputeActions([]*Promotion{p}, cart), "discount of 7 exceeds spend budget of 5")

	bigger := dec("100")
	require.NoError(t, campaign.SetBudget(&Budget{Type: BudgetSpend, Limit: &bigger, CurrencyCode: "USD"}))
	adjs := ComputeActions([]*Promotion{p}, cart)
	require.NotEmpty(t, adjs)
	assert.Equal(t, campaign.ID, *adjs[0].CampaignID)

	future := time.Now().Add(time.Hour)
	require.NoError(t, campaign.Update("Spring", "spring", "", &future, nil))
	assert.Empty(t, ComputeActions([]*Promotion{p}, cart))
}

func TestBudget_Use(t *testing.T) {
	limit := dec("2")
	b := &Budget{Type: BudgetUsage, Limit: &limit}
	require.NoError(t, b.Use(dec("1")))
	require.NoError(t, b.Use(dec("1")))
	assert.ErrorIs(t, b.Use(dec("1")), ErrBudgetExceeded)
	require.NoError(t, b.Use(dec("-1")))
	assert.Equal(t, "1", b.Used.String())

	var unlimited *Budget
	assert.Nil(t, unlimited.Remaining())
}
