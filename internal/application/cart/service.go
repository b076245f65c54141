// Package cart manages shopping carts: items, shipping, promotions and taxes.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/commerce/backend/internal/domain/cart"
	"github.com/commerce/backend/internal/domain/catalog"
	"github.com/commerce/backend/internal/domain/customer"
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
	"go.uber.org/zap"
)

// Pricer resolves variant prices
type Pricer interface {
	CalculatePrices(ctx context.Context, variantIDs []uuid.UUID, pc pricing.Context) (map[uuid.UUID]pricing.CalculatedPrice, error)
}

// PromotionEngine validates codes and computes cart adjustments
type PromotionEngine interface {
	ValidateCodes(ctx context.Context, codes []string) ([]string, error)
	ComputeActions(ctx context.Context, codes []string, cart promotion.CartContext) ([]promotion.Adjustment, error)
}

// TaxCalculator computes tax lines for an address
type TaxCalculator interface {
	CalculateTaxLines(ctx context.Context, items []tax.Item, shipping []tax.ShippingItem, address valueobject.Address, currencyCode string) ([]tax.Line, error)
}

// ShippingOptions lists and resolves the options a cart may select
type ShippingOptions interface {
	ListCartOptions(ctx context.Context, regionID uuid.UUID, subtotal decimal.Decimal) ([]*fulfillment.ShippingOption, error)
	ResolveCartOption(ctx context.Context, optionID, regionID uuid.UUID, subtotal decimal.Decimal) (*fulfillment.ShippingOption, error)
}

// StoreDefaults provides the store's default region and sales channel
type StoreDefaults interface {
	DefaultRegion(ctx context.Context) (*uuid.UUID, error)
	DefaultSalesChannel(ctx context.Context) (*uuid.UUID, error)
	EnsureChannelEnabled(ctx context.Context, id uuid.UUID) error
}

// Availability confirms stock for managed variants
type Availability interface {
	ConfirmAvailability(ctx context.Context, itemID uuid.UUID, locationIDs []uuid.UUID, quantity int) (bool, error)
	LocationIDsForChannel(ctx context.Context, salesChannelID *uuid.UUID) ([]uuid.UUID, error)
}

// ErrVariantUnavailable is returned when a managed variant lacks the requested stock
var ErrVariantUnavailable = shared.NewDomainError("INSUFFICIENT_INVENTORY", "Variant does not have the required inventory")

// ServiceConfig holds the dependencies of the cart service
type ServiceConfig struct {
	Carts          cart.Repository
	Regions        region.Repository
	Products       catalog.ProductRepository
	Variants       catalog.VariantRepository
	InventoryItems inventory.ItemRepository
	Customers      customer.Repository
	Store          StoreDefaults
	Pricing        Pricer
	Promotions     PromotionEngine
	Taxes          TaxCalculator
	Shipping       ShippingOptions
	// Availability is optional; without it stock is not checked when items are added
	Availability Availability
	Logger       *zap.Logger
}

// Service handles cart operations. Every mutation recomputes prices,
// promotion adjustments and taxes before the cart is saved.
type Service struct {
	carts          cart.Repository
	regions        region.Repository
	products       catalog.ProductRepository
	variants       catalog.VariantRepository
	inventoryItems inventory.ItemRepository
	customers      customer.Repository
	store          StoreDefaults
	pricing        Pricer
	promotions     PromotionEngine
	taxes          TaxCalculator
	shipping       ShippingOptions
	availability   Availability
	logger         *zap.Logger
	now            func() time.Time
}

// NewService creates a new cart Service
func NewService(config ServiceConfig) *Service {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		carts:          config.Carts,
		regions:        config.Regions,
		products:       config.Products,
		variants:       config.Variants,
		inventoryItems: config.InventoryItems,
		customers:      config.Customers,
		store:          config.Store,
		pricing:        config.Pricing,
		promotions:     config.Promotions,
		taxes:          config.Taxes,
		shipping:       config.Shipping,
		availability:   config.Availability,
		logger:         logger,
		now:            time.Now,
	}
}

// Create creates a cart. The region and sales channel default to the store's.
func (s *Service) Create(ctx context.Context, req CreateCartRequest) (*CartResponse, error) {
	regionID := req.RegionID
	if regionID == nil {
		def, err := s.store.DefaultRegion(ctx)
		if err != nil {
			return nil, err
		}
		if def == nil {
			return nil, shared.NewInvalidDataError("region_id", "region_id is required when the store has no default region")
		}
		regionID = def
	}
	reg, err := s.loadRegion(ctx, *regionID)
	if err != nil {
		return nil, err
	}

	channelID := req.SalesChannelID
	if channelID == nil {
		if channelID, err = s.store.DefaultSalesChannel(ctx); err != nil {
			return nil, err
		}
	}
	if channelID != nil {
		if err := s.store.EnsureChannelEnabled(ctx, *channelID); err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.NewInvalidDataError("sales_channel_id", "sales channel "+channelID.String()+" does not exist")
			}
			return nil, err
		}
	}

	c, err := cart.NewCart(reg.ID, reg.CurrencyCode)
	if err != nil {
		return nil, err
	}
	c.SalesChannelID = channelID
	c.Metadata = req.Metadata
	if err := c.SetEmail(req.Email); err != nil {
		return nil, err
	}
	if err := s.setAddresses(c, reg, req.ShippingAddress, req.BillingAddress); err != nil {
		return nil, err
	}
	for i, item := range req.Items {
		if err := s.addItem(ctx, c, item, "items."+strconv.Itoa(i)+"."); err != nil {
			return nil, err
		}
	}
	if len(req.PromoCodes) > 0 {
		codes, err := s.promotions.ValidateCodes(ctx, req.PromoCodes)
		if err != nil {
			return nil, err
		}
		if err := c.AddPromoCodes(codes...); err != nil {
			return nil, err
		}
	}
	if err := s.refresh(ctx, c, reg, false); err != nil {
		return nil, err
	}
	if err := s.carts.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Debug("Cart created", zap.String("cart_id", c.ID.String()), zap.String("region_id", reg.ID.String()))
	resp := ToCartResponse(c)
	return &resp, nil
}

// Retrieve returns a cart
func (s *Service) Retrieve(ctx context.Context, id uuid.UUID) (*CartResponse, error) {
	c, err := s.carts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCartResponse(c)
	return &resp, nil
}

// List lists carts
func (s *Service) List(ctx context.Context, q shared.ListQuery) (shared.ListResult[CartResponse], error) {
	q = q.Normalize()
	rows, total, err := s.carts.List(ctx, q)
	if err != nil {
		return shared.ListResult[CartResponse]{}, err
	}
	items := make([]CartResponse, len(rows))
	for i, c := range rows {
		items[i] = ToCartResponse(c)
	}
	return shared.NewListResult(items, total, q), nil
}

// Update changes the email, addresses or region of a cart. Moving the cart to
// another region re-prices its items and drops the shipping method.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateCartRequest) (*CartResponse, error) {
	return s.mutate(ctx, id, func(c *cart.Cart, reg *region.Region) (*region.Region, error) {
		if req.RegionID != nil && *req.RegionID != c.RegionID {
			next, err := s.loadRegion(ctx, *req.RegionID)
			if err != nil {
				return nil, err
			}
			if err := c.SetRegion(next.ID, next.CurrencyCode); err != nil {
				return nil, err
			}
			if c.ShippingAddress != nil && !next.HasCountry(c.ShippingAddress.CountryCode) {
				c.ClearShippingAddress()
			}
			reg = next
		}
		if req.Email != nil {
			if err := c.SetEmail(*req.Email); err != nil {
				return nil, err
			}
		}
		if err := s.setAddresses(c, reg, req.ShippingAddress, req.BillingAddress); err != nil {
			return nil, err
		}
		if req.Metadata != nil {
			c.Metadata = req.Metadata
		}
		return reg, nil
	})
}

// AddLineItem adds a variant to the cart. A line for the same variant absorbs the quantity.
func (s *Service) AddLineItem(ctx context.Context, id uuid.UUID, req LineItemRequest) (*CartResponse, error) {
	return s.mutate(ctx, id, func(c *cart.Cart, reg *region.Region) (*region.Region, error) {
		return reg, s.addItem(ctx, c, req, "")
	})
}

// UpdateLineItem sets the quantity of a line. A zero quantity removes it.
func (s *Service) UpdateLineItem(ctx context.Context, id, lineID uuid.UUID, req UpdateLineItemRequest) (*CartResponse, error) {
	return s.mutate(ctx, id, func(c *cart.Cart, reg *region.Region) (*region.Region, error) {
		if req.Quantity > 0 {
			li, err := c.LineItem(lineID)
			if err != nil {
				return nil, err
			}
			if err := s.checkAvailability(ctx, c, li, req.Quantity); err != nil {
				return nil, err
			}
		}
		return reg, c.UpdateLineItemQuantity(lineID, req.Quantity)
	})
}

// RemoveLineItem deletes a line
func (s *Service) RemoveLineItem(ctx context.Context, id, lineID uuid.UUID) (*CartResponse, error) {
	return s.mutate(ctx, id, func(c *cart.Cart, reg *region.Region) (*region.Region, error) {
		return reg, c.RemoveLineItem(lineID)
	})
}

// AddShippingMethod selects a shipping option, replacing any previous choice
func (s *Service) AddShippingMethod(ctx context.Context, id uuid.UUID, req ShippingMethodRequest) (*CartResponse, error) {
	return s.mutate(ctx, id, func(c *cart.Cart, reg *region.Region) (*region.Region, error) {
		so, err := s.shipping.ResolveCartOption(ctx, req.OptionID, c.RegionID, c.Totals().ItemSubtotal)
		if err != nil {
			return nil, err
		}
		return reg, c.SetShippingMethod(cart.ShippingMethod{
			ShippingOptionID: so.ID,
			Name:             so.Name,
			Amount:           so.Amount,
			Data:             req.Data,
		})
	})
}

// ListShippingOptions returns the options the cart may select
func (s *Service) ListShippingOptions(ctx context.Context, id uuid.UUID) ([]ShippingOptionResponse, error) {
	c, err := s.carts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	options, err := s.shipping.ListCartOptions(ctx, c.RegionID, c.Totals().ItemSubtotal)
	if err != nil {
		return nil, err
	}
	out := make([]ShippingOptionResponse, len(options))
	for i, so := range options {
		out[i] = toShippingOptionResponse(so)
	}
	return out, nil
}

// ApplyPromotions adds promotion codes. Unknown or inactive codes are rejected.
func (s *Service) ApplyPromotions(ctx context.Context, id uuid.UUID, req PromotionsRequest) (*CartResponse, error) {
	return s.mutate(ctx, id, func(c *cart.Cart, reg *region.Region) (*region.Region, error) {
		codes, err := s.promotions.ValidateCodes(ctx, req.PromoCodes)
		if err != nil {
			return nil, err
		}
		return reg, c.AddPromoCodes(codes...)
	})
}

// RemovePromotions removes promotion codes
func (s *Service) RemovePromotions(ctx context.Context, id uuid.UUID, req PromotionsRequest) (*CartResponse, error) {
	return s.mutate(ctx, id, func(c *cart.Cart, reg *region.Region) (*region.Region, error) {
		return reg, c.RemovePromoCodes(req.PromoCodes...)
	})
}

// Refresh recomputes prices, promotions and taxes
func (s *Service) Refresh(ctx context.Context, id uuid.UUID) (*CartResponse, error) {
	c, err := s.RefreshCart(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCartResponse(c)
	return &resp, nil
}

// RefreshCart recomputes and saves the cart, returning the aggregate. Taxes
// are calculated even in regions without automatic taxes.
func (s *Service) RefreshCart(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	c, err := s.carts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.EnsureMutable(); err != nil {
		return nil, err
	}
	reg, err := s.regions.FindByID(ctx, c.RegionID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, c, reg, true); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteAbandoned removes incomplete carts not updated within maxAge
func (s *Service) DeleteAbandoned(ctx context.Context, maxAge time.Duration) (int64, error) {
	before := s.now().Add(-maxAge)
	n, err := s.carts.DeleteAbandoned(ctx, before)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Deleted abandoned carts", zap.Int64("count", n), zap.Time("before", before))
	}
	return n, nil
}

// mutate loads a mutable cart, applies fn, recomputes it and saves it.
// fn returns the region the cart belongs to afterwards.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*cart.Cart, *region.Region) (*region.Region, error)) (*CartResponse, error) {
	c, err := s.carts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.EnsureMutable(); err != nil {
		return nil, err
	}
	reg, err := s.regions.FindByID(ctx, c.RegionID)
	if err != nil {
		return nil, err
	}
	if reg, err = fn(c, reg); err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, c, reg, false); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCartResponse(c)
	return &resp, nil
}

func (s *Service) loadRegion(ctx context.Context, id uuid.UUID) (*region.Region, error) {
	reg, err := s.regions.FindByID(ctx, id)
	if shared.IsNotFound(err) {
		return nil, shared.NewInvalidDataError("region_id", "region "+id.String()+" does not exist")
	}
	return reg, err
}

// setAddresses applies addresses. The shipping country must belong to the region.
func (s *Service) setAddresses(c *cart.Cart, reg *region.Region, shipping, billing *valueobject.Address) error {
	if shipping != nil {
		country := shipping.Normalize().CountryCode
		if country != "" && !reg.HasCountry(country) {
			return shared.NewInvalidDataError("shipping_address.country_code",
				fmt.Sprintf("country %s is not in region %s", country, reg.Name))
		}
	}
	if shipping == nil && billing == nil {
		return nil
	}
	return c.SetAddresses(shipping, billing)
}

// addItem builds a line from a published variant and adds it to the cart.
// Prices are assigned by refresh.
func (s *Service) addItem(ctx context.Context, c *cart.Cart, req LineItemRequest, path string) error {
	variant, err := s.variants.FindByID(ctx, req.VariantID)
	if shared.IsNotFound(err) {
		return shared.NewInvalidDataError(path+"variant_id", "variant "+req.VariantID.String()+" does not exist")
	}
	if err != nil {
		return err
	}
	product, err := s.products.FindByID(ctx, variant.ProductID)
	if err != nil {
		return err
	}
	if !product.IsPublished() {
		return shared.NewInvalidDataError(path+"variant_id", "product "+product.Title+" is not published")
	}
	if c.SalesChannelID != nil && !product.AvailableIn(*c.SalesChannelID) {
		return shared.NewInvalidDataError(path+"variant_id", "product "+product.Title+" is not sold in this sales channel")
	}

	requiresShipping := true
	if variant.InventoryItemID != nil {
		item, err := s.inventoryItems.FindByID(ctx, *variant.InventoryItemID)
		if err != nil && !shared.IsNotFound(err) {
			return err
		}
		if item != nil {
			requiresShipping = item.RequiresShipping
		}
	}

	variantID, productID := variant.ID, product.ID
	line := cart.LineItem{
		VariantID:        &variantID,
		ProductID:        &productID,
		ProductTypeID:    product.TypeID,
		InventoryItemID:  variant.InventoryItemID,
		Title:            product.Title,
		Subtitle:         variant.Title,
		Thumbnail:        product.Thumbnail,
		SKU:              variant.SKU,
		Quantity:         req.Quantity,
		IsDiscountable:   product.Discountable,
		RequiresShipping: requiresShipping,
		ManageInventory:  variant.ManageInventory,
		AllowBackorder:   variant.AllowBackorder,
		CreatedAt:        s.now(),
	}
	quantity := req.Quantity
	for _, existing := range c.Items {
		if existing.VariantID != nil && *existing.VariantID == variantID {
			quantity += existing.Quantity
		}
	}
	if err := s.checkAvailability(ctx, c, &line, quantity); err != nil {
		return err
	}
	_, err = c.AddLineItem(line)
	return err
}

func (s *Service) checkAvailability(ctx context.Context, c *cart.Cart, li *cart.LineItem, quantity int) error {
	if s.availability == nil || !li.ManageInventory || li.AllowBackorder || li.InventoryItemID == nil {
		return nil
	}
	locations, err := s.availability.LocationIDsForChannel(ctx, c.SalesChannelID)
	if err != nil {
		return err
	}
	ok, err := s.availability.ConfirmAvailability(ctx, *li.InventoryItemID, locations, quantity)
	if err != nil {
		return err
	}
	if !ok {
		return ErrVariantUnavailable
	}
	return nil
}

// refresh recomputes prices, drops shipping methods that no longer apply,
// re-evaluates promotions and recalculates taxes. Taxes are only computed
// when the region has automatic taxes or forceTaxes is set.
func (s *Service) refresh(ctx context.Context, c *cart.Cart, reg *region.Region, forceTaxes bool) error {
	groupIDs, err := s.customerGroups(ctx, c)
	if err != nil {
		return err
	}
	if err := s.priceItems(ctx, c, groupIDs); err != nil {
		return err
	}
	if err := s.pruneShippingMethods(ctx, c); err != nil {
		return err
	}

	adjustments, err := s.promotions.ComputeActions(ctx, c.PromoCodes, c.PromotionContext(groupIDs, s.now()))
	if err != nil {
		return err
	}
	c.ApplyAdjustments(adjustments)

	var lines []tax.Line
	if (reg.AutomaticTaxes || forceTaxes) && c.ShippingAddress != nil {
		items, shipping := c.TaxInput()
		if lines, err = s.taxes.CalculateTaxLines(ctx, items, shipping, *c.ShippingAddress, c.CurrencyCode); err != nil {
			return err
		}
	}
	c.ApplyTaxLines(lines)
	return nil
}

func (s *Service) customerGroups(ctx context.Context, c *cart.Cart) ([]uuid.UUID, error) {
	if c.CustomerID == nil || s.customers == nil {
		return nil, nil
	}
	cust, err := s.customers.FindByID(ctx, *c.CustomerID)
	if shared.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cust.GroupIDs, nil
}

// priceItems assigns the current price to every variant line. Lines are
// priced per quantity so that quantity tiers apply.
func (s *Service) priceItems(ctx context.Context, c *cart.Cart, groupIDs []uuid.UUID) error {
	byQuantity := make(map[int][]uuid.UUID)
	for _, li := range c.Items {
		if li.VariantID != nil {
			byQuantity[li.Quantity] = append(byQuantity[li.Quantity], *li.VariantID)
		}
	}
	for quantity, variantIDs := range byQuantity {
		prices, err := s.pricing.CalculatePrices(ctx, variantIDs, pricing.Context{
			CurrencyCode:     c.CurrencyCode,
			RegionID:         &c.RegionID,
			Quantity:         quantity,
			CustomerGroupIDs: groupIDs,
			At:               s.now(),
		})
		if shared.IsNotFound(err) {
			return shared.NewInvalidDataError("items", "a variant in the cart has no price in "+c.CurrencyCode)
		}
		if err != nil {
			return err
		}
		for i := range c.Items {
			li := &c.Items[i]
			if li.VariantID == nil || li.Quantity != quantity {
				continue
			}
			if price, ok := prices[*li.VariantID]; ok {
				li.UnitPrice = price.CalculatedAmount
				li.OriginalPrice = price.OriginalAmount
			}
		}
	}
	return nil
}

func (s *Service) pruneShippingMethods(ctx context.Context, c *cart.Cart) error {
	if len(c.ShippingMethods) == 0 {
		return nil
	}
	subtotal := c.Totals().ItemSubtotal
	for _, sm := range append([]cart.ShippingMethod(nil), c.ShippingMethods...) {
		_, err := s.shipping.ResolveCartOption(ctx, sm.ShippingOptionID, c.RegionID, subtotal)
		if err == nil {
			continue
		}
		var verr *shared.ValidationError
		if !errors.Is(err, fulfillment.ErrOptionUnavailable) && !errors.As(err, &verr) {
			return err
		}
		s.logger.Debug("Dropping shipping method",
			zap.String("cart_id", c.ID.String()),
			zap.String("shipping_option_id", sm.ShippingOptionID.String()))
		if err := c.RemoveShippingMethod(sm.ID); err != nil {
			return err
		}
	}
	return nil
}
