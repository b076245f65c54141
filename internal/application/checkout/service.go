// Package checkout turns a cart into an order. Completion runs as a sequence
// of steps; when a step fails, the steps before it are undone in reverse order.
package checkout

import (
	"context"
	"time"

	cartapp "github.com/commerce/backend/internal/application/cart"
	inventoryapp "github.com/commerce/backend/internal/application/inventory"
	orderapp "github.com/commerce/backend/internal/application/order"
	paymentapp "github.com/commerce/backend/internal/application/payment"
	"github.com/commerce/backend/internal/domain/cart"
	"github.com/commerce/backend/internal/domain/order"
	"github.com/commerce/backend/internal/domain/payment"
	"github.com/commerce/backend/internal/domain/promotion"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Failure stages reported to metrics
const (
	StageValidate  = "validate"
	StageInventory = "inventory"
	StagePromotion = "promotion"
	StagePayment   = "payment"
	StageOrder     = "order"
	StageCart      = "cart"
)

const (
	claimTTL  = 2 * time.Minute
	resultTTL = 24 * time.Hour
)

// ErrCheckoutInProgress is returned while another request completes the same cart with the same key
var ErrCheckoutInProgress = shared.NewDomainError("CHECKOUT_IN_PROGRESS", "Cart completion is already in progress")

// Carts refreshes a cart right before completion
type Carts interface {
	RefreshCart(ctx context.Context, id uuid.UUID) (*cart.Cart, error)
}

// Inventory reserves stock for the order's line items
type Inventory interface {
	LocationIDsForChannel(ctx context.Context, salesChannelID *uuid.UUID) ([]uuid.UUID, error)
	CreateReservations(ctx context.Context, reqs []inventoryapp.ReservationRequest) ([]inventoryapp.ReservationResponse, error)
	DeleteReservationsByLineItem(ctx context.Context, lineItemIDs ...uuid.UUID) error
}

// Promotions charges campaign budgets
type Promotions interface {
	RegisterUsage(ctx context.Context, adjustments []promotion.Adjustment) error
	RevertUsage(ctx context.Context, adjustments []promotion.Adjustment) error
}

// Payments authorizes the order total
type Payments interface {
	CreateCollection(ctx context.Context, cartID *uuid.UUID, currencyCode string, amount decimal.Decimal) (*payment.Collection, error)
	Authorize(ctx context.Context, collectionID uuid.UUID, req paymentapp.AuthorizeRequest) (*payment.Payment, error)
	AttachOrder(ctx context.Context, collectionID, orderID uuid.UUID) error
	CancelCollection(ctx context.Context, collectionID uuid.UUID) error
}

// Metrics counts checkout outcomes
type Metrics interface {
	OrderPlaced(currency string)
	CheckoutFailed(stage string)
}

// CompleteCartRequest selects the payment provider for the authorization
type CompleteCartRequest struct {
	ProviderID string         `json:"provider_id" binding:"max=50"`
	Data       map[string]any `json:"data"`
}

// ServiceConfig holds the dependencies of the checkout service
type ServiceConfig struct {
	CartService Carts
	Carts       cart.Repository
	Orders      order.Repository
	Inventory   Inventory
	Promotions  Promotions
	Payments    Payments
	Idempotency shared.IdempotencyStore
	Events      shared.EventPublisher
	Metrics     Metrics
	Logger      *zap.Logger

	// ReservationTTL bounds how long checkout reservations hold stock. Zero keeps them until released.
	ReservationTTL time.Duration
}

// Service completes carts
type Service struct {
	cartService Carts
	carts       cart.Repository
	orders      order.Repository
	inventory   Inventory
	promotions  Promotions
	payments    Payments
	idempotency shared.IdempotencyStore
	events      shared.EventPublisher
	metrics     Metrics
	logger      *zap.Logger
	now         func() time.Time

	reservationTTL time.Duration
}

// NewService creates a new checkout Service
func NewService(config ServiceConfig) *Service {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cartService: config.CartService,
		carts:       config.Carts,
		orders:      config.Orders,
		inventory:   config.Inventory,
		promotions:  config.Promotions,
		payments:    config.Payments,
		idempotency: config.Idempotency,
		events:      config.Events,
		metrics:     config.Metrics,
		logger:      logger,
		now:         time.Now,

		reservationTTL: config.ReservationTTL,
	}
}

// CompleteCart places an order from a cart. Calls repeated with the same
// idempotency key return the order of the first successful call, and a cart
// that is already completed returns the order it produced.
func (s *Service) CompleteCart(ctx context.Context, cartID uuid.UUID, req CompleteCartRequest, idempotencyKey string) (resp *orderapp.OrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "complete_cart",
		attribute.String("cart.id", cartID.String()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if existing, err := s.orders.FindByCartID(ctx, cartID); err == nil {
		r := orderapp.ToOrderResponse(existing)
		return &r, nil
	} else if !shared.IsNotFound(err) {
		return nil, err
	}

	key := "checkout:" + cartID.String()
	if idempotencyKey != "" {
		key += ":" + idempotencyKey
	}
	if s.idempotency != nil {
		if orderID, ok, err := s.idempotency.Result(ctx, key); err != nil {
			return nil, err
		} else if ok {
			return s.orderResponse(ctx, orderID)
		}
		claimed, err := s.idempotency.Claim(ctx, key, claimTTL)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return nil, ErrCheckoutInProgress
		}
	}

	o, err := s.complete(ctx, cartID, req)
	if s.idempotency != nil {
		if err != nil {
			if rerr := s.idempotency.Release(context.WithoutCancel(ctx), key); rerr != nil {
				s.logger.Warn("failed to release checkout claim", zap.String("key", key), zap.Error(rerr))
			}
		} else if cerr := s.idempotency.Complete(ctx, key, o.ID.String(), resultTTL); cerr != nil {
			s.logger.Warn("failed to record checkout result", zap.String("key", key), zap.Error(cerr))
		}
	}
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", o.ID.String()), attribute.Int64("order.display_id", o.DisplayID))
	r := orderapp.ToOrderResponse(o)
	return &r, nil
}

func (s *Service) orderResponse(ctx context.Context, orderID string) (*orderapp.OrderResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r := orderapp.ToOrderResponse(o)
	return &r, nil
}

// compensation undoes one completed step
type compensation struct {
	stage string
	undo  func(ctx context.Context) error
}

// workflow tracks the compensations of the steps run so far
type workflow struct {
	cartID        uuid.UUID
	compensations []compensation
}

func (w *workflow) onFailure(stage string, undo func(ctx context.Context) error) {
	w.compensations = append(w.compensations, compensation{stage: stage, undo: undo})
}

// rollback runs compensations in reverse. It ignores cancellation of ctx so a
// client disconnect cannot leave stock or budgets held.
func (s *Service) rollback(ctx context.Context, w *workflow) {
	ctx = context.WithoutCancel(ctx)
	for i := len(w.compensations) - 1; i >= 0; i-- {
		c := w.compensations[i]
		if err := c.undo(ctx); err != nil {
			s.logger.Error("checkout compensation failed",
				zap.String("cart_id", w.cartID.String()),
				zap.String("stage", c.stage),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) fail(ctx context.Context, w *workflow, stage string, err error) error {
	s.rollback(ctx, w)
	if s.metrics != nil {
		s.metrics.CheckoutFailed(stage)
	}
	s.logger.Info("Cart completion failed",
		zap.String("cart_id", w.cartID.String()),
		zap.String("stage", stage),
		zap.Error(err),
	)
	return err
}

func (s *Service) complete(ctx context.Context, cartID uuid.UUID, req CompleteCartRequest) (*order.Order, error) {
	w := &workflow{cartID: cartID}

	c, err := s.cartService.RefreshCart(ctx, cartID)
	if err != nil {
		return nil, s.fail(ctx, w, StageValidate, err)
	}
	if err := validate(c); err != nil {
		return nil, s.fail(ctx, w, StageValidate, err)
	}

	if err := s.reserve(ctx, w, c); err != nil {
		return nil, s.fail(ctx, w, StageInventory, err)
	}

	if adjustments := c.Adjustments(); len(adjustments) > 0 {
		if err := s.promotions.RegisterUsage(ctx, adjustments); err != nil {
			return nil, s.fail(ctx, w, StagePromotion, err)
		}
		w.onFailure(StagePromotion, func(ctx context.Context) error {
			return s.promotions.RevertUsage(ctx, adjustments)
		})
	}

	totals := c.Totals()
	coll, err := s.payments.CreateCollection(ctx, &c.ID, c.CurrencyCode, totals.Total)
	if err != nil {
		return nil, s.fail(ctx, w, StagePayment, err)
	}
	w.onFailure(StagePayment, func(ctx context.Context) error {
		return s.payments.CancelCollection(ctx, coll.ID)
	})
	authorized := false
	if totals.Total.IsPositive() {
		if _, err := s.payments.Authorize(ctx, coll.ID, paymentapp.AuthorizeRequest{
			ProviderID: req.ProviderID,
			Email:      c.Email,
			Data:       req.Data,
		}); err != nil {
			return nil, s.fail(ctx, w, StagePayment, err)
		}
		authorized = true
	}

	o, err := order.NewFromCart(c)
	if err != nil {
		return nil, s.fail(ctx, w, StageOrder, err)
	}
	if authorized {
		o.SetPaymentStatus(order.PaymentAuthorized)
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, s.fail(ctx, w, StageOrder, err)
	}
	w.onFailure(StageOrder, func(ctx context.Context) error {
		if err := o.Cancel(s.now()); err != nil {
			return err
		}
		o.ClearDomainEvents()
		return s.orders.Save(ctx, o)
	})
	if err := s.payments.AttachOrder(ctx, coll.ID, o.ID); err != nil {
		return nil, s.fail(ctx, w, StagePayment, err)
	}

	if err := c.Complete(s.now()); err != nil {
		return nil, s.fail(ctx, w, StageCart, err)
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, s.fail(ctx, w, StageCart, err)
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, order.NewOrderEvent(order.EventOrderPlaced, o)); err != nil {
			s.logger.Warn("failed to publish order placed event", zap.String("order_id", o.ID.String()), zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.OrderPlaced(o.CurrencyCode)
	}
	s.logger.Info("Order placed",
		zap.String("order_id", o.ID.String()),
		zap.Int64("display_id", o.DisplayID),
		zap.String("cart_id", cartID.String()),
		zap.String("total", o.Totals.Total.String()),
	)
	return o, nil
}

// validate checks the cart holds everything an order needs
func validate(c *cart.Cart) error {
	if len(c.Items) == 0 {
		return cart.ErrCartEmpty
	}
	var v shared.Validator
	v.Check(c.Email != "", "email", "email is required to complete the cart")
	requiresShipping := false
	for _, li := range c.Items {
		if li.RequiresShipping {
			requiresShipping = true
			break
		}
	}
	if requiresShipping {
		v.Check(c.ShippingAddress != nil, "shipping_address", "a shipping address is required")
		v.Check(len(c.ShippingMethods) > 0, "shipping_methods", "a shipping method is required")
	}
	return v.Err()
}

// reserve holds stock for managed items that cannot be backordered
func (s *Service) reserve(ctx context.Context, w *workflow, c *cart.Cart) error {
	var reqs []inventoryapp.ReservationRequest
	var lineItemIDs []uuid.UUID
	var expiresAt *time.Time
	if s.reservationTTL > 0 {
		t := s.now().Add(s.reservationTTL)
		expiresAt = &t
	}
	for _, li := range c.Items {
		if !li.ManageInventory || li.AllowBackorder || li.InventoryItemID == nil {
			continue
		}
		lineItemID := li.ID
		reqs = append(reqs, inventoryapp.ReservationRequest{
			InventoryItemID: *li.InventoryItemID,
			LineItemID:      &lineItemID,
			Quantity:        li.Quantity,
			ExpiresAt:       expiresAt,
		})
		lineItemIDs = append(lineItemIDs, li.ID)
	}
	if len(reqs) == 0 {
		return nil
	}
	locations, err := s.inventory.LocationIDsForChannel(ctx, c.SalesChannelID)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		return cartapp.ErrVariantUnavailable
	}
	for i := range reqs {
		reqs[i].LocationIDs = locations
	}
	if _, err := s.inventory.CreateReservations(ctx, reqs); err != nil {
		return err
	}
	w.onFailure(StageInventory, func(ctx context.Context) error {
		return s.inventory.DeleteReservationsByLineItem(ctx, lineItemIDs...)
	})
	return nil
}
