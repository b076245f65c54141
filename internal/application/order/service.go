// Package order runs the post-checkout lifecycle of orders: payment capture,
// fulfillments, returns and cancellation.
package order

import (
	"context"
	"strconv"
	"time"

	"github.com/commerce/backend/internal/domain/fulfillment"
	"github.com/commerce/backend/internal/domain/order"
	"github.com/commerce/backend/internal/domain/payment"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Payments is the part of the payment service orders settle through
type Payments interface {
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*payment.Collection, error)
	CancelCollection(ctx context.Context, collectionID uuid.UUID) error
	CaptureCollection(ctx context.Context, collectionID uuid.UUID, by string) error
	RefundCollection(ctx context.Context, collectionID uuid.UUID, amount decimal.Decimal, reason, by string) error
}

// Inventory is the part of the inventory service orders move stock through
type Inventory interface {
	DeleteReservationsByLineItem(ctx context.Context, lineItemIDs ...uuid.UUID) error
	ConsumeReservation(ctx context.Context, lineItemID uuid.UUID, quantity int) error
	Restock(ctx context.Context, itemID, locationID uuid.UUID, quantity int) error
}

// StoreDefaults supplies the location used when a request names none
type StoreDefaults interface {
	DefaultLocation(ctx context.Context) (*uuid.UUID, error)
}

// ServiceConfig holds the dependencies of the order service
type ServiceConfig struct {
	Orders       order.Repository
	Returns      order.ReturnRepository
	Fulfillments fulfillment.Repository
	Payments     Payments
	Inventory    Inventory
	Store        StoreDefaults
	Events       shared.EventPublisher
	Logger       *zap.Logger
}

// Service handles placed orders
type Service struct {
	orders       order.Repository
	returns      order.ReturnRepository
	fulfillments fulfillment.Repository
	payments     Payments
	inventory    Inventory
	store        StoreDefaults
	events       shared.EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates a new order Service
func NewService(config ServiceConfig) *Service {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:       config.Orders,
		returns:      config.Returns,
		fulfillments: config.Fulfillments,
		payments:     config.Payments,
		inventory:    config.Inventory,
		store:        config.Store,
		events:       config.Events,
		logger:       logger,
		now:          time.Now,
	}
}

// Retrieve returns an order
func (s *Service) Retrieve(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// RetrieveForCustomer returns an order only when it belongs to customerID
func (s *Service) RetrieveForCustomer(ctx context.Context, id, customerID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID == nil || *o.CustomerID != customerID {
		return nil, shared.NewNotFoundError("Order", id)
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// RetrieveByCart returns the order placed from a cart
func (s *Service) RetrieveByCart(ctx context.Context, cartID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByCartID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// List lists orders
func (s *Service) List(ctx context.Context, q shared.ListQuery) (shared.ListResult[OrderResponse], error) {
	q = q.Normalize()
	rows, total, err := s.orders.List(ctx, q)
	if err != nil {
		return shared.ListResult[OrderResponse]{}, err
	}
	items := make([]OrderResponse, len(rows))
	for i, o := range rows {
		items[i] = ToOrderResponse(o)
	}
	return shared.NewListResult(items, total, q), nil
}

// ListCustomerOrders lists the orders of one customer
func (s *Service) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, q shared.ListQuery) (shared.ListResult[OrderResponse], error) {
	return s.List(ctx, q.WithFilter("customer_id", customerID.String()))
}

// Cancel cancels an order with nothing fulfilled. Captured money is refunded,
// authorizations are voided and reservations are released.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, by string) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusCanceled {
		resp := ToOrderResponse(o)
		return &resp, nil
	}
	if !o.CanCancel() {
		return nil, order.ErrOrderNotCancelable
	}

	coll, err := s.collection(ctx, o)
	if err != nil {
		return nil, err
	}
	if coll != nil {
		refundable := coll.CapturedAmount().Sub(coll.RefundedAmount())
		switch {
		case refundable.IsPositive():
			err = s.payments.RefundCollection(ctx, coll.ID, refundable, "order canceled", by)
		case !coll.CapturedAmount().IsPositive():
			err = s.payments.CancelCollection(ctx, coll.ID)
		}
		if err != nil {
			return nil, err
		}
	}

	lineItemIDs := make([]uuid.UUID, len(o.Items))
	for i, li := range o.Items {
		lineItemIDs[i] = li.ID
	}
	if err := s.inventory.DeleteReservationsByLineItem(ctx, lineItemIDs...); err != nil {
		return nil, err
	}

	if err := o.Cancel(s.now()); err != nil {
		return nil, err
	}
	if err := s.syncPaymentStatus(ctx, o); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	s.publish(ctx, o)

	s.logger.Info("Order canceled",
		zap.String("order_id", o.ID.String()),
		zap.Int64("display_id", o.DisplayID),
		zap.String("by", by),
	)
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Complete marks an order completed
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, id, (*order.Order).Complete)
}

// Archive archives a completed or canceled order
func (s *Service) Archive(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, id, (*order.Order).Archive)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, fn func(*order.Order) error) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(o); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	s.publish(ctx, o)
	resp := ToOrderResponse(o)
	return &resp, nil
}

// CapturePayment captures every outstanding authorization of the order
func (s *Service) CapturePayment(ctx context.Context, id uuid.UUID, by string) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusCanceled {
		return nil, shared.NewDomainError("INVALID_STATE", "canceled orders cannot be captured")
	}
	coll, err := s.collection(ctx, o)
	if err != nil {
		return nil, err
	}
	if coll == nil {
		return nil, shared.NewNotFoundError("PaymentCollection", o.ID)
	}
	if err := s.payments.CaptureCollection(ctx, coll.ID, by); err != nil {
		return nil, err
	}
	if err := s.syncPaymentStatus(ctx, o); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// CreateFulfillment fulfills order items from a stock location. Reserved
// units of managed items are consumed.
func (s *Service) CreateFulfillment(ctx context.Context, id uuid.UUID, req CreateFulfillmentRequest) (*FulfillmentResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items := make([]fulfillment.Item, 0, len(o.Items))
	if len(req.Items) == 0 {
		for _, li := range o.Items {
			items = append(items, fulfillment.Item{LineItemID: li.ID, Quantity: li.Quantity - li.FulfilledQuantity})
		}
	} else {
		for _, it := range req.Items {
			items = append(items, fulfillment.Item{LineItemID: it.LineItemID, Quantity: it.Quantity})
		}
	}
	locationID, err := s.location(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}

	f, err := fulfillment.NewFulfillment(o.ID, locationID, req.ProviderID, items)
	if err != nil {
		return nil, err
	}
	if err := o.RegisterFulfillment(f.Items); err != nil {
		return nil, err
	}
	if err := s.fulfillments.Create(ctx, f); err != nil {
		return nil, err
	}
	for _, it := range f.Items {
		li, err := o.Item(it.LineItemID)
		if err != nil || !li.ManageInventory {
			continue
		}
		if err := s.inventory.ConsumeReservation(ctx, li.ID, it.Quantity); err != nil {
			return nil, err
		}
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("Fulfillment created",
		zap.String("order_id", o.ID.String()),
		zap.String("fulfillment_id", f.ID.String()),
		zap.Int("items", len(f.Items)),
	)
	resp := toFulfillmentResponse(f)
	return &resp, nil
}

// ShipFulfillment marks a fulfillment shipped
func (s *Service) ShipFulfillment(ctx context.Context, id, fulfillmentID uuid.UUID, req ShipFulfillmentRequest) (*FulfillmentResponse, error) {
	return s.updateFulfillment(ctx, id, fulfillmentID, func(o *order.Order, f *fulfillment.Fulfillment) error {
		if err := f.Ship(req.TrackingNumbers, s.now()); err != nil {
			return err
		}
		o.RegisterShipment(f.Items)
		return nil
	})
}

// MarkDelivered marks a shipped fulfillment delivered
func (s *Service) MarkDelivered(ctx context.Context, id, fulfillmentID uuid.UUID) (*FulfillmentResponse, error) {
	return s.updateFulfillment(ctx, id, fulfillmentID, func(o *order.Order, f *fulfillment.Fulfillment) error {
		if err := f.Deliver(s.now()); err != nil {
			return err
		}
		o.RegisterDelivery(f.Items)
		return nil
	})
}

// CancelFulfillment cancels an unshipped fulfillment and puts managed items back in stock
func (s *Service) CancelFulfillment(ctx context.Context, id, fulfillmentID uuid.UUID) (*FulfillmentResponse, error) {
	return s.updateFulfillment(ctx, id, fulfillmentID, func(o *order.Order, f *fulfillment.Fulfillment) error {
		if !f.IsActive() {
			return nil
		}
		if err := f.Cancel(s.now()); err != nil {
			return err
		}
		if f.LocationID != nil {
			for _, it := range f.Items {
				li, err := o.Item(it.LineItemID)
				if err != nil || !li.ManageInventory || li.InventoryItemID == nil {
					continue
				}
				if err := s.inventory.Restock(ctx, *li.InventoryItemID, *f.LocationID, it.Quantity); err != nil {
					return err
				}
			}
		}
		o.CancelFulfillment(f.Items)
		return nil
	})
}

func (s *Service) updateFulfillment(
	ctx context.Context,
	id, fulfillmentID uuid.UUID,
	fn func(o *order.Order, f *fulfillment.Fulfillment) error,
) (*FulfillmentResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f, err := s.fulfillments.FindByID(ctx, fulfillmentID)
	if err != nil {
		return nil, err
	}
	if f.OrderID != o.ID {
		return nil, shared.NewNotFoundError("Fulfillment", fulfillmentID)
	}
	if err := fn(o, f); err != nil {
		return nil, err
	}
	if err := s.fulfillments.Update(ctx, f); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	resp := toFulfillmentResponse(f)
	return &resp, nil
}

// ListFulfillments returns the fulfillments of an order
func (s *Service) ListFulfillments(ctx context.Context, id uuid.UUID) ([]FulfillmentResponse, error) {
	if _, err := s.orders.FindByID(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.fulfillments.FindByOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]FulfillmentResponse, len(rows))
	for i, f := range rows {
		out[i] = toFulfillmentResponse(f)
	}
	return out, nil
}

// RequestReturn requests a return of shipped items
func (s *Service) RequestReturn(ctx context.Context, id uuid.UUID, req RequestReturnRequest) (*ReturnResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items := make([]order.ReturnItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ReturnItem{
			LineItemID: it.LineItemID,
			Quantity:   it.Quantity,
			Reason:     it.Reason,
			Note:       it.Note,
		}
	}
	if err := s.ensureNotPendingReturn(ctx, o, items); err != nil {
		return nil, err
	}
	r, err := order.NewReturn(o, items, req.LocationID)
	if err != nil {
		return nil, err
	}
	if err := s.returns.Create(ctx, r); err != nil {
		return nil, err
	}
	resp := toReturnResponse(r)
	return &resp, nil
}

// ensureNotPendingReturn rejects quantities already claimed by requested returns
func (s *Service) ensureNotPendingReturn(ctx context.Context, o *order.Order, items []order.ReturnItem) error {
	existing, err := s.returns.FindByOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	pending := make(map[uuid.UUID]int)
	for _, r := range existing {
		if r.Status != order.ReturnRequested {
			continue
		}
		for _, it := range r.Items {
			pending[it.LineItemID] += it.Quantity
		}
	}
	var v shared.Validator
	for i, it := range items {
		li, err := o.Item(it.LineItemID)
		if err != nil {
			continue
		}
		left := li.ShippedQuantity - li.ReturnedQuantity - pending[it.LineItemID]
		v.Check(it.Quantity <= left, "items."+strconv.Itoa(i)+".quantity", "a return is already requested for these items")
	}
	return v.Err()
}

// ReceiveReturn receives returned goods. Managed items are restocked and the
// refund amount is paid back, capped to what remains refundable.
func (s *Service) ReceiveReturn(ctx context.Context, id, returnID uuid.UUID, by string) (*ReturnResponse, error) {
	o, r, err := s.loadReturn(ctx, id, returnID)
	if err != nil {
		return nil, err
	}
	if err := r.Receive(s.now()); err != nil {
		return nil, err
	}
	if err := o.RegisterReturn(r.Items); err != nil {
		return nil, err
	}

	locationID, err := s.location(ctx, r.LocationID)
	if err != nil {
		return nil, err
	}
	if locationID != nil {
		for _, it := range r.Items {
			li, err := o.Item(it.LineItemID)
			if err != nil || !li.ManageInventory || li.InventoryItemID == nil {
				continue
			}
			if err := s.inventory.Restock(ctx, *li.InventoryItemID, *locationID, it.Quantity); err != nil {
				return nil, err
			}
		}
	}

	coll, err := s.collection(ctx, o)
	if err != nil {
		return nil, err
	}
	if coll != nil && r.RefundAmount.IsPositive() {
		amount := decimal.Min(r.RefundAmount, coll.CapturedAmount().Sub(coll.RefundedAmount()))
		if amount.IsPositive() {
			if err := s.payments.RefundCollection(ctx, coll.ID, amount, "return", by); err != nil {
				return nil, err
			}
		}
		r.RefundAmount = amount
	}
	if err := s.syncPaymentStatus(ctx, o); err != nil {
		return nil, err
	}

	if err := s.returns.Update(ctx, r); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	if s.events != nil {
		_ = s.events.Publish(ctx, order.NewReturnReceivedEvent(o, r))
	}

	s.logger.Info("Return received",
		zap.String("order_id", o.ID.String()),
		zap.String("return_id", r.ID.String()),
		zap.String("refund_amount", r.RefundAmount.String()),
	)
	resp := toReturnResponse(r)
	return &resp, nil
}

// CancelReturn cancels a requested return
func (s *Service) CancelReturn(ctx context.Context, id, returnID uuid.UUID) (*ReturnResponse, error) {
	_, r, err := s.loadReturn(ctx, id, returnID)
	if err != nil {
		return nil, err
	}
	if err := r.Cancel(s.now()); err != nil {
		return nil, err
	}
	if err := s.returns.Update(ctx, r); err != nil {
		return nil, err
	}
	resp := toReturnResponse(r)
	return &resp, nil
}

// ListReturns returns the returns of an order
func (s *Service) ListReturns(ctx context.Context, id uuid.UUID) ([]ReturnResponse, error) {
	if _, err := s.orders.FindByID(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.returns.FindByOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]ReturnResponse, len(rows))
	for i, r := range rows {
		out[i] = toReturnResponse(r)
	}
	return out, nil
}

func (s *Service) loadReturn(ctx context.Context, id, returnID uuid.UUID) (*order.Order, *order.Return, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.returns.FindByID(ctx, returnID)
	if err != nil {
		return nil, nil, err
	}
	if r.OrderID != o.ID {
		return nil, nil, shared.NewNotFoundError("Return", returnID)
	}
	return o, r, nil
}

func (s *Service) location(ctx context.Context, requested *uuid.UUID) (*uuid.UUID, error) {
	if requested != nil || s.store == nil {
		return requested, nil
	}
	return s.store.DefaultLocation(ctx)
}

// collection returns the order's payment collection, or nil when it has none
func (s *Service) collection(ctx context.Context, o *order.Order) (*payment.Collection, error) {
	coll, err := s.payments.FindByOrder(ctx, o.ID)
	if shared.IsNotFound(err) {
		return nil, nil
	}
	return coll, err
}

func (s *Service) syncPaymentStatus(ctx context.Context, o *order.Order) error {
	coll, err := s.collection(ctx, o)
	if err != nil {
		return err
	}
	if coll != nil {
		o.SetPaymentStatus(PaymentStatusOf(coll))
	}
	return nil
}

// PaymentStatusOf summarizes a payment collection as an order payment status
func PaymentStatusOf(c *payment.Collection) order.PaymentStatus {
	captured, refunded := c.CapturedAmount(), c.RefundedAmount()
	switch {
	case c.Status == payment.CollectionCanceled:
		return order.PaymentCanceled
	case captured.IsPositive() && refunded.GreaterThanOrEqual(captured):
		return order.PaymentRefunded
	case refunded.IsPositive():
		return order.PaymentPartiallyRefunded
	case captured.IsPositive():
		return order.PaymentCaptured
	case c.AuthorizedAmount().IsPositive():
		return order.PaymentAuthorized
	default:
		return order.PaymentNotPaid
	}
}

func (s *Service) publish(ctx context.Context, o *order.Order) {
	events := o.PullDomainEvents()
	if s.events != nil && len(events) > 0 {
		_ = s.events.Publish(ctx, events...)
	}
}
