// Package payment tracks payment collections, their payments, captures and refunds.
package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment errors
var (
	ErrCaptureExceedsAuthorized = shared.NewDomainError("CAPTURE_EXCEEDS_AUTHORIZED", "Capture amount exceeds the uncaptured amount")
	ErrRefundExceedsCaptured    = shared.NewDomainError("REFUND_EXCEEDS_CAPTURED", "Refund amount exceeds the refundable amount")
	ErrAlreadyCaptured          = shared.NewDomainError("PAYMENT_ALREADY_CAPTURED", "Captured payments cannot be canceled")
	ErrPaymentCanceled          = shared.NewDomainError("PAYMENT_CANCELED", "Payment was canceled")
)

// CollectionStatus is the state of a payment collection
type CollectionStatus string

const (
	CollectionNotPaid    CollectionStatus = "not_paid"
	CollectionAuthorized CollectionStatus = "authorized"
	CollectionCompleted  CollectionStatus = "completed"
	CollectionCanceled   CollectionStatus = "canceled"
)

// Status is the state of a single payment
type Status string

const (
	StatusAuthorized        Status = "authorized"
	StatusPartiallyCaptured Status = "partially_captured"
	StatusCaptured          Status = "captured"
	StatusPartiallyRefunded Status = "partially_refunded"
	StatusRefunded          Status = "refunded"
	StatusCanceled          Status = "canceled"
)

// Capture is a captured part of a payment
type Capture struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	CreatedBy string          `json:"created_by,omitempty"`
}

// Refund is a refunded part of a payment
type Refund struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason,omitempty"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	CreatedBy string          `json:"created_by,omitempty"`
}

// Payment is an authorization at a provider
type Payment struct {
	ID           uuid.UUID
	CollectionID uuid.UUID
	ProviderID   string
	Amount       decimal.Decimal
	CurrencyCode string
	Status       Status
	Data         map[string]any
	Captures     []Capture
	Refunds      []Refund
	CapturedAt   *time.Time
	CanceledAt   *time.Time
	CreatedAt    time.Time
}

// CapturedAmount sums captures
func (p *Payment) CapturedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, c := range p.Captures {
		total = total.Add(c.Amount)
	}
	return total
}

// RefundedAmount sums refunds
func (p *Payment) RefundedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, r := range p.Refunds {
		total = total.Add(r.Amount)
	}
	return total
}

// Collection groups the payments for one cart or order
type Collection struct {
	shared.BaseAggregateRoot
	CartID       *uuid.UUID
	OrderID      *uuid.UUID
	CurrencyCode string
	Amount       decimal.Decimal
	Status       CollectionStatus
	Payments     []Payment
}

// NewCollection creates a collection expecting amount
func NewCollection(currencyCode string, amount decimal.Decimal) (*Collection, error) {
	var v shared.Validator
	v.Check(len(currencyCode) == 3, "currency_code", "currency_code must be a 3 letter code")
	v.Check(!amount.IsNegative(), "amount", "amount cannot be negative")
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &Collection{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CurrencyCode:      strings.ToUpper(currencyCode),
		Amount:            amount,
		Status:            CollectionNotPaid,
	}, nil
}

// AuthorizedAmount sums payments that are not canceled
func (c *Collection) AuthorizedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c.Payments {
		if p.Status != StatusCanceled {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// CapturedAmount sums captures over all payments
func (c *Collection) CapturedAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Payments {
		total = total.Add(c.Payments[i].CapturedAmount())
	}
	return total
}

// RefundedAmount sums refunds over all payments
func (c *Collection) RefundedAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Payments {
		total = total.Add(c.Payments[i].RefundedAmount())
	}
	return total
}

// Payment returns the payment with id
func (c *Collection) Payment(id uuid.UUID) (*Payment, error) {
	for i := range c.Payments {
		if c.Payments[i].ID == id {
			return &c.Payments[i], nil
		}
	}
	return nil, shared.NewNotFoundError("Payment", id)
}

// AddAuthorizedPayment records a provider authorization
func (c *Collection) AddAuthorizedPayment(providerID string, amount decimal.Decimal, data map[string]any, at time.Time) (*Payment, error) {
	if c.Status == CollectionCanceled {
		return nil, ErrPaymentCanceled
	}
	if !amount.IsPositive() {
		return nil, shared.NewInvalidDataError("amount", "amount must be greater than 0")
	}
	c.Payments = append(c.Payments, Payment{
		ID:           uuid.New(),
		CollectionID: c.ID,
		ProviderID:   providerID,
		Amount:       amount,
		CurrencyCode: c.CurrencyCode,
		Status:       StatusAuthorized,
		Data:         data,
		CreatedAt:    at,
	})
	c.refreshStatus()
	return &c.Payments[len(c.Payments)-1], nil
}

// Capture captures amount of a payment; a nil amount captures the remainder
func (c *Collection) Capture(paymentID uuid.UUID, amount *decimal.Decimal, by string, at time.Time) (*Capture, error) {
	p, err := c.Payment(paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusCanceled {
		return nil, ErrPaymentCanceled
	}
	remaining := p.Amount.Sub(p.CapturedAmount())
	value := remaining
	if amount != nil {
		value = *amount
	}
	if !value.IsPositive() {
		return nil, shared.NewInvalidDataError("amount", "amount must be greater than 0")
	}
	if value.GreaterThan(remaining) {
		return nil, shared.NewDomainError(ErrCaptureExceedsAuthorized.Code,
			fmt.Sprintf("cannot capture %s, only %s left", value, remaining))
	}
	capture := Capture{ID: uuid.New(), Amount: value, CreatedAt: at, CreatedBy: by}
	p.Captures = append(p.Captures, capture)
	if p.CapturedAmount().Equal(p.Amount) {
		p.Status = StatusCaptured
		p.CapturedAt = &at
	} else {
		p.Status = StatusPartiallyCaptured
	}
	c.refreshStatus()
	return &capture, nil
}

// Refund refunds amount of the captured part of a payment
func (c *Collection) Refund(paymentID uuid.UUID, amount decimal.Decimal, reason, note, by string, at time.Time) (*Refund, error) {
	p, err := c.Payment(paymentID)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, shared.NewInvalidDataError("amount", "amount must be greater than 0")
	}
	refundable := p.CapturedAmount().Sub(p.RefundedAmount())
	if amount.GreaterThan(refundable) {
		return nil, shared.NewDomainError(ErrRefundExceedsCaptured.Code,
			fmt.Sprintf("cannot refund %s, only %s refundable", amount, refundable))
	}
	refund := Refund{ID: uuid.New(), Amount: amount, Reason: reason, Note: note, CreatedAt: at, CreatedBy: by}
	p.Refunds = append(p.Refunds, refund)
	if p.RefundedAmount().Equal(p.Amount) {
		p.Status = StatusRefunded
	} else {
		p.Status = StatusPartiallyRefunded
	}
	c.refreshStatus()
	return &refund, nil
}

// CancelPayment voids an uncaptured payment
func (c *Collection) CancelPayment(paymentID uuid.UUID, at time.Time) error {
	p, err := c.Payment(paymentID)
	if err != nil {
		return err
	}
	if p.CapturedAmount().IsPositive() {
		return ErrAlreadyCaptured
	}
	if p.Status == StatusCanceled {
		return nil
	}
	p.Status = StatusCanceled
	p.CanceledAt = &at
	c.refreshStatus()
	return nil
}

// Cancel voids every uncaptured payment and the collection
func (c *Collection) Cancel(at time.Time) error {
	if c.CapturedAmount().IsPositive() {
		return ErrAlreadyCaptured
	}
	for i := range c.Payments {
		if c.Payments[i].Status != StatusCanceled {
			c.Payments[i].Status = StatusCanceled
			c.Payments[i].CanceledAt = &at
		}
	}
	c.Status = CollectionCanceled
	c.Touch()
	return nil
}

func (c *Collection) refreshStatus() {
	switch {
	case c.Status == CollectionCanceled:
	case c.CapturedAmount().GreaterThanOrEqual(c.Amount) && c.Amount.IsPositive():
		c.Status = CollectionCompleted
	case c.AuthorizedAmount().GreaterThanOrEqual(c.Amount):
		c.Status = CollectionAuthorized
	default:
		c.Status = CollectionNotPaid
	}
	c.Touch()
}

// Repository persists collections with their payments
type Repository interface {
	Create(ctx context.Context, c *Collection) error
	Save(ctx context.Context, c *Collection) error
	FindByID(ctx context.Context, id uuid.UUID) (*Collection, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*Collection, error)
	FindByPayment(ctx context.Context, paymentID uuid.UUID) (*Collection, error)
	ListPayments(ctx context.Context, q shared.ListQuery) ([]*Payment, int64, error)
}
