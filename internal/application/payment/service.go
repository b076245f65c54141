// Package payment creates payment collections and moves their payments
// through authorization, capture, refund and cancellation.
package payment

import (
	"context"
	"time"

	"github.com/commerce/backend/internal/domain/payment"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AuthorizeRequest authorizes a payment for a collection
type AuthorizeRequest struct {
	ProviderID string         `json:"provider_id"`
	Email      string         `json:"email"`
	Data       map[string]any `json:"data"`
}

// CaptureRequest captures a payment. A nil amount captures what is left.
type CaptureRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// RefundRequest refunds part of a captured payment
type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" binding:"max=100"`
	Note   string          `json:"note" binding:"max=1000"`
}

// PaymentResponse represents a payment
type PaymentResponse struct {
	ID             uuid.UUID         `json:"id"`
	CollectionID   uuid.UUID         `json:"payment_collection_id"`
	ProviderID     string            `json:"provider_id"`
	Amount         decimal.Decimal   `json:"amount"`
	CurrencyCode   string            `json:"currency_code"`
	Status         string            `json:"status"`
	CapturedAmount decimal.Decimal   `json:"captured_amount"`
	RefundedAmount decimal.Decimal   `json:"refunded_amount"`
	Captures       []payment.Capture `json:"captures"`
	Refunds        []payment.Refund  `json:"refunds"`
	Data           map[string]any    `json:"data,omitempty"`
	CapturedAt     *time.Time        `json:"captured_at"`
	CanceledAt     *time.Time        `json:"canceled_at"`
	CreatedAt      time.Time         `json:"created_at"`
}

// CollectionResponse represents a payment collection
type CollectionResponse struct {
	ID               uuid.UUID         `json:"id"`
	CartID           *uuid.UUID        `json:"cart_id"`
	OrderID          *uuid.UUID        `json:"order_id"`
	CurrencyCode     string            `json:"currency_code"`
	Amount           decimal.Decimal   `json:"amount"`
	AuthorizedAmount decimal.Decimal   `json:"authorized_amount"`
	CapturedAmount   decimal.Decimal   `json:"captured_amount"`
	RefundedAmount   decimal.Decimal   `json:"refunded_amount"`
	Status           string            `json:"status"`
	Payments         []PaymentResponse `json:"payments"`
	CreatedAt        time.Time         `json:"created_at"`
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	captures, refunds := p.Captures, p.Refunds
	if captures == nil {
		captures = []payment.Capture{}
	}
	if refunds == nil {
		refunds = []payment.Refund{}
	}
	return PaymentResponse{
		ID:             p.ID,
		CollectionID:   p.CollectionID,
		ProviderID:     p.ProviderID,
		Amount:         p.Amount,
		CurrencyCode:   p.CurrencyCode,
		Status:         string(p.Status),
		CapturedAmount: p.CapturedAmount(),
		RefundedAmount: p.RefundedAmount(),
		Captures:       captures,
		Refunds:        refunds,
		CapturedAt:     p.CapturedAt,
		CanceledAt:     p.CanceledAt,
		CreatedAt:      p.CreatedAt,
	}
}

// ToCollectionResponse converts a collection
func ToCollectionResponse(c *payment.Collection) CollectionResponse {
	payments := make([]PaymentResponse, len(c.Payments))
	for i := range c.Payments {
		payments[i] = toPaymentResponse(&c.Payments[i])
	}
	return CollectionResponse{
		ID:               c.ID,
		CartID:           c.CartID,
		OrderID:          c.OrderID,
		CurrencyCode:     c.CurrencyCode,
		Amount:           c.Amount,
		AuthorizedAmount: c.AuthorizedAmount(),
		CapturedAmount:   c.CapturedAmount(),
		RefundedAmount:   c.RefundedAmount(),
		Status:           string(c.Status),
		Payments:         payments,
		CreatedAt:        c.CreatedAt,
	}
}

// Service handles payment collections and provider calls
type Service struct {
	repo      payment.Repository
	providers *payment.ProviderRegistry
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new payment Service
func NewService(repo payment.Repository, providers *payment.ProviderRegistry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, providers: providers, logger: logger, now: time.Now}
}

// CreateCollection opens a collection for a cart
func (s *Service) CreateCollection(ctx context.Context, cartID *uuid.UUID, currencyCode string, amount decimal.Decimal) (*payment.Collection, error) {
	c, err := payment.NewCollection(currencyCode, amount)
	if err != nil {
		return nil, err
	}
	c.CartID = cartID
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Authorize asks the provider to authorize the uncovered amount of a collection
func (s *Service) Authorize(ctx context.Context, collectionID uuid.UUID, req AuthorizeRequest) (*payment.Payment, error) {
	c, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	providerID := req.ProviderID
	if providerID == "" {
		providerID = payment.SystemProviderID
	}
	provider, err := s.providers.Get(providerID)
	if err != nil {
		return nil, shared.NewInvalidDataError("provider_id", err.Error())
	}
	amount := c.Amount.Sub(c.AuthorizedAmount())
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("PAYMENT_NOT_REQUIRED", "Payment collection is already covered")
	}
	data, err := provider.Authorize(ctx, payment.AuthorizeInput{
		CollectionID: c.ID,
		Amount:       amount,
		CurrencyCode: c.CurrencyCode,
		Email:        req.Email,
		Data:         req.Data,
	})
	if err != nil {
		return nil, shared.NewDomainError("PAYMENT_AUTHORIZATION_FAILED", err.Error())
	}
	p, err := c.AddAuthorizedPayment(providerID, amount, data, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		// The provider holds an authorization we could not record
		if cerr := provider.Cancel(ctx, p); cerr != nil {
			s.logger.Error("failed to void unrecorded authorization", zap.String("collection_id", c.ID.String()), zap.Error(cerr))
		}
		return nil, err
	}
	s.logger.Info("payment authorized",
		zap.String("collection_id", c.ID.String()),
		zap.String("payment_id", p.ID.String()),
		zap.String("provider_id", providerID),
		zap.String("amount", amount.String()),
	)
	return p, nil
}

// AttachOrder links a collection to the order created from its cart
func (s *Service) AttachOrder(ctx context.Context, collectionID, orderID uuid.UUID) error {
	c, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		return err
	}
	c.OrderID = &orderID
	c.Touch()
	return s.repo.Save(ctx, c)
}

// GetCollection returns a collection
func (s *Service) GetCollection(ctx context.Context, id uuid.UUID) (*CollectionResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCollectionResponse(c)
	return &resp, nil
}

// FindByOrder returns the collection of an order
func (s *Service) FindByOrder(ctx context.Context, orderID uuid.UUID) (*payment.Collection, error) {
	return s.repo.FindByOrder(ctx, orderID)
}

// Capture captures a payment. Without an amount the rest of the authorization is captured.
func (s *Service) Capture(ctx context.Context, paymentID uuid.UUID, req CaptureRequest, by string) (*PaymentResponse, error) {
	c, p, provider, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	capture, err := c.Capture(paymentID, req.Amount, by, s.now())
	if err != nil {
		return nil, err
	}
	if err := provider.Capture(ctx, p, capture.Amount); err != nil {
		return nil, shared.NewDomainError("PAYMENT_CAPTURE_FAILED", err.Error())
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := toPaymentResponse(p)
	return &resp, nil
}

// Refund refunds part of what was captured
func (s *Service) Refund(ctx context.Context, paymentID uuid.UUID, req RefundRequest, by string) (*PaymentResponse, error) {
	c, p, provider, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	refund, err := c.Refund(paymentID, req.Amount, req.Reason, req.Note, by, s.now())
	if err != nil {
		return nil, err
	}
	if err := provider.Refund(ctx, p, refund.Amount); err != nil {
		return nil, shared.NewDomainError("PAYMENT_REFUND_FAILED", err.Error())
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := toPaymentResponse(p)
	return &resp, nil
}

// CancelPayment voids an uncaptured payment
func (s *Service) CancelPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentResponse, error) {
	c, p, provider, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := c.CancelPayment(paymentID, s.now()); err != nil {
		return nil, err
	}
	if err := provider.Cancel(ctx, p); err != nil {
		return nil, shared.NewDomainError("PAYMENT_CANCEL_FAILED", err.Error())
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := toPaymentResponse(p)
	return &resp, nil
}

// CancelCollection voids every payment of a collection. Fails once anything was captured.
func (s *Service) CancelCollection(ctx context.Context, collectionID uuid.UUID) error {
	c, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		return err
	}
	if c.Status == payment.CollectionCanceled {
		return nil
	}
	active := make([]payment.Payment, 0, len(c.Payments))
	for _, p := range c.Payments {
		if p.Status != payment.StatusCanceled {
			active = append(active, p)
		}
	}
	if err := c.Cancel(s.now()); err != nil {
		return err
	}
	for i := range active {
		provider, err := s.providers.Get(active[i].ProviderID)
		if err != nil {
			return err
		}
		if err := provider.Cancel(ctx, &active[i]); err != nil {
			return shared.NewDomainError("PAYMENT_CANCEL_FAILED", err.Error())
		}
	}
	return s.repo.Save(ctx, c)
}

// CaptureCollection captures the uncaptured rest of every authorized payment
func (s *Service) CaptureCollection(ctx context.Context, collectionID uuid.UUID, by string) error {
	c, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		return err
	}
	captured := 0
	for i := range c.Payments {
		p := &c.Payments[i]
		if p.Status != payment.StatusAuthorized && p.Status != payment.StatusPartiallyCaptured {
			continue
		}
		provider, err := s.providers.Get(p.ProviderID)
		if err != nil {
			return err
		}
		capture, err := c.Capture(p.ID, nil, by, s.now())
		if err != nil {
			return err
		}
		if err := provider.Capture(ctx, p, capture.Amount); err != nil {
			return shared.NewDomainError("PAYMENT_CAPTURE_FAILED", err.Error())
		}
		captured++
	}
	if captured == 0 {
		return nil
	}
	return s.repo.Save(ctx, c)
}

// RefundCollection refunds amount across the collection's captured payments
func (s *Service) RefundCollection(ctx context.Context, collectionID uuid.UUID, amount decimal.Decimal, reason, by string) error {
	c, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		return err
	}
	remaining := amount
	for i := range c.Payments {
		if !remaining.IsPositive() {
			break
		}
		p := &c.Payments[i]
		refundable := p.CapturedAmount().Sub(p.RefundedAmount())
		if !refundable.IsPositive() {
			continue
		}
		take := decimal.Min(refundable, remaining)
		provider, err := s.providers.Get(p.ProviderID)
		if err != nil {
			return err
		}
		if _, err := c.Refund(p.ID, take, reason, "", by, s.now()); err != nil {
			return err
		}
		if err := provider.Refund(ctx, p, take); err != nil {
			return shared.NewDomainError("PAYMENT_REFUND_FAILED", err.Error())
		}
		remaining = remaining.Sub(take)
	}
	if remaining.IsPositive() {
		return payment.ErrRefundExceedsCaptured
	}
	return s.repo.Save(ctx, c)
}

// ListPayments lists payments
func (s *Service) ListPayments(ctx context.Context, q shared.ListQuery) (shared.ListResult[PaymentResponse], error) {
	q = q.Normalize()
	rows, total, err := s.repo.ListPayments(ctx, q)
	if err != nil {
		return shared.ListResult[PaymentResponse]{}, err
	}
	out := make([]PaymentResponse, len(rows))
	for i, p := range rows {
		out[i] = toPaymentResponse(p)
	}
	return shared.NewListResult(out, total, q), nil
}

func (s *Service) load(ctx context.Context, paymentID uuid.UUID) (*payment.Collection, *payment.Payment, payment.Provider, error) {
	c, err := s.repo.FindByPayment(ctx, paymentID)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := c.Payment(paymentID)
	if err != nil {
		return nil, nil, nil, err
	}
	provider, err := s.providers.Get(p.ProviderID)
	if err != nil {
		return nil, nil, nil, err
	}
	return c, p, provider, nil
}
