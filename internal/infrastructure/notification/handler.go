package notification

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/order"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler turns domain events into customer emails
type Handler struct {
	renderer *Renderer
	sender   Sender
	from     string
	resetURL string
	logger   *zap.Logger
}

// HandlerConfig holds the addresses used when building messages
type HandlerConfig struct {
	From     string
	ResetURL string
}

// NewHandler creates a notification handler
func NewHandler(renderer *Renderer, sender Sender, cfg HandlerConfig, logger *zap.Logger) *Handler {
	return &Handler{
		renderer: renderer,
		sender:   sender,
		from:     cfg.From,
		resetURL: cfg.ResetURL,
		logger:   logger,
	}
}

// EventTypes lists the events that produce an email
func (h *Handler) EventTypes() []string {
	return []string{
		order.EventOrderPlaced,
		order.EventOrderCanceled,
		order.EventReturnReceived,
		identity.EventTypePasswordResetRequested,
	}
}

type orderData struct {
	DisplayID    int64
	CurrencyCode string
	Total        decimal.Decimal
}

type returnData struct {
	CurrencyCode string
	RefundAmount decimal.Decimal
}

type resetData struct {
	Name      string
	ResetURL  string
	ExpiresAt time.Time
}

// Handle renders and sends the email for evt
func (h *Handler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	var (
		to, tmpl string
		data     any
	)
	switch e := evt.(type) {
	case *order.OrderEvent:
		switch e.EventType() {
		case order.EventOrderPlaced:
			tmpl = TemplateOrderPlaced
		case order.EventOrderCanceled:
			tmpl = TemplateOrderCanceled
		default:
			return nil
		}
		to = e.Email
		data = orderData{DisplayID: e.DisplayID, CurrencyCode: e.CurrencyCode, Total: e.Total}
	case *order.ReturnReceivedEvent:
		to, tmpl = e.Email, TemplateReturnReceived
		data = returnData{CurrencyCode: e.CurrencyCode, RefundAmount: e.RefundAmount}
	case *identity.PasswordResetRequestedEvent:
		link, err := h.resetLink(e.Token)
		if err != nil {
			return err
		}
		to, tmpl = e.Email, TemplatePasswordReset
		data = resetData{Name: e.Name, ResetURL: link, ExpiresAt: e.ExpiresAt}
	default:
		return nil
	}

	if to == "" {
		h.logger.Debug("no recipient, notification skipped", zap.String("event_type", evt.EventType()))
		return nil
	}

	subject, body, err := h.renderer.Render(tmpl, data)
	if err != nil {
		return err
	}
	if err := h.sender.Send(ctx, Message{From: h.from, To: to, Subject: subject, HTML: body}); err != nil {
		return fmt.Errorf("send %s: %w", tmpl, err)
	}
	return nil
}

func (h *Handler) resetLink(token string) (string, error) {
	u, err := url.Parse(h.resetURL)
	if err != nil {
		return "", fmt.Errorf("invalid reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var _ shared.EventHandler = (*Handler)(nil)
