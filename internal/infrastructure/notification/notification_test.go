package notification

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/order"
	"github.com/commerce/backend/internal/domain/shared"
	"github.com/commerce/backend/internal/infrastructure/cache"
	"github.com/commerce/backend/internal/infrastructure/event"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingSender struct{}

func (failingSender) Send(context.Context, Message) error { return errors.New("smtp down") }

func newTestHandler(t *testing.T, sender Sender) *Handler {
	t.Helper()
	r, err := NewRenderer("")
	require.NoError(t, err)
	return NewHandler(r, sender, HandlerConfig{
		From:     "shop@example.com",
		ResetURL: "https://shop.example.com/reset?lang=en",
	}, zap.NewNop())
}

func placedOrder() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DisplayID:         1001,
		Email:             "jane@example.com",
		CurrencyCode:      "usd",
	}
	o.Totals.Total = decimal.RequireFromString("12.5")
	return o
}

func TestRenderer_BuiltinTemplates(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	subject, body, err := r.Render(TemplateOrderPlaced, orderData{
		DisplayID:    42,
		CurrencyCode: "eur",
		Total:        decimal.RequireFromString("10.005"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Order #42 confirmed", subject)
	assert.Contains(t, body, "#42")
	assert.Contains(t, body, "EUR 10.01")
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	_, _, err = r.Render("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestRenderer_EscapesBody(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	_, body, err := r.Render(TemplatePasswordReset, resetData{
		Name:      "<script>alert(1)</script>",
		ResetURL:  "https://shop.example.com/reset?token=abc",
		ExpiresAt: time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "Jan 2, 2026 15:04 UTC")
}

func TestRenderer_OverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "order_placed.subject.tmpl"), []byte("Thanks for order {{.DisplayID}}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "order_placed.html.tmpl"), []byte("<p>custom {{.DisplayID}}</p>"), 0o600))

	r, err := NewRenderer(dir)
	require.NoError(t, err)

	subject, body, err := r.Render(TemplateOrderPlaced, orderData{DisplayID: 7})
	require.NoError(t, err)
	assert.Equal(t, "Thanks for order 7", subject)
	assert.Equal(t, "<p>custom 7</p>", body)

	_, _, err = r.Render(TemplateOrderCanceled, orderData{DisplayID: 7, CurrencyCode: "usd"})
	assert.NoError(t, err, "templates not overridden stay available")
}

func TestRenderer_OverrideMissingBody(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "welcome.subject.tmpl"), []byte("Hi"), 0o600))

	_, err := NewRenderer(dir)
	assert.Error(t, err)
}

func TestRenderer_MissingOverrideDir(t *testing.T) {
	_, err := NewRenderer(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "JPY 1235", formatMoney(decimal.RequireFromString("1234.5"), "jpy"))
	assert.Equal(t, "USD 3.50", formatMoney(decimal.RequireFromString("3.499"), "USD"))
}

func TestHandler_OrderPlaced(t *testing.T) {
	sender := &MemorySender{}
	h := newTestHandler(t, sender)

	require.NoError(t, h.Handle(context.Background(), order.NewOrderEvent(order.EventOrderPlaced, placedOrder())))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "shop@example.com", sent[0].From)
	assert.Equal(t, "jane@example.com", sent[0].To)
	assert.Equal(t, "Order #1001 confirmed", sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "USD 12.50")
}

func TestHandler_OrderCanceled(t *testing.T) {
	sender := &MemorySender{}
	h := newTestHandler(t, sender)

	require.NoError(t, h.Handle(context.Background(), order.NewOrderEvent(order.EventOrderCanceled, placedOrder())))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Order #1001 canceled", sent[0].Subject)
}

func TestHandler_IgnoresOtherOrderEvents(t *testing.T) {
	sender := &MemorySender{}
	h := newTestHandler(t, sender)

	require.NoError(t, h.Handle(context.Background(), order.NewOrderEvent(order.EventOrderCompleted, placedOrder())))
	assert.Empty(t, sender.Sent())
}

func TestHandler_ReturnReceived(t *testing.T) {
	sender := &MemorySender{}
	h := newTestHandler(t, sender)

	evt := &order.ReturnReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventReturnReceived, order.AggregateTypeOrder, uuid.New()),
		ReturnID:        uuid.New(),
		Email:           "jane@example.com",
		RefundAmount:    decimal.RequireFromString("4"),
		CurrencyCode:    "usd",
	}
	require.NoError(t, h.Handle(context.Background(), evt))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "We received your return", sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "USD 4.00")
}

func TestHandler_PasswordResetLink(t *testing.T) {
	sender := &MemorySender{}
	h := newTestHandler(t, sender)

	user, err := identity.NewUser("jane@example.com", "Secr3t-password")
	require.NoError(t, err)
	user.SetName("Jane", "Doe")

	evt := identity.NewPasswordResetRequestedEvent(user, "abc123", time.Now().Add(15*time.Minute))
	require.NoError(t, h.Handle(context.Background(), evt))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].HTML, "Hi Jane Doe")
	assert.Contains(t, sent[0].HTML, "https://shop.example.com/reset?lang=en&amp;token=abc123")
}

func TestHandler_SkipsWithoutRecipient(t *testing.T) {
	sender := &MemorySender{}
	h := newTestHandler(t, sender)

	o := placedOrder()
	o.Email = ""
	require.NoError(t, h.Handle(context.Background(), order.NewOrderEvent(order.EventOrderPlaced, o)))
	assert.Empty(t, sender.Sent())
}

func TestHandler_SenderError(t *testing.T) {
	h := newTestHandler(t, failingSender{})

	err := h.Handle(context.Background(), order.NewOrderEvent(order.EventOrderPlaced, placedOrder()))
	assert.ErrorContains(t, err, "smtp down")
}

func TestHandler_ThroughBusIsIdempotent(t *testing.T) {
	sender := &MemorySender{}
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(event.NewIdempotentHandler(newTestHandler(t, sender), store, shared.DefaultIdempotencyConfig(), zap.NewNop()))

	evt := order.NewOrderEvent(order.EventOrderPlaced, placedOrder())
	require.NoError(t, bus.Publish(context.Background(), evt))
	require.NoError(t, bus.Publish(context.Background(), evt))

	assert.Len(t, sender.Sent(), 1)
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core))

	require.NoError(t, s.Send(context.Background(), Message{To: "a@example.com", Subject: "hi", HTML: "<p>secret</p>"}))

	entries := logs.FilterMessage("email sent").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a@example.com", entries[0].ContextMap()["to"])
	assert.Zero(t, logs.FilterMessage("email body").Len())
}
