package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/commerce/backend/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"go.uber.org/zap"
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func setupMockBackend(handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) func() {
	stripe.SetBackend(stripe.APIBackend, &mockBackend{handler: handler})
	return func() {
		stripe.SetBackend(stripe.APIBackend, nil)
	}
}

func testProvider(t *testing.T) *StripeProvider {
	t.Helper()
	p, err := NewStripeProvider(&StripeConfig{SecretKey: "sk_test_123456789", IsTestMode: true}, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestStripeConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      StripeConfig
		expectedErr string
	}{
		{"missing key", StripeConfig{IsTestMode: true}, "secret key is required"},
		{"test mode with live key", StripeConfig{SecretKey: "sk_live_1", IsTestMode: true}, "not a test key"},
		{"live mode with test key", StripeConfig{SecretKey: "sk_test_1"}, "not a live key"},
		{"long descriptor", StripeConfig{SecretKey: "sk_test_1", IsTestMode: true, StatementDescriptor: "a statement descriptor that is long"}, "22 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestStripeProvider_Authorize(t *testing.T) {
	p := testProvider(t)
	var sent *stripe.PaymentIntentParams
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/payment_intents" {
			sent = params.(*stripe.PaymentIntentParams)
			return json.Marshal(&stripe.PaymentIntent{
				ID:           "pi_123",
				ClientSecret: "pi_123_secret",
				Status:       stripe.PaymentIntentStatusRequiresCapture,
			})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})
	defer cleanup()

	data, err := p.Authorize(context.Background(), payment.AuthorizeInput{
		CollectionID: uuid.New(),
		Amount:       decimal.RequireFromString("19.99"),
		CurrencyCode: "USD",
		Email:        "ann@example.com",
		Data:         map[string]any{"payment_method": "pm_card_visa"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", data["payment_intent_id"])
	assert.Equal(t, int64(1999), *sent.Amount)
	assert.Equal(t, "usd", *sent.Currency)
	assert.Equal(t, "manual", *sent.CaptureMethod)
	assert.True(t, *sent.Confirm)
}

func TestStripeProvider_Authorize_ZeroDecimalCurrency(t *testing.T) {
	p := testProvider(t)
	var amount int64
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		amount = *params.(*stripe.PaymentIntentParams).Amount
		return json.Marshal(&stripe.PaymentIntent{ID: "pi_jpy", Status: stripe.PaymentIntentStatusRequiresPaymentMethod})
	})
	defer cleanup()

	_, err := p.Authorize(context.Background(), payment.AuthorizeInput{
		CollectionID: uuid.New(), Amount: decimal.NewFromInt(1500), CurrencyCode: "JPY",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), amount)
}

func TestStripeProvider_Authorize_Declined(t *testing.T) {
	p := testProvider(t)
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, &stripe.Error{Code: stripe.ErrorCodeCardDeclined, Msg: "Your card was declined"}
	})
	defer cleanup()

	_, err := p.Authorize(context.Background(), payment.AuthorizeInput{
		CollectionID: uuid.New(), Amount: decimal.NewFromInt(5), CurrencyCode: "usd",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to authorize payment")
}

func TestStripeProvider_CaptureRefundCancel(t *testing.T) {
	p := testProvider(t)
	var calls []string
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		calls = append(calls, method+" "+path)
		switch path {
		case "/v1/payment_intents/pi_9/capture":
			assert.Equal(t, int64(500), *params.(*stripe.PaymentIntentCaptureParams).AmountToCapture)
			return json.Marshal(&stripe.PaymentIntent{ID: "pi_9", Status: stripe.PaymentIntentStatusSucceeded})
		case "/v1/refunds":
			assert.Equal(t, int64(250), *params.(*stripe.RefundParams).Amount)
			return json.Marshal(&stripe.Refund{ID: "re_1"})
		case "/v1/payment_intents/pi_9/cancel":
			return json.Marshal(&stripe.PaymentIntent{ID: "pi_9", Status: stripe.PaymentIntentStatusCanceled})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})
	defer cleanup()

	pay := &payment.Payment{ID: uuid.New(), CurrencyCode: "EUR", Data: map[string]any{"payment_intent_id": "pi_9"}}
	ctx := context.Background()
	require.NoError(t, p.Capture(ctx, pay, decimal.NewFromInt(5)))
	require.NoError(t, p.Refund(ctx, pay, decimal.RequireFromString("2.50")))
	require.NoError(t, p.Cancel(ctx, pay))
	assert.Equal(t, []string{
		"POST /v1/payment_intents/pi_9/capture",
		"POST /v1/refunds",
		"POST /v1/payment_intents/pi_9/cancel",
	}, calls)

	err := p.Capture(ctx, &payment.Payment{ID: uuid.New()}, decimal.NewFromInt(1))
	assert.ErrorContains(t, err, "has no payment intent")
}
