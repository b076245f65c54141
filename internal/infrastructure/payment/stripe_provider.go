// Package payment holds payment provider integrations.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/commerce/backend/internal/domain/payment"
	"github.com/commerce/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/refund"
	"go.uber.org/zap"
)

// StripeProviderID is the provider id payments made through Stripe carry
const StripeProviderID = "stripe"

// Keys of payment data written and read by the Stripe provider
const (
	dataPaymentIntentID = "payment_intent_id"
	dataClientSecret    = "client_secret"
	dataPaymentMethod   = "payment_method"
)

// StripeProvider authorizes payments as manual-capture PaymentIntents and
// captures, refunds or cancels them later
type StripeProvider struct {
	config *StripeConfig
	logger *zap.Logger
}

var _ payment.Provider = (*StripeProvider)(nil)

// NewStripeProvider creates a new Stripe provider
func NewStripeProvider(config *StripeConfig, logger *zap.Logger) (*StripeProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.InitStripeClient()
	return &StripeProvider{config: config, logger: logger}, nil
}

// ID returns "stripe"
func (p *StripeProvider) ID() string { return StripeProviderID }

// Authorize creates and confirms a PaymentIntent that is captured later.
// The payment method id is read from in.Data["payment_method"].
func (p *StripeProvider) Authorize(ctx context.Context, in payment.AuthorizeInput) (map[string]any, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toMinorUnits(in.Amount, in.CurrencyCode)),
		Currency:      stripe.String(strings.ToLower(in.CurrencyCode)),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
	}
	if pm, ok := in.Data[dataPaymentMethod].(string); ok && pm != "" {
		params.PaymentMethod = stripe.String(pm)
		params.Confirm = stripe.Bool(true)
	}
	if in.Email != "" {
		params.ReceiptEmail = stripe.String(in.Email)
	}
	if p.config.StatementDescriptor != "" {
		params.StatementDescriptor = stripe.String(p.config.StatementDescriptor)
	}
	params.Metadata = map[string]string{"payment_collection_id": in.CollectionID.String()}
	params.SetIdempotencyKey("authorize-" + in.CollectionID.String())

	intent, err := paymentintent.New(params)
	if err != nil {
		p.logger.Error("Failed to create Stripe payment intent",
			zap.String("payment_collection_id", in.CollectionID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to authorize payment: %w", err)
	}
	switch intent.Status {
	case stripe.PaymentIntentStatusRequiresCapture, stripe.PaymentIntentStatusSucceeded,
		stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresAction:
	default:
		return nil, fmt.Errorf("stripe: payment intent %s has status %s", intent.ID, intent.Status)
	}

	p.logger.Info("Created Stripe payment intent",
		zap.String("payment_intent_id", intent.ID),
		zap.String("status", string(intent.Status)))

	return map[string]any{
		dataPaymentIntentID: intent.ID,
		dataClientSecret:    intent.ClientSecret,
		"status":            string(intent.Status),
	}, nil
}

// Capture captures amount of the payment's intent
func (p *StripeProvider) Capture(ctx context.Context, pay *payment.Payment, amount decimal.Decimal) error {
	id, err := intentID(pay)
	if err != nil {
		return err
	}
	params := &stripe.PaymentIntentCaptureParams{
		AmountToCapture: stripe.Int64(toMinorUnits(amount, pay.CurrencyCode)),
	}
	if _, err := paymentintent.Capture(id, params); err != nil {
		p.logger.Error("Failed to capture Stripe payment intent", zap.String("payment_intent_id", id), zap.Error(err))
		return fmt.Errorf("stripe: failed to capture payment: %w", err)
	}
	return nil
}

// Refund refunds amount of the payment's intent
func (p *StripeProvider) Refund(ctx context.Context, pay *payment.Payment, amount decimal.Decimal) error {
	id, err := intentID(pay)
	if err != nil {
		return err
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(id),
		Amount:        stripe.Int64(toMinorUnits(amount, pay.CurrencyCode)),
	}
	if _, err := refund.New(params); err != nil {
		p.logger.Error("Failed to refund Stripe payment intent", zap.String("payment_intent_id", id), zap.Error(err))
		return fmt.Errorf("stripe: failed to refund payment: %w", err)
	}
	return nil
}

// Cancel cancels the payment's intent
func (p *StripeProvider) Cancel(ctx context.Context, pay *payment.Payment) error {
	id, err := intentID(pay)
	if err != nil {
		return err
	}
	if _, err := paymentintent.Cancel(id, &stripe.PaymentIntentCancelParams{}); err != nil {
		p.logger.Error("Failed to cancel Stripe payment intent", zap.String("payment_intent_id", id), zap.Error(err))
		return fmt.Errorf("stripe: failed to cancel payment: %w", err)
	}
	return nil
}

func intentID(pay *payment.Payment) (string, error) {
	id, ok := pay.Data[dataPaymentIntentID].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("stripe: payment %s has no payment intent", pay.ID)
	}
	return id, nil
}

// toMinorUnits converts an amount to the currency's smallest unit
func toMinorUnits(amount decimal.Decimal, currencyCode string) int64 {
	return amount.Shift(valueobject.CurrencyDigits(currencyCode)).Round(0).IntPart()
}
