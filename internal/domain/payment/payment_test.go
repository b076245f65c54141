package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCollection_CaptureAndRefund(t *testing.T) {
	c, err := NewCollection("USD", dec("100"))
	require.NoError(t, err)
	now := time.Now()

	p, err := c.AddAuthorizedPayment(SystemProviderID, dec("100"), nil, now)
	require.NoError(t, err)
	paymentID := p.ID
	assert.Equal(t, CollectionAuthorized, c.Status)

	partial := dec("40")
	_, err = c.Capture(paymentID, &partial, "admin", now)
	require.NoError(t, err)
	p, _ = c.Payment(paymentID)
	assert.Equal(t, StatusPartiallyCaptured, p.Status)

	tooMuch := dec("61")
	_, err = c.Capture(paymentID, &tooMuch, "admin", now)
	assert.ErrorIs(t, err, ErrCaptureExceedsAuthorized)

	_, err = c.Capture(paymentID, nil, "admin", now)
	require.NoError(t, err)
	assert.Equal(t, CollectionCompleted, c.Status)
	assert.True(t, c.CapturedAmount().Equal(dec("100")))

	_, err = c.Refund(paymentID, dec("30"), "return", "", "admin", now)
	require.NoError(t, err)
	p, _ = c.Payment(paymentID)
	assert.Equal(t, StatusPartiallyRefunded, p.Status)

	_, err = c.Refund(paymentID, dec("71"), "", "", "admin", now)
	assert.ErrorIs(t, err, ErrRefundExceedsCaptured)

	assert.ErrorIs(t, c.CancelPayment(paymentID, now), ErrAlreadyCaptured)
}

func TestCollection_Cancel(t *testing.T) {
	c, err := NewCollection("eur", dec("10"))
	require.NoError(t, err)
	p, err := c.AddAuthorizedPayment(SystemProviderID, dec("10"), nil, time.Now())
	require.NoError(t, err)
	paymentID := p.ID

	require.NoError(t, c.Cancel(time.Now()))
	assert.Equal(t, CollectionCanceled, c.Status)
	p, _ = c.Payment(paymentID)
	assert.Equal(t, StatusCanceled, p.Status)

	_, err = c.Capture(paymentID, nil, "", time.Now())
	assert.ErrorIs(t, err, ErrPaymentCanceled)
}

func TestNewCollection_Validation(t *testing.T) {
	_, err := NewCollection("us", dec("-1"))
	assert.Error(t, err)
}

func TestProviderRegistry(t *testing.T) {
	r := NewProviderRegistry(SystemProvider{})
	p, err := r.Get(SystemProviderID)
	require.NoError(t, err)
	data, err := p.Authorize(context.Background(), AuthorizeInput{CollectionID: uuid.New()})
	require.NoError(t, err)
	assert.Contains(t, data, "reference")

	_, err = r.Get("stripe")
	assert.Error(t, err)
}
