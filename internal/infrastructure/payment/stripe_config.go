package payment

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
)

// StripeConfig holds configuration for the Stripe payment provider
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`

	// IsTestMode indicates if using Stripe test mode
	IsTestMode bool `json:"is_test_mode" mapstructure:"is_test_mode"`

	// StatementDescriptor is shown on card statements
	StatementDescriptor string `json:"statement_descriptor" mapstructure:"statement_descriptor"`
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	if c.IsTestMode && !strings.HasPrefix(c.SecretKey, "sk_test") {
		return fmt.Errorf("stripe: test mode enabled but secret key is not a test key")
	}
	if !c.IsTestMode && !strings.HasPrefix(c.SecretKey, "sk_live") {
		return fmt.Errorf("stripe: live mode enabled but secret key is not a live key")
	}
	if len(c.StatementDescriptor) > 22 {
		return fmt.Errorf("stripe: statement descriptor cannot exceed 22 characters")
	}
	return nil
}

// InitStripeClient initializes the Stripe client with the configured API key
func (c *StripeConfig) InitStripeClient() {
	stripe.Key = c.SecretKey
}
