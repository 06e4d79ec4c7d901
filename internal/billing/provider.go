// Package billing sequences the content-subscription purchase: a pending
// subscription is created server-side with a payment intent, then the
// intent is confirmed with the payment provider.
package billing

import (
	"context"
	"errors"
)

// Intent states reported by a provider.
const (
	IntentSucceeded             = "succeeded"
	IntentRequiresAction        = "requires_action"
	IntentRequiresPaymentMethod = "requires_payment_method"
	IntentProcessing            = "processing"
	IntentCanceled              = "canceled"
)

// Intent is the provider-neutral view of a payment intent.
type Intent struct {
	ID           string
	Status       string
	ClientSecret string
}

// Provider is the payment processor.  Implementations must not retry.
type Provider interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error)
	Confirm(ctx context.Context, intentID, paymentMethod string) (Intent, error)
	Cancel(ctx context.Context, intentID string) error
}

// PaymentError carries the provider's user-facing message for a failed
// confirmation.
type PaymentError struct {
	SubscriptionID uint64
	Message        string
	Err            error
}

func (e *PaymentError) Error() string { return "payment failed: " + e.Message }

func (e *PaymentError) Unwrap() error { return e.Err }

// ErrPaymentNotConfigured is returned when no provider key is set.
var ErrPaymentNotConfigured = errors.New("payment provider not configured")
