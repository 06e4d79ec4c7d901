package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider implements Provider with the Stripe PaymentIntents API.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider returns nil when secretKey is empty so callers can
// treat payments as unavailable.
func NewStripeProvider(secretKey string) *StripeProvider {
	if secretKey == "" {
		return nil
	}
	return &StripeProvider{api: client.New(secretKey, nil)}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, wrapStripe(err)
	}
	return toIntent(pi), nil
}

func (p *StripeProvider) Confirm(ctx context.Context, intentID, paymentMethod string) (Intent, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethod),
	}
	params.Context = ctx
	pi, err := p.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		return Intent{}, wrapStripe(err)
	}
	return toIntent(pi), nil
}

func (p *StripeProvider) Cancel(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err := p.api.PaymentIntents.Cancel(intentID, params)
	return wrapStripe(err)
}

func toIntent(pi *stripe.PaymentIntent) Intent {
	return Intent{ID: pi.ID, Status: string(pi.Status), ClientSecret: pi.ClientSecret}
}

// providerError keeps the message Stripe intends for the end user.
type providerError struct {
	msg string
	err error
}

func (e *providerError) Error() string { return e.msg }
func (e *providerError) Unwrap() error { return e.err }

func wrapStripe(err error) error {
	if err == nil {
		return nil
	}
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return &providerError{msg: se.Msg, err: err}
	}
	return err
}
