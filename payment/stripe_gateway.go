package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeGateway implements Gateway and WebhookVerifier on Stripe.
type StripeGateway struct {
	webhookKey string
	currency   string
}

func NewStripeGateway(secretKey, webhookKey, currency string) *StripeGateway {
	stripe.Key = secretKey
	if currency == "" {
		currency = string(stripe.CurrencyINR)
	}
	return &StripeGateway{webhookKey: webhookKey, currency: currency}
}

func (s *StripeGateway) CreateIntent(ctx context.Context, amount float64, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinorUnits(amount)),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return toIntent(pi), nil
}

func (s *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return nil, err
	}
	return toIntent(pi), nil
}

func (s *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookKey, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}

	switch out.Type {
	case EventIntentSucceeded, EventIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to parse payment intent: %w", err)
		}
		out.IntentID = pi.ID
	case EventChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("failed to parse charge: %w", err)
		}
		if charge.PaymentIntent != nil {
			out.IntentID = charge.PaymentIntent.ID
		}
	}
	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}
