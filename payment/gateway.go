package payment

import (
	"context"
	"math"
)

// Intent statuses the storefront acts on.
const (
	StatusSucceeded = "succeeded"
)

// Intent is the gateway's view of a payment. Amount is in minor units.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
}

// MajorAmount converts the intent amount back to major units.
func (i *Intent) MajorAmount() float64 {
	return float64(i.Amount) / 100
}

// Gateway creates and inspects payment intents.
type Gateway interface {
	// CreateIntent charges amount major units. Conversion to minor units happens here.
	CreateIntent(ctx context.Context, amount float64, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
}

// Webhook event types handled by the storefront.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded  = "charge.refunded"
)

// WebhookEvent is a verified gateway notification reduced to what order
// bookkeeping needs.
type WebhookEvent struct {
	ID       string
	Type     string
	IntentID string
}

// WebhookVerifier checks a webhook signature and decodes the event.
type WebhookVerifier interface {
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// ToMinorUnits converts a major-unit amount once, rounding to the nearest unit.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
