package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVerifier struct {
	parseFn func(payload []byte, signature string) (*payment.WebhookEvent, error)
}

func (f *fakeVerifier) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	return f.parseFn(payload, signature)
}

func eventVerifier(eventType, intentID string) *fakeVerifier {
	return &fakeVerifier{parseFn: func([]byte, string) (*payment.WebhookEvent, error) {
		return &payment.WebhookEvent{ID: "evt_1", Type: eventType, IntentID: intentID}, nil
	}}
}

func seedIntentOrder(db *memDB, intentID, status string) uuid.UUID {
	id := uuid.New()
	db.orders = append(db.orders, &models.Order{
		ID:              id,
		UserID:          "user-1",
		PaymentMethod:   models.PaymentMethodStripe,
		PaymentIntentID: &intentID,
		PaymentStatus:   status,
		OrderStatus:     models.OrderStatusPlaced,
	})
	return id
}

func TestPaymentService_CreateIntent(t *testing.T) {
	var gotAmount float64
	var gotMeta map[string]string
	gw := &fakeGateway{createFn: func(_ context.Context, amount float64, metadata map[string]string) (*payment.Intent, error) {
		gotAmount, gotMeta = amount, metadata
		return &payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: payment.ToMinorUnits(amount), Status: "requires_payment_method"}, nil
	}}
	svc := NewPaymentService(gw, nil, memOrders{newMemDB()}, nil, "", nil, zap.NewNop())

	intent, err := svc.CreateIntent(context.Background(), shopper, 1440.5)

	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, int64(144050), intent.Amount)
	assert.Equal(t, 1440.5, gotAmount)
	assert.Equal(t, "user-1", gotMeta["userId"])
}

func TestPaymentService_CreateIntentRejections(t *testing.T) {
	gw := &fakeGateway{createFn: func(context.Context, float64, map[string]string) (*payment.Intent, error) {
		return nil, errors.New("stripe: api_connection_error")
	}}
	svc := NewPaymentService(gw, nil, memOrders{newMemDB()}, nil, "", nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.CreateIntent(ctx, shopper, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	_, err = svc.CreateIntent(ctx, shopper, -10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	_, err = svc.CreateIntent(ctx, shopper, 100)
	assert.ErrorIs(t, err, &apperrors.Error{Kind: apperrors.KindUpstream})
}

func TestPaymentService_ConfirmPayment(t *testing.T) {
	status := "processing"
	gw := &fakeGateway{retrieveFn: func(_ context.Context, id string) (*payment.Intent, error) {
		return &payment.Intent{ID: id, Status: status, Amount: 1000}, nil
	}}
	svc := NewPaymentService(gw, nil, memOrders{newMemDB()}, nil, "", nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ConfirmPayment(ctx, "pi_1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentNotCompleted)
	assert.Equal(t, "Payment not successful. Status: processing", err.Error())

	status = payment.StatusSucceeded
	intent, err := svc.ConfirmPayment(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, intent.MajorAmount())

	_, err = svc.ConfirmPayment(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrPaymentIntentMissing)
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		from      string
		want      string
		published int
	}{
		{"succeeded marks pending paid", payment.EventIntentSucceeded, models.PaymentStatusPending, models.PaymentStatusPaid, 1},
		{"failure marks pending failed", payment.EventIntentFailed, models.PaymentStatusPending, models.PaymentStatusFailed, 1},
		{"refund marks paid refunded", payment.EventChargeRefunded, models.PaymentStatusPaid, models.PaymentStatusRefunded, 1},
		{"refund ignores unpaid order", payment.EventChargeRefunded, models.PaymentStatusPending, models.PaymentStatusPending, 0},
		{"succeeded does not resurrect refund", payment.EventIntentSucceeded, models.PaymentStatusRefunded, models.PaymentStatusRefunded, 0},
		{"unknown event is ignored", "customer.created", models.PaymentStatusPending, models.PaymentStatusPending, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newMemDB()
			orderID := seedIntentOrder(db, "pi_hook", tt.from)
			publisher := &fakePublisher{}
			svc := NewPaymentService(nil, eventVerifier(tt.eventType, "pi_hook"), memOrders{db}, publisher, "payment-events", nil, zap.NewNop())

			err := svc.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=abc")

			require.NoError(t, err)
			order, err := memOrders{db}.FindByID(context.Background(), orderID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, order.PaymentStatus)
			require.Len(t, publisher.messages["payment-events"], tt.published)
			if tt.published > 0 {
				var evt models.OrderStatusChangedEvent
				require.NoError(t, json.Unmarshal(publisher.messages["payment-events"][0], &evt))
				assert.Equal(t, models.EventPaymentUpdated, evt.Event)
				assert.Equal(t, tt.want, evt.PaymentStatus)
			}
		})
	}
}

func TestPaymentService_WebhookResyncsAdminResetOrder(t *testing.T) {
	sf := newStorefront(succeededGateway(94900))
	productID := seedShirt(sf.db, 5)
	ctx := context.Background()

	req := orderRequest(productID, 1, models.PaymentMethodStripe)
	req.PaymentIntentID = "pi_reset"
	order, err := sf.orders.PlaceOrder(ctx, shopper, req)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)

	_, err = sf.orders.UpdateStatus(ctx, order.ID.String(), &models.UpdateOrderStatusRequest{PaymentStatus: models.PaymentStatusPending})
	require.NoError(t, err)

	svc := NewPaymentService(nil, eventVerifier(payment.EventIntentSucceeded, "pi_reset"), memOrders{sf.db}, nil, "", nil, zap.NewNop())
	require.NoError(t, svc.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=abc"))

	got, err := memOrders{sf.db}.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
}

func TestPaymentService_HandleWebhookBadSignature(t *testing.T) {
	db := newMemDB()
	orderID := seedIntentOrder(db, "pi_hook", models.PaymentStatusPending)
	verifier := &fakeVerifier{parseFn: func([]byte, string) (*payment.WebhookEvent, error) {
		return nil, errors.New("webhook has invalid signature")
	}}
	svc := NewPaymentService(nil, verifier, memOrders{db}, nil, "", nil, zap.NewNop())

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "forged")

	assert.ErrorIs(t, err, &apperrors.Error{Kind: apperrors.KindValidation})
	order, _ := memOrders{db}.FindByID(context.Background(), orderID)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
}
