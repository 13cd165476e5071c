package portal

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/swaroop-labs/portalctl/internal/apiclient"
	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
)

// Bonus thresholds for credit purchases, in credits.
const (
	bonusTierHigh = 1000
	bonusTierLow  = 500
	bonusPctHigh  = 15
	bonusPctLow   = 10
)

// BonusCredits returns the bonus granted for purchasing the given number
// of credits: 15% at 1000 or more, 10% at 500 or more, otherwise none.
func BonusCredits(credits int64) int64 {
	switch {
	case credits >= bonusTierHigh:
		return credits * bonusPctHigh / 100
	case credits >= bonusTierLow:
		return credits * bonusPctLow / 100
	default:
		return 0
	}
}

// Payments initiates credit purchases.
//
// Completing a purchase changes the account balance on the backend, so
// interested parties (the profile snapshot, the transactions view) register
// completion callbacks rather than polling; the callbacks run after every
// successful initiate call, on the caller's goroutine.
type Payments struct {
	client *apiclient.Client
	logger *logging.Logger

	mu        sync.Mutex
	completed []func(context.Context)
}

// NewPayments creates the payment service.
func NewPayments(client *apiclient.Client, logger *logging.Logger) *Payments {
	return &Payments{client: client, logger: logger}
}

// OnCompleted registers a callback to run after each successful purchase
// call. Typical use is refreshing the profile snapshot so the credit
// balance shown to the user tracks the server.
func (p *Payments) OnCompleted(fn func(context.Context)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, fn)
}

// Initiate creates a gateway order for the given amount and credits. The
// bonus is computed client-side for display; the backend computes its own
// authoritative figure. Each call carries a fresh idempotency key so a
// retried submit cannot double-charge.
func (p *Payments) Initiate(ctx context.Context, amount float64, credits int64) (PaymentOrder, error) {
	if amount <= 0 || credits <= 0 {
		return PaymentOrder{}, ErrInvalidAmount
	}

	body := map[string]any{
		"amount":         amount,
		"credits":        credits,
		"idempotencyKey": uuid.New().String(),
	}
	var order PaymentOrder
	if err := p.client.Post(ctx, "/payments/initiate", body, &order); err != nil {
		return PaymentOrder{}, err
	}
	if order.BonusCredits == 0 {
		order.BonusCredits = BonusCredits(order.Credits)
	}

	p.logger.Info("payment initiated",
		"order_id", order.OrderID, "credits", order.Credits, "bonus", order.BonusCredits)

	p.mu.Lock()
	callbacks := make([]func(context.Context), len(p.completed))
	copy(callbacks, p.completed)
	p.mu.Unlock()
	for _, fn := range callbacks {
		fn(ctx)
	}
	return order, nil
}
