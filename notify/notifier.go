package notify

import (
	"context"

	"github.com/braianruaimi/YAvoyOk-sub002/models"

	"github.com/rs/zerolog"
)

// Notifier is called after a transition commits. Delivery (email, push)
// is the collaborator's problem; failures must not unwind the request.
type Notifier interface {
	OrderChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error
}

// LogNotifier records transitions to the log; the default when no SMTP
// relay is configured.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) OrderChanged(_ context.Context, order *models.Order, from models.OrderStatus) error {
	n.Log.Info().
		Uint("order_id", order.ID).
		Str("from", string(from)).
		Str("to", string(order.Status)).
		Uint("client_id", order.ClientID).
		Msg("order status notification")
	return nil
}
