package worker

import (
	"context"

	domorder "github.com/trippeak/tourshop/internal/domain/order"
	domoutbox "github.com/trippeak/tourshop/internal/domain/outbox"
	"github.com/trippeak/tourshop/internal/pkg/logging"
	"go.uber.org/zap"
)

// Worker consumes settlement events and notifies customers. The delivery
// channel here is the log; a real deployment would plug a mail/SMS sender
// behind the same subscription.
type Worker struct {
	subscriber domoutbox.Subscriber
}

func New(subscriber domoutbox.Subscriber) *Worker {
	return &Worker{subscriber: subscriber}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domorder.OrderSettledEvent{}.EventName(), w.handleOrderSettled)
	w.subscriber.Subscribe(domorder.OrderCancelledEvent{}.EventName(), w.handleOrderCancelled)
}

func (w *Worker) handleOrderSettled(ctx context.Context, e domoutbox.Event) error {
	logger := logging.FromContext(ctx).With(zap.String("component", "notification_worker"))

	evt, ok := e.(domorder.OrderSettledEvent)
	if !ok {
		return nil
	}

	logger.Info("order_settled_notification",
		zap.String("order_id", evt.OrderID),
		zap.String("customer_id", evt.CustomerID),
		zap.String("total", evt.Total.String()),
		zap.String("shop_credits", evt.ShopCredits.String()),
		zap.String("commission", evt.Commission.String()),
	)
	return nil
}

func (w *Worker) handleOrderCancelled(ctx context.Context, e domoutbox.Event) error {
	logger := logging.FromContext(ctx).With(zap.String("component", "notification_worker"))

	evt, ok := e.(domorder.OrderCancelledEvent)
	if !ok {
		return nil
	}

	logger.Info("order_cancelled_notification",
		zap.String("order_id", evt.OrderID),
		zap.String("customer_id", evt.CustomerID),
	)
	return nil
}
