package events

import (
	"context"
	"log/slog"

	"github.com/cleared-dev/registru/internal/logging"
	"github.com/cleared-dev/registru/internal/metrics"
)

// Notifier hands committed changes to a Publisher. Delivery failures are
// logged and counted but never returned: the change is already durable.
type Notifier struct {
	pub     Publisher
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewNotifier creates a Notifier. A nil pub drops events.
func NewNotifier(pub Publisher, m *metrics.Metrics, log *slog.Logger) *Notifier {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Notifier{pub: pub, metrics: m, log: logging.OrDiscard(log)}
}

// Notify publishes evs. A nil Notifier does nothing.
func (n *Notifier) Notify(ctx context.Context, evs ...Event) {
	if n == nil || len(evs) == 0 {
		return
	}
	err := n.pub.Publish(ctx, evs...)
	for _, ev := range evs {
		n.metrics.RecordEventPublished(ev.Type, err == nil)
	}
	if err != nil {
		n.log.Warn("event publish failed", "event_type", evs[0].Type, "key", evs[0].Key, "error", err)
	}
}
