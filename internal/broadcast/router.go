package broadcast

import (
	"encoding/json"
	"log/slog"

	"github.com/THE3-EDU/web-the3meetup/internal/domain"
	"github.com/THE3-EDU/web-the3meetup/internal/metrics"
	"github.com/THE3-EDU/web-the3meetup/internal/registry"
)

// Envelope is the wire format for every server-to-client message.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Router implements domain.Publisher on top of the connection registry.
type Router struct {
	registry *registry.Registry
}

func NewRouter(reg *registry.Registry) *Router {
	return &Router{registry: reg}
}

// Publish serializes the event once and attempts a non-blocking send to
// every connection matching the audience predicate. Send failures are
// logged and counted, never propagated to the caller.
func (r *Router) Publish(eventType string, data any, audience func(domain.Role) bool) {
	payload, err := json.Marshal(Envelope{Type: eventType, Data: data})
	if err != nil {
		slog.Error("Failed to marshal broadcast event", "event", eventType, "error", err)
		return
	}

	recipients := r.registry.ForEachMatching(audience)

	sent := 0
	for _, rec := range recipients {
		if err := rec.Sender.TrySend(payload); err != nil {
			metrics.BroadcastSendFailures.Inc()
			slog.Warn("Broadcast send failed",
				"event", eventType,
				"handle", rec.Handle.String(),
				"remote_addr", rec.RemoteAddr,
				"error", err,
			)
			continue
		}
		sent++
	}

	metrics.BroadcastsTotal.WithLabelValues(eventType).Inc()
	slog.Debug("Broadcast complete", "event", eventType, "sent", sent, "audience", len(recipients))
}
