// internal/notifications/dispatcher.go
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eventradar/internal/events"
	"eventradar/internal/users"
	"eventradar/pkg/broker"
	"eventradar/pkg/metrics"
)

// Dispatcher computes recipients for one event and hands the envelope to the
// broker. A broker that is down is not an error: the dispatcher degrades to
// a local log of the same envelope and reports StatusSimulated, so the
// triggering request still succeeds and recipient counts stay observable.
type Dispatcher struct {
	events    events.Store
	users     users.Store
	matcher   *Matcher
	publisher broker.Publisher
	channel   string
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewDispatcher(
	eventStore events.Store,
	userStore users.Store,
	matcher *Matcher,
	publisher broker.Publisher,
	channel string,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Dispatcher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Dispatcher{
		events:    eventStore,
		users:     userStore,
		matcher:   matcher,
		publisher: publisher,
		channel:   channel,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Dispatch resolves recipients fresh, builds the envelope and publishes it
// once, or logs it once on the degraded path. Exactly one of the two
// side effects happens per call.
func (d *Dispatcher) Dispatch(ctx context.Context, eventID uuid.UUID, delayMinutes int) (*DispatchResult, error) {
	ev, err := d.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	organizer, err := d.users.GetByID(ctx, ev.OrganizerID)
	if err != nil {
		return nil, fmt.Errorf("resolve organizer: %w", err)
	}

	recipients, err := d.matcher.FindRecipients(ctx, ev)
	if err != nil {
		return nil, err
	}

	now := d.now().UTC()
	envelope := NewEnvelope(ev, organizer.Name, recipients, now, time.Duration(delayMinutes)*time.Minute)
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	status := StatusQueued
	if !d.publisher.Healthy(ctx) {
		status = StatusSimulated
	} else if err := d.publisher.Publish(ctx, d.channel, string(payload)); err != nil {
		status = StatusSimulated
	}

	if status == StatusSimulated {
		// Local fallback: the envelope is observable in the logs even though
		// no consumer will receive it.
		d.logger.Info("broker unreachable, notification delivered locally",
			zap.String("event_id", envelope.EventID),
			zap.Int("recipients", len(recipients)),
			zap.ByteString("envelope", payload),
		)
	}

	d.metrics.DispatchesTotal.WithLabelValues(status).Inc()
	d.metrics.RecipientsMatched.Add(float64(len(recipients)))

	return &DispatchResult{Status: status, RecipientCount: len(recipients)}, nil
}
