// internal/notifications/scanner.go
package notifications

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"eventradar/internal/events"
	"eventradar/pkg/metrics"
)

// Scanner selects active events inside an upcoming date window and drives
// one dispatch per event through a bounded worker pool. A failed dispatch is
// logged at that event's scope and never aborts the rest of the scan.
type Scanner struct {
	events     events.Store
	dispatcher *Dispatcher
	workers    int
	logger     *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewScanner(eventStore events.Store, dispatcher *Dispatcher, workers int, logger *zap.Logger, m *metrics.Metrics) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		events:     eventStore,
		dispatcher: dispatcher,
		workers:    workers,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// ScanAndQueue dispatches notifications for every active event dated within
// [now, now+daysAhead days], inclusive. QueuedCount counts events whose
// dispatch was invoked successfully; it says nothing about broker delivery.
func (s *Scanner) ScanAndQueue(ctx context.Context, daysAhead int) (*ScanResult, error) {
	if daysAhead < 1 {
		daysAhead = 1
	}

	from := s.now().UTC()
	to := from.AddDate(0, 0, daysAhead)

	upcoming, err := s.events.FindUpcoming(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.metrics.ScanEventsSelected.Add(float64(len(upcoming)))

	jobs := make(chan *events.Event)
	results := make(chan bool)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range jobs {
				if _, err := s.dispatcher.Dispatch(ctx, ev.ID, 0); err != nil {
					s.logger.Error("dispatch failed during scan",
						zap.String("event_id", ev.ID.String()),
						zap.Error(err),
					)
					results <- false
					continue
				}
				results <- true
			}
		}()
	}

	go func() {
		for _, ev := range upcoming {
			jobs <- ev
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	queued := 0
	for ok := range results {
		if ok {
			queued++
		}
	}

	s.logger.Info("upcoming-event scan complete",
		zap.Int("selected", len(upcoming)),
		zap.Int("queued", queued),
		zap.Int("days_ahead", daysAhead),
	)
	return &ScanResult{QueuedCount: queued}, nil
}
