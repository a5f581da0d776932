// internal/notifications/implementation.go
package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// service implements the Service interface. Scans are rate limited: they
// fan out one dispatch per upcoming event, so a burst of scan requests
// multiplies load on the store and broker.
type service struct {
	dispatcher  *Dispatcher
	scanner     *Scanner
	scanLimiter *rate.Limiter
}

// NewService creates a new notifications service instance.
func NewService(dispatcher *Dispatcher, scanner *Scanner) Service {
	return &service{
		dispatcher:  dispatcher,
		scanner:     scanner,
		scanLimiter: rate.NewLimiter(rate.Every(time.Minute), 5), // 5 scans per minute
	}
}

func (s *service) Dispatch(ctx context.Context, eventID uuid.UUID, delayMinutes int) (*DispatchResult, error) {
	return s.dispatcher.Dispatch(ctx, eventID, delayMinutes)
}

func (s *service) ScanAndQueue(ctx context.Context, daysAhead int) (*ScanResult, error) {
	if !s.scanLimiter.Allow() {
		return nil, ErrRateLimited
	}
	return s.scanner.ScanAndQueue(ctx, daysAhead)
}
