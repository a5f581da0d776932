// internal/notifications/service.go
package notifications

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the notifications service.
type Service interface {
	Dispatch(ctx context.Context, eventID uuid.UUID, delayMinutes int) (*DispatchResult, error)
	ScanAndQueue(ctx context.Context, daysAhead int) (*ScanResult, error)
}
