// internal/events/service.go
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"eventradar/pkg/geo"
)

// Service defines the interface for the events service.
type Service interface {
	Create(ctx context.Context, ev *Event, organizerID uuid.UUID) (*Event, error)
	Get(ctx context.Context, id uuid.UUID) (*Event, error)
	Update(ctx context.Context, id uuid.UUID, updates EventUpdate, callerID uuid.UUID) (*Event, error)
	Delete(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error
	List(ctx context.Context, q SearchQuery) (*SearchResult, error)
	SearchNearby(ctx context.Context, center geo.Point, q SearchQuery) (*SearchResult, error)
}

// EventUpdate carries the mutable fields of an event; nil means unchanged.
type EventUpdate struct {
	Title        *string
	Description  *string
	Location     *Location
	Date         *time.Time
	EndDate      *time.Time
	Categories   []string
	MaxAttendees *int
	Status       *string
}
