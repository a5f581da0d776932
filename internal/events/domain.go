// internal/events/domain.go
package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventradar/pkg/geo"
)

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrNotOrganizer          = errors.New("not authorized: caller is not the organizer")
	ErrTextSearchUnsupported = errors.New("store does not support text search")
	ErrMissingCenter         = errors.New("longitude and latitude are required")
)

// ValidationError reports a caller-side input problem on a named field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Location is a point on the map plus a human-readable address.
type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Address   string  `json:"address"`
}

// Point returns the coordinate pair without the address.
func (l Location) Point() geo.Point {
	return geo.Point{Longitude: l.Longitude, Latitude: l.Latitude}
}

// Event is something happening at a place and time. Categories is never
// empty for a stored event; Status moves from active to cancelled or
// completed and never back.
type Event struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Location     Location   `json:"location"`
	Date         time.Time  `json:"date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Categories   []string   `json:"categories"`
	OrganizerID  uuid.UUID  `json:"organizer_id"`
	MaxAttendees *int       `json:"max_attendees,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Validate checks the invariants that hold for every stored event.
func (e *Event) Validate() error {
	if e.Title == "" {
		return ValidationError{Field: "title", Message: "must not be empty"}
	}
	if e.Description == "" {
		return ValidationError{Field: "description", Message: "must not be empty"}
	}
	if err := e.Location.Point().Validate(); err != nil {
		return ValidationError{Field: "location", Message: err.Error()}
	}
	if e.Location.Address == "" {
		return ValidationError{Field: "location.address", Message: "must not be empty"}
	}
	if e.Date.IsZero() {
		return ValidationError{Field: "date", Message: "must be set"}
	}
	if len(e.Categories) == 0 {
		return ValidationError{Field: "categories", Message: "at least one category is required"}
	}
	switch e.Status {
	case StatusActive, StatusCancelled, StatusCompleted:
	default:
		return ValidationError{Field: "status", Message: "must be active, cancelled or completed"}
	}
	return nil
}

// SearchQuery is the transient value object behind both the plain listing
// and the location search. Center is nil for non-geo listing.
type SearchQuery struct {
	Center     *geo.Point
	RadiusKm   float64
	Term       string
	Categories []string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}

// SearchResult is one page of matching events plus pagination bookkeeping.
// Total is a full count over the filtered set, not an estimate.
type SearchResult struct {
	Events      []*Event `json:"events"`
	Total       int      `json:"total"`
	TotalPages  int      `json:"totalPages"`
	CurrentPage int      `json:"currentPage"`
}
