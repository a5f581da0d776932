// internal/notifications/domain.go
package notifications

import (
	"errors"
	"time"

	"eventradar/internal/events"
)

const (
	// StatusQueued means the envelope was handed to the broker channel.
	StatusQueued = "queued"
	// StatusSimulated means the broker was unreachable and the envelope was
	// delivered through the local fallback instead. Recipient computation is
	// identical on both paths.
	StatusSimulated = "simulated"
)

// DefaultChannel is the broker channel notification envelopes are published
// on. Consumers outside this service subscribe to it by name.
const DefaultChannel = "event-notifications"

var ErrRateLimited = errors.New("too many notification requests")

// Recipient pairs a matched user with the language their notification
// should be rendered in.
type Recipient struct {
	UserID            string `json:"userId"`
	PreferredLanguage string `json:"preferredLanguage"`
}

// EnvelopeLocation mirrors the GeoJSON-ish shape consumers expect:
// coordinates are [longitude, latitude].
type EnvelopeLocation struct {
	Coordinates [2]float64 `json:"coordinates"`
	Address     string     `json:"address"`
}

// Envelope is the wire payload published per dispatch. Field names and the
// nesting of location are a compatibility surface; consumers depend on them
// exactly as written. All timestamps are RFC 3339.
type Envelope struct {
	EventID      string           `json:"eventId"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Location     EnvelopeLocation `json:"location"`
	Date         string           `json:"date"`
	Organizer    string           `json:"organizer"`
	Recipients   []Recipient      `json:"recipients"`
	CreatedAt    string           `json:"createdAt"`
	ScheduledFor string           `json:"scheduledFor"`
}

// NewEnvelope builds the payload for one dispatch of ev.
func NewEnvelope(ev *events.Event, organizerName string, recipients []Recipient, now time.Time, delay time.Duration) Envelope {
	scheduledFor := now
	if delay > 0 {
		scheduledFor = now.Add(delay)
	}
	return Envelope{
		EventID:     ev.ID.String(),
		Title:       ev.Title,
		Description: ev.Description,
		Location: EnvelopeLocation{
			Coordinates: [2]float64{ev.Location.Longitude, ev.Location.Latitude},
			Address:     ev.Location.Address,
		},
		Date:         ev.Date.Format(time.RFC3339),
		Organizer:    organizerName,
		Recipients:   recipients,
		CreatedAt:    now.Format(time.RFC3339),
		ScheduledFor: scheduledFor.Format(time.RFC3339),
	}
}

// DispatchResult reports the outcome of a single dispatch. RecipientCount
// always reflects the matcher's answer at call time, whichever path the
// envelope took.
type DispatchResult struct {
	Status         string `json:"status"`
	RecipientCount int    `json:"recipientCount"`
}

// ScanResult reports how many upcoming events had a dispatch invoked.
type ScanResult struct {
	QueuedCount int `json:"queuedCount"`
}
