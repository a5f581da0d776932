// internal/notifications/matcher.go
package notifications

import (
	"context"
	"fmt"

	"eventradar/internal/events"
	"eventradar/internal/users"
	"eventradar/pkg/geo"
)

// Matcher computes the recipient set for an event: users whose preferred
// categories intersect the event's categories and whose registered location
// lies within the catchment radius. Both conditions are required; users
// without a location never match. The user store enforces both in its
// query, so the matcher's job is framing the question, not filtering rows.
type Matcher struct {
	users           users.Store
	catchmentMeters float64
}

// NewMatcher builds a matcher with the given catchment radius.
func NewMatcher(store users.Store, catchmentRadiusKm float64) *Matcher {
	return &Matcher{
		users:           store,
		catchmentMeters: geo.KilometersToMeters(catchmentRadiusKm),
	}
}

// FindRecipients returns the users to notify about ev. An empty slice is a
// legitimate outcome, not an error.
func (m *Matcher) FindRecipients(ctx context.Context, ev *events.Event) ([]Recipient, error) {
	matched, err := m.users.FindByInterestNear(ctx, ev.Categories, ev.Location.Point(), m.catchmentMeters)
	if err != nil {
		return nil, fmt.Errorf("find interested users: %w", err)
	}

	recipients := make([]Recipient, 0, len(matched))
	for _, u := range matched {
		recipients = append(recipients, Recipient{
			UserID:            u.ID.String(),
			PreferredLanguage: u.PreferredLanguage,
		})
	}
	return recipients, nil
}
