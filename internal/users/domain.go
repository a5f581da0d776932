// internal/users/domain.go
package users

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"eventradar/pkg/geo"
)

var ErrUserNotFound = errors.New("user not found")

// SupportedLanguages are the language tags recipients may prefer.
var SupportedLanguages = []string{"en", "fr"}

// User is a registered account as this service consumes it: a location to
// match against event catchments, the categories the user cares about, and
// the language notifications should be rendered in. Location is optional; a
// user without one is simply never matched for proximity notifications.
type User struct {
	ID                  uuid.UUID  `json:"id"`
	Username            string     `json:"username"`
	Name                string     `json:"name"`
	Location            *geo.Point `json:"location,omitempty"`
	PreferredCategories []string   `json:"preferred_categories"`
	PreferredLanguage   string     `json:"preferred_language"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
