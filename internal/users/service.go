// internal/users/service.go
package users

import (
	"context"

	"github.com/google/uuid"

	"eventradar/pkg/geo"
)

// Service defines the interface for the users service.
type Service interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, updates ProfileUpdate) (*User, error)
}

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name                *string
	Location            *geo.Point
	PreferredCategories []string
	PreferredLanguage   *string
}
