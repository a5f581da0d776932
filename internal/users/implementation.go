// internal/users/implementation.go
package users

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface.
type service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new users service instance.
func NewService(store Store) Service {
	return &service{store: store, now: time.Now}
}

func (s *service) GetProfile(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, updates ProfileUpdate) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if updates.Name != nil {
		u.Name = *updates.Name
	}
	if updates.Location != nil {
		if err := updates.Location.Validate(); err != nil {
			return nil, fmt.Errorf("invalid location: %w", err)
		}
		u.Location = updates.Location
	}
	if updates.PreferredCategories != nil {
		u.PreferredCategories = updates.PreferredCategories
	}
	if updates.PreferredLanguage != nil {
		if !slices.Contains(SupportedLanguages, *updates.PreferredLanguage) {
			return nil, fmt.Errorf("unsupported language %q", *updates.PreferredLanguage)
		}
		u.PreferredLanguage = *updates.PreferredLanguage
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
