// internal/events/implementation.go
package events

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"eventradar/pkg/geo"
	"eventradar/pkg/metrics"
)

// Limits applied to incoming pagination parameters. Anything non-positive
// falls back to the defaults; page sizes are capped.
type Pagination struct {
	DefaultPageSize int
	MaxPageSize     int
}

// service implements the Service interface.
type service struct {
	store    Store
	composer Composer
	pages    Pagination
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService creates a new events service instance.
func NewService(store Store, pages Pagination, m *metrics.Metrics) Service {
	if pages.DefaultPageSize <= 0 {
		pages.DefaultPageSize = 10
	}
	if pages.MaxPageSize <= 0 {
		pages.MaxPageSize = 100
	}
	return &service{
		store:    store,
		composer: NewComposer(store),
		pages:    pages,
		metrics:  m,
		now:      time.Now,
	}
}

// Create stores a new event owned by organizerID.
func (s *service) Create(ctx context.Context, ev *Event, organizerID uuid.UUID) (*Event, error) {
	now := s.now().UTC()
	ev.ID = uuid.New()
	ev.OrganizerID = organizerID
	if ev.Status == "" {
		ev.Status = StatusActive
	}
	ev.CreatedAt = now
	ev.UpdatedAt = now

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.store.GetByID(ctx, id)
}

// Update applies updates to an event. Only the organizer may mutate it.
func (s *service) Update(ctx context.Context, id uuid.UUID, updates EventUpdate, callerID uuid.UUID) (*Event, error) {
	ev, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.OrganizerID != callerID {
		return nil, ErrNotOrganizer
	}

	if updates.Title != nil {
		ev.Title = *updates.Title
	}
	if updates.Description != nil {
		ev.Description = *updates.Description
	}
	if updates.Location != nil {
		ev.Location = *updates.Location
	}
	if updates.Date != nil {
		ev.Date = *updates.Date
	}
	if updates.EndDate != nil {
		ev.EndDate = updates.EndDate
	}
	if updates.Categories != nil {
		ev.Categories = updates.Categories
	}
	if updates.MaxAttendees != nil {
		ev.MaxAttendees = updates.MaxAttendees
	}
	if updates.Status != nil {
		ev.Status = *updates.Status
	}
	ev.UpdatedAt = s.now().UTC()

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Delete removes an event. Only the organizer may delete it.
func (s *service) Delete(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error {
	ev, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ev.OrganizerID != callerID {
		return ErrNotOrganizer
	}
	return s.store.Delete(ctx, id)
}

// List returns a page of events matching the non-geospatial filter,
// soonest first.
func (s *service) List(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	filter, err := s.composer.Compose(q.Term, q.Categories, q.DateFrom, q.DateTo)
	if err != nil {
		return nil, err
	}

	page, pageSize := s.normalizePage(q.Page, q.PageSize)
	skip := (page - 1) * pageSize

	items, total, err := s.store.FindByFilter(ctx, filter, skip, pageSize)
	if err != nil {
		return nil, err
	}

	sortByDate(items)
	return pageResult(items, total, page, pageSize), nil
}

// SearchNearby returns a page of events within q.RadiusKm of center,
// matching the composed filter. The store bounds candidates by distance;
// the presented order is ascending by event date.
func (s *service) SearchNearby(ctx context.Context, center geo.Point, q SearchQuery) (*SearchResult, error) {
	if err := center.Validate(); err != nil {
		return nil, ValidationError{Field: "location", Message: err.Error()}
	}

	filter, err := s.composer.Compose(q.Term, q.Categories, q.DateFrom, q.DateTo)
	if err != nil {
		return nil, err
	}

	page, pageSize := s.normalizePage(q.Page, q.PageSize)
	skip := (page - 1) * pageSize
	radiusMeters := geo.KilometersToMeters(q.RadiusKm)

	items, total, err := s.store.FindByFilterNear(ctx, filter, center, radiusMeters, skip, pageSize)
	if err != nil {
		return nil, err
	}

	s.metrics.SearchQueries.Inc()
	sortByDate(items)
	return pageResult(items, total, page, pageSize), nil
}

// normalizePage coerces pagination input to positive values within bounds.
func (s *service) normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.pages.DefaultPageSize
	}
	if pageSize > s.pages.MaxPageSize {
		pageSize = s.pages.MaxPageSize
	}
	return page, pageSize
}

func pageResult(items []*Event, total, page, pageSize int) *SearchResult {
	totalPages := (total + pageSize - 1) / pageSize
	return &SearchResult{
		Events:      items,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
	}
}

func sortByDate(items []*Event) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.Before(items[j].Date)
	})
}
