package notifications

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventradar/internal/events"
	"eventradar/internal/users"
	"eventradar/pkg/geo"
)

// fakeEventStore implements events.Store over a map.
type fakeEventStore struct {
	events map[uuid.UUID]*events.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[uuid.UUID]*events.Event)}
}

func (f *fakeEventStore) add(ev *events.Event) *events.Event {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.Status == "" {
		ev.Status = events.StatusActive
	}
	f.events[ev.ID] = ev
	return ev
}

func (f *fakeEventStore) SupportsTextSearch() bool { return true }

func (f *fakeEventStore) Insert(_ context.Context, ev *events.Event) error {
	f.events[ev.ID] = ev
	return nil
}

func (f *fakeEventStore) GetByID(_ context.Context, id uuid.UUID) (*events.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, events.ErrEventNotFound
	}
	return ev, nil
}

func (f *fakeEventStore) Update(_ context.Context, ev *events.Event) error {
	f.events[ev.ID] = ev
	return nil
}

func (f *fakeEventStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.events, id)
	return nil
}

func (f *fakeEventStore) FindByFilter(_ context.Context, _ events.Filter, _, _ int) ([]*events.Event, int, error) {
	return nil, 0, nil
}

func (f *fakeEventStore) FindByFilterNear(_ context.Context, _ events.Filter, _ geo.Point, _ float64, _, _ int) ([]*events.Event, int, error) {
	return nil, 0, nil
}

func (f *fakeEventStore) FindUpcoming(_ context.Context, from, to time.Time) ([]*events.Event, error) {
	var matched []*events.Event
	for _, ev := range f.events {
		if ev.Status != events.StatusActive {
			continue
		}
		if ev.Date.Before(from) || ev.Date.After(to) {
			continue
		}
		matched = append(matched, ev)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Date.Before(matched[j].Date) })
	return matched, nil
}

// fakeUserStore implements users.Store, enforcing the same matching
// semantics as the SQL query: category overlap AND a registered location
// inside the radius.
type fakeUserStore struct {
	users map[uuid.UUID]*users.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*users.User)}
}

func (f *fakeUserStore) add(u *users.User) *users.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.PreferredLanguage == "" {
		u.PreferredLanguage = "en"
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) Update(_ context.Context, u *users.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserStore) FindByInterestNear(_ context.Context, categories []string, center geo.Point, radiusMeters float64) ([]*users.User, error) {
	var matched []*users.User
	for _, u := range f.users {
		if u.Location == nil {
			continue
		}
		if !overlap(u.PreferredCategories, categories) {
			continue
		}
		if geo.Distance(center, *u.Location) > radiusMeters {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID.String() < matched[j].ID.String() })
	return matched, nil
}

func overlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// fakePublisher records publishes and can be flipped unhealthy.
type fakePublisher struct {
	mu        sync.Mutex
	healthy   bool
	failNext  bool
	published []publishedMessage
}

type publishedMessage struct {
	channel string
	payload string
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{healthy: true}
}

func (f *fakePublisher) Publish(_ context.Context, channel, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("connection reset")
	}
	f.published = append(f.published, publishedMessage{channel: channel, payload: payload})
	return nil
}

func (f *fakePublisher) Healthy(_ context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthy
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func (f *fakePublisher) last() publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published[len(f.published)-1]
}
