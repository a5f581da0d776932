package events

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"eventradar/pkg/geo"
)

// fakeStore is an in-memory Store used across the package tests. It mirrors
// the Postgres store's contract: radius-bounded candidates, exact totals,
// zero rows for an Empty filter.
type fakeStore struct {
	events     map[uuid.UUID]*Event
	textSearch bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: make(map[uuid.UUID]*Event), textSearch: true}
}

func (f *fakeStore) add(ev *Event) *Event {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.Status == "" {
		ev.Status = StatusActive
	}
	f.events[ev.ID] = ev
	return ev
}

func (f *fakeStore) SupportsTextSearch() bool { return f.textSearch }

func (f *fakeStore) Insert(_ context.Context, ev *Event) error {
	cp := *ev
	f.events[ev.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeStore) Update(_ context.Context, ev *Event) error {
	if _, ok := f.events[ev.ID]; !ok {
		return ErrEventNotFound
	}
	cp := *ev
	f.events[ev.ID] = &cp
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeStore) FindByFilter(_ context.Context, filter Filter, skip, limit int) ([]*Event, int, error) {
	var matched []*Event
	for _, ev := range f.events {
		if filter.Matches(ev) {
			matched = append(matched, ev)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	return window(matched, skip, limit), len(matched), nil
}

func (f *fakeStore) FindByFilterNear(_ context.Context, filter Filter, center geo.Point, radiusMeters float64, skip, limit int) ([]*Event, int, error) {
	var matched []*Event
	for _, ev := range f.events {
		if !filter.Matches(ev) {
			continue
		}
		if geo.Distance(center, ev.Location.Point()) > radiusMeters {
			continue
		}
		matched = append(matched, ev)
	}
	// Any total order satisfies the store contract; distance with an ID
	// tiebreak keeps pages disjoint here the way date, id does in SQL.
	sort.Slice(matched, func(i, j int) bool {
		di := geo.Distance(center, matched[i].Location.Point())
		dj := geo.Distance(center, matched[j].Location.Point())
		if di != dj {
			return di < dj
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	return window(matched, skip, limit), len(matched), nil
}

func (f *fakeStore) FindUpcoming(_ context.Context, from, to time.Time) ([]*Event, error) {
	var matched []*Event
	for _, ev := range f.events {
		if ev.Status != StatusActive {
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

func window(items []*Event, skip, limit int) []*Event {
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if limit < len(items) {
		items = items[:limit]
	}
	out := make([]*Event, len(items))
	for i, ev := range items {
		cp := *ev
		out[i] = &cp
	}
	return out
}
