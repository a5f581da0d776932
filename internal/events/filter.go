// internal/events/filter.go
package events

import (
	"strings"
	"time"
)

// Filter is the store-agnostic predicate combining text, category and date
// constraints. It deliberately carries no geospatial term; the radius bound
// is layered on by the search path so the same filter serves plain listing.
type Filter struct {
	Term       string
	Categories []string
	DateFrom   *time.Time
	DateTo     *time.Time

	// Empty marks a filter that matches nothing. A date range with
	// from > to yields it; stores must return zero rows without erroring.
	Empty bool
}

// Composer builds Filters. It is bound at construction to whether the
// backing store can serve text queries, so a term against a store without
// text search fails here as a configuration error, never per row.
type Composer struct {
	textSearch bool
}

// NewComposer returns a composer for a store with the given capability.
func NewComposer(store Store) Composer {
	return Composer{textSearch: store.SupportsTextSearch()}
}

// Compose builds the combined predicate. All arguments are optional; zero
// values contribute no constraint.
func (c Composer) Compose(term string, categories []string, dateFrom, dateTo *time.Time) (Filter, error) {
	if term != "" && !c.textSearch {
		return Filter{}, ErrTextSearchUnsupported
	}

	f := Filter{
		Term:       term,
		Categories: categories,
		DateFrom:   dateFrom,
		DateTo:     dateTo,
	}

	if dateFrom != nil && dateTo != nil && dateFrom.After(*dateTo) {
		f.Empty = true
	}

	return f, nil
}

// Matches reports whether ev satisfies the non-geospatial parts of f. The
// Postgres store evaluates the same predicate in SQL; this form serves
// in-process stores and tests.
func (f Filter) Matches(ev *Event) bool {
	if f.Empty {
		return false
	}
	if len(f.Categories) > 0 && !intersects(ev.Categories, f.Categories) {
		return false
	}
	if f.DateFrom != nil && ev.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && ev.Date.After(*f.DateTo) {
		return false
	}
	if f.Term != "" && !textMatch(ev, f.Term) {
		return false
	}
	return true
}

func textMatch(ev *Event, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(ev.Title), term) ||
		strings.Contains(strings.ToLower(ev.Description), term)
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
