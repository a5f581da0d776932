// internal/events/store.go
package events

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"eventradar/pkg/geo"
)

// Store is the event persistence capability consumed by the service layer.
// FindByFilterNear returns candidates inside the radius; the service applies
// the final date ordering, so stores only guarantee the radius bound and an
// exact total count over the filtered set.
type Store interface {
	Insert(ctx context.Context, ev *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	Update(ctx context.Context, ev *Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByFilter(ctx context.Context, f Filter, skip, limit int) ([]*Event, int, error)
	FindByFilterNear(ctx context.Context, f Filter, center geo.Point, radiusMeters float64, skip, limit int) ([]*Event, int, error)
	FindUpcoming(ctx context.Context, from, to time.Time) ([]*Event, error)
	SupportsTextSearch() bool
}

// haversineSQL computes the distance in meters between an event row and the
// bind parameters ($lat, $lon placeholders are substituted by the caller).
// It must agree with geo.Distance on the earth radius.
const haversineSQL = `2 * 6371000 * asin(sqrt(
		power(sin(radians(latitude - %[1]s) / 2), 2) +
		cos(radians(%[1]s)) * cos(radians(latitude)) *
		power(sin(radians(longitude - %[2]s) / 2), 2)))`

// pagedOrder is the ordering for every query that pages with OFFSET/LIMIT.
// The id tiebreak makes the order total; without it, rows with equal dates
// have no stable position and can repeat or vanish across page boundaries.
const pagedOrder = "date ASC, id ASC"

// PostgresStore persists events in a single table with plain latitude and
// longitude columns; radius queries use a haversine expression in SQL.
type PostgresStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{
		db:     db,
		tracer: otel.Tracer("eventradar/events"),
	}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("create events tables: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		address TEXT NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ,
		categories TEXT[] NOT NULL,
		organizer_id UUID NOT NULL,
		max_attendees INTEGER,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
	CREATE INDEX IF NOT EXISTS idx_events_status_date ON events(status, date);
	CREATE INDEX IF NOT EXISTS idx_events_location ON events(latitude, longitude);
	CREATE INDEX IF NOT EXISTS idx_events_categories ON events USING GIN (categories);
	CREATE INDEX IF NOT EXISTS idx_events_text ON events
		USING GIN (to_tsvector('english', title || ' ' || description));
	`
	_, err := s.db.Exec(query)
	return err
}

// SupportsTextSearch reports the store's full-text capability. Postgres
// serves term queries through to_tsvector, so this is always true here.
func (s *PostgresStore) SupportsTextSearch() bool { return true }

const eventColumns = `id, title, description, longitude, latitude, address,
	date, end_date, categories, organizer_id, max_attendees, status, created_at, updated_at`

func (s *PostgresStore) Insert(ctx context.Context, ev *Event) error {
	ctx, span := s.tracer.Start(ctx, "events.insert",
		trace.WithAttributes(attribute.String("event.id", ev.ID.String())),
	)
	defer span.End()

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		ev.ID, ev.Title, ev.Description,
		ev.Location.Longitude, ev.Location.Latitude, ev.Location.Address,
		ev.Date, nullTime(ev.EndDate), pq.Array(ev.Categories),
		ev.OrganizerID, nullInt(ev.MaxAttendees), ev.Status,
		ev.CreatedAt, ev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	ctx, span := s.tracer.Start(ctx, "events.get",
		trace.WithAttributes(attribute.String("event.id", id.String())),
	)
	defer span.End()

	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

func (s *PostgresStore) Update(ctx context.Context, ev *Event) error {
	ctx, span := s.tracer.Start(ctx, "events.update",
		trace.WithAttributes(attribute.String("event.id", ev.ID.String())),
	)
	defer span.End()

	query := `
		UPDATE events
		SET title = $2, description = $3, longitude = $4, latitude = $5, address = $6,
		    date = $7, end_date = $8, categories = $9, max_attendees = $10,
		    status = $11, updated_at = $12
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		ev.ID, ev.Title, ev.Description,
		ev.Location.Longitude, ev.Location.Latitude, ev.Location.Address,
		ev.Date, nullTime(ev.EndDate), pq.Array(ev.Categories),
		nullInt(ev.MaxAttendees), ev.Status, ev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "events.delete",
		trace.WithAttributes(attribute.String("event.id", id.String())),
	)
	defer span.End()

	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (s *PostgresStore) FindByFilter(ctx context.Context, f Filter, skip, limit int) ([]*Event, int, error) {
	ctx, span := s.tracer.Start(ctx, "events.find",
		trace.WithAttributes(
			attribute.Int("query.skip", skip),
			attribute.Int("query.limit", limit),
		),
	)
	defer span.End()

	if f.Empty {
		return nil, 0, nil
	}

	where, args := buildFilterClauses(f, nil)
	return s.query(ctx, where, args, pagedOrder, skip, limit)
}

func (s *PostgresStore) FindByFilterNear(ctx context.Context, f Filter, center geo.Point, radiusMeters float64, skip, limit int) ([]*Event, int, error) {
	ctx, span := s.tracer.Start(ctx, "events.find_near",
		trace.WithAttributes(
			attribute.Float64("query.radius_meters", radiusMeters),
			attribute.Int("query.skip", skip),
			attribute.Int("query.limit", limit),
		),
	)
	defer span.End()

	if f.Empty {
		return nil, 0, nil
	}

	args := []any{center.Latitude, center.Longitude, radiusMeters}
	distance := fmt.Sprintf(haversineSQL, "$1", "$2")
	where := []string{fmt.Sprintf("(%s) <= $3", distance)}
	where, args = buildFilterClauses(f, args, where...)

	return s.query(ctx, where, args, pagedOrder, skip, limit)
}

func (s *PostgresStore) FindUpcoming(ctx context.Context, from, to time.Time) ([]*Event, error) {
	ctx, span := s.tracer.Start(ctx, "events.find_upcoming",
		trace.WithAttributes(
			attribute.String("window.from", from.Format(time.RFC3339)),
			attribute.String("window.to", to.Format(time.RFC3339)),
		),
	)
	defer span.End()

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := s.db.QueryContext(ctx, query, StatusActive, from, to)
	if err != nil {
		return nil, fmt.Errorf("find upcoming events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// buildFilterClauses renders f into SQL WHERE clauses, appending to any
// clauses and args already present.
func buildFilterClauses(f Filter, args []any, clauses ...string) ([]string, []any) {
	if f.Term != "" {
		args = append(args, f.Term)
		clauses = append(clauses, fmt.Sprintf(
			"to_tsvector('english', title || ' ' || description) @@ plainto_tsquery('english', $%d)", len(args)))
	}
	if len(f.Categories) > 0 {
		args = append(args, pq.Array(f.Categories))
		clauses = append(clauses, fmt.Sprintf("categories && $%d", len(args)))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		clauses = append(clauses, fmt.Sprintf("date >= $%d", len(args)))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		clauses = append(clauses, fmt.Sprintf("date <= $%d", len(args)))
	}
	return clauses, args
}

func (s *PostgresStore) query(ctx context.Context, where []string, args []any, order string, skip, limit int) ([]*Event, int, error) {
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM events %s", clause)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	pageArgs := append(args, skip, limit)
	query := fmt.Sprintf(
		"SELECT %s FROM events %s ORDER BY %s OFFSET $%d LIMIT $%d",
		eventColumns, clause, order, len(args)+1, len(args)+2,
	)
	rows, err := s.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	items, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	ev := &Event{}
	var endDate sql.NullTime
	var maxAttendees sql.NullInt64

	err := row.Scan(
		&ev.ID, &ev.Title, &ev.Description,
		&ev.Location.Longitude, &ev.Location.Latitude, &ev.Location.Address,
		&ev.Date, &endDate, pq.Array(&ev.Categories),
		&ev.OrganizerID, &maxAttendees, &ev.Status,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endDate.Valid {
		ev.EndDate = &endDate.Time
	}
	if maxAttendees.Valid {
		n := int(maxAttendees.Int64)
		ev.MaxAttendees = &n
	}
	return ev, nil
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	var items []*Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
