// internal/users/store.go
package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"eventradar/pkg/geo"
)

// Store is the user read capability consumed by profile lookups and by
// recipient matching. FindByInterestNear returns only users with a
// registered location inside the radius whose preferred categories overlap
// the given set.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Update(ctx context.Context, u *User) error
	FindByInterestNear(ctx context.Context, categories []string, center geo.Point, radiusMeters float64) ([]*User, error)
}

const haversineSQL = `2 * 6371000 * asin(sqrt(
		power(sin(radians(latitude - $2) / 2), 2) +
		cos(radians($2)) * cos(radians(latitude)) *
		power(sin(radians(longitude - $3) / 2), 2)))`

// PostgresStore persists users with nullable coordinate columns.
type PostgresStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{
		db:     db,
		tracer: otel.Tracer("eventradar/users"),
	}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("create users tables: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		longitude DOUBLE PRECISION,
		latitude DOUBLE PRECISION,
		preferred_categories TEXT[] NOT NULL DEFAULT '{}',
		preferred_language TEXT NOT NULL DEFAULT 'en',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_location ON users(latitude, longitude);
	CREATE INDEX IF NOT EXISTS idx_users_categories ON users USING GIN (preferred_categories);
	`
	_, err := s.db.Exec(query)
	return err
}

const userColumns = `id, username, name, longitude, latitude,
	preferred_categories, preferred_language, created_at, updated_at`

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "users.get",
		trace.WithAttributes(attribute.String("user.id", id.String())),
	)
	defer span.End()

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Update(ctx context.Context, u *User) error {
	ctx, span := s.tracer.Start(ctx, "users.update",
		trace.WithAttributes(attribute.String("user.id", u.ID.String())),
	)
	defer span.End()

	var lon, lat sql.NullFloat64
	if u.Location != nil {
		lon = sql.NullFloat64{Float64: u.Location.Longitude, Valid: true}
		lat = sql.NullFloat64{Float64: u.Location.Latitude, Valid: true}
	}

	query := `
		UPDATE users
		SET name = $2, longitude = $3, latitude = $4,
		    preferred_categories = $5, preferred_language = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, lon, lat,
		pq.Array(u.PreferredCategories), u.PreferredLanguage, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresStore) FindByInterestNear(ctx context.Context, categories []string, center geo.Point, radiusMeters float64) ([]*User, error) {
	ctx, span := s.tracer.Start(ctx, "users.find_by_interest",
		trace.WithAttributes(
			attribute.StringSlice("query.categories", categories),
			attribute.Float64("query.radius_meters", radiusMeters),
		),
	)
	defer span.End()

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE preferred_categories && $1
		  AND latitude IS NOT NULL AND longitude IS NOT NULL
		  AND (` + haversineSQL + `) <= $4
	`
	rows, err := s.db.QueryContext(ctx, query,
		pq.Array(categories), center.Latitude, center.Longitude, radiusMeters,
	)
	if err != nil {
		return nil, fmt.Errorf("find users by interest: %w", err)
	}
	defer rows.Close()

	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	u := &User{}
	var lon, lat sql.NullFloat64

	err := row.Scan(
		&u.ID, &u.Username, &u.Name, &lon, &lat,
		pq.Array(&u.PreferredCategories), &u.PreferredLanguage,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lon.Valid && lat.Valid {
		u.Location = &geo.Point{Longitude: lon.Float64, Latitude: lat.Float64}
	}
	return u, nil
}
