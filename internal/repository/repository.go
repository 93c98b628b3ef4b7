// Package repository implements all storage access for the event service.
// The Postgres stores use pgx directly (no ORM); the memory stores back the
// same contracts for single-process runs and tests.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique key is already taken.
var ErrDuplicate = errors.New("already exists")

const eventColumns = `id, title, description, location, category, event_time, attendees, created_by, created_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a fully populated event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Title, e.Description, e.Location, e.Category,
		e.EventTime, e.Attendees, e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// List returns events matching filter relative to now, in insertion order.
func (r *EventRepository) List(ctx context.Context, filter model.EventFilter, now time.Time) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var args []any
	switch filter {
	case model.FilterUpcoming:
		query += ` WHERE event_time >= $1`
		args = append(args, now)
	case model.FilterPast:
		query += ` WHERE event_time < $1`
		args = append(args, now)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// IncrementAttendees adds one attendee and returns the post-increment event.
//
// The read-modify-write happens inside a single UPDATE … RETURNING
// statement. Postgres takes a row lock for the duration of the statement,
// so two concurrent joins on the same event are applied one after the
// other and each sees the value the previous one wrote:
//
//	join A: UPDATE … attendees = attendees + 1 → 6
//	join B: (waits on row lock)               → 7
//
// A SELECT followed by a separate UPDATE would let both read 5 and both
// write 6, losing an attendee.
func (r *EventRepository) IncrementAttendees(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`UPDATE events SET attendees = attendees + 1
		 WHERE id = $1
		 RETURNING `+eventColumns, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("increment attendees: %w", err)
	}
	return e, nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.Category,
		&e.EventTime, &e.Attendees, &e.CreatedBy, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	e.EventTime = e.EventTime.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}
