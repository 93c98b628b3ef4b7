// Package service implements business logic, validation, and orchestration
// between transport handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
	"github.com/Shivanand-hulikatti/eventpulse/internal/repository"
)

// ErrValidation marks malformed input. Handlers map it to 400.
var ErrValidation = errors.New("validation failed")

// EventStore is the storage contract for events.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	List(ctx context.Context, filter model.EventFilter, now time.Time) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	IncrementAttendees(ctx context.Context, id string) (*model.Event, error)
}

// UserStore is the storage contract for users.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks v against its validate struct tags.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// EventService orchestrates event-related business operations.
type EventService struct {
	events EventStore
	now    func() time.Time
}

// NewEventService constructs an EventService. A nil now defaults to time.Now.
func NewEventService(events EventStore, now func() time.Time) *EventService {
	if now == nil {
		now = time.Now
	}
	return &EventService{events: events, now: now}
}

// CreateEvent validates the request, normalises eventTime to an absolute
// UTC timestamp and stores the event with attendees defaulted to zero.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest, createdBy string) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.EventTime = strings.TrimSpace(req.EventTime)
	if err := Validate(req); err != nil {
		return nil, err
	}
	at, err := ParseEventTime(req.EventTime)
	if err != nil {
		return nil, err
	}

	event := &model.Event{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Category:    strings.TrimSpace(req.Category),
		EventTime:   at,
		CreatedBy:   createdBy,
		CreatedAt:   s.now().UTC(),
	}
	if req.Attendees != nil {
		event.Attendees = *req.Attendees
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// ListEvents returns events for filter ("", "upcoming" or "past") against
// the current time, read once per call.
func (s *EventService) ListEvents(ctx context.Context, filter string) ([]model.Event, error) {
	f := model.EventFilter(filter)
	if !f.Valid() {
		return nil, fmt.Errorf("%w: filter must be one of: upcoming past", ErrValidation)
	}
	events, err := s.events.List(ctx, f, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: event id is required", ErrValidation)
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseEventTime accepts ISO-8601 timestamps (with or without zone; a
// missing zone is read as UTC) and returns the instant in UTC.
func ParseEventTime(s string) (time.Time, error) {
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: eventTime must be an ISO-8601 timestamp", ErrValidation)
}
