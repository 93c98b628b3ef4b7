package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
	"github.com/Shivanand-hulikatti/eventpulse/internal/repository"
)

// Broadcaster delivers an attendee update to every connected client.
type Broadcaster interface {
	BroadcastAttendees(update model.AttendeesUpdate)
}

// AttendanceService turns join requests into attendee increments and
// fans the new count out to every client.
type AttendanceService struct {
	events      EventStore
	broadcaster Broadcaster
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(events EventStore, b Broadcaster) *AttendanceService {
	return &AttendanceService{events: events, broadcaster: b}
}

// Join increments the attendee count of eventID with a single atomic store
// call and broadcasts the post-increment value. Every successful increment
// produces exactly one broadcast; a missing event produces none and returns
// repository.ErrNotFound.
func (s *AttendanceService) Join(ctx context.Context, eventID string) (model.AttendeesUpdate, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return model.AttendeesUpdate{}, fmt.Errorf("%w: eventId is required", ErrValidation)
	}
	event, err := s.events.IncrementAttendees(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.AttendeesUpdate{}, repository.ErrNotFound
		}
		return model.AttendeesUpdate{}, fmt.Errorf("join event: %w", err)
	}
	update := model.AttendeesUpdate{EventID: event.ID, Attendees: event.Attendees}
	s.broadcaster.BroadcastAttendees(update)
	return update, nil
}
