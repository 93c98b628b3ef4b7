// Package model defines the core domain types for the event service.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// User roles.
const (
	RoleAdmin    = "admin"
	RoleAttendee = "attendee"
)

// Event is a scheduled happening that attendees can join.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Category    string    `json:"category,omitempty"`
	EventTime   time.Time `json:"eventTime"`
	Attendees   int       `json:"attendees"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Upcoming reports whether the event starts at or after now.
func (e *Event) Upcoming(now time.Time) bool {
	return !e.EventTime.Before(now)
}

// User is a registered account. Email is the identity and is matched
// case-sensitively.
type User struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name,omitempty"`
	PhotoURL  string         `json:"photoURL,omitempty"`
	Role      string         `json:"role"`
	Profile   map[string]any `json:"profile,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Identity is the user payload carried inside a session credential.
type Identity struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name,omitempty" validate:"max=200"`
	PhotoURL string `json:"photoURL,omitempty" validate:"omitempty,url"`
}

// CreateEventRequest is the payload for creating a new event. EventTime is
// an ISO-8601 string and is normalised to an absolute timestamp.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Location    string `json:"location" validate:"max=300"`
	Category    string `json:"category" validate:"max=100"`
	EventTime   string `json:"eventTime" validate:"required"`
	Attendees   *int   `json:"attendees" validate:"omitempty,min=0"`
}

// CreateUserRequest is the signup payload.
type CreateUserRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Name     string         `json:"name" validate:"max=200"`
	PhotoURL string         `json:"photoURL" validate:"omitempty,url"`
	Role     string         `json:"role" validate:"omitempty,oneof=admin attendee"`
	Profile  map[string]any `json:"profile"`
}

var signupFields = []string{"email", "name", "photoURL", "role", "profile"}

// UnmarshalJSON decodes the known signup fields and keeps every other
// top-level key as a profile field. Keys inside an explicit "profile"
// object take precedence.
func (r *CreateUserRequest) UnmarshalJSON(b []byte) error {
	type plain CreateUserRequest
	var known plain
	if err := json.Unmarshal(b, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	profile := make(map[string]any, len(all)+len(known.Profile))
	for k, raw := range all {
		if isSignupField(k) {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		profile[k] = v
	}
	for k, v := range known.Profile {
		profile[k] = v
	}
	if len(profile) == 0 {
		profile = nil
	}
	*r = CreateUserRequest(known)
	r.Profile = profile
	return nil
}

// isSignupField matches the way encoding/json pairs keys with fields.
func isSignupField(k string) bool {
	for _, f := range signupFields {
		if strings.EqualFold(k, f) {
			return true
		}
	}
	return false
}

// InsertResult acknowledges a stored record.
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// RoleResponse is the body of a role lookup.
type RoleResponse struct {
	Role string `json:"role"`
}

// SuccessResponse is returned by the credential endpoints.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JoinEventRequest is sent by a client over its real-time channel.
type JoinEventRequest struct {
	EventID string `json:"eventId"`
}

// AttendeesUpdate is broadcast to every channel after a successful join.
type AttendeesUpdate struct {
	EventID   string `json:"eventId"`
	Attendees int    `json:"attendees"`
}

// JoinEventFailure is sent only to the channel whose join failed.
type JoinEventFailure struct {
	EventID string `json:"eventId,omitempty"`
	Error   string `json:"error"`
}

// EventFilter selects events relative to the current time.
type EventFilter string

const (
	FilterAll      EventFilter = ""
	FilterUpcoming EventFilter = "upcoming"
	FilterPast     EventFilter = "past"
)

// Valid reports whether f is a known filter.
func (f EventFilter) Valid() bool {
	switch f {
	case FilterAll, FilterUpcoming, FilterPast:
		return true
	}
	return false
}
