package repository

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
)

// MemoryEventRepository keeps events in process memory. A single mutex
// makes IncrementAttendees indivisible the same way the row lock does in
// Postgres.
type MemoryEventRepository struct {
	mu     sync.Mutex
	order  []string
	events map[string]*model.Event
}

// NewMemoryEventRepository constructs an empty MemoryEventRepository.
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{events: make(map[string]*model.Event)}
}

// Create stores a copy of e.
func (r *MemoryEventRepository) Create(_ context.Context, e *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[e.ID]; ok {
		return ErrDuplicate
	}
	cp := *e
	r.events[e.ID] = &cp
	r.order = append(r.order, e.ID)
	return nil
}

// List returns events matching filter relative to now, in insertion order.
func (r *MemoryEventRepository) List(_ context.Context, filter model.EventFilter, now time.Time) ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []model.Event
	for _, id := range r.order {
		e := r.events[id]
		switch filter {
		case model.FilterUpcoming:
			if !e.Upcoming(now) {
				continue
			}
		case model.FilterPast:
			if e.Upcoming(now) {
				continue
			}
		}
		events = append(events, *e)
	}
	return events, nil
}

// GetByID returns a copy of the event or ErrNotFound.
func (r *MemoryEventRepository) GetByID(_ context.Context, id string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// IncrementAttendees adds one attendee and returns the post-increment event.
func (r *MemoryEventRepository) IncrementAttendees(_ context.Context, id string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.Attendees++
	cp := *e
	return &cp, nil
}

// MemoryUserRepository keeps users in process memory, keyed by email.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

// NewMemoryUserRepository constructs an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*model.User)}
}

// Create stores a copy of u. A taken email yields ErrDuplicate.
func (r *MemoryUserRepository) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; ok {
		return ErrDuplicate
	}
	cp := *u
	cp.Profile = maps.Clone(u.Profile)
	r.users[u.Email] = &cp
	return nil
}

// FindByEmail returns the user with exactly this email or ErrNotFound.
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	cp.Profile = maps.Clone(u.Profile)
	return &cp, nil
}
