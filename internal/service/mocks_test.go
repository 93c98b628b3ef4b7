package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
)

type mockEventStore struct {
	mock.Mock
}

func (m *mockEventStore) Create(ctx context.Context, e *model.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockEventStore) List(ctx context.Context, filter model.EventFilter, now time.Time) ([]model.Event, error) {
	args := m.Called(ctx, filter, now)
	events, _ := args.Get(0).([]model.Event)
	return events, args.Error(1)
}

func (m *mockEventStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*model.Event)
	return e, args.Error(1)
}

func (m *mockEventStore) IncrementAttendees(ctx context.Context, id string) (*model.Event, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*model.Event)
	return e, args.Error(1)
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, u *model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type recordingBroadcaster struct {
	mu      sync.Mutex
	updates []model.AttendeesUpdate
}

func (b *recordingBroadcaster) BroadcastAttendees(u model.AttendeesUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, u)
}

func (b *recordingBroadcaster) all() []model.AttendeesUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.AttendeesUpdate(nil), b.updates...)
}
