package repository

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventpulse/internal/database"
	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
)

// openTestPool connects to the database named by EVENTPULSE_TEST_DATABASE_URL
// and applies migrations. Tests are skipped when it is unset.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("EVENTPULSE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("EVENTPULSE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, database.Migrate(ctx, pool, log))
	_, err = pool.Exec(ctx, `TRUNCATE events, users`)
	require.NoError(t, err)
	return pool
}

func TestEventRepository_IncrementAttendees_Concurrent(t *testing.T) {
	pool := openTestPool(t)
	repo := NewEventRepository(pool)
	ctx := context.Background()

	e := newEvent(time.Now().Add(time.Hour).UTC(), 0)
	require.NoError(t, repo.Create(ctx, e))

	const joins = 20
	var wg sync.WaitGroup
	for i := 0; i < joins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementAttendees(ctx, e.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, joins, got.Attendees)
}

func TestEventRepository_IncrementAttendees_NotFound(t *testing.T) {
	repo := NewEventRepository(openTestPool(t))

	_, err := repo.IncrementAttendees(context.Background(), uuid.New().String())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventRepository_List_Filters(t *testing.T) {
	repo := NewEventRepository(openTestPool(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	past := newEvent(now.Add(-time.Hour), 0)
	future := newEvent(now.Add(time.Hour), 0)
	require.NoError(t, repo.Create(ctx, past))
	require.NoError(t, repo.Create(ctx, future))

	upcoming, err := repo.List(ctx, model.FilterUpcoming, now)
	require.NoError(t, err)
	gone, err := repo.List(ctx, model.FilterPast, now)
	require.NoError(t, err)

	assert.Equal(t, []string{future.ID}, ids(upcoming))
	assert.Equal(t, []string{past.ID}, ids(gone))
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(openTestPool(t))
	ctx := context.Background()

	u := &model.User{ID: uuid.New().String(), Email: "ada@example.com", Role: model.RoleAdmin,
		Profile: map[string]any{"team": "ops"}, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, u))

	err := repo.Create(ctx, &model.User{ID: uuid.New().String(), Email: "ada@example.com",
		Role: model.RoleAttendee, CreatedAt: time.Now().UTC()})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := repo.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.Equal(t, "ops", got.Profile["team"])

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
