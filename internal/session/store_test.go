package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/eyeclinic-web/internal/booking"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func newStores(t *testing.T) map[string]Store {
	client, _ := setupTestRedis(t)
	mem, err := NewMemoryStore(16, time.Hour)
	require.NoError(t, err)
	return map[string]Store{
		"memory": mem,
		"redis":  NewRedisStore(client, time.Hour, nil),
	}
}

func TestStore_StateRoundTrip(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.LoadState(ctx, "s1")
			require.ErrorIs(t, err, ErrNotFound)

			state := booking.NewState()
			state.Step = booking.StepDateTime
			state.Draft.ServiceID = "1"
			state.Slots.Slots = []string{"09:30"}
			require.NoError(t, store.SaveState(ctx, "s1", state))
			assert.Equal(t, int64(1), state.Revision)

			loaded, err := store.LoadState(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, booking.StepDateTime, loaded.Step)
			assert.Equal(t, "1", loaded.Draft.ServiceID)
			assert.Equal(t, []string{"09:30"}, loaded.Slots.Slots)
			assert.Equal(t, int64(1), loaded.Revision)
		})
	}
}

func TestStore_SaveConflict(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.SaveState(ctx, "s1", booking.NewState()))

			first, err := store.LoadState(ctx, "s1")
			require.NoError(t, err)
			second, err := store.LoadState(ctx, "s1")
			require.NoError(t, err)

			first.Step = booking.StepDoctor
			require.NoError(t, store.SaveState(ctx, "s1", first))

			second.Step = booking.StepReview
			err = store.SaveState(ctx, "s1", second)
			require.ErrorIs(t, err, ErrConflict)
			assert.Equal(t, int64(1), second.Revision)

			loaded, err := store.LoadState(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, booking.StepDoctor, loaded.Step)
			assert.Equal(t, int64(2), loaded.Revision)
		})
	}
}

func TestStore_NewStateConflictsWithExisting(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.SaveState(ctx, "s1", booking.NewState()))
			err := store.SaveState(ctx, "s1", booking.NewState())
			require.ErrorIs(t, err, ErrConflict)
		})
	}
}

func TestStore_Confirmation(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.GetConfirmation(ctx, "s1")
			require.ErrorIs(t, err, ErrNotFound)

			conf := &booking.Confirmation{
				BookingID: "42",
				Status:    "confirmed",
				Draft:     booking.Draft{PatientName: "Asha Rao", AppointmentDate: "2025-03-10"},
			}
			require.NoError(t, store.PutConfirmation(ctx, "s1", conf))

			got, err := store.GetConfirmation(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "42", got.BookingID)
			assert.Equal(t, "Asha Rao", got.Draft.PatientName)

			// Reading does not consume it.
			_, err = store.GetConfirmation(ctx, "s1")
			require.NoError(t, err)
		})
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store, err := NewMemoryStore(4, time.Minute)
	require.NoError(t, err)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.SaveState(ctx, "s1", booking.NewState()))
	now = now.Add(2 * time.Minute)

	_, err = store.LoadState(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound)

	// An expired entry no longer blocks a fresh save.
	require.NoError(t, store.SaveState(ctx, "s1", booking.NewState()))
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	store, err := NewMemoryStore(2, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveState(ctx, id, booking.NewState()))
	}
	_, err = store.LoadState(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.LoadState(ctx, "c")
	assert.NoError(t, err)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store, err := NewMemoryStore(2, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	state := booking.NewState()
	state.Slots.Slots = []string{"09:30"}
	require.NoError(t, store.SaveState(ctx, "s1", state))
	state.Slots.Slots[0] = "mutated"

	loaded, err := store.LoadState(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "09:30", loaded.Slots.Slots[0])
}

func TestRedisStore_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, 30*time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, store.SaveState(ctx, "s1", booking.NewState()))
	assert.Equal(t, 30*time.Minute, mr.TTL("booking:state:s1"))

	mr.FastForward(31 * time.Minute)
	_, err := store.LoadState(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_CorruptState(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour, nil)
	require.NoError(t, mr.Set("booking:state:s1", "{not json"))

	_, err := store.LoadState(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
