package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawbridge/message-security-backend/internal/domain/access"
)

func newTestTracker(t *testing.T, window time.Duration) (*AttemptTracker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewAttemptTracker(client, window, nil), mr
}

func TestRecordDenial_CountsWithinWindow(t *testing.T) {
	tracker, _ := newTestTracker(t, 15*time.Minute)
	ctx := context.Background()
	messageID, userID := uuid.New(), uuid.New()

	for want := 1; want <= 3; want++ {
		count, err := tracker.RecordDenial(ctx, messageID, userID)
		require.NoError(t, err)
		assert.Equal(t, want, count)
		// Distinct members need distinct timestamps.
		time.Sleep(time.Millisecond)
	}

	count, err := tracker.RecentDenials(ctx, messageID, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	t.Run("pairs are isolated", func(t *testing.T) {
		count, err := tracker.RecentDenials(ctx, messageID, uuid.New())
		require.NoError(t, err)
		assert.Zero(t, count)

		count, err = tracker.RecentDenials(ctx, uuid.New(), userID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestMarkSeen_PopulatesHistory(t *testing.T) {
	tracker, _ := newTestTracker(t, 15*time.Minute)
	ctx := context.Background()
	userID := uuid.New()

	attempt := access.Context{
		UserID:            userID,
		IPAddress:         "198.51.100.7",
		DeviceFingerprint: "fp-1",
		Country:           "GB",
	}
	require.NoError(t, tracker.MarkSeen(ctx, attempt))

	known, err := tracker.KnownDevice(ctx, userID, "fp-1")
	require.NoError(t, err)
	assert.True(t, known)

	known, err = tracker.KnownIP(ctx, userID, "198.51.100.7")
	require.NoError(t, err)
	assert.True(t, known)

	known, err = tracker.KnownCountry(ctx, userID, "GB")
	require.NoError(t, err)
	assert.True(t, known)

	t.Run("unseen values stay unknown", func(t *testing.T) {
		known, err := tracker.KnownDevice(ctx, userID, "fp-2")
		require.NoError(t, err)
		assert.False(t, known)

		known, err = tracker.KnownCountry(ctx, uuid.New(), "GB")
		require.NoError(t, err)
		assert.False(t, known)
	})

	t.Run("empty attributes are skipped", func(t *testing.T) {
		require.NoError(t, tracker.MarkSeen(ctx, access.Context{UserID: userID}))
		known, err := tracker.KnownDevice(ctx, userID, "")
		require.NoError(t, err)
		assert.False(t, known)
	})
}

func TestRecordDenial_WindowExpiry(t *testing.T) {
	tracker, mr := newTestTracker(t, time.Minute)
	ctx := context.Background()
	messageID, userID := uuid.New(), uuid.New()

	_, err := tracker.RecordDenial(ctx, messageID, userID)
	require.NoError(t, err)

	// Past the window plus the expiry slack the key itself is gone.
	mr.FastForward(2*time.Minute + time.Second)

	count, err := tracker.RecentDenials(ctx, messageID, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
