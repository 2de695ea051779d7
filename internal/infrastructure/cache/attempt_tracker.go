package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pawbridge/message-security-backend/internal/domain/access"
)

const (
	denialKeyPrefix  = "denials:"
	historyKeyPrefix = "history:"

	// historyTTL bounds how long seen devices/IPs/countries stay known.
	historyTTL = 90 * 24 * time.Hour
)

// AttemptTracker keeps the per-user access history sets and the per-message
// denial velocity window in Redis. It backs both the risk evaluator's
// HistoryProvider/AttemptWindow and the policy engine's AttemptTracker.
type AttemptTracker struct {
	client *redis.Client
	window time.Duration
	logger *zap.Logger
}

// NewAttemptTracker creates the tracker; window is the trailing interval over
// which denials are counted.
func NewAttemptTracker(client *redis.Client, window time.Duration, logger *zap.Logger) *AttemptTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttemptTracker{client: client, window: window, logger: logger}
}

func denialKey(messageID, userID uuid.UUID) string {
	return denialKeyPrefix + messageID.String() + ":" + userID.String()
}

func historyKey(kind string, userID uuid.UUID) string {
	return historyKeyPrefix + kind + ":" + userID.String()
}

// RecordDenial appends a denial to the sliding window and returns the count
// within the window, including this one.
func (t *AttemptTracker) RecordDenial(ctx context.Context, messageID, userID uuid.UUID) (int, error) {
	now := time.Now()
	key := denialKey(messageID, userID)
	windowStart := now.Add(-t.window)

	pipe := t.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d-%d", now.UnixNano(), now.Nanosecond()%1000),
	})
	countCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, t.window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Error("denial window pipeline failed",
			zap.String("key", key),
			zap.Error(err))
		return 0, fmt.Errorf("denial window pipeline failed: %w", err)
	}

	return int(countCmd.Val()), nil
}

// RecentDenials counts denials in the trailing window without recording one.
func (t *AttemptTracker) RecentDenials(ctx context.Context, messageID, userID uuid.UUID) (int, error) {
	now := time.Now()
	key := denialKey(messageID, userID)
	windowStart := strconv.FormatInt(now.Add(-t.window).UnixNano(), 10)

	count, err := t.client.ZCount(ctx, key, windowStart, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("denial window count failed: %w", err)
	}
	return int(count), nil
}

// MarkSeen records the attempt's device, IP, and country as known for the
// user. Called after granted accesses so the history reflects legitimate use.
func (t *AttemptTracker) MarkSeen(ctx context.Context, attempt access.Context) error {
	pipe := t.client.Pipeline()
	if attempt.DeviceFingerprint != "" {
		key := historyKey("device", attempt.UserID)
		pipe.SAdd(ctx, key, attempt.DeviceFingerprint)
		pipe.Expire(ctx, key, historyTTL)
	}
	if attempt.IPAddress != "" {
		key := historyKey("ip", attempt.UserID)
		pipe.SAdd(ctx, key, attempt.IPAddress)
		pipe.Expire(ctx, key, historyTTL)
	}
	if attempt.Country != "" {
		key := historyKey("country", attempt.UserID)
		pipe.SAdd(ctx, key, attempt.Country)
		pipe.Expire(ctx, key, historyTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("history update failed: %w", err)
	}
	return nil
}

func (t *AttemptTracker) KnownDevice(ctx context.Context, userID uuid.UUID, fingerprint string) (bool, error) {
	return t.isMember(ctx, historyKey("device", userID), fingerprint)
}

func (t *AttemptTracker) KnownIP(ctx context.Context, userID uuid.UUID, ip string) (bool, error) {
	return t.isMember(ctx, historyKey("ip", userID), ip)
}

func (t *AttemptTracker) KnownCountry(ctx context.Context, userID uuid.UUID, country string) (bool, error) {
	return t.isMember(ctx, historyKey("country", userID), country)
}

func (t *AttemptTracker) isMember(ctx context.Context, key, member string) (bool, error) {
	ok, err := t.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("history lookup failed: %w", err)
	}
	return ok, nil
}
