package selfdestruct

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMockClock(t *testing.T, at time.Time) *MockClock {
	t.Helper()
	mc := &MockClock{CurrentTime: at}
	SetClock(mc)
	t.Cleanup(ResetClock)
	return mc
}

func intPtr(v int) *int { return &v }

func TestNew(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	withMockClock(t, base)
	messageID := uuid.New()

	tests := []struct {
		name    string
		params  Params
		wantErr string
		check   func(t *testing.T, s *State)
	}{
		{
			name:   "timer mode waits for first read",
			params: Params{Mode: ModeTimer, TriggerEvent: TriggerFirstRead, TimerSeconds: 60},
			check: func(t *testing.T, s *State) {
				assert.Nil(t, s.TimerStartedAt)
				assert.Nil(t, s.DestructAt)
			},
		},
		{
			name:   "timer mode with sent trigger starts immediately",
			params: Params{Mode: ModeTimer, TriggerEvent: TriggerSent, TimerSeconds: 60},
			check: func(t *testing.T, s *State) {
				require.NotNil(t, s.TimerStartedAt)
				require.NotNil(t, s.DestructAt)
				assert.Equal(t, base.Add(60*time.Second), *s.DestructAt)
			},
		},
		{
			name:   "scheduled mode fixes deadline at configuration",
			params: Params{Mode: ModeScheduledTime, ScheduledAt: timePtr(base.Add(time.Hour))},
			check: func(t *testing.T, s *State) {
				require.NotNil(t, s.DestructAt)
				assert.Equal(t, base.Add(time.Hour), *s.DestructAt)
				assert.Nil(t, s.TimerStartedAt)
			},
		},
		{
			name:   "view count mode",
			params: Params{Mode: ModeViewCount, MaxViews: intPtr(3)},
			check: func(t *testing.T, s *State) {
				assert.Nil(t, s.DestructAt)
				assert.Equal(t, 3, *s.MaxViews)
			},
		},
		{
			name:    "timer mode requires positive duration",
			params:  Params{Mode: ModeTimer, TimerSeconds: 0},
			wantErr: "timer duration must be positive",
		},
		{
			name:    "combined mode requires max views",
			params:  Params{Mode: ModeCombined, TimerSeconds: 60},
			wantErr: "max views must be positive",
		},
		{
			name:    "scheduled mode requires a time",
			params:  Params{Mode: ModeScheduledTime},
			wantErr: "scheduled time is required",
		},
		{
			name:    "view count mode requires positive max views",
			params:  Params{Mode: ModeViewCount, MaxViews: intPtr(0)},
			wantErr: "max views must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(messageID, tt.params)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, messageID, s.MessageID)
			assert.False(t, s.Destroyed)
			assert.Equal(t, 0, s.ViewCount)
			tt.check(t, s)
		})
	}

	t.Run("nil message id rejected", func(t *testing.T) {
		_, err := New(uuid.Nil, Params{Mode: ModeTimer, TimerSeconds: 60})
		require.Error(t, err)
	})
}

func TestRecordView_FirstReadStartsTimer(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mc := withMockClock(t, base)

	s, err := New(uuid.New(), Params{Mode: ModeTimer, TriggerEvent: TriggerFirstRead, TimerSeconds: 60})
	require.NoError(t, err)

	destroyed, method := s.RecordView()
	assert.False(t, destroyed)
	assert.Empty(t, method)
	assert.Equal(t, 1, s.ViewCount)
	require.NotNil(t, s.TimerStartedAt)
	assert.Equal(t, base, *s.TimerStartedAt)
	require.NotNil(t, s.DestructAt)
	assert.Equal(t, base.Add(60*time.Second), *s.DestructAt)

	// A later view must not restart the timer.
	mc.Advance(10 * time.Second)
	destroyed, _ = s.RecordView()
	assert.False(t, destroyed)
	assert.Equal(t, base, *s.TimerStartedAt)
}

func TestRecordView_TimerExpiry(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mc := withMockClock(t, base)

	s, err := New(uuid.New(), Params{Mode: ModeTimer, TriggerEvent: TriggerFirstRead, TimerSeconds: 60})
	require.NoError(t, err)

	_, _ = s.RecordView() // t=0, timer starts

	mc.Advance(59 * time.Second)
	destroyed, _ := s.RecordView()
	assert.False(t, destroyed, "view at t=59s is within the window")

	mc.Advance(2 * time.Second) // t=61s
	destroyed, method := s.RecordView()
	assert.True(t, destroyed)
	assert.Equal(t, MethodTimerExpired, method)
	assert.True(t, s.Destroyed)
	require.NotNil(t, s.DestroyedAt)
	assert.Equal(t, base.Add(61*time.Second), *s.DestroyedAt)
}

func TestRecordView_ViewLimit(t *testing.T) {
	withMockClock(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	s, err := New(uuid.New(), Params{Mode: ModeViewCount, MaxViews: intPtr(3)})
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		destroyed, _ := s.RecordView()
		assert.False(t, destroyed, "view %d must not destroy", i)
		remaining := s.RemainingViews()
		require.NotNil(t, remaining)
		assert.Equal(t, 3-i, *remaining)
	}

	destroyed, method := s.RecordView()
	assert.True(t, destroyed)
	assert.Equal(t, MethodViewLimitReached, method)
	assert.Equal(t, 3, s.ViewCount)
}

func TestRecordView_CombinedViewLimitWinsOverTimer(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mc := withMockClock(t, base)

	s, err := New(uuid.New(), Params{
		Mode: ModeCombined, TriggerEvent: TriggerFirstRead,
		TimerSeconds: 60, MaxViews: intPtr(1),
	})
	require.NoError(t, err)

	// Deadline also passed, but the view limit check runs first.
	mc.Advance(2 * time.Minute)
	destroyed, method := s.RecordView()
	assert.True(t, destroyed)
	assert.Equal(t, MethodViewLimitReached, method)
}

func TestRecordView_DestroyedStateIsInert(t *testing.T) {
	withMockClock(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	s, err := New(uuid.New(), Params{Mode: ModeViewCount, MaxViews: intPtr(1)})
	require.NoError(t, err)

	destroyed, _ := s.RecordView()
	require.True(t, destroyed)

	viewsBefore := s.ViewCount
	destroyedAt := *s.DestroyedAt

	destroyed, method := s.RecordView()
	assert.False(t, destroyed)
	assert.Empty(t, method)
	assert.Equal(t, viewsBefore, s.ViewCount)
	assert.Equal(t, destroyedAt, *s.DestroyedAt)
}

func TestDestroy_Idempotent(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mc := withMockClock(t, base)

	s, err := New(uuid.New(), Params{Mode: ModeTimer, TimerSeconds: 60})
	require.NoError(t, err)

	s.Destroy(MethodManual)
	require.True(t, s.Destroyed)
	assert.Equal(t, MethodManual, s.DestructionMethod)
	firstAt := *s.DestroyedAt

	mc.Advance(time.Hour)
	s.Destroy(MethodTimerExpired)
	assert.Equal(t, MethodManual, s.DestructionMethod, "method must not change on repeat destroy")
	assert.Equal(t, firstAt, *s.DestroyedAt)
}

func TestStartTimer(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	withMockClock(t, base)

	s, err := New(uuid.New(), Params{Mode: ModeTimer, TriggerEvent: TriggerCustom, TimerSeconds: 30})
	require.NoError(t, err)

	require.NoError(t, s.StartTimer())
	assert.Equal(t, base.Add(30*time.Second), *s.DestructAt)

	assert.Error(t, s.StartTimer(), "timer start is one-shot")

	s.Destroy(MethodManual)
	assert.Error(t, s.StartTimer())
}

func TestShouldDestruct(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mc := withMockClock(t, base)

	s, err := New(uuid.New(), Params{Mode: ModeScheduledTime, ScheduledAt: timePtr(base.Add(time.Minute))})
	require.NoError(t, err)

	assert.False(t, s.ShouldDestruct())

	mc.Advance(time.Minute)
	assert.True(t, s.ShouldDestruct(), "deadline reached exactly counts as passed")

	s.Destroy(MethodScheduledTime)
	assert.False(t, s.ShouldDestruct(), "destroyed state has nothing left to destruct")
}

func timePtr(t time.Time) *time.Time { return &t }
