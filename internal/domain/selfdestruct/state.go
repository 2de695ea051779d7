package selfdestruct

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Destruction methods recorded when a state goes terminal.
const (
	MethodViewLimitReached = "ViewLimitReached"
	MethodTimerExpired     = "TimerExpired"
	MethodScheduledTime    = "ScheduledTime"
	MethodManual           = "Manual"
)

type Mode int

const (
	ModeTimer Mode = iota
	ModeViewCount
	ModeScheduledTime
	ModeCombined
)

func (m Mode) String() string {
	switch m {
	case ModeTimer:
		return "timer"
	case ModeViewCount:
		return "view_count"
	case ModeScheduledTime:
		return "scheduled_time"
	case ModeCombined:
		return "combined"
	default:
		return "unknown"
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "timer", "":
		return ModeTimer, nil
	case "view_count":
		return ModeViewCount, nil
	case "scheduled_time":
		return ModeScheduledTime, nil
	case "combined":
		return ModeCombined, nil
	default:
		return ModeTimer, fmt.Errorf("invalid destruct mode: %s", s)
	}
}

type TriggerEvent int

const (
	TriggerFirstRead TriggerEvent = iota
	TriggerSent
	TriggerCustom
)

func (t TriggerEvent) String() string {
	switch t {
	case TriggerFirstRead:
		return "first_read"
	case TriggerSent:
		return "sent"
	case TriggerCustom:
		return "custom"
	default:
		return "unknown"
	}
}

func ParseTriggerEvent(s string) (TriggerEvent, error) {
	switch s {
	case "first_read", "":
		return TriggerFirstRead, nil
	case "sent":
		return TriggerSent, nil
	case "custom":
		return TriggerCustom, nil
	default:
		return TriggerFirstRead, fmt.Errorf("invalid trigger event: %s", s)
	}
}

// State tracks the self-destruct lifecycle of one protected message.
//
// The machine is Configured -> (AwaitingTrigger | TimerRunning) -> Destroyed,
// and Destroyed is terminal: no view increments, timer starts, or repeated
// destruction are permitted afterwards. DestructAt is always derived from
// TimerStartedAt + TimerSeconds, except in ScheduledTime mode where it is
// fixed at configuration time.
type State struct {
	ID        uuid.UUID `json:"id"`
	MessageID uuid.UUID `json:"message_id"`

	Mode         Mode         `json:"mode"`
	TriggerEvent TriggerEvent `json:"trigger_event"`
	TimerSeconds int          `json:"timer_seconds,omitempty"`

	TimerStartedAt *time.Time `json:"timer_started_at,omitempty"`
	DestructAt     *time.Time `json:"destruct_at,omitempty"`

	Destroyed         bool       `json:"destroyed"`
	DestroyedAt       *time.Time `json:"destroyed_at,omitempty"`
	DestructionMethod string     `json:"destruction_method,omitempty"`

	MaxViews  *int `json:"max_views,omitempty"`
	ViewCount int  `json:"view_count"`

	NotifyOnDestruction bool `json:"notify_on_destruction"`
	ShowCountdown       bool `json:"show_countdown"`
	BlockScreenshot     bool `json:"block_screenshot"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Params carries the configuration for a new state.
type Params struct {
	Mode                Mode
	TriggerEvent        TriggerEvent
	TimerSeconds        int
	MaxViews            *int
	ScheduledAt         *time.Time
	NotifyOnDestruction bool
	ShowCountdown       bool
	BlockScreenshot     bool
}

// New builds a validated self-destruct state for a message. In ScheduledTime
// mode DestructAt is computed here; in timer modes with a Sent trigger the
// timer starts immediately, otherwise it waits for the trigger.
func New(messageID uuid.UUID, p Params) (*State, error) {
	if messageID == uuid.Nil {
		return nil, fmt.Errorf("message ID cannot be nil")
	}

	switch p.Mode {
	case ModeTimer, ModeCombined:
		if p.TimerSeconds <= 0 {
			return nil, fmt.Errorf("timer duration must be positive for %s mode", p.Mode)
		}
	case ModeScheduledTime:
		if p.ScheduledAt == nil {
			return nil, fmt.Errorf("scheduled time is required for %s mode", p.Mode)
		}
	case ModeViewCount:
		// No timer needed.
	default:
		return nil, fmt.Errorf("invalid destruct mode: %d", p.Mode)
	}

	if p.Mode == ModeViewCount || p.Mode == ModeCombined {
		if p.MaxViews == nil || *p.MaxViews <= 0 {
			return nil, fmt.Errorf("max views must be positive for %s mode", p.Mode)
		}
	}

	now := clock.Now()
	s := &State{
		ID:                  uuid.New(),
		MessageID:           messageID,
		Mode:                p.Mode,
		TriggerEvent:        p.TriggerEvent,
		TimerSeconds:        p.TimerSeconds,
		MaxViews:            p.MaxViews,
		NotifyOnDestruction: p.NotifyOnDestruction,
		ShowCountdown:       p.ShowCountdown,
		BlockScreenshot:     p.BlockScreenshot,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	switch p.Mode {
	case ModeScheduledTime:
		at := *p.ScheduledAt
		s.DestructAt = &at
	case ModeTimer, ModeCombined:
		if p.TriggerEvent == TriggerSent {
			s.startTimerAt(now)
		}
	}

	return s, nil
}

// usesTimer reports whether the mode involves a view-triggered timer.
func (s *State) usesTimer() bool {
	return s.Mode == ModeTimer || s.Mode == ModeCombined
}

// usesViewLimit reports whether the mode enforces a maximum view count.
func (s *State) usesViewLimit() bool {
	return s.Mode == ModeViewCount || s.Mode == ModeCombined
}

func (s *State) startTimerAt(now time.Time) {
	started := now
	destructAt := now.Add(time.Duration(s.TimerSeconds) * time.Second)
	s.TimerStartedAt = &started
	s.DestructAt = &destructAt
}

// StartTimer starts the destruction timer. TimerStartedAt is immutable once
// set, so a second call is rejected, as is any call after destruction.
func (s *State) StartTimer() error {
	if s.Destroyed {
		return fmt.Errorf("state is destroyed")
	}
	if !s.usesTimer() {
		return fmt.Errorf("mode %s has no timer", s.Mode)
	}
	if s.TimerStartedAt != nil {
		return fmt.Errorf("timer already started")
	}
	s.startTimerAt(clock.Now())
	s.UpdatedAt = clock.Now()
	return nil
}

// RecordView applies one granted view to the state and reports whether it
// triggered destruction and by which method. Calling it on a destroyed state
// mutates nothing.
func (s *State) RecordView() (destroyed bool, method string) {
	if s.Destroyed {
		return false, ""
	}

	now := clock.Now()

	if s.usesTimer() && s.TriggerEvent == TriggerFirstRead && s.TimerStartedAt == nil {
		s.startTimerAt(now)
	}

	s.ViewCount++
	s.UpdatedAt = now

	if s.usesViewLimit() && s.MaxViews != nil && s.ViewCount >= *s.MaxViews {
		s.destroyAt(now, MethodViewLimitReached)
		return true, MethodViewLimitReached
	}

	if s.DestructAt != nil && !now.Before(*s.DestructAt) {
		s.destroyAt(now, MethodTimerExpired)
		return true, MethodTimerExpired
	}

	return false, ""
}

// ShouldDestruct reports whether a lazily-evaluated deadline has passed for a
// still-live state.
func (s *State) ShouldDestruct() bool {
	if s.Destroyed || s.DestructAt == nil {
		return false
	}
	return !clock.Now().Before(*s.DestructAt)
}

// Destroy marks the state terminal. Idempotent: destroying a destroyed state
// changes nothing.
func (s *State) Destroy(method string) {
	if s.Destroyed {
		return
	}
	s.destroyAt(clock.Now(), method)
}

func (s *State) destroyAt(now time.Time, method string) {
	at := now
	s.Destroyed = true
	s.DestroyedAt = &at
	s.DestructionMethod = method
	s.UpdatedAt = now
}

// RemainingViews returns how many views are left before the view limit
// destroys the message, or nil when no limit applies.
func (s *State) RemainingViews() *int {
	if !s.usesViewLimit() || s.MaxViews == nil {
		return nil
	}
	remaining := *s.MaxViews - s.ViewCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
