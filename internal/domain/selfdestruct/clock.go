package selfdestruct

import "time"

// Clock is the time source behind destruct deadlines. Timer expiry and
// scheduled destruction compare against it, never against time.Now directly,
// so tests can pin the deadline math.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a settable clock for exercising timer and schedule paths.
type MockClock struct {
	CurrentTime time.Time
}

func (m *MockClock) Now() time.Time {
	return m.CurrentTime
}

// Advance moves the clock forward past a deadline under test.
func (m *MockClock) Advance(d time.Duration) {
	m.CurrentTime = m.CurrentTime.Add(d)
}

var clock Clock = RealClock{}

// SetClock swaps the package clock; pair with ResetClock in test cleanup.
func SetClock(c Clock) {
	clock = c
}

// ResetClock restores the system clock.
func ResetClock() {
	clock = RealClock{}
}
