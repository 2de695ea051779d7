package incident

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawbridge/message-security-backend/internal/domain/errors"
)

func newOpenIncident(t *testing.T) *Incident {
	t.Helper()
	inc, err := New(TypeGeoViolation, SeverityMedium, "access from blocked country", DetectionAutomated, time.Time{})
	require.NoError(t, err)
	return inc
}

func TestNew(t *testing.T) {
	inc := newOpenIncident(t)
	assert.Equal(t, StatusOpen, inc.Status)
	assert.False(t, inc.OccurredAt.IsZero(), "zero occurred-at defaults to detection time")
	assert.Nil(t, inc.ResolvedAt)

	_, err := New(TypeOther, SeverityLow, "", DetectionManual, time.Now())
	assert.Error(t, err, "description is required")
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"open to investigating", StatusOpen, StatusInvestigating, true},
		{"open to resolved", StatusOpen, StatusResolved, true},
		{"open to false positive", StatusOpen, StatusFalsePositive, true},
		{"investigating to closed", StatusInvestigating, StatusClosed, true},
		{"investigating to resolved", StatusInvestigating, StatusResolved, true},
		{"resolved to open rejected", StatusResolved, StatusOpen, false},
		{"resolved to investigating rejected", StatusResolved, StatusInvestigating, false},
		{"closed to open rejected", StatusClosed, StatusOpen, false},
		{"false positive to investigating rejected", StatusFalsePositive, StatusInvestigating, false},
		{"investigating back to open rejected", StatusInvestigating, StatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inc := newOpenIncident(t)
			inc.Status = tt.from

			err := inc.TransitionTo(tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, inc.Status)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.IsCode(err, "ILLEGAL_STATE_TRANSITION"))
			assert.Equal(t, tt.from, inc.Status, "failed transition must not mutate")

			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.from.String(), appErr.Details["current_status"])
			assert.Equal(t, tt.to.String(), appErr.Details["requested_status"])
		})
	}
}

func TestTransitionTo_SameStatusIsNoOp(t *testing.T) {
	inc := newOpenIncident(t)
	require.NoError(t, inc.TransitionTo(StatusOpen))
	assert.Equal(t, StatusOpen, inc.Status)
}

func TestTransitionTo_TerminalSetsResolvedAt(t *testing.T) {
	for _, target := range []Status{StatusResolved, StatusClosed, StatusFalsePositive} {
		inc := newOpenIncident(t)
		require.NoError(t, inc.TransitionTo(target))
		assert.True(t, inc.IsTerminal())
		require.NotNil(t, inc.ResolvedAt, "terminal transition to %s must stamp resolved_at", target)
	}
}

func TestAssign(t *testing.T) {
	investigator := uuid.New()

	inc := newOpenIncident(t)
	require.NoError(t, inc.Assign(investigator))
	assert.Equal(t, StatusInvestigating, inc.Status, "assigning an open incident starts the investigation")
	assert.Equal(t, investigator, *inc.AssignedTo)

	// Reassignment while investigating keeps the status.
	other := uuid.New()
	require.NoError(t, inc.Assign(other))
	assert.Equal(t, StatusInvestigating, inc.Status)
	assert.Equal(t, other, *inc.AssignedTo)

	require.NoError(t, inc.TransitionTo(StatusResolved))
	assert.Error(t, inc.Assign(investigator), "terminal incidents cannot be assigned")
}

func TestStatusRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusOpen, StatusInvestigating, StatusResolved, StatusClosed, StatusFalsePositive} {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("reopened")
	assert.Error(t, err)
}
