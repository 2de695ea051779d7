package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHolidays map[string]bool

func (f fakeHolidays) IsHoliday(t time.Time) bool {
	return f[t.Format("2006-01-02")]
}

func TestTimeRestriction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tr      TimeRestriction
		wantErr bool
	}{
		{"valid window", TimeRestriction{Timezone: "America/New_York", AllowedTimeStart: "09:00", AllowedTimeEnd: "17:00"}, false},
		{"timezone only", TimeRestriction{Timezone: "UTC"}, false},
		{"missing timezone", TimeRestriction{AllowedTimeStart: "09:00", AllowedTimeEnd: "17:00"}, true},
		{"bad timezone", TimeRestriction{Timezone: "Mars/Olympus"}, true},
		{"start without end", TimeRestriction{Timezone: "UTC", AllowedTimeStart: "09:00"}, true},
		{"unparseable time", TimeRestriction{Timezone: "UTC", AllowedTimeStart: "9am", AllowedTimeEnd: "17:00"}, true},
		{"invalid weekday", TimeRestriction{Timezone: "UTC", AllowedDays: []time.Weekday{time.Weekday(9)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tr.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTimeRestriction_Allows(t *testing.T) {
	// 2026-03-02 is a Monday.
	monday14UTC := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	saturday14UTC := time.Date(2026, 3, 7, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		tr   TimeRestriction
		at   time.Time
		want bool
	}{
		{
			name: "inside business hours",
			tr:   TimeRestriction{Timezone: "America/New_York", AllowedTimeStart: "09:00", AllowedTimeEnd: "17:00"},
			at:   monday14UTC, // 09:00 New York
			want: true,
		},
		{
			name: "before window opens",
			tr:   TimeRestriction{Timezone: "America/New_York", AllowedTimeStart: "09:00", AllowedTimeEnd: "17:00"},
			at:   time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC), // 08:00 New York
			want: false,
		},
		{
			name: "overnight window spans midnight",
			tr:   TimeRestriction{Timezone: "UTC", AllowedTimeStart: "22:00", AllowedTimeEnd: "06:00"},
			at:   time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "overnight window early morning side",
			tr:   TimeRestriction{Timezone: "UTC", AllowedTimeStart: "22:00", AllowedTimeEnd: "06:00"},
			at:   time.Date(2026, 3, 2, 5, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "overnight window midday blocked",
			tr:   TimeRestriction{Timezone: "UTC", AllowedTimeStart: "22:00", AllowedTimeEnd: "06:00"},
			at:   monday14UTC,
			want: false,
		},
		{
			name: "weekend blocked",
			tr:   TimeRestriction{Timezone: "UTC", BlockWeekends: true},
			at:   saturday14UTC,
			want: false,
		},
		{
			name: "weekday passes weekend block",
			tr:   TimeRestriction{Timezone: "UTC", BlockWeekends: true},
			at:   monday14UTC,
			want: true,
		},
		{
			name: "allowed days enforced",
			tr:   TimeRestriction{Timezone: "UTC", AllowedDays: []time.Weekday{time.Tuesday, time.Thursday}},
			at:   monday14UTC,
			want: false,
		},
		{
			name: "weekday judged in restriction timezone not UTC",
			// 01:00 UTC Saturday is still 20:00 Friday in New York.
			tr:   TimeRestriction{Timezone: "America/New_York", BlockWeekends: true},
			at:   time.Date(2026, 3, 7, 1, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "late friday UTC is already saturday in tokyo",
			tr:   TimeRestriction{Timezone: "Asia/Tokyo", BlockWeekends: true},
			at:   time.Date(2026, 3, 6, 22, 0, 0, 0, time.UTC), // 07:00 Saturday JST
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.tr.Allows(tt.at, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeRestriction_Holidays(t *testing.T) {
	holidays := fakeHolidays{"2026-07-04": true}
	tr := TimeRestriction{Timezone: "UTC", BlockHolidays: true}

	allowed, err := tr.Allows(time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC), holidays)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = tr.Allows(time.Date(2026, 7, 5, 12, 0, 0, 0, time.UTC), holidays)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Without a calendar the holiday block cannot fire.
	allowed, err = tr.Allows(time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.True(t, allowed)
}
