package message

import (
	"fmt"
	"time"
)

// HolidayCalendar answers whether a date is a holiday in the restriction's
// timezone. The concrete source of holiday dates is supplied by the caller;
// this package only consumes the answer.
type HolidayCalendar interface {
	IsHoliday(t time.Time) bool
}

// TimeRestriction limits access to a set of weekdays and a daily time window,
// evaluated in a fixed timezone regardless of where the attempt comes from.
type TimeRestriction struct {
	AllowedDays      []time.Weekday `json:"allowed_days,omitempty"`
	AllowedTimeStart string         `json:"allowed_time_start,omitempty"` // "HH:MM"
	AllowedTimeEnd   string         `json:"allowed_time_end,omitempty"`   // "HH:MM"
	Timezone         string         `json:"timezone"`
	BlockWeekends    bool           `json:"block_weekends"`
	BlockHolidays    bool           `json:"block_holidays"`
}

// Validate checks that the window parses and the timezone loads.
func (tr *TimeRestriction) Validate() error {
	if tr.Timezone == "" {
		return fmt.Errorf("timezone cannot be empty")
	}
	if _, err := time.LoadLocation(tr.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tr.Timezone, err)
	}

	if (tr.AllowedTimeStart == "") != (tr.AllowedTimeEnd == "") {
		return fmt.Errorf("allowed time window must set both start and end")
	}
	if tr.AllowedTimeStart != "" {
		if _, err := parseClock(tr.AllowedTimeStart); err != nil {
			return fmt.Errorf("invalid start time: %w", err)
		}
		if _, err := parseClock(tr.AllowedTimeEnd); err != nil {
			return fmt.Errorf("invalid end time: %w", err)
		}
	}

	for _, d := range tr.AllowedDays {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid weekday: %d", d)
		}
	}

	return nil
}

// Allows evaluates the restriction for an attempt at the given instant.
// The instant is converted to the restriction's timezone first, so a UTC
// attempt straddling a day boundary is judged against the local weekday.
func (tr *TimeRestriction) Allows(at time.Time, holidays HolidayCalendar) (bool, error) {
	loc, err := time.LoadLocation(tr.Timezone)
	if err != nil {
		return false, fmt.Errorf("invalid timezone %q: %w", tr.Timezone, err)
	}
	local := at.In(loc)

	if tr.BlockWeekends {
		if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return false, nil
		}
	}

	if tr.BlockHolidays && holidays != nil && holidays.IsHoliday(local) {
		return false, nil
	}

	if len(tr.AllowedDays) > 0 {
		allowed := false
		for _, d := range tr.AllowedDays {
			if local.Weekday() == d {
				allowed = true
				break
			}
		}
		if !allowed {
			return false, nil
		}
	}

	if tr.AllowedTimeStart != "" {
		start, err := parseClock(tr.AllowedTimeStart)
		if err != nil {
			return false, err
		}
		end, err := parseClock(tr.AllowedTimeEnd)
		if err != nil {
			return false, err
		}

		minute := local.Hour()*60 + local.Minute()
		if start <= end {
			// Same-day window, e.g. 09:00-17:00
			if minute < start || minute > end {
				return false, nil
			}
		} else {
			// Overnight window, e.g. 22:00-06:00
			if minute < start && minute > end {
				return false, nil
			}
		}
	}

	return true, nil
}

// parseClock converts "HH:MM" to minutes after midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
