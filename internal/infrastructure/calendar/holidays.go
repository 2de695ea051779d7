// Package calendar supplies the holiday source behind BlockHolidays time
// restrictions. The source is a static date list from configuration; richer
// sources (regional calendar feeds) can replace it behind the same interface.
package calendar

import (
	"fmt"
	"time"
)

// StaticHolidays is a HolidayCalendar backed by a fixed set of dates.
// Matching is by calendar date in the queried time's location.
type StaticHolidays struct {
	dates map[string]struct{}
}

// NewStaticHolidays parses YYYY-MM-DD date strings.
func NewStaticHolidays(dates []string) (*StaticHolidays, error) {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", d, err)
		}
		set[d] = struct{}{}
	}
	return &StaticHolidays{dates: set}, nil
}

func (h *StaticHolidays) IsHoliday(t time.Time) bool {
	_, ok := h.dates[t.Format("2006-01-02")]
	return ok
}
