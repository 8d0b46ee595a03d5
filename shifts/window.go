package shifts

import (
	"fmt"
	"time"

	"labsched/models"
)

const day = 24 * time.Hour

// ParseClock parses an "HH:MM" time of day into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Duration returns the length of a shift. An end at or before the start
// wraps past midnight, so 22:00-06:00 lasts 8h and 08:00-08:00 lasts 24h.
func Duration(s *models.Shift) (time.Duration, error) {
	start, end, err := bounds(s)
	if err != nil {
		return 0, err
	}
	if end <= start {
		end += day
	}
	return end - start, nil
}

func bounds(s *models.Shift) (time.Duration, time.Duration, error) {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
