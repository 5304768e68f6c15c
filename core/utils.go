package core

import (
	"strconv"
	"strings"
	"time"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// MonthBounds returns the UTC calendar-month bounds [start, end) for a "YYYY-MM" period token.
func MonthBounds(period string) (start, end time.Time, err error) {
	parts := strings.SplitN(period, "-", 2)
	if len(parts) != 2 {
		return start, end, NewInvalidInputError("invalid period " + period)
	}
	year, yErr := strconv.Atoi(parts[0])
	month, mErr := strconv.Atoi(parts[1])
	if yErr != nil || mErr != nil || year <= 0 || month < 1 || month > 12 {
		return start, end, NewInvalidInputError("invalid period " + period)
	}
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end, nil
}
