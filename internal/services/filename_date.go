package services

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

var monthNames = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// ParseFilenameDate extracts the auction period from tokens shaped like
// prefix_MONTHNAME_YYYY[_suffix][.ext]. The first part naming a month wins and
// the part after it must be the year.
func ParseFilenameDate(token string) (int, time.Month, error) {
	trimmed := strings.TrimSpace(token)
	trimmed = strings.TrimSuffix(trimmed, path.Ext(trimmed))

	parts := strings.Split(trimmed, "_")
	if len(parts) < 3 {
		return 0, 0, fmt.Errorf("%w: %q has fewer than 3 parts", ErrMalformedFilename, token)
	}

	for i, part := range parts {
		month, ok := monthNames[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			continue
		}
		if i+1 >= len(parts) {
			return 0, 0, fmt.Errorf("%w: %q has no year after month", ErrMalformedFilename, token)
		}

		year, err := strconv.Atoi(strings.TrimSpace(parts[i+1]))
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q year %q: %v", ErrMalformedFilename, token, parts[i+1], err)
		}
		if year <= 0 {
			return 0, 0, fmt.Errorf("%w: %q year %d out of range", ErrMalformedFilename, token, year)
		}

		return year, month, nil
	}

	return 0, 0, fmt.Errorf("%w: %q has no month name", ErrMalformedFilename, token)
}

// PeriodDate returns the first day of the auction month. The publisher gives
// no day of month, so day 1 stands in for it.
func PeriodDate(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}
