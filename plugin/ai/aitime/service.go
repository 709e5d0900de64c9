package aitime

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var nextDaysPattern = regexp.MustCompile(`(?i)\b(?:next|coming)\s+(\d+)\s+days?\b`)

// Service implements TimeService with rule-based parsing.
type Service struct {
	defaultTimezone *time.Location
}

// NewService creates a new time service.
func NewService(defaultTimezone string) *Service {
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		loc = time.Local
	}
	return &Service{
		defaultTimezone: loc,
	}
}

// Normalize standardizes time expressions.
func (s *Service) Normalize(_ context.Context, input string, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = s.defaultTimezone
	}

	parser := NewParser(loc)
	return parser.Parse(input)
}

// ParseNaturalTime parses natural language time expressions.
func (s *Service) ParseNaturalTime(_ context.Context, input string, reference time.Time) (TimeRange, error) {
	// First try to parse as a time range keyword
	tr, err := RangeFor(input, reference)
	if err == nil {
		return tr, nil
	}

	// Then try to parse as a specific time, using reference as "now"
	t, err := NewParserAt(reference).Parse(input)
	if err != nil {
		return TimeRange{}, err
	}

	// For specific times, default to 1-hour duration
	return TimeRange{
		Start: t,
		End:   t.Add(time.Hour),
	}, nil
}

// RangeFor resolves range keywords found anywhere in input:
// "today", "tomorrow", "this week", "next week", "this month", "next N days", weekday names.
func RangeFor(input string, ref time.Time) (TimeRange, error) {
	lower := strings.ToLower(input)
	loc := ref.Location()
	dayStart := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	day := 24 * time.Hour

	if m := nextDaysPattern.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n <= 0 {
			n = 1
		}
		return TimeRange{Start: ref, End: dayStart.AddDate(0, 0, n+1)}, nil
	}

	// Week ranges, Monday-based
	weekday := int(ref.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := dayStart.AddDate(0, 0, -(weekday - 1))

	switch {
	case strings.Contains(lower, "next week"):
		start := monday.AddDate(0, 0, 7)
		return TimeRange{Start: start, End: start.AddDate(0, 0, 7)}, nil
	case strings.Contains(lower, "this week"), strings.Contains(lower, "the week"):
		return TimeRange{Start: ref, End: monday.AddDate(0, 0, 7)}, nil
	case strings.Contains(lower, "next month"):
		start := time.Date(ref.Year(), ref.Month()+1, 1, 0, 0, 0, 0, loc)
		return TimeRange{Start: start, End: start.AddDate(0, 1, 0)}, nil
	case strings.Contains(lower, "this month"):
		return TimeRange{Start: ref, End: time.Date(ref.Year(), ref.Month()+1, 1, 0, 0, 0, 0, loc)}, nil
	}

	// Day ranges
	for _, rel := range relDateOffsets {
		if strings.Contains(lower, rel.keyword) {
			start := dayStart.AddDate(0, 0, rel.offset)
			return TimeRange{Start: start, End: start.Add(day)}, nil
		}
	}

	if m := weekdayPattern.FindStringSubmatch(lower); m != nil {
		target := weekdayIndex[m[2]]
		delta := (int(target) - int(ref.Weekday()) + 7) % 7
		if m[1] == "next" && delta == 0 {
			delta = 7
		}
		start := dayStart.AddDate(0, 0, delta)
		return TimeRange{Start: start, End: start.Add(day)}, nil
	}

	return TimeRange{}, fmt.Errorf("unable to parse time range: %s", input)
}

// Ensure Service implements TimeService
var _ TimeService = (*Service)(nil)
