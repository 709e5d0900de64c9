package aitime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Patterns for time parsing
var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}))?\b`)
	monthDayPattern  = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
	dayMonthPattern  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b`)
	weekdayPattern   = regexp.MustCompile(`(?i)\b(?:(next|this|on|coming)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)\b`)
	inDaysPattern    = regexp.MustCompile(`(?i)\bin\s+(\d+|a|an|one|two|three|four|five|six|seven)\s+(day|days|week|weeks)\b`)
	inHoursPattern   = regexp.MustCompile(`(?i)\bin\s+(\d+|a|an|one|two|three|half\s+an)\s+(hour|hours|minute|minutes|mins?)\b`)

	meridiemPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am\b|pm\b|a\.m\.|p\.m\.)`)
	clockPattern    = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	atHourPattern   = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})\b`)
)

// relDateOffsets maps relative date keywords to day offsets, longest first.
var relDateOffsets = []struct {
	keyword string
	offset  int
}{
	{"day after tomorrow", 2},
	{"day before yesterday", -2},
	{"tomorrow", 1},
	{"tmrw", 1},
	{"tonight", 0},
	{"today", 0},
	{"yesterday", -1},
}

// periodHours maps time period keywords to typical hours.
var periodHours = []struct {
	keyword string
	hour    int
}{
	{"midnight", 0},
	{"afternoon", 14},
	{"noon", 12},
	{"midday", 12},
	{"lunch", 12},
	{"morning", 9},
	{"evening", 18},
	{"tonight", 19},
	{"night", 20},
}

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October,
	"nov": time.November, "dec": time.December,
}

var weekdayIndex = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var smallNumbers = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7,
}

// DefaultHour is used when a date is found without a time of day.
const DefaultHour = 9

// Result is a parsed expression with flags telling which parts were present.
type Result struct {
	Time    time.Time
	HasDate bool
	HasTime bool
}

// Parser parses natural language time expressions.
type Parser struct {
	timezone *time.Location
	now      func() time.Time
}

// NewParser creates a new time parser with the given timezone.
func NewParser(timezone *time.Location) *Parser {
	if timezone == nil {
		timezone = time.Local
	}
	return &Parser{
		timezone: timezone,
		now:      time.Now,
	}
}

// NewParserAt creates a parser whose clock is fixed to now.
func NewParserAt(now time.Time) *Parser {
	return &Parser{
		timezone: now.Location(),
		now:      func() time.Time { return now },
	}
}

// WithTimezone returns a new parser with the given timezone.
func (p *Parser) WithTimezone(tz *time.Location) *Parser {
	return &Parser{
		timezone: tz,
		now:      p.now,
	}
}

// Now returns the parser's reference instant in its timezone.
func (p *Parser) Now() time.Time {
	return p.now().In(p.timezone)
}

// Parse parses a time expression and returns the parsed time.
func (p *Parser) Parse(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("empty input")
	}

	if t, ok := p.tryStandardFormats(input); ok {
		return t, nil
	}

	res, ok := p.Extract(input)
	if !ok {
		return time.Time{}, fmt.Errorf("unable to parse time: %s", input)
	}
	return res.Time, nil
}

// tryStandardFormats attempts to parse standard date/time formats.
func (p *Parser) tryStandardFormats(input string) (time.Time, bool) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"15:04",
	}

	now := p.Now()
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, input, p.timezone); err == nil {
			if format == "15:04" {
				return time.Date(now.Year(), now.Month(), now.Day(),
					t.Hour(), t.Minute(), 0, 0, p.timezone), true
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// Extract finds a date and/or time of day anywhere inside free text.
// A date without a time resolves to DefaultHour; a time without a date resolves to today.
func (p *Parser) Extract(text string) (Result, bool) {
	now := p.Now()
	lower := strings.ToLower(text)

	if t, ok := p.tryRelativeDuration(lower, now); ok {
		return Result{Time: t, HasDate: true, HasTime: true}, true
	}

	date, hasDate := p.parseDatePart(lower, now)
	hour, minute, hasTime := parseTimePart(lower)

	if !hasDate && !hasTime {
		return Result{}, false
	}

	if !hasDate {
		date = now
	}
	if !hasTime {
		hour, minute = DefaultHour, 0
	}

	t := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, p.timezone)
	return Result{Time: t, HasDate: hasDate, HasTime: hasTime}, true
}

// tryRelativeDuration parses "in 2 hours" / "in 30 minutes".
func (p *Parser) tryRelativeDuration(input string, now time.Time) (time.Time, bool) {
	m := inHoursPattern.FindStringSubmatch(input)
	if m == nil {
		return time.Time{}, false
	}
	if strings.HasPrefix(m[1], "half") {
		return now.Add(30 * time.Minute).Truncate(time.Minute), true
	}
	n := parseSmallNumber(m[1])
	if strings.HasPrefix(m[2], "hour") {
		return now.Add(time.Duration(n) * time.Hour).Truncate(time.Minute), true
	}
	return now.Add(time.Duration(n) * time.Minute).Truncate(time.Minute), true
}

// parseDatePart returns the calendar day mentioned in input.
func (p *Parser) parseDatePart(input string, now time.Time) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.timezone)

	if m := isoDatePattern.FindStringSubmatch(input); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, p.timezone), true
	}

	for _, rel := range relDateOffsets {
		if strings.Contains(input, rel.keyword) {
			return today.AddDate(0, 0, rel.offset), true
		}
	}

	if m := inDaysPattern.FindStringSubmatch(input); m != nil {
		n := parseSmallNumber(m[1])
		if strings.HasPrefix(m[2], "week") {
			n *= 7
		}
		return today.AddDate(0, 0, n), true
	}

	if m := monthDayPattern.FindStringSubmatch(input); m != nil {
		d, _ := strconv.Atoi(m[2])
		return p.resolveMonthDay(today, monthIndex[m[1][:3]], d, m[3]), true
	}
	if m := dayMonthPattern.FindStringSubmatch(input); m != nil {
		d, _ := strconv.Atoi(m[1])
		return p.resolveMonthDay(today, monthIndex[m[2][:3]], d, ""), true
	}
	if m := slashDatePattern.FindStringSubmatch(input); m != nil {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		if mo >= 1 && mo <= 12 && d >= 1 && d <= 31 {
			return p.resolveMonthDay(today, time.Month(mo), d, m[3]), true
		}
	}

	if m := weekdayPattern.FindStringSubmatch(input); m != nil {
		target := weekdayIndex[m[2]]
		delta := (int(target) - int(today.Weekday()) + 7) % 7
		if m[1] == "next" && delta == 0 {
			delta = 7
		}
		return today.AddDate(0, 0, delta), true
	}

	if strings.Contains(input, "next week") {
		delta := (int(time.Monday) - int(today.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return today.AddDate(0, 0, delta), true
	}

	return time.Time{}, false
}

// resolveMonthDay rolls a yearless date into next year when it already passed.
func (p *Parser) resolveMonthDay(today time.Time, month time.Month, day int, year string) time.Time {
	if year != "" {
		y, _ := strconv.Atoi(year)
		return time.Date(y, month, day, 0, 0, 0, 0, p.timezone)
	}
	t := time.Date(today.Year(), month, day, 0, 0, 0, 0, p.timezone)
	if t.Before(today) {
		t = t.AddDate(1, 0, 0)
	}
	return t
}

// parseTimePart extracts hour and minute.
// A bare "at N" with N between 1 and 7 is read as afternoon.
func parseTimePart(input string) (int, int, bool) {
	if m := meridiemPattern.FindStringSubmatch(input); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 1 || hour > 12 || minute > 59 {
			return 0, 0, false
		}
		pm := strings.HasPrefix(m[3], "p")
		switch {
		case pm && hour != 12:
			hour += 12
		case !pm && hour == 12:
			hour = 0
		}
		return hour, minute, true
	}

	if m := clockPattern.FindStringSubmatch(input); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return hour, minute, true
	}

	if m := atHourPattern.FindStringSubmatch(input); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour > 23 {
			return 0, 0, false
		}
		if hour >= 1 && hour <= 7 {
			hour += 12
		}
		return hour, 0, true
	}

	for _, period := range periodHours {
		if strings.Contains(input, period.keyword) {
			return period.hour, 0, true
		}
	}

	return 0, 0, false
}

func parseSmallNumber(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if n, ok := smallNumbers[s]; ok {
		return n
	}
	return 1
}

var (
	periodPhrasePattern = regexp.MustCompile(`(?i)\b(?:(?:in\s+the|this|at|tomorrow)\s+)?(?:morning|afternoon|evening|noon|midnight|midday|tonight)\b`)
	dayPhrasePattern    = regexp.MustCompile(`(?i)\b(?:the\s+)?(?:day\s+after\s+tomorrow|day\s+before\s+yesterday|tomorrow|tmrw|today|yesterday|next\s+week)\b`)
	connectivePattern   = regexp.MustCompile(`(?i)(?:^(?:on|at|from)\s+|\s*\b(?:on|at|from|by|for)$)`)
	danglingPattern     = regexp.MustCompile(`(?i)\b(?:on|at|from|by)\s+(with|in|for|and|on|at|about)\b`)
	clockRangePattern   = regexp.MustCompile(`(?i)\b(?:from\s+)?\d{1,2}(?::\d{2})?\s*(?:am|pm)?\s*(?:-|–|to|until)\s*\d{1,2}(?::\d{2})?\s*(?:am\b|pm\b)`)
	spacePattern        = regexp.MustCompile(`\s+`)
)

// StripPhrases removes every date and time-of-day phrase from text, along
// with prepositions left dangling by the removal. What remains is the
// subject of the request ("team meeting" from "team meeting tomorrow at 10am").
func StripPhrases(text string) string {
	out := clockRangePattern.ReplaceAllString(text, " ")
	for _, re := range []*regexp.Regexp{
		inHoursPattern, inDaysPattern, isoDatePattern, slashDatePattern,
		monthDayPattern, dayMonthPattern, meridiemPattern, clockPattern,
		atHourPattern, dayPhrasePattern, weekdayPattern, periodPhrasePattern,
	} {
		out = re.ReplaceAllString(out, " ")
	}
	out = strings.TrimSpace(spacePattern.ReplaceAllString(out, " "))
	for {
		trimmed := danglingPattern.ReplaceAllString(out, "${1}")
		trimmed = strings.TrimSpace(connectivePattern.ReplaceAllString(trimmed, ""))
		if trimmed == out {
			break
		}
		out = trimmed
	}
	return out
}
