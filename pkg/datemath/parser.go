package datemath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	inDurationRe = regexp.MustCompile(`^in (\d+) (minute|minutes|min|mins|hour|hours|day|days|week|weeks|month|months)$`)
	clockRe      = regexp.MustCompile(`^(.*?)\s*(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

	weekdays = map[string]time.Weekday{
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
		"sunday":    time.Sunday,
	}

	absoluteLayouts = []struct {
		layout   string
		dateOnly bool
	}{
		{time.RFC3339, false},
		{"2006-01-02T15:04:05", false},
		{"2006-01-02 15:04:05", false},
		{"2006-01-02T15:04", false},
		{"2006-01-02 15:04", false},
		{"2006-01-02", true},
	}
)

// Parser converts absolute and relative date expressions to time.Time.
type Parser struct {
	location *time.Location
}

// NewParser creates a new date parser for the given IANA timezone string.
// e.g. "Asia/Ho_Chi_Minh"
func NewParser(timezone string) (*Parser, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return &Parser{location: loc}, nil
}

// NewParserIn creates a parser bound to loc.
func NewParserIn(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{location: loc}
}

// Location returns the parser's timezone.
func (p *Parser) Location() *time.Location {
	return p.location
}

// Parse resolves expr against baseTime. Accepted forms are RFC3339 and ISO
// local timestamps, "today", "tomorrow", "yesterday", "in N minutes|hours|days|weeks|months",
// "next <weekday>", "this <weekday>", "end of week", each optionally followed
// by a time of day ("tomorrow 14:00", "friday at 3pm").
func (p *Parser) Parse(expr string, baseTime time.Time) (ParseResult, error) {
	raw := strings.TrimSpace(expr)
	if raw == "" {
		return ParseResult{}, fmt.Errorf("%w: empty", ErrUnrecognized)
	}

	for _, l := range absoluteLayouts {
		var t time.Time
		var err error
		if l.layout == time.RFC3339 {
			t, err = time.Parse(l.layout, raw)
		} else {
			t, err = time.ParseInLocation(l.layout, raw, p.location)
		}
		if err == nil {
			return ParseResult{Time: t, DateOnly: l.dateOnly}, nil
		}
	}

	s := strings.ToLower(raw)
	if m := inDurationRe.FindStringSubmatch(s); m != nil {
		return p.parseInDuration(m, baseTime)
	}

	if day, ok := p.parseDay(s, baseTime); ok {
		return ParseResult{Time: day, DateOnly: true}, nil
	}

	// "<day> <clock>"
	if m := clockRe.FindStringSubmatch(s); m != nil && m[1] != "" {
		day, ok := p.parseDay(strings.TrimSpace(m[1]), baseTime)
		if !ok {
			return ParseResult{}, fmt.Errorf("%w: %q", ErrUnrecognized, expr)
		}
		at, err := clockOffset(m[2], m[3], m[4])
		if err != nil {
			return ParseResult{}, fmt.Errorf("%w: %q: %v", ErrUnrecognized, expr, err)
		}
		return ParseResult{Time: day.Add(at)}, nil
	}

	return ParseResult{}, fmt.Errorf("%w: %q", ErrUnrecognized, expr)
}

// parseDay resolves day-level phrases to midnight in the parser's timezone.
func (p *Parser) parseDay(s string, base time.Time) (time.Time, bool) {
	switch s {
	case "today", "tonight":
		return p.startOfDay(base), true
	case "tomorrow":
		return p.startOfDay(base.AddDate(0, 0, 1)), true
	case "yesterday":
		return p.startOfDay(base.AddDate(0, 0, -1)), true
	case "end of week", "this weekend":
		return p.nextWeekday(base, time.Friday, true), true
	}

	if name, ok := strings.CutPrefix(s, "next "); ok {
		if wd, ok := weekdays[name]; ok {
			return p.nextWeekday(base, wd, false), true
		}
		if name == "week" {
			return p.nextWeekday(base, time.Monday, false), true
		}
		return time.Time{}, false
	}
	if name, ok := strings.CutPrefix(s, "this "); ok {
		if wd, ok := weekdays[name]; ok {
			return p.nextWeekday(base, wd, true), true
		}
		return time.Time{}, false
	}
	if wd, ok := weekdays[s]; ok {
		return p.nextWeekday(base, wd, true), true
	}
	return time.Time{}, false
}

func (p *Parser) parseInDuration(m []string, base time.Time) (ParseResult, error) {
	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return ParseResult{}, fmt.Errorf("%w: %q", ErrUnrecognized, m[0])
	}
	unit := m[2]

	switch {
	case strings.HasPrefix(unit, "min"):
		return ParseResult{Time: base.Add(time.Duration(amount) * time.Minute)}, nil
	case strings.HasPrefix(unit, "hour"):
		return ParseResult{Time: base.Add(time.Duration(amount) * time.Hour)}, nil
	case strings.HasPrefix(unit, "day"):
		return ParseResult{Time: p.startOfDay(base.AddDate(0, 0, amount)), DateOnly: true}, nil
	case strings.HasPrefix(unit, "week"):
		return ParseResult{Time: p.startOfDay(base.AddDate(0, 0, amount*7)), DateOnly: true}, nil
	default:
		return ParseResult{Time: p.startOfDay(base.AddDate(0, amount, 0)), DateOnly: true}, nil
	}
}

// nextWeekday returns the next occurrence of wd after base. With allowToday,
// base's own day counts.
func (p *Parser) nextWeekday(base time.Time, wd time.Weekday, allowToday bool) time.Time {
	base = base.In(p.location)
	days := int(wd - base.Weekday())
	if days < 0 || (days == 0 && !allowToday) {
		days += 7
	}
	return p.startOfDay(base.AddDate(0, 0, days))
}

// startOfDay returns midnight at the start of the given day in the parser's timezone.
func (p *Parser) startOfDay(t time.Time) time.Time {
	t = t.In(p.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.location)
}

// EndOfDay returns 23:59:59 at the end of the given start-of-day time.
func (p *Parser) EndOfDay(startOfDay time.Time) time.Time {
	return startOfDay.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
}

func clockOffset(hh, mm, ampm string) (time.Duration, error) {
	h, _ := strconv.Atoi(hh)
	m := 0
	if mm != "" {
		m, _ = strconv.Atoi(mm)
	}
	switch ampm {
	case "am":
		if h == 12 {
			h = 0
		}
	case "pm":
		if h < 12 {
			h += 12
		}
	}
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("invalid clock %s:%02d", hh, m)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}
