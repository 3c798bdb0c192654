package allocator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultWorkStart       = 9 * time.Hour
	DefaultWorkEnd         = 18 * time.Hour
	DefaultLookaheadDays   = 7
	DefaultDuration        = 30 * time.Minute
	DefaultMinimumDuration = 15 * time.Minute
	DefaultGranularity     = 15 * time.Minute
)

// Window is a daily range expressed as offsets from local midnight.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// Config holds the working-time policy used to place tasks.
type Config struct {
	WorkStart       time.Duration
	WorkEnd         time.Duration
	Breaks          []Window
	WorkDays        []time.Weekday
	LookaheadDays   int
	DefaultDuration time.Duration
	MinDuration     time.Duration
	Granularity     time.Duration
	Location        *time.Location
}

// DefaultConfig returns 09:00-18:00 Monday to Friday with a 12:00-13:00 lunch break.
func DefaultConfig() Config {
	return Config{
		WorkStart:       DefaultWorkStart,
		WorkEnd:         DefaultWorkEnd,
		Breaks:          []Window{{Start: 12 * time.Hour, End: 13 * time.Hour}},
		WorkDays:        []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		LookaheadDays:   DefaultLookaheadDays,
		DefaultDuration: DefaultDuration,
		MinDuration:     DefaultMinimumDuration,
		Granularity:     DefaultGranularity,
		Location:        time.UTC,
	}
}

// Validate fills unset fields with defaults and rejects inconsistent values.
func (c *Config) Validate() error {
	if c.WorkStart == 0 && c.WorkEnd == 0 {
		c.WorkStart, c.WorkEnd = DefaultWorkStart, DefaultWorkEnd
	}
	if c.WorkStart < 0 || c.WorkEnd > 24*time.Hour || c.WorkStart >= c.WorkEnd {
		return fmt.Errorf("%w: working hours %s-%s", ErrInvalidConfig, FormatClock(c.WorkStart), FormatClock(c.WorkEnd))
	}
	for _, b := range c.Breaks {
		if b.Start >= b.End {
			return fmt.Errorf("%w: break %s-%s", ErrInvalidConfig, FormatClock(b.Start), FormatClock(b.End))
		}
	}
	if len(c.WorkDays) == 0 {
		c.WorkDays = DefaultConfig().WorkDays
	}
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = DefaultLookaheadDays
	}
	if c.MinDuration <= 0 {
		c.MinDuration = DefaultMinimumDuration
	}
	if c.MinDuration < DefaultMinimumDuration {
		return fmt.Errorf("%w: min duration %s is below %s", ErrInvalidConfig, c.MinDuration, DefaultMinimumDuration)
	}
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = DefaultDuration
	}
	if c.DefaultDuration < c.MinDuration {
		c.DefaultDuration = c.MinDuration
	}
	if c.Granularity <= 0 {
		c.Granularity = time.Minute
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return nil
}

// segments returns the working window minus breaks, sorted.
func (c Config) segments() []Window {
	breaks := append([]Window(nil), c.Breaks...)
	sort.Slice(breaks, func(i, j int) bool { return breaks[i].Start < breaks[j].Start })

	var out []Window
	cursor := c.WorkStart
	for _, b := range breaks {
		if b.End <= cursor || b.Start >= c.WorkEnd {
			continue
		}
		if b.Start > cursor {
			out = append(out, Window{Start: cursor, End: b.Start})
		}
		cursor = b.End
	}
	if cursor < c.WorkEnd {
		out = append(out, Window{Start: cursor, End: c.WorkEnd})
	}
	return out
}

// ParseClock parses "HH:MM" into an offset from midnight. "24:00" is accepted.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid clock %q: out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// ParseWindow parses "HH:MM-HH:MM".
func ParseWindow(s string) (Window, error) {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return Window{}, fmt.Errorf("invalid window %q: want HH:MM-HH:MM", s)
	}
	ws, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	we, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: ws, End: we}, nil
}

// ParseWeekday accepts full or three letter English day names.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// FormatClock renders an offset from midnight as HH:MM.
func FormatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
