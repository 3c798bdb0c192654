package datemath_test

import (
	"errors"
	"testing"
	"time"

	"intelligent-scheduler/pkg/datemath"
)

func TestNewParser(t *testing.T) {
	_, err := datemath.NewParser("Asia/Ho_Chi_Minh")
	if err != nil {
		t.Fatalf("unexpected error creating valid parser: %v", err)
	}

	_, err = datemath.NewParser("Invalid/Timezone")
	if err == nil {
		t.Fatalf("expected error for invalid timezone")
	}

	if datemath.NewParserIn(nil).Location() != time.UTC {
		t.Errorf("nil location must default to UTC")
	}
}

func TestParse(t *testing.T) {
	parser, _ := datemath.NewParser("UTC")
	baseTime := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC) // Wednesday, May 1, 2024
	startOfBase := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		expr     string
		want     time.Time
		dateOnly bool
		wantErr  bool
	}{
		{name: "Today", expr: "today", want: startOfBase, dateOnly: true},
		{name: "Tomorrow", expr: "Tomorrow", want: startOfBase.AddDate(0, 0, 1), dateOnly: true},
		{name: "Yesterday", expr: "yesterday", want: startOfBase.AddDate(0, 0, -1), dateOnly: true},
		{name: "In 3 days", expr: "in 3 days", want: startOfBase.AddDate(0, 0, 3), dateOnly: true},
		{name: "In 2 weeks", expr: "in 2 weeks", want: startOfBase.AddDate(0, 0, 14), dateOnly: true},
		{name: "In 1 month", expr: "in 1 month", want: startOfBase.AddDate(0, 1, 0), dateOnly: true},
		{name: "In 2 hours", expr: "in 2 hours", want: baseTime.Add(2 * time.Hour)},
		{name: "In 45 minutes", expr: "in 45 minutes", want: baseTime.Add(45 * time.Minute)},
		{name: "Invalid duration pattern", expr: "in a few days", wantErr: true},
		{name: "Next Monday (from Wed)", expr: "next monday", want: startOfBase.AddDate(0, 0, 5), dateOnly: true},
		{name: "Next Wednesday (from Wed)", expr: "next wednesday", want: startOfBase.AddDate(0, 0, 7), dateOnly: true},
		{name: "This Wednesday (from Wed)", expr: "this wednesday", want: startOfBase, dateOnly: true},
		{name: "Bare Friday", expr: "friday", want: startOfBase.AddDate(0, 0, 2), dateOnly: true},
		{name: "End of week", expr: "end of week", want: startOfBase.AddDate(0, 0, 2), dateOnly: true},
		{name: "Tomorrow at clock", expr: "tomorrow 14:00", want: startOfBase.AddDate(0, 0, 1).Add(14 * time.Hour)},
		{name: "Weekday at pm", expr: "friday at 3pm", want: startOfBase.AddDate(0, 0, 2).Add(15 * time.Hour)},
		{name: "RFC3339", expr: "2024-05-03T10:00:00+07:00", want: time.Date(2024, 5, 3, 3, 0, 0, 0, time.UTC)},
		{name: "ISO local", expr: "2024-05-03 10:00", want: time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC)},
		{name: "ISO date", expr: "2024-05-03", want: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), dateOnly: true},
		{name: "Unknown", expr: "some random day", wantErr: true},
		{name: "Invalid Next Weekday", expr: "next funday", wantErr: true},
		{name: "Invalid clock", expr: "tomorrow 27:00", wantErr: true},
		{name: "Empty", expr: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.Parse(tt.expr, baseTime)
			if tt.wantErr {
				if !errors.Is(err, datemath.ErrUnrecognized) {
					t.Fatalf("Parse() error = %v, want ErrUnrecognized", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() unexpected error = %v", err)
			}
			if !got.Time.Equal(tt.want) {
				t.Errorf("Parse() got = %v, want %v", got.Time, tt.want)
			}
			if got.DateOnly != tt.dateOnly {
				t.Errorf("Parse() DateOnly = %v, want %v", got.DateOnly, tt.dateOnly)
			}
		})
	}
}

func TestEndOfDay(t *testing.T) {
	parser, _ := datemath.NewParser("UTC")
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	want := time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC)

	got := parser.EndOfDay(base)
	if !got.Equal(want) {
		t.Errorf("EndOfDay() got = %v, want %v", got, want)
	}
}
