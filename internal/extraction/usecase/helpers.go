package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"intelligent-scheduler/internal/model"
)

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// rawTask is the JSON shape the model is asked for. deadline and
// estimated_duration_minutes are accepted as aliases.
type rawTask struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	DurationMinutes json.RawMessage `json:"duration_minutes"`
	EstimatedMin    json.RawMessage `json:"estimated_duration_minutes"`
	EarliestStart   string          `json:"earliest_start"`
	LatestEnd       string          `json:"latest_end"`
	Deadline        string          `json:"deadline"`
	Priority        json.RawMessage `json:"priority"`
}

// parseTasks accepts {"tasks": [...]} or a bare array.
func parseTasks(text string) ([]rawTask, error) {
	cleaned := sanitizeJSONResponse(text)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}

	if strings.HasPrefix(cleaned, "[") {
		var tasks []rawTask
		if err := json.Unmarshal([]byte(cleaned), &tasks); err != nil {
			return nil, fmt.Errorf("decode task array: %w", err)
		}
		return tasks, nil
	}

	var wrapper struct {
		Tasks *[]rawTask `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapper); err != nil {
		return nil, fmt.Errorf("decode task object: %w", err)
	}
	if wrapper.Tasks == nil {
		return nil, fmt.Errorf("response has no tasks field")
	}
	return *wrapper.Tasks, nil
}

// sanitizeJSONResponse removes markdown code fences and leading/trailing prose
// that LLMs often add around JSON output.
func sanitizeJSONResponse(text string) string {
	if m := codeFenceRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}

	start := strings.IndexAny(text, "[{")
	if start == -1 {
		return strings.TrimSpace(text)
	}
	end := strings.LastIndexAny(text, "]}")
	if end == -1 || end < start {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[start : end+1])
}

func (uc *implUseCase) toDescriptor(ctx context.Context, r rawTask, now time.Time) (model.TaskDescriptor, bool) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return model.TaskDescriptor{}, false
	}

	task := model.TaskDescriptor{
		Title:       title,
		Description: strings.TrimSpace(r.Description),
		Priority:    parsePriority(r.Priority),
	}

	if d := durationMinutes(r.DurationMinutes, r.EstimatedMin); d > 0 {
		task.DurationHint = &d
	}

	if t, ok := uc.resolveTime(ctx, r.EarliestStart, now, false); ok {
		task.EarliestStart = &t
	}
	latest := r.LatestEnd
	if latest == "" {
		latest = r.Deadline
	}
	if t, ok := uc.resolveTime(ctx, latest, now, true); ok {
		task.LatestEnd = &t
	}
	return task, true
}

// resolveTime parses an absolute or relative expression. Date-only bounds
// cover the whole day when used as an end.
func (uc *implUseCase) resolveTime(ctx context.Context, expr string, now time.Time, isEnd bool) (time.Time, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" || strings.EqualFold(expr, "null") {
		return time.Time{}, false
	}
	res, err := uc.dateMath.Parse(expr, now)
	if err != nil {
		uc.l.Warnf(ctx, "extraction.usecase.resolveTime: ignoring %q: %v", expr, err)
		return time.Time{}, false
	}
	if res.DateOnly && isEnd {
		return uc.dateMath.EndOfDay(res.Time), true
	}
	return res.Time, true
}

// durationMinutes reads the first positive minute count, given as a number
// or a numeric string.
func durationMinutes(values ...json.RawMessage) time.Duration {
	for _, v := range values {
		if len(v) == 0 {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			var s string
			if json.Unmarshal(v, &s) != nil {
				continue
			}
			if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				continue
			}
		}
		if f > 0 {
			return time.Duration(f * float64(time.Minute))
		}
	}
	return 0
}

// parsePriority accepts strings and small integers.
func parsePriority(raw json.RawMessage) model.Priority {
	if len(raw) == 0 {
		return model.PriorityNormal
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return model.ParsePriority(s)
	}
	return model.ParsePriority(string(raw))
}
