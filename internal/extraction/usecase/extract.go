package usecase

import (
	"context"
	"fmt"
	"strings"

	"intelligent-scheduler/internal/extraction"
	"intelligent-scheduler/internal/model"
	"intelligent-scheduler/pkg/llmprovider"
)

const (
	defaultMaxTasks = 20
	maxOutputTokens = 2048
	temperature     = 0.2
)

// Extract sends text to the language model and returns the tasks it found,
// in message order. Any model or parse failure is ErrExtractionUnavailable.
func (uc *implUseCase) Extract(ctx context.Context, text string) ([]model.TaskDescriptor, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, extraction.ErrEmptyInput
	}

	now := uc.now().In(uc.dateMath.Location())
	req := llmprovider.UserText(systemPrompt, buildUserPrompt(text, now))
	req.Temperature = temperature
	req.MaxTokens = maxOutputTokens
	req.JSONOutput = true

	resp, err := uc.llm.GenerateContent(ctx, req)
	if err != nil {
		uc.l.Errorf(ctx, "extraction.usecase.Extract: llm: %v", err)
		return nil, fmt.Errorf("%w: %v", extraction.ErrExtractionUnavailable, err)
	}
	uc.l.Debugf(ctx, "extraction.usecase.Extract: raw response from %s: %s", resp.ProviderName, resp.Text)

	raw, err := parseTasks(resp.Text)
	if err != nil {
		uc.l.Errorf(ctx, "extraction.usecase.Extract: parse: %v raw=%q", err, resp.Text)
		return nil, fmt.Errorf("%w: %v", extraction.ErrExtractionUnavailable, err)
	}

	tasks := make([]model.TaskDescriptor, 0, len(raw))
	for _, r := range raw {
		task, ok := uc.toDescriptor(ctx, r, now)
		if !ok {
			continue
		}
		tasks = append(tasks, task)
		if len(tasks) == uc.maxTasks {
			uc.l.Warnf(ctx, "extraction.usecase.Extract: truncated to %d tasks", uc.maxTasks)
			break
		}
	}
	return tasks, nil
}
