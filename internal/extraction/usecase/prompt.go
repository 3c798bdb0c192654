package usecase

import (
	"fmt"
	"time"
)

const systemPrompt = `You extract schedulable tasks from a user's message (a voice transcript or an email).

Return ONLY a JSON object of the form {"tasks": [...]}. Each task has:
- "title": short imperative description (required)
- "description": extra details, or ""
- "duration_minutes": integer estimate, 0 when unknown
- "earliest_start": when work may begin, RFC3339 with offset or a phrase like "tomorrow 14:00", "" when unconstrained
- "latest_end": when the task must be finished, same formats, "" when unconstrained
- "priority": one of "high", "normal", "low"

Rules:
1. One entry per distinct action. Ignore greetings, signatures and quoted history.
2. Keep tasks in the order they appear in the message.
3. Do not invent deadlines. Leave fields empty when the message does not say.
4. If the message contains nothing to schedule, return {"tasks": []}.`

// buildUserPrompt anchors relative dates to now.
func buildUserPrompt(text string, now time.Time) string {
	return fmt.Sprintf("CURRENT TIME: %s (%s)\n\nMESSAGE:\n%s",
		now.Format(time.RFC3339), now.Weekday(), text)
}
