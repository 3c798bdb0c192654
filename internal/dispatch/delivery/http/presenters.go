package http

import (
	"errors"
	"strings"
	"time"

	"intelligent-scheduler/internal/model"
	"intelligent-scheduler/pkg/response"
)

var (
	errInvalidSource = errors.New("source must be one of: voice, email_sync")
	errBlankUserID   = errors.New("user_id must not be blank")
	errBlankText     = errors.New("transcript must not be blank")
)

// --- Request DTOs ---

type triggerReq struct {
	UserID  string `json:"user_id" binding:"required,max=255"`
	Source  string `json:"source"  binding:"required"`
	Payload string `json:"payload" binding:"max=100000"`
}

func (r triggerReq) validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errBlankUserID
	}
	if !model.Source(r.Source).IsValid() {
		return errInvalidSource
	}
	return nil
}

func (r triggerReq) toInput() model.TriggerEvent {
	return model.TriggerEvent{
		UserID:     strings.TrimSpace(r.UserID),
		Source:     model.Source(r.Source),
		Payload:    r.Payload,
		ReceivedAt: time.Now(),
	}
}

// ---

type voiceReq struct {
	UserID     string `json:"user_id"    binding:"required,max=255"`
	Transcript string `json:"transcript" binding:"required,max=100000"`
}

func (r voiceReq) validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errBlankUserID
	}
	if strings.TrimSpace(r.Transcript) == "" {
		return errBlankText
	}
	return nil
}

func (r voiceReq) toInput() model.TriggerEvent {
	return model.TriggerEvent{
		UserID:     strings.TrimSpace(r.UserID),
		Source:     model.SourceVoice,
		Payload:    r.Transcript,
		ReceivedAt: time.Now(),
	}
}

// ---

// emailSyncReq with an empty body pulls unread mail from the user's mailbox.
type emailSyncReq struct {
	UserID string `json:"user_id" binding:"required,max=255"`
	Body   string `json:"body"    binding:"max=100000"`
}

func (r emailSyncReq) validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errBlankUserID
	}
	return nil
}

func (r emailSyncReq) toInput() model.TriggerEvent {
	return model.TriggerEvent{
		UserID:     strings.TrimSpace(r.UserID),
		Source:     model.SourceEmailSync,
		Payload:    r.Body,
		ReceivedAt: time.Now(),
	}
}

// --- Response DTOs ---

type submitResp struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

type slotResp struct {
	TaskTitle string `json:"task_title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	EventID   string `json:"event_id,omitempty"`
	EventLink string `json:"event_link,omitempty"`
}

type outcomeResp struct {
	Title    string    `json:"title"`
	Priority string    `json:"priority"`
	State    string    `json:"state"`
	Slot     *slotResp `json:"slot,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type runResp struct {
	RunID        string             `json:"run_id"`
	UserID       string             `json:"user_id"`
	Source       string             `json:"source"`
	Status       string             `json:"status"`
	CreatedTasks []slotResp         `json:"created_tasks"`
	Outcomes     []outcomeResp      `json:"outcomes"`
	Error        string             `json:"error,omitempty"`
	CreatedAt    response.DateTime  `json:"created_at" swaggertype:"string"`
	StartedAt    *response.DateTime `json:"started_at,omitempty" swaggertype:"string"`
	FinishedAt   *response.DateTime `json:"finished_at,omitempty" swaggertype:"string"`
}

func (h *handler) newSubmitResp(runID string) submitResp {
	return submitResp{RunID: runID, Status: string(model.RunStatusQueued)}
}

func newSlotResp(s model.ScheduledSlot) slotResp {
	return slotResp{
		TaskTitle: s.TaskTitle,
		Start:     s.Start.Format(time.RFC3339),
		End:       s.End.Format(time.RFC3339),
		EventID:   s.EventID,
		EventLink: s.EventLink,
	}
}

func dateTimePtr(t *time.Time) *response.DateTime {
	if t == nil {
		return nil
	}
	d := response.DateTime(*t)
	return &d
}

func (h *handler) newRunResp(run model.DispatchRun) runResp {
	resp := runResp{
		RunID:        run.RunID,
		UserID:       run.UserID,
		Source:       string(run.Source),
		Status:       string(run.Status),
		CreatedTasks: make([]slotResp, 0, len(run.CreatedTasks)),
		Outcomes:     make([]outcomeResp, 0, len(run.Outcomes)),
		Error:        run.Error,
		CreatedAt:    response.DateTime(run.CreatedAt),
		StartedAt:    dateTimePtr(run.StartedAt),
		FinishedAt:   dateTimePtr(run.FinishedAt),
	}
	for _, s := range run.CreatedTasks {
		resp.CreatedTasks = append(resp.CreatedTasks, newSlotResp(s))
	}
	for _, o := range run.Outcomes {
		out := outcomeResp{
			Title:    o.Title,
			Priority: string(o.Priority),
			State:    string(o.State),
			Error:    o.Error,
		}
		if o.Slot != nil {
			s := newSlotResp(*o.Slot)
			out.Slot = &s
		}
		resp.Outcomes = append(resp.Outcomes, out)
	}
	return resp
}
