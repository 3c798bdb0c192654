package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"intelligent-scheduler/internal/dispatch"
	"intelligent-scheduler/internal/middleware"
	"intelligent-scheduler/internal/model"
	"intelligent-scheduler/pkg/log"
	"intelligent-scheduler/pkg/response"
)

type mockUseCase struct {
	submitted []model.TriggerEvent
	submitErr error
	runs      map[string]model.DispatchRun
}

func (m *mockUseCase) Submit(ctx context.Context, ev model.TriggerEvent) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.submitted = append(m.submitted, ev)
	return "run_1", nil
}

func (m *mockUseCase) GetStatus(ctx context.Context, runID string) (model.DispatchRun, error) {
	run, ok := m.runs[runID]
	if !ok {
		return model.DispatchRun{}, dispatch.ErrRunNotFound
	}
	return run, nil
}

func (m *mockUseCase) Start(ctx context.Context) error { return nil }
func (m *mockUseCase) Close(ctx context.Context) error { return nil }

func newTestRouter(uc dispatch.UseCase, cfg middleware.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1/dispatch"), New(log.NewNop(), uc), middleware.New(log.NewNop(), cfg))
	return r
}

func call(r http.Handler, method, path, body string, header map[string]string) (*httptest.ResponseRecorder, response.Resp) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Resp
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSubmitEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantCode   int
		wantSource model.Source
		wantText   string
	}{
		{name: "trigger", path: "/triggers", body: `{"user_id":"alice","source":"voice","payload":"call mom"}`, wantCode: http.StatusAccepted, wantSource: model.SourceVoice, wantText: "call mom"},
		{name: "voice", path: "/voice", body: `{"user_id":" alice ","transcript":"call mom"}`, wantCode: http.StatusAccepted, wantSource: model.SourceVoice, wantText: "call mom"},
		{name: "email sync without body", path: "/email-sync", body: `{"user_id":"alice"}`, wantCode: http.StatusAccepted, wantSource: model.SourceEmailSync},
		{name: "unknown source", path: "/triggers", body: `{"user_id":"alice","source":"sms"}`, wantCode: http.StatusBadRequest},
		{name: "missing user", path: "/voice", body: `{"transcript":"x"}`, wantCode: http.StatusBadRequest},
		{name: "blank transcript", path: "/voice", body: `{"user_id":"alice","transcript":"   "}`, wantCode: http.StatusBadRequest},
		{name: "malformed json", path: "/triggers", body: `{`, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUseCase{}
			w, resp := call(newTestRouter(uc, middleware.Config{}), http.MethodPost, "/api/v1/dispatch"+tt.path, tt.body, nil)
			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode != http.StatusAccepted {
				if len(uc.submitted) != 0 {
					t.Errorf("invalid request reached the use case")
				}
				return
			}
			data, _ := resp.Data.(map[string]interface{})
			if data["run_id"] != "run_1" || data["status"] != "queued" {
				t.Errorf("unexpected data %v", resp.Data)
			}
			ev := uc.submitted[0]
			if ev.UserID != "alice" || ev.Source != tt.wantSource || ev.Payload != tt.wantText {
				t.Errorf("unexpected trigger %+v", ev)
			}
		})
	}
}

func TestSubmit_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "in progress", err: &dispatch.AlreadyInProgressError{UserID: "alice", Source: model.SourceVoice, ExistingRunID: "run_live"}, wantCode: http.StatusConflict},
		{name: "invalid", err: dispatch.ErrInvalidTrigger, wantCode: http.StatusBadRequest},
		{name: "closed", err: dispatch.ErrClosed, wantCode: http.StatusServiceUnavailable},
		{name: "unexpected", err: errors.New("disk full"), wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUseCase{submitErr: tt.err}
			w, resp := call(newTestRouter(uc, middleware.Config{}), http.MethodPost, "/api/v1/dispatch/voice", `{"user_id":"alice","transcript":"x"}`, nil)
			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusConflict {
				data, _ := resp.Data.(map[string]interface{})
				if data["existing_run_id"] != "run_live" {
					t.Errorf("expected existing_run_id, got %v", resp.Data)
				}
			}
		})
	}
}

func TestSubmit_RequiresSignature(t *testing.T) {
	uc := &mockUseCase{}
	r := newTestRouter(uc, middleware.Config{Secret: "s3cret"})
	body := `{"user_id":"alice","transcript":"x"}`

	if w, _ := call(r, http.MethodPost, "/api/v1/dispatch/voice", body, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned request: %d", w.Code)
	}
	sig := map[string]string{middleware.SignatureHeader: middleware.Sign("s3cret", []byte(body))}
	if w, _ := call(r, http.MethodPost, "/api/v1/dispatch/voice", body, sig); w.Code != http.StatusAccepted {
		t.Fatalf("signed request: %d", w.Code)
	}
}

func TestGetRun(t *testing.T) {
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	slot := model.ScheduledSlot{TaskTitle: "Call bank", Start: start, End: start.Add(30 * time.Minute), EventID: "evt-1"}
	finished := start.Add(-time.Hour)
	uc := &mockUseCase{runs: map[string]model.DispatchRun{
		"run_1": {
			RunID:        "run_1",
			UserID:       "alice",
			Source:       model.SourceVoice,
			Status:       model.RunStatusPartial,
			CreatedTasks: []model.ScheduledSlot{slot},
			Outcomes: []model.TaskOutcome{
				{Title: "Call bank", Priority: model.PriorityNormal, State: model.OutcomeCommitted, Slot: &slot},
				{Title: "Workshop", Priority: model.PriorityHigh, State: model.OutcomeUnschedulable, Error: "no slot"},
			},
			CreatedAt:  finished.Add(-time.Second),
			FinishedAt: &finished,
		},
	}}
	r := newTestRouter(uc, middleware.Config{})

	w, _ := call(r, http.MethodGet, "/api/v1/dispatch/runs/run_1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	var raw struct {
		Data struct {
			Status       string `json:"status"`
			CreatedTasks []struct {
				Start   string `json:"start"`
				EventID string `json:"event_id"`
			} `json:"created_tasks"`
			Outcomes []struct {
				State string `json:"state"`
			} `json:"outcomes"`
			FinishedAt string `json:"finished_at"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw.Data.Status != "partial" || len(raw.Data.CreatedTasks) != 1 || raw.Data.CreatedTasks[0].Start != "2025-03-03T09:00:00Z" {
		t.Errorf("unexpected run body %s", w.Body.String())
	}
	if len(raw.Data.Outcomes) != 2 || raw.Data.Outcomes[1].State != "unschedulable" || raw.Data.FinishedAt == "" {
		t.Errorf("unexpected outcomes %s", w.Body.String())
	}

	if w, _ := call(r, http.MethodGet, "/api/v1/dispatch/runs/run_gone", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("expired run: %d", w.Code)
	}
}
