package http

import (
	"github.com/gin-gonic/gin"

	"intelligent-scheduler/internal/model"
	"intelligent-scheduler/pkg/response"
)

// SubmitTrigger godoc
// @Summary     Submit a trigger event
// @Description Admits a voice or email_sync trigger for a user and starts a run. Poll the returned run id for the outcome.
// @Tags        Dispatch
// @Accept      json
// @Produce     json
// @Param       X-Signature header string     false "sha256=<hex HMAC of the body>"
// @Param       body        body   triggerReq true  "Trigger"
// @Success     202 {object} submitResp
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     401 {object} response.Resp "Invalid signature"
// @Failure     409 {object} response.Resp "Already in progress, data.existing_run_id holds the live run"
// @Failure     429 {object} response.Resp "Rate limited"
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/dispatch/triggers [POST]
func (h *handler) SubmitTrigger(c *gin.Context) {
	ctx := c.Request.Context()

	req, err := h.processTriggerReq(c)
	if err != nil {
		h.l.Warnf(ctx, "dispatch.http.SubmitTrigger: %v", err)
		response.Error(c, err, nil)
		return
	}

	h.submit(c, req.toInput())
}

// SubmitVoice godoc
// @Summary     Submit a voice transcript
// @Description Shorthand for a trigger with source=voice.
// @Tags        Dispatch
// @Accept      json
// @Produce     json
// @Param       body body voiceReq true "Transcript"
// @Success     202 {object} submitResp
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     409 {object} response.Resp "Already in progress"
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/dispatch/voice [POST]
func (h *handler) SubmitVoice(c *gin.Context) {
	ctx := c.Request.Context()

	req, err := h.processVoiceReq(c)
	if err != nil {
		h.l.Warnf(ctx, "dispatch.http.SubmitVoice: %v", err)
		response.Error(c, err, nil)
		return
	}

	h.submit(c, req.toInput())
}

// SubmitEmailSync godoc
// @Summary     Request an email sync
// @Description Shorthand for a trigger with source=email_sync. Without a body the user's recent unread mail is fetched.
// @Tags        Dispatch
// @Accept      json
// @Produce     json
// @Param       body body emailSyncReq true "Sync request"
// @Success     202 {object} submitResp
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     409 {object} response.Resp "Already in progress"
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/dispatch/email-sync [POST]
func (h *handler) SubmitEmailSync(c *gin.Context) {
	ctx := c.Request.Context()

	req, err := h.processEmailSyncReq(c)
	if err != nil {
		h.l.Warnf(ctx, "dispatch.http.SubmitEmailSync: %v", err)
		response.Error(c, err, nil)
		return
	}

	h.submit(c, req.toInput())
}

// GetRun godoc
// @Summary     Get run status
// @Description Returns the run with its created slots and per-task outcomes. Runs are kept for the retention window after they finish.
// @Tags        Dispatch
// @Produce     json
// @Param       run_id path string true "Run ID"
// @Success     200 {object} runResp
// @Failure     404 {object} response.Resp "Not Found"
// @Failure     500 {object} response.Resp "Internal Server Error"
// @Router      /api/v1/dispatch/runs/{run_id} [GET]
func (h *handler) GetRun(c *gin.Context) {
	ctx := c.Request.Context()

	runID, err := h.processRunIDReq(c)
	if err != nil {
		response.Error(c, err, nil)
		return
	}

	run, err := h.uc.GetStatus(ctx, runID)
	if err != nil {
		h.l.Warnf(ctx, "uc.GetStatus %s: %v", runID, err)
		h.respondError(c, err)
		return
	}

	response.OK(c, h.newRunResp(run))
}

func (h *handler) submit(c *gin.Context, ev model.TriggerEvent) {
	ctx := c.Request.Context()

	runID, err := h.uc.Submit(ctx, ev)
	if err != nil {
		h.l.Warnf(ctx, "uc.Submit: %v", err)
		h.respondError(c, err)
		return
	}

	response.Accepted(c, h.newSubmitResp(runID))
}
