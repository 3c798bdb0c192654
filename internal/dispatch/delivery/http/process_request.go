package http

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

var errMissingRunID = errors.New("run_id is required")

// processTriggerReq binds and validates the generic trigger body.
func (h *handler) processTriggerReq(c *gin.Context) (triggerReq, error) {
	var req triggerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, err
	}
	return req, req.validate()
}

func (h *handler) processVoiceReq(c *gin.Context) (voiceReq, error) {
	var req voiceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, err
	}
	return req, req.validate()
}

func (h *handler) processEmailSyncReq(c *gin.Context) (emailSyncReq, error) {
	var req emailSyncReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, err
	}
	return req, req.validate()
}

// processRunIDReq reads the :run_id URI param.
func (h *handler) processRunIDReq(c *gin.Context) (string, error) {
	id := strings.TrimSpace(c.Param("run_id"))
	if id == "" {
		return "", errMissingRunID
	}
	return id, nil
}
