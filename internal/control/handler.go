package control

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/aura-hire/interview-agent/internal/media"
	"github.com/aura-hire/interview-agent/internal/scoring"
	"github.com/aura-hire/interview-agent/internal/session"
	"github.com/aura-hire/interview-agent/pkg/response"
)

// AnswerRequest is the body for PUT /session/answer.
type AnswerRequest struct {
	Text string `json:"text"`
}

// ExitRequest is the body for POST /session/exit.
type ExitRequest struct {
	Confirm bool `json:"confirm"`
}

// Handler exposes the interview session over HTTP.
type Handler struct {
	coord *session.Coordinator
}

// NewHandler creates a control handler.
func NewHandler(coord *session.Coordinator) *Handler {
	return &Handler{coord: coord}
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok"})
}

// Session handles GET /session.
func (h *Handler) Session(c *gin.Context) {
	response.OK(c, h.coord.Snapshot())
}

// Start handles POST /session/start.
func (h *Handler) Start(c *gin.Context) {
	if err := h.coord.Start(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, h.coord.Snapshot())
}

// StartCamera handles POST /session/camera/start.
func (h *Handler) StartCamera(c *gin.Context) {
	if err := h.coord.EnableCamera(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, h.coord.Snapshot())
}

// StopCamera handles POST /session/camera/stop.
func (h *Handler) StopCamera(c *gin.Context) {
	h.coord.DisableCamera(c.Request.Context())
	response.OK(c, h.coord.Snapshot())
}

// StartRecording handles POST /session/recording/start.
func (h *Handler) StartRecording(c *gin.Context) {
	if err := h.coord.StartRecording(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, h.coord.Snapshot())
}

// StopRecording handles POST /session/recording/stop.
func (h *Handler) StopRecording(c *gin.Context) {
	if _, err := h.coord.StopRecording(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, h.coord.Snapshot())
}

// SetAnswer handles PUT /session/answer.
func (h *Handler) SetAnswer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.coord.SetAnswerText(req.Text)
	response.OK(c, gin.H{"answer_text": h.coord.AnswerText()})
}

// SubmitAnswer handles POST /session/answer/submit.
func (h *Handler) SubmitAnswer(c *gin.Context) {
	rec, err := h.coord.SubmitAnswer(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, rec)
}

// Report handles GET /session/report.
func (h *Handler) Report(c *gin.Context) {
	response.OK(c, h.coord.Report(c.Request.Context()))
}

// Exit handles POST /session/exit.
func (h *Handler) Exit(c *gin.Context) {
	var req ExitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.coord.Exit(c.Request.Context(), req.Confirm); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"exited": true})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var devErr *media.DeviceError
	var subErr *scoring.SubmissionError
	switch {
	case errors.As(err, &devErr):
		response.ServiceUnavailable(c, devErr.Remedy())
	case errors.Is(err, scoring.ErrEmptyAnswer):
		response.BadRequest(c, "Please provide an answer before submitting.")
	case errors.Is(err, session.ErrNoActiveQuestion),
		errors.Is(err, session.ErrAlreadyAnswered),
		errors.Is(err, session.ErrExited):
		response.Conflict(c, err.Error())
	case errors.Is(err, session.ErrConfirmRequired):
		response.BadRequest(c, err.Error())
	case errors.As(err, &subErr):
		response.Internal(c, "failed to submit answer")
	default:
		response.Internal(c, err.Error())
	}
}
