package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aura-hire/interview-agent/internal/media"
	"github.com/aura-hire/interview-agent/internal/recorder"
	"github.com/aura-hire/interview-agent/internal/session"
	"github.com/aura-hire/interview-agent/pkg/response"
)

type stubBackend struct {
	sessionID string
	submit    string
	submitErr error
}

func (b *stubBackend) StartSession(context.Context, string) (string, error) {
	return b.sessionID, nil
}

func (b *stubBackend) SubmitAnswer(context.Context, string, string, string) (json.RawMessage, error) {
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	return json.RawMessage(b.submit), nil
}

func (b *stubBackend) GenerateReport(context.Context, string) (json.RawMessage, error) {
	return nil, errors.New("no remote report")
}

func newTestRouter(t *testing.T, backend session.Backend) (*gin.Engine, *session.Coordinator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	coord := session.NewCoordinator(backend, session.Options{
		JobRole:  "Software Engineer",
		Provider: media.NewSyntheticProvider(),
		Encoders: recorder.PCMFactory{},
	}, zap.NewNop())
	t.Cleanup(func() { _ = coord.Exit(context.Background(), true) })

	h := NewHandler(coord)
	router := gin.New()
	router.GET("/health", h.Health)
	sess := router.Group("/session")
	{
		sess.GET("", h.Session)
		sess.POST("/start", h.Start)
		sess.POST("/camera/start", h.StartCamera)
		sess.POST("/camera/stop", h.StopCamera)
		sess.POST("/recording/start", h.StartRecording)
		sess.POST("/recording/stop", h.StopRecording)
		sess.PUT("/answer", h.SetAnswer)
		sess.POST("/answer/submit", h.SubmitAnswer)
		sess.GET("/report", h.Report)
		sess.POST("/exit", h.Exit)
	}
	return router, coord
}

func do(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope response.Body
	_ = json.Unmarshal(w.Body.Bytes(), &envelope)
	return w, envelope
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{sessionID: "sess-1"})
	w, envelope := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, envelope.Success)
}

func TestStartSessionEndpoint(t *testing.T) {
	router, coord := newTestRouter(t, &stubBackend{sessionID: "sess-http"})

	w, envelope := do(t, router, http.MethodPost, "/session/start", "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, envelope.Success)
	require.NotNil(t, coord.Session())
	assert.Equal(t, "sess-http", coord.Session().ID)
}

func TestSessionSnapshotEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{sessionID: "sess-1"})
	do(t, router, http.MethodPost, "/session/start", "")

	w, envelope := do(t, router, http.MethodGet, "/session", "")
	assert.Equal(t, http.StatusOK, w.Code)

	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 4, snap.TotalQuestions)
	require.NotNil(t, snap.CurrentQuestion)
}

func TestCameraEndpoints(t *testing.T) {
	router, coord := newTestRouter(t, &stubBackend{sessionID: "sess-1"})
	do(t, router, http.MethodPost, "/session/start", "")

	w, _ := do(t, router, http.MethodPost, "/session/camera/start", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, coord.Snapshot().CameraOn)

	w, _ = do(t, router, http.MethodPost, "/session/camera/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, coord.Snapshot().CameraOn)
}

func TestRecordingEndpoints(t *testing.T) {
	router, coord := newTestRouter(t, &stubBackend{sessionID: "sess-1"})
	do(t, router, http.MethodPost, "/session/start", "")

	w, _ := do(t, router, http.MethodPost, "/session/recording/start", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, coord.Snapshot().Recording)

	w, _ = do(t, router, http.MethodPost, "/session/recording/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, coord.Snapshot().Recording)
}

func TestAnswerFlowEndpoints(t *testing.T) {
	router, coord := newTestRouter(t, &stubBackend{sessionID: "sess-1", submit: `{"score": 75}`})
	do(t, router, http.MethodPost, "/session/start", "")

	w, _ := do(t, router, http.MethodPut, "/session/answer", `{"text": "my answer"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "my answer", coord.AnswerText())

	w, envelope := do(t, router, http.MethodPost, "/session/answer/submit", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, envelope.Success)
	assert.Equal(t, 1, coord.Snapshot().QuestionIndex)
}

func TestSubmitEmptyAnswerBadRequest(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{sessionID: "sess-1"})
	do(t, router, http.MethodPost, "/session/start", "")

	w, envelope := do(t, router, http.MethodPost, "/session/answer/submit", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please provide an answer before submitting.", envelope.Error)
}

func TestSubmitBackendFailureInternal(t *testing.T) {
	router, coord := newTestRouter(t, &stubBackend{sessionID: "sess-1", submitErr: errors.New("down")})
	do(t, router, http.MethodPost, "/session/start", "")
	coord.SetAnswerText("kept on failure")

	w, _ := do(t, router, http.MethodPost, "/session/answer/submit", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "kept on failure", coord.AnswerText())
}

func TestReportEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{sessionID: "sess-1", submit: `{"score": 60}`})
	do(t, router, http.MethodPost, "/session/start", "")
	do(t, router, http.MethodPut, "/session/answer", `{"text": "answer"}`)
	do(t, router, http.MethodPost, "/session/answer/submit", "")

	w, envelope := do(t, router, http.MethodGet, "/session/report", "")
	assert.Equal(t, http.StatusOK, w.Code)
	data, _ := json.Marshal(envelope.Data)
	assert.Contains(t, string(data), `"overall_score":60`)
}

func TestExitEndpointConfirmation(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{sessionID: "sess-1"})
	do(t, router, http.MethodPost, "/session/start", "")

	w, _ := do(t, router, http.MethodPost, "/session/exit", `{"confirm": false}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, http.MethodPost, "/session/exit", `{"confirm": true}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, router, http.MethodPost, "/session/answer/submit", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeviceFailureMapsToServiceUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	coord := session.NewCoordinator(&stubBackend{sessionID: "sess-1"}, session.Options{
		Encoders: recorder.PCMFactory{},
	}, zap.NewNop())
	t.Cleanup(func() { _ = coord.Exit(context.Background(), true) })

	h := NewHandler(coord)
	router := gin.New()
	router.POST("/session/start", h.Start)
	router.POST("/session/camera/start", h.StartCamera)

	do(t, router, http.MethodPost, "/session/start", "")
	w, envelope := do(t, router, http.MethodPost, "/session/camera/start", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, envelope.Error, "Camera or microphone not found")
}
