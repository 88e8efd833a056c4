package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStartSessionNestedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/interview/start", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Software Engineer", req["job_role"])
		_, _ = w.Write([]byte(`{"success": true, "data": {"session_id": "sess-abc"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	id, err := c.StartSession(context.Background(), "Software Engineer")
	require.NoError(t, err)
	assert.Equal(t, "sess-abc", id)
}

func TestStartSessionDirectID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"session_id": "sess-direct"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	id, err := c.StartSession(context.Background(), "SE")
	require.NoError(t, err)
	assert.Equal(t, "sess-direct", id)
}

func TestStartSessionDoublyNestedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"data": {"session_id": "sess-deep"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	id, err := c.StartSession(context.Background(), "SE")
	require.NoError(t, err)
	assert.Equal(t, "sess-deep", id)
}

func TestStartSessionNestedWinsOverDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"session_id": "outer", "data": {"session_id": "inner"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	id, err := c.StartSession(context.Background(), "SE")
	require.NoError(t, err)
	assert.Equal(t, "inner", id, "data.session_id takes priority")
}

func TestStartSessionNoIDReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	id, err := c.StartSession(context.Background(), "SE")
	require.NoError(t, err, "a recognizable response without an id is not an error")
	assert.Empty(t, id)
}

func TestStartSessionHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.StartSession(context.Background(), "SE")
	assert.Error(t, err)
}

func TestSubmitAnswerPassesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/interview/answer", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sess-1", req["session_id"])
		assert.Equal(t, "my answer", req["answer_text"])
		assert.Equal(t, "q2", req["question_id"])
		_, _ = w.Write([]byte(`{"score": 70}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	raw, err := c.SubmitAnswer(context.Background(), "sess-1", "my answer", "q2")
	require.NoError(t, err)
	assert.JSONEq(t, `{"score": 70}`, string(raw))
}

func TestGenerateReportReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/interview/report", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": {"overall_score": 88}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	raw, err := c.GenerateReport(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data": {"overall_score": 88}}`, string(raw))
}

func TestClientUnreachableBackend(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond, zap.NewNop())
	_, err := c.StartSession(context.Background(), "SE")
	assert.Error(t, err)
}
