// Package api is the HTTP client for the interview backend collaborators:
// start-session, submit-answer and generate-report. Response shapes are
// heterogeneous; extraction is done via small ordered strategy lists where
// the first success wins.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the interview backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a backend client. timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

// sessionIDStrategies extract a session id from one of the accepted response
// shapes, in priority order: nested data.session_id, direct session_id,
// doubly-nested data.data.session_id.
var sessionIDStrategies = []func(map[string]any) (string, bool){
	func(m map[string]any) (string, bool) { return stringAt(m, "data", "session_id") },
	func(m map[string]any) (string, bool) { return stringAt(m, "session_id") },
	func(m map[string]any) (string, bool) { return stringAt(m, "data", "data", "session_id") },
}

// StartSession starts an interview session for the job role and returns the
// backend session id. An empty id with a nil error means the backend answered
// but no recognizable id was present; the caller synthesizes a placeholder.
func (c *Client) StartSession(ctx context.Context, jobRole string) (string, error) {
	raw, err := c.post(ctx, "/api/ai/interview/start", map[string]string{"job_role": jobRole})
	if err != nil {
		return "", err
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("decode start response: %w", err)
	}
	for _, extract := range sessionIDStrategies {
		if id, ok := extract(m); ok {
			return id, nil
		}
	}
	c.logger.Warn("no session_id in start response")
	return "", nil
}

// SubmitAnswer posts an answer for scoring and returns the raw response body
// for the submission pipeline to normalize.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, answerText, questionID string) (json.RawMessage, error) {
	return c.post(ctx, "/api/ai/interview/answer", map[string]string{
		"session_id":  sessionID,
		"answer_text": answerText,
		"question_id": questionID,
	})
}

// GenerateReport requests the session report. The payload may be absent or
// unusable; the aggregator falls back to a locally computed report.
func (c *Client) GenerateReport(ctx context.Context, sessionID string) (json.RawMessage, error) {
	return c.post(ctx, "/api/ai/interview/report", map[string]string{"session_id": sessionID})
}

// stringAt walks nested maps along the key path and returns a non-empty
// string leaf.
func stringAt(m map[string]any, path ...string) (string, bool) {
	cur := any(m)
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = obj[key]
		if !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
