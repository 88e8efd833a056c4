// Package scoring submits answers and normalizes the scoring service's
// ambiguous response shapes into a canonical score/feedback pair.
package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/aura-hire/interview-agent/internal/models"
)

// ErrEmptyAnswer is returned for a blank answer; no network call is made.
var ErrEmptyAnswer = errors.New("empty answer")

// SubmissionError wraps a network or validation failure; the answer buffer is
// preserved so the user can retry.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string { return fmt.Sprintf("submit answer: %v", e.Err) }
func (e *SubmissionError) Unwrap() error { return e.Err }

// componentKeys are the named sub-scores averaged when no aggregate score is
// present. Missing components are skipped.
var componentKeys = []string{
	"technical_depth",
	"communication_clarity",
	"problem_solving",
	"confidence",
	"relevance",
}

// Submitter is the external scoring collaborator.
type Submitter interface {
	SubmitAnswer(ctx context.Context, sessionID, answerText, questionID string) (json.RawMessage, error)
}

// Pipeline normalizes submission responses into AnswerRecords.
type Pipeline struct {
	api    Submitter
	logger *zap.Logger
}

// NewPipeline creates a submission pipeline.
func NewPipeline(api Submitter, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{api: api, logger: logger}
}

// Submit scores one answer. Empty text fails locally with ErrEmptyAnswer; any
// network or decode failure returns a *SubmissionError. On success the record
// carries the normalized score clamped to [0,100] and, when no score field
// was extractable by any rule, score 0 with the Unscored marker set.
func (p *Pipeline) Submit(ctx context.Context, sessionID string, question models.Question, answerText string) (models.AnswerRecord, error) {
	if answerText == "" {
		return models.AnswerRecord{}, ErrEmptyAnswer
	}

	raw, err := p.api.SubmitAnswer(ctx, sessionID, answerText, question.ID)
	if err != nil {
		return models.AnswerRecord{}, &SubmissionError{Err: err}
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.AnswerRecord{}, &SubmissionError{Err: fmt.Errorf("decode response: %w", err)}
	}
	data := unwrapData(payload)

	score, extracted := extractScore(data)
	if !extracted {
		p.logger.Warn("no score found in submission response", zap.String("question_id", question.ID))
	}

	record := models.AnswerRecord{
		QuestionText: question.Text,
		AnswerText:   answerText,
		Score:        clampScore(score),
		Feedback:     extractFeedback(data),
		Unscored:     !extracted,
	}
	p.logger.Debug("answer scored",
		zap.String("question_id", question.ID),
		zap.Int("score", record.Score),
		zap.Bool("unscored", record.Unscored))
	return record, nil
}

// unwrapData peels the backend's {success, message, data: {...}} envelope
// when present; otherwise the payload itself is the data object.
func unwrapData(payload map[string]any) map[string]any {
	if inner, ok := payload["data"].(map[string]any); ok {
		return inner
	}
	return payload
}

// scoreStrategy extracts a normalized percentage score from the data object.
// Strategies run in priority order; the first success wins.
type scoreStrategy func(map[string]any) (float64, bool)

var scoreStrategies = []scoreStrategy{
	nestedOverallScore,
	flatScore,
	componentAverage,
}

func extractScore(data map[string]any) (float64, bool) {
	for _, strategy := range scoreStrategies {
		if v, ok := strategy(data); ok {
			return v, true
		}
	}
	return 0, false
}

func nestedOverallScore(data map[string]any) (float64, bool) {
	v, ok := numberAt(data, "answer_feedback", "score_breakdown", "overall_score")
	if !ok {
		return 0, false
	}
	return normalize(v), true
}

func flatScore(data map[string]any) (float64, bool) {
	v, ok := numberAt(data, "score")
	if !ok {
		return 0, false
	}
	return normalize(v), true
}

// componentAverage averages the named sub-scores, normalizing each
// individually and skipping missing components.
func componentAverage(data map[string]any) (float64, bool) {
	breakdown, ok := mapAt(data, "answer_feedback", "score_breakdown")
	if !ok {
		breakdown, ok = mapAt(data, "score_breakdown")
	}
	if !ok {
		return 0, false
	}

	var sum float64
	var n int
	for _, key := range componentKeys {
		if v, ok := numberAt(breakdown, key); ok {
			sum += normalize(v)
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// normalize interprets values at or below 1.0 as fractions scaled by 100;
// larger values are already percentages.
func normalize(v float64) float64 {
	if v <= 1.0 {
		return v * 100
	}
	return v
}

func clampScore(v float64) int {
	s := int(math.Round(v))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// extractFeedback prefers the nested feedback message, then a flat feedback
// field, then a generic success string.
func extractFeedback(data map[string]any) string {
	if msg, ok := stringAt(data, "answer_feedback", "message"); ok {
		return msg
	}
	if msg, ok := stringAt(data, "feedback"); ok {
		return msg
	}
	return "Answer submitted successfully"
}

func valueAt(m map[string]any, path ...string) (any, bool) {
	cur := any(m)
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func numberAt(m map[string]any, path ...string) (float64, bool) {
	v, ok := valueAt(m, path...)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func mapAt(m map[string]any, path ...string) (map[string]any, bool) {
	v, ok := valueAt(m, path...)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

func stringAt(m map[string]any, path ...string) (string, bool) {
	v, ok := valueAt(m, path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
