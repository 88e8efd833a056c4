// Package report builds the end-of-session report, preferring the remote
// report collaborator and falling back to a locally computed one.
package report

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/aura-hire/interview-agent/internal/models"
)

// ReportClient is the generate-report collaborator.
type ReportClient interface {
	GenerateReport(ctx context.Context, sessionID string) (json.RawMessage, error)
}

// Aggregator assembles session reports.
type Aggregator struct {
	api    ReportClient
	logger *zap.Logger
	now    func() time.Time
}

// NewAggregator creates a report aggregator.
func NewAggregator(api ReportClient, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{api: api, logger: logger, now: time.Now}
}

// Build attempts the remote report first; on any failure, or when the remote
// call yields no usable payload, it falls back to a locally computed report.
// The fallback path is identical whether the session id is a genuine backend
// id or a locally generated placeholder.
func (a *Aggregator) Build(ctx context.Context, sessionID string, totalQuestions int, answers []models.AnswerRecord, emotion *models.EmotionSample, sentiment *models.SentimentSample) *models.SessionReport {
	if remote := a.fetchRemote(ctx, sessionID); remote != nil {
		return remote
	}
	return a.buildLocal(sessionID, totalQuestions, answers, emotion, sentiment)
}

func (a *Aggregator) fetchRemote(ctx context.Context, sessionID string) *models.SessionReport {
	if a.api == nil {
		return nil
	}
	raw, err := a.api.GenerateReport(ctx, sessionID)
	if err != nil {
		a.logger.Warn("remote report failed, using local fallback", zap.Error(err))
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		a.logger.Warn("remote report unusable, using local fallback", zap.Error(err))
		return nil
	}

	body := raw
	if inner, ok := payload["data"].(map[string]any); ok {
		body, _ = json.Marshal(inner)
	} else if success, _ := payload["success"].(bool); !success {
		a.logger.Warn("remote report has no usable payload, using local fallback")
		return nil
	}

	var report models.SessionReport
	if err := json.Unmarshal(body, &report); err != nil {
		a.logger.Warn("remote report decode failed, using local fallback", zap.Error(err))
		return nil
	}
	if report.SessionID == "" {
		report.SessionID = sessionID
	}
	return &report
}

// buildLocal derives a report from the answer list: overall score is the
// rounded mean of answer scores, or 0 when no answers exist.
func (a *Aggregator) buildLocal(sessionID string, totalQuestions int, answers []models.AnswerRecord, emotion *models.EmotionSample, sentiment *models.SentimentSample) *models.SessionReport {
	overall := 0
	if len(answers) > 0 {
		sum := 0
		for _, ans := range answers {
			sum += ans.Score
		}
		overall = int(math.Round(float64(sum) / float64(len(answers))))
	}
	return &models.SessionReport{
		SessionID:         sessionID,
		TotalQuestions:    totalQuestions,
		AnsweredQuestions: len(answers),
		Answers:           answers,
		OverallScore:      overall,
		Emotion:           emotion,
		Sentiment:         sentiment,
		CompletedAt:       a.now(),
	}
}
