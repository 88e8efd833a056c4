package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aura-hire/interview-agent/internal/models"
)

type fakeSubmitter struct {
	response json.RawMessage
	err      error

	gotSessionID  string
	gotAnswerText string
	gotQuestionID string
	calls         int
}

func (f *fakeSubmitter) SubmitAnswer(_ context.Context, sessionID, answerText, questionID string) (json.RawMessage, error) {
	f.calls++
	f.gotSessionID = sessionID
	f.gotAnswerText = answerText
	f.gotQuestionID = questionID
	return f.response, f.err
}

var testQuestion = models.Question{ID: "q1", Text: "Tell me about yourself."}

func submit(t *testing.T, body string) models.AnswerRecord {
	t.Helper()
	p := NewPipeline(&fakeSubmitter{response: json.RawMessage(body)}, zap.NewNop())
	rec, err := p.Submit(context.Background(), "sess-1", testQuestion, "my answer")
	require.NoError(t, err)
	return rec
}

func TestSubmitEmptyAnswerFailsLocally(t *testing.T) {
	api := &fakeSubmitter{}
	p := NewPipeline(api, zap.NewNop())

	_, err := p.Submit(context.Background(), "sess-1", testQuestion, "")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
	assert.Zero(t, api.calls, "blank answer must not hit the network")
}

func TestSubmitNetworkErrorWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	p := NewPipeline(&fakeSubmitter{err: cause}, zap.NewNop())

	_, err := p.Submit(context.Background(), "sess-1", testQuestion, "answer")
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.ErrorIs(t, err, cause)
}

func TestSubmitMalformedResponseWrapped(t *testing.T) {
	p := NewPipeline(&fakeSubmitter{response: json.RawMessage("not json")}, zap.NewNop())

	_, err := p.Submit(context.Background(), "sess-1", testQuestion, "answer")
	var subErr *SubmissionError
	assert.ErrorAs(t, err, &subErr)
}

func TestSubmitPassesThroughIdentifiers(t *testing.T) {
	api := &fakeSubmitter{response: json.RawMessage(`{"score": 80}`)}
	p := NewPipeline(api, zap.NewNop())

	_, err := p.Submit(context.Background(), "sess-9", testQuestion, "answer")
	require.NoError(t, err)
	assert.Equal(t, "sess-9", api.gotSessionID)
	assert.Equal(t, "q1", api.gotQuestionID)
	assert.Equal(t, "answer", api.gotAnswerText)
}

func TestScoreNestedOverallPreferred(t *testing.T) {
	rec := submit(t, `{
		"data": {
			"score": 10,
			"answer_feedback": {
				"score_breakdown": {"overall_score": 0.85},
				"message": "Solid answer"
			}
		}
	}`)
	assert.Equal(t, 85, rec.Score)
	assert.False(t, rec.Unscored)
	assert.Equal(t, "Solid answer", rec.Feedback)
}

func TestScoreFlatFieldFraction(t *testing.T) {
	rec := submit(t, `{"score": 0.72}`)
	assert.Equal(t, 72, rec.Score)
}

func TestScoreFlatFieldPercentage(t *testing.T) {
	rec := submit(t, `{"data": {"score": 64}}`)
	assert.Equal(t, 64, rec.Score)
}

func TestScoreComponentAverage(t *testing.T) {
	// Mixed scales: each component is normalized before averaging.
	rec := submit(t, `{
		"score_breakdown": {
			"technical_depth": 0.8,
			"communication_clarity": 60,
			"problem_solving": 70
		}
	}`)
	assert.Equal(t, 70, rec.Score)
	assert.False(t, rec.Unscored)
}

func TestScoreComponentAverageSkipsMissing(t *testing.T) {
	rec := submit(t, `{
		"answer_feedback": {"score_breakdown": {"confidence": 90, "relevance": 70}}
	}`)
	assert.Equal(t, 80, rec.Score)
}

func TestScoreClampedToRange(t *testing.T) {
	rec := submit(t, `{"score": 140}`)
	assert.Equal(t, 100, rec.Score)

	rec = submit(t, `{"score": -5}`)
	assert.Equal(t, 0, rec.Score)
}

func TestScoreBoundaryOneIsFraction(t *testing.T) {
	rec := submit(t, `{"score": 1}`)
	assert.Equal(t, 100, rec.Score)
}

func TestNoScoreMarksUnscored(t *testing.T) {
	rec := submit(t, `{"data": {"message": "recorded"}}`)
	assert.Equal(t, 0, rec.Score)
	assert.True(t, rec.Unscored)
	assert.Equal(t, "Answer submitted successfully", rec.Feedback)
}

func TestFeedbackFlatFallback(t *testing.T) {
	rec := submit(t, `{"score": 50, "feedback": "Could go deeper"}`)
	assert.Equal(t, "Could go deeper", rec.Feedback)
}

func TestRecordCarriesQuestionAndAnswerText(t *testing.T) {
	rec := submit(t, `{"score": 55}`)
	assert.Equal(t, testQuestion.Text, rec.QuestionText)
	assert.Equal(t, "my answer", rec.AnswerText)
}
