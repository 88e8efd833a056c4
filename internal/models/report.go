package models

import "time"

// SessionReport summarizes one interview run. It is derived, not persisted:
// either parsed from the remote report collaborator or computed locally from
// the answer list when the remote call fails or yields nothing usable.
type SessionReport struct {
	SessionID         string           `json:"session_id"`
	TotalQuestions    int              `json:"total_questions"`
	AnsweredQuestions int              `json:"answered_questions"`
	Answers           []AnswerRecord   `json:"answers"`
	OverallScore      int              `json:"overall_score"`
	Emotion           *EmotionSample   `json:"emotion_analysis,omitempty"`
	Sentiment         *SentimentSample `json:"sentiment_analysis,omitempty"`
	CompletedAt       time.Time        `json:"completed_at"`
}
