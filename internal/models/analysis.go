package models

// Status is the lifecycle state of one analysis channel (emotion, sentiment,
// transcription). Each channel transitions independently.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusActive      Status = "active"
	StatusError       Status = "error"
	StatusUnsupported Status = "unsupported"
)

// EmotionSample is the latest emotion inference for the video feed. Each
// inbound update replaces the previous sample wholesale; no history is kept.
type EmotionSample struct {
	Emotion      string             `json:"emotion"`
	Confidence   float64            `json:"confidence"`
	Distribution map[string]float64 `json:"all_emotions,omitempty"`
}

// SentimentSample is the latest sentiment derived from the most recent
// finalized transcript line. Replace-wholesale, same as EmotionSample.
type SentimentSample struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"sentiment_score"`
}
