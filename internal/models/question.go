package models

// Question is one entry in the fixed, ordered interview question sequence.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"question"`
	Category     string   `json:"category"`
	TimeLimitSec int      `json:"time_limit"`
	Keywords     []string `json:"keywords"`
}

// AnswerRecord is one submitted answer with its normalized score. Created once
// per submitted answer and never mutated afterwards.
type AnswerRecord struct {
	QuestionText string `json:"question"`
	AnswerText   string `json:"answer"`
	Score        int    `json:"score"`
	Feedback     string `json:"feedback"`
	// Unscored marks records where no score field could be extracted from the
	// scoring response; the score is 0 but does not represent a graded zero.
	Unscored bool `json:"unscored,omitempty"`
}
