package session

import "github.com/aura-hire/interview-agent/internal/models"

// DefaultQuestions returns the built-in question bank used when the backend
// does not supply one. Order is fixed; the clock walks it front to back.
func DefaultQuestions() []models.Question {
	return []models.Question{
		{
			ID:           "q1",
			Text:         "Tell me about yourself and your background in software development.",
			Category:     "General",
			TimeLimitSec: 300,
			Keywords:     []string{"experience", "background", "skills", "projects"},
		},
		{
			ID:           "q2",
			Text:         "Describe a challenging technical problem you solved recently. What was your approach?",
			Category:     "Technical",
			TimeLimitSec: 240,
			Keywords:     []string{"problem", "solution", "debugging", "approach"},
		},
		{
			ID:           "q3",
			Text:         "How do you handle working with a difficult team member?",
			Category:     "Behavioral",
			TimeLimitSec: 180,
			Keywords:     []string{"communication", "conflict", "teamwork", "resolution"},
		},
		{
			ID:           "q4",
			Text:         "Explain how you would design a scalable microservices architecture.",
			Category:     "System Design",
			TimeLimitSec: 300,
			Keywords:     []string{"scalability", "microservices", "architecture", "design"},
		},
	}
}
