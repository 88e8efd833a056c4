package session

import (
	"sync"

	"github.com/aura-hire/interview-agent/internal/models"
	"github.com/aura-hire/interview-agent/internal/telemetry"
)

// State holds the mutable flags and analysis results shared between the
// coordinator, the telemetry channel and the control surface. It implements
// telemetry.Events so channel callbacks land here directly.
type State struct {
	mu        sync.RWMutex
	cameraOn  bool
	recording bool

	emotionStatus   models.Status
	sentimentStatus models.Status

	answerText string
	emotion    *models.EmotionSample
	sentiment  *models.SentimentSample
}

func NewState() *State {
	return &State{
		emotionStatus:   models.StatusIdle,
		sentimentStatus: models.StatusIdle,
	}
}

func (s *State) SetCameraOn(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameraOn = on
}

func (s *State) CameraOn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cameraOn
}

func (s *State) SetRecording(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = on
}

func (s *State) Recording() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recording
}

// SetAnswerText replaces the answer buffer. Live transcription and manual
// edits both land here; last write wins.
func (s *State) SetAnswerText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answerText = text
}

func (s *State) AnswerText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.answerText
}

func (s *State) EmotionSample() *models.EmotionSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emotion
}

func (s *State) SentimentSample() *models.SentimentSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sentiment
}

func (s *State) EmotionStatus() models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emotionStatus
}

func (s *State) SentimentStatus() models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sentimentStatus
}

// EmotionUpdated implements telemetry.Events.
func (s *State) EmotionUpdated(sample models.EmotionSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emotion = &sample
}

// SentimentUpdated implements telemetry.Events.
func (s *State) SentimentUpdated(sample models.SentimentSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentiment = &sample
}

// StatusChanged implements telemetry.Events.
func (s *State) StatusChanged(analysis telemetry.Analysis, status models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch analysis {
	case telemetry.AnalysisEmotion:
		s.emotionStatus = status
	case telemetry.AnalysisSentiment:
		s.sentimentStatus = status
	}
}
