package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aura-hire/interview-agent/internal/media"
	"github.com/aura-hire/interview-agent/internal/models"
	"github.com/aura-hire/interview-agent/internal/recorder"
	"github.com/aura-hire/interview-agent/internal/report"
	"github.com/aura-hire/interview-agent/internal/scoring"
	"github.com/aura-hire/interview-agent/internal/speech"
	"github.com/aura-hire/interview-agent/internal/telemetry"
)

var (
	// ErrNoActiveQuestion is returned when a submission arrives after the
	// question bank has been exhausted.
	ErrNoActiveQuestion = errors.New("no active question")

	// ErrAlreadyAnswered guards against a second submission for the same
	// question.
	ErrAlreadyAnswered = errors.New("question already answered")

	// ErrConfirmRequired is returned by Exit when the caller did not
	// confirm leaving a session in progress.
	ErrConfirmRequired = errors.New("exit requires confirmation")

	// ErrExited is returned by operations invoked after teardown.
	ErrExited = errors.New("session has ended")
)

// Backend is the slice of the interview API the coordinator needs.
// *api.Client satisfies it.
type Backend interface {
	StartSession(ctx context.Context, jobRole string) (string, error)
	SubmitAnswer(ctx context.Context, sessionID, answerText, questionID string) (json.RawMessage, error)
	GenerateReport(ctx context.Context, sessionID string) (json.RawMessage, error)
}

// RecordingSink receives finished recordings. Implementations persist the
// blob and hand it off for upload.
type RecordingSink interface {
	Save(ctx context.Context, sessionID string, blob recorder.Blob) error
}

// Options configures a Coordinator. Zero values fall back to sensible
// defaults; Provider nil disables camera capture entirely.
type Options struct {
	JobRole       string
	Questions     []models.Question
	TelemetryURL  string
	FrameInterval time.Duration
	Provider      media.Provider
	VideoWidth    int
	VideoHeight   int
	Recognizers   speech.Factory
	Encoders      recorder.EncoderFactory
	Sink          RecordingSink
}

// Coordinator owns one interview session end to end: session creation,
// camera and microphone lifecycle, recording, live transcription, answer
// scoring, telemetry and the final report. All methods are safe for
// concurrent use.
type Coordinator struct {
	logger  *zap.Logger
	backend Backend

	media    *media.Manager
	channel  *telemetry.Channel
	engine   *speech.Engine
	rec      *recorder.Recorder
	clock    *Clock
	pipeline *scoring.Pipeline
	reports  *report.Aggregator
	state    *State

	jobRole       string
	questions     []models.Question
	frameInterval time.Duration
	sink          RecordingSink

	mu       sync.Mutex
	session  *models.Session
	answers  []models.AnswerRecord
	answered map[string]bool
	exited   bool
}

func NewCoordinator(backend Backend, opts Options, logger *zap.Logger) *Coordinator {
	questions := opts.Questions
	if len(questions) == 0 {
		questions = DefaultQuestions()
	}
	interval := opts.FrameInterval
	if interval <= 0 {
		interval = time.Second
	}

	c := &Coordinator{
		logger:        logger,
		backend:       backend,
		jobRole:       opts.JobRole,
		questions:     questions,
		frameInterval: interval,
		sink:          opts.Sink,
		state:         NewState(),
		answered:      make(map[string]bool),
	}

	c.media = media.NewManager(opts.Provider, opts.VideoWidth, opts.VideoHeight, logger)
	c.channel = telemetry.NewChannel(opts.TelemetryURL, c.state, logger)
	c.clock = NewClock(questions, logger)
	c.pipeline = scoring.NewPipeline(backend, logger)
	c.reports = report.NewAggregator(backend, logger)
	c.rec = recorder.New(opts.Encoders, c.onRecorderError, logger)
	c.engine = speech.NewEngine(opts.Recognizers, c.rec.Recording, c.onTranscript, c.onFinalLine, logger)
	return c
}

// Start creates the backend session and begins the question clock. Backend
// failure is not fatal: the session continues under a placeholder id so a
// local report can still be produced.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exited {
		return ErrExited
	}
	if c.session != nil {
		return nil
	}

	id, err := c.backend.StartSession(ctx, c.jobRole)
	if err != nil || id == "" {
		id = models.TempSessionID()
		c.logger.Warn("backend session unavailable, using placeholder id",
			zap.String("session_id", id), zap.Error(err))
	}
	c.session = &models.Session{ID: id, JobRole: c.jobRole, StartedAt: time.Now()}
	c.clock.Start()
	c.logger.Info("interview session started",
		zap.String("session_id", id), zap.String("job_role", c.jobRole))
	return nil
}

// Session returns the current session, or nil before Start.
func (c *Coordinator) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// EnableCamera acquires the camera and microphone, opens the telemetry
// channel and begins streaming frames. Device failures surface as
// *media.DeviceError with an actionable remedy.
func (c *Coordinator) EnableCamera(ctx context.Context) error {
	if c.isExited() {
		return ErrExited
	}
	if c.state.CameraOn() {
		return nil
	}

	stream, err := c.media.AcquireCamera(ctx)
	if err != nil {
		return err
	}
	c.state.SetCameraOn(true)

	if sess := c.Session(); sess != nil && !c.channel.IsOpen() {
		if err := c.channel.Open(sess.ID); err != nil {
			c.logger.Warn("telemetry channel unavailable", zap.Error(err))
		}
	}
	c.channel.StartFrames(stream, c.frameInterval, c.state.CameraOn)
	return nil
}

// DisableCamera stops frame streaming, halts any active recording and
// releases all capture tracks. The telemetry channel stays open.
func (c *Coordinator) DisableCamera(ctx context.Context) {
	c.state.SetCameraOn(false)
	c.channel.StopFrames()
	if c.rec.Recording() {
		if _, err := c.StopRecording(ctx); err != nil {
			c.logger.Warn("stopping recording on camera off", zap.Error(err))
		}
	}
	c.media.Release()
}

// StartRecording begins audio capture and live transcription. When the
// current stream has no usable audio it retries once with a fresh
// audio-only stream before giving up.
func (c *Coordinator) StartRecording(ctx context.Context) error {
	if c.isExited() {
		return ErrExited
	}
	if c.rec.Recording() {
		return nil
	}

	stream, err := c.media.EnsureAudio(ctx)
	if err != nil {
		return err
	}

	if err := c.rec.Start(stream); err != nil {
		if !errors.Is(err, recorder.ErrNoAudio) {
			return err
		}
		c.logger.Warn("stream has no usable audio, retrying with fresh stream")
		stream, err = c.media.RefreshAudio(ctx)
		if err != nil {
			return err
		}
		if err := c.rec.Start(stream); err != nil {
			return fmt.Errorf("start recording: %w", err)
		}
	}

	c.engine.Start()
	c.state.SetRecording(true)
	c.logger.Info("recording started")
	return nil
}

// StopRecording finalizes the recording, stops transcription and hands the
// blob to the sink when one is configured. The blob is returned either way.
func (c *Coordinator) StopRecording(ctx context.Context) (recorder.Blob, error) {
	c.state.SetRecording(false)
	c.engine.Stop()

	blob, err := c.rec.Stop()
	if err != nil {
		if errors.Is(err, recorder.ErrNotRecording) {
			return recorder.Blob{}, nil
		}
		return recorder.Blob{}, err
	}
	c.logger.Info("recording stopped",
		zap.String("recording_id", blob.ID.String()),
		zap.String("mime_type", blob.MimeType),
		zap.Int("bytes", len(blob.Data)))

	if c.sink != nil && len(blob.Data) > 0 {
		if sess := c.Session(); sess != nil {
			if err := c.sink.Save(ctx, sess.ID, blob); err != nil {
				c.logger.Error("persisting recording failed", zap.Error(err))
			}
		}
	}
	return blob, nil
}

// SetAnswerText replaces the answer buffer with manually entered text.
func (c *Coordinator) SetAnswerText(text string) {
	c.state.SetAnswerText(text)
}

// AnswerText returns the current answer buffer.
func (c *Coordinator) AnswerText() string {
	return c.state.AnswerText()
}

// SubmitAnswer sends the answer buffer for the active question to the
// scoring pipeline. On success the buffer is cleared and the clock advances;
// on failure the buffer is preserved so the candidate can retry.
func (c *Coordinator) SubmitAnswer(ctx context.Context) (models.AnswerRecord, error) {
	if c.isExited() {
		return models.AnswerRecord{}, ErrExited
	}

	q := c.clock.Current()
	if q == nil {
		return models.AnswerRecord{}, ErrNoActiveQuestion
	}

	c.mu.Lock()
	if c.answered[q.ID] {
		c.mu.Unlock()
		return models.AnswerRecord{}, ErrAlreadyAnswered
	}
	sess := c.session
	c.mu.Unlock()

	if sess == nil {
		return models.AnswerRecord{}, errors.New("session not started")
	}

	text := strings.TrimSpace(c.state.AnswerText())
	rec, err := c.pipeline.Submit(ctx, sess.ID, *q, text)
	if err != nil {
		// Buffer stays intact so nothing typed or dictated is lost.
		return models.AnswerRecord{}, err
	}

	c.mu.Lock()
	c.answers = append(c.answers, rec)
	c.answered[q.ID] = true
	c.mu.Unlock()

	c.state.SetAnswerText("")
	c.clock.Advance()
	return rec, nil
}

// Answers returns a copy of the records accumulated so far.
func (c *Coordinator) Answers() []models.AnswerRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.AnswerRecord, len(c.answers))
	copy(out, c.answers)
	return out
}

// Report produces the final session report, preferring the backend's and
// falling back to a locally aggregated one.
func (c *Coordinator) Report(ctx context.Context) *models.SessionReport {
	sessionID := ""
	if sess := c.Session(); sess != nil {
		sessionID = sess.ID
	}
	return c.reports.Build(ctx, sessionID, len(c.questions), c.Answers(),
		c.state.EmotionSample(), c.state.SentimentSample())
}

// Snapshot captures the full session state for the control surface.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	sess := c.session
	answers := make([]models.AnswerRecord, len(c.answers))
	copy(answers, c.answers)
	c.mu.Unlock()

	return Snapshot{
		Session:             sess,
		QuestionIndex:       c.clock.Index(),
		TotalQuestions:      len(c.questions),
		CurrentQuestion:     c.clock.Current(),
		RemainingSec:        c.clock.Remaining(),
		Completed:           c.clock.Done(),
		CameraOn:            c.state.CameraOn(),
		Recording:           c.state.Recording(),
		TranscriptionStatus: c.engine.Status(),
		EmotionStatus:       c.state.EmotionStatus(),
		SentimentStatus:     c.state.SentimentStatus(),
		AnswerText:          c.state.AnswerText(),
		Answers:             answers,
		Emotion:             c.state.EmotionSample(),
		Sentiment:           c.state.SentimentSample(),
	}
}

// Exit tears the session down. Confirmation is required while questions
// remain; once the interview is complete it is implied. Teardown order is
// fixed: clock, telemetry channel, recorder, media, recognition. Exit is
// idempotent.
func (c *Coordinator) Exit(ctx context.Context, confirm bool) error {
	if !confirm && !c.clock.Done() {
		return ErrConfirmRequired
	}

	c.mu.Lock()
	if c.exited {
		c.mu.Unlock()
		return nil
	}
	c.exited = true
	c.mu.Unlock()

	c.clock.Stop()
	c.channel.Close()
	if _, err := c.StopRecording(ctx); err != nil {
		c.logger.Warn("stopping recording on exit", zap.Error(err))
	}
	c.media.Release()
	c.engine.Stop()
	c.state.SetCameraOn(false)

	c.logger.Info("interview session ended")
	return nil
}

func (c *Coordinator) isExited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exited
}

// onTranscript mirrors the live transcription into the answer buffer.
func (c *Coordinator) onTranscript(text string) {
	c.state.SetAnswerText(text)
}

// onFinalLine forwards finalized speech to sentiment analysis.
func (c *Coordinator) onFinalLine(line string) {
	c.channel.SendTranscript(line)
}

// onRecorderError surfaces a mid-recording failure. The recorder has
// already reset itself; flip the flag so another attempt can start cleanly.
func (c *Coordinator) onRecorderError(err error) {
	c.logger.Error("recording aborted", zap.Error(err))
	c.state.SetRecording(false)
	c.engine.Stop()
}

// Snapshot is the wire representation of session state served by the
// control API.
type Snapshot struct {
	Session             *models.Session        `json:"session,omitempty"`
	QuestionIndex       int                    `json:"question_index"`
	TotalQuestions      int                    `json:"total_questions"`
	CurrentQuestion     *models.Question       `json:"current_question,omitempty"`
	RemainingSec        int                    `json:"remaining_sec"`
	Completed           bool                   `json:"completed"`
	CameraOn            bool                   `json:"camera_on"`
	Recording           bool                   `json:"recording"`
	TranscriptionStatus models.Status          `json:"transcription_status"`
	EmotionStatus       models.Status          `json:"emotion_status"`
	SentimentStatus     models.Status          `json:"sentiment_status"`
	AnswerText          string                 `json:"answer_text"`
	Answers             []models.AnswerRecord  `json:"answers"`
	Emotion             *models.EmotionSample  `json:"emotion,omitempty"`
	Sentiment           *models.SentimentSample `json:"sentiment,omitempty"`
}
