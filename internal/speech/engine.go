// Package speech runs continuous interim-and-final speech recognition over a
// platform recognizer, with error classification and automatic restart while
// the owning recorder is live.
package speech

import (
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aura-hire/interview-agent/internal/models"
)

// RestartDelay is the debounce before restarting a naturally-ended recognizer,
// avoiding restart storms when the platform emits rapid end/start cycles.
const RestartDelay = 500 * time.Millisecond

// Recognizer error codes as reported by the platform engine.
const (
	CodeNoSpeech          = "no-speech"
	CodeAborted           = "aborted"
	CodeNotAllowed        = "not-allowed"
	CodeAudioCapture      = "audio-capture"
	CodeNetwork           = "network"
	CodeServiceNotAllowed = "service-not-allowed"
)

// ErrAlreadyStarted is returned by a Recognizer whose Start is called while it
// is running. The engine swallows it on restart.
var ErrAlreadyStarted = errors.New("recognizer already started")

// ErrUnsupported is returned by a Factory when the platform lacks a
// speech-recognition capability.
var ErrUnsupported = errors.New("speech recognition not supported")

// Fragment is one recognized segment. Final fragments are no longer subject
// to revision.
type Fragment struct {
	Text  string
	Final bool
}

// Handlers receives recognizer events. All callbacks may fire from the
// recognizer's own goroutine.
type Handlers struct {
	OnResult func(batch []Fragment)
	OnError  func(code string)
	OnEnd    func()
}

// Recognizer is the platform speech engine for one continuous run.
type Recognizer interface {
	Start() error
	Stop()
}

// Factory builds a recognizer wired to the given handlers, or ErrUnsupported.
type Factory func(h Handlers) (Recognizer, error)

// Engine aggregates recognizer results into the live answer text, forwards
// finalized lines, and manages restarts and error reporting for one recording
// session at a time.
type Engine struct {
	factory   Factory
	logger    *zap.Logger
	recording func() bool

	mu        sync.Mutex
	rec       Recognizer
	status    models.Status
	finalized []string
	interim   string
	errorSeen bool
	stopped   bool

	onText  func(full string)
	onFinal func(line string)
}

// NewEngine creates an engine. recording reports whether the owning audio
// recorder is still in a recording state; it gates automatic restarts.
// onText receives the full live answer text after each result batch; onFinal
// receives each batch's finalized line for telemetry.
func NewEngine(factory Factory, recording func() bool, onText func(string), onFinal func(string), logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		factory:   factory,
		logger:    logger,
		recording: recording,
		status:    models.StatusIdle,
		onText:    onText,
		onFinal:   onFinal,
	}
}

// Status returns the engine status.
func (e *Engine) Status() models.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Start begins continuous recognition for a new recording session, resetting
// accumulated text and the once-per-session error flag. When the platform
// lacks the capability the status becomes unsupported and the engine never
// engages; manual text entry remains the sole input path.
func (e *Engine) Start() {
	e.mu.Lock()
	e.finalized = nil
	e.interim = ""
	e.errorSeen = false
	e.stopped = false
	e.mu.Unlock()

	if e.factory == nil {
		e.setStatus(models.StatusUnsupported)
		e.logger.Warn("speech recognition not available, manual entry only")
		return
	}

	rec, err := e.factory(Handlers{
		OnResult: e.handleResult,
		OnError:  e.handleError,
		OnEnd:    e.handleEnd,
	})
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			e.setStatus(models.StatusUnsupported)
			e.logger.Warn("speech recognition not supported, manual entry only")
		} else {
			e.setStatus(models.StatusError)
			e.logger.Warn("speech recognition init failed", zap.Error(err))
		}
		return
	}

	e.mu.Lock()
	e.rec = rec
	e.mu.Unlock()

	if err := rec.Start(); err != nil {
		if errors.Is(err, ErrAlreadyStarted) {
			e.setStatus(models.StatusActive)
			return
		}
		e.setStatus(models.StatusError)
		e.logger.Warn("speech recognition start failed", zap.Error(err))
		return
	}
	e.setStatus(models.StatusActive)
	e.logger.Debug("speech recognition started")
}

// Stop halts recognition and releases the engine instance. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	rec := e.rec
	e.rec = nil
	e.stopped = true
	e.mu.Unlock()
	if rec != nil {
		rec.Stop()
	}
}

func (e *Engine) setStatus(s models.Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

// handleResult appends the batch's finalized fragments, keeps the batch's
// interim fragment, and emits the concatenated live answer text. Only
// finalized fragments are forwarded for telemetry.
func (e *Engine) handleResult(batch []Fragment) {
	var finals []string
	interim := ""
	for _, f := range batch {
		if f.Final {
			finals = append(finals, f.Text)
		} else {
			interim += f.Text
		}
	}

	e.mu.Lock()
	e.finalized = append(e.finalized, finals...)
	e.interim = interim
	full := strings.TrimSpace(strings.Join(e.finalized, " ") + " " + interim)
	e.mu.Unlock()

	if e.onText != nil {
		e.onText(full)
	}
	if line := strings.TrimSpace(strings.Join(finals, " ")); line != "" && e.onFinal != nil {
		e.onFinal(line)
	}
}

// handleError classifies recognizer error codes. no-speech and aborted are
// ignorable; everything else is reported at most once per recording session.
// not-allowed is terminal: the engine stops and never restarts.
func (e *Engine) handleError(code string) {
	switch code {
	case CodeNoSpeech, CodeAborted:
		return
	}

	e.mu.Lock()
	if e.errorSeen {
		e.mu.Unlock()
		return
	}
	e.errorSeen = true
	e.mu.Unlock()

	e.logger.Warn("speech recognition error", zap.String("code", code))

	switch code {
	case CodeNotAllowed:
		e.setStatus(models.StatusError)
		e.Stop()
	case CodeAudioCapture, CodeNetwork, CodeServiceNotAllowed:
		// Status flips to error but the owning recording continues.
		e.setStatus(models.StatusError)
	default:
		// log only
	}
}

// handleEnd restarts after natural termination, when the owning recorder is
// still recording and the engine has not hit a terminal or unsupported
// status, after the fixed debounce delay.
func (e *Engine) handleEnd() {
	if !e.restartable() {
		return
	}
	time.AfterFunc(RestartDelay, func() {
		if !e.restartable() {
			return
		}
		e.mu.Lock()
		rec := e.rec
		e.mu.Unlock()
		if rec == nil {
			return
		}
		if err := rec.Start(); err != nil {
			if errors.Is(err, ErrAlreadyStarted) {
				return
			}
			e.logger.Warn("could not restart recognition", zap.Error(err))
		}
	})
}

func (e *Engine) restartable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped || e.rec == nil {
		return false
	}
	if e.status == models.StatusError || e.status == models.StatusUnsupported {
		return false
	}
	return e.recording != nil && e.recording()
}
