package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aura-hire/interview-agent/internal/models"
	"github.com/aura-hire/interview-agent/internal/task"
)

// Clock drives the per-question countdown. It ticks once a second while the
// interview is in progress; when a question's time runs out it advances to
// the next one automatically. Manual submission advances it through Advance,
// which loads the next question's full limit without touching the underlying
// tick cadence.
type Clock struct {
	mu        sync.Mutex
	questions []models.Question
	index     int
	remaining int
	started   bool
	loop      *task.Repeating
	logger    *zap.Logger
}

func NewClock(questions []models.Question, logger *zap.Logger) *Clock {
	return &Clock{questions: questions, logger: logger}
}

// Start loads the first question and begins ticking. Calling Start on a
// running or exhausted clock is a no-op.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || len(c.questions) == 0 {
		return
	}
	c.started = true
	c.index = 0
	c.remaining = c.questions[0].TimeLimitSec
	c.loop = task.Every(time.Second, c.running, c.tick)
	c.logger.Info("interview clock started",
		zap.Int("questions", len(c.questions)),
		zap.Int("time_limit", c.remaining))
}

func (c *Clock) running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && c.index < len(c.questions)
}

func (c *Clock) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index >= len(c.questions) {
		return
	}
	if c.remaining <= 1 {
		c.advanceLocked()
		return
	}
	c.remaining--
}

// Advance moves to the next question immediately, loading its full time
// limit. Past the last question it marks the interview complete.
func (c *Clock) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advanceLocked()
}

func (c *Clock) advanceLocked() {
	if c.index >= len(c.questions) {
		return
	}
	if c.index+1 < len(c.questions) {
		c.index++
		c.remaining = c.questions[c.index].TimeLimitSec
		c.logger.Info("advanced to next question",
			zap.Int("index", c.index),
			zap.Int("time_limit", c.remaining))
		return
	}
	c.index = len(c.questions)
	c.remaining = 0
	c.logger.Info("all questions exhausted")
}

// Current returns the active question, or nil once the interview is
// complete or before Start.
func (c *Clock) Current() *models.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.index >= len(c.questions) {
		return nil
	}
	q := c.questions[c.index]
	return &q
}

// Index reports how many questions have been passed. It never decreases and
// never exceeds the bank size.
func (c *Clock) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Remaining reports seconds left on the active question.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Done reports whether the clock has walked past the last question.
func (c *Clock) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && c.index >= len(c.questions)
}

// Stop halts ticking without advancing. Safe to call more than once and on
// a clock that never started.
func (c *Clock) Stop() {
	c.mu.Lock()
	loop := c.loop
	c.loop = nil
	c.mu.Unlock()
	if loop != nil {
		loop.Stop()
	}
}
