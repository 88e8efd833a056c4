// Package telemetry maintains the bidirectional streaming connection that
// carries video frames and transcript lines out and emotion/sentiment updates
// in. One channel serves two independent analysis statuses.
package telemetry

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aura-hire/interview-agent/internal/models"
	"github.com/aura-hire/interview-agent/internal/task"
)

const (
	// PingInterval and PongWait drive the websocket heartbeat.
	PingInterval = 30 * time.Second
	PongWait     = 60 * time.Second

	writeWait     = 10 * time.Second
	sendBuffer    = 256
	// FrameQuality is the JPEG quality used for telemetry frames.
	FrameQuality = 80
)

// Analysis identifies one of the two sub-analyses multiplexed on the channel.
type Analysis string

const (
	AnalysisEmotion   Analysis = "emotion"
	AnalysisSentiment Analysis = "sentiment"
)

// Events receives inbound updates and status transitions. Implemented by the
// session state owner.
type Events interface {
	EmotionUpdated(sample models.EmotionSample)
	SentimentUpdated(sample models.SentimentSample)
	StatusChanged(analysis Analysis, status models.Status)
}

// FrameSource produces the current video frame as a JPEG data URL.
// Satisfied by *media.Stream.
type FrameSource interface {
	CaptureJPEG(quality int) (string, error)
}

// message is the wire envelope in both directions.
type message struct {
	Type      string          `json:"type"`
	ImageData string          `json:"image_data,omitempty"`
	Text      string          `json:"text,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Channel is the telemetry websocket client. A closed or errored channel
// stays down until the orchestrator explicitly reopens it.
type Channel struct {
	baseURL string
	events  Events
	logger  *zap.Logger
	dialer  *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	send    chan message
	done    chan struct{}
	closing bool
	frames  *task.Repeating
}

// NewChannel creates a channel client for the given websocket base URL
// (e.g. ws://localhost:8000).
func NewChannel(baseURL string, events Events, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		baseURL: strings.TrimRight(baseURL, "/"),
		events:  events,
		logger:  logger,
		dialer:  websocket.DefaultDialer,
	}
}

// Open establishes the channel for the session. A missing session id is a
// silent no-op and both statuses remain idle. On open-confirmed the emotion
// status becomes active; sentiment activates only once a transcript line is
// sent. A dial failure flips both statuses to error.
func (c *Channel) Open(sessionID string) error {
	if sessionID == "" {
		c.logger.Warn("no session id, telemetry channel not opened")
		return nil
	}

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.closing = false
	c.mu.Unlock()

	url := fmt.Sprintf("%s/ws/interview/%s", c.baseURL, sessionID)
	conn, _, err := c.dialer.Dial(url, nil)
	if err != nil {
		c.events.StatusChanged(AnalysisEmotion, models.StatusError)
		c.events.StatusChanged(AnalysisSentiment, models.StatusError)
		return fmt.Errorf("telemetry dial %s: %w", url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.send = make(chan message, sendBuffer)
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.writePump(conn, c.send, c.done)
	go c.readLoop(conn)

	c.events.StatusChanged(AnalysisEmotion, models.StatusActive)
	c.logger.Info("telemetry channel connected", zap.String("session_id", sessionID))
	return nil
}

// IsOpen reports whether the channel currently holds a connection.
func (c *Channel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// StartFrames begins the periodic frame capture loop. The loop re-checks live
// at the top of each iteration and self-terminates when it turns false, so
// frame traffic ceases the instant the camera is reported off even while the
// channel stays open.
func (c *Channel) StartFrames(src FrameSource, interval time.Duration, live func() bool) {
	c.mu.Lock()
	if c.frames != nil {
		c.mu.Unlock()
		return
	}
	r := task.Every(interval, live, func() {
		if !c.IsOpen() {
			return
		}
		frame, err := src.CaptureJPEG(FrameQuality)
		if err != nil {
			c.logger.Debug("frame capture failed", zap.Error(err))
			return
		}
		c.enqueue(message{Type: "emotion_analysis", ImageData: frame})
	})
	c.frames = r
	c.mu.Unlock()
}

// StopFrames cancels the frame loop. Idempotent.
func (c *Channel) StopFrames() {
	c.mu.Lock()
	r := c.frames
	c.frames = nil
	c.mu.Unlock()
	if r != nil {
		r.Stop()
	}
}

// SendTranscript ships one finalized transcript line. This is the only path
// that sets the sentiment status to active.
func (c *Channel) SendTranscript(text string) {
	text = strings.TrimSpace(text)
	if text == "" || !c.IsOpen() {
		return
	}
	c.enqueue(message{Type: "transcript_line", Text: text})
	c.events.StatusChanged(AnalysisSentiment, models.StatusActive)
}

func (c *Channel) enqueue(msg message) {
	c.mu.Lock()
	send := c.send
	c.mu.Unlock()
	if send == nil {
		return
	}
	select {
	case send <- msg:
	default:
		// buffer full, drop
	}
}

// Close tears the channel down and returns both statuses to idle. Idempotent.
func (c *Channel) Close() {
	c.StopFrames()

	c.mu.Lock()
	conn := c.conn
	done := c.done
	c.conn = nil
	c.send = nil
	c.done = nil
	c.closing = true
	c.mu.Unlock()

	// The send channel is never closed: an in-flight enqueue may still hold a
	// reference. The write pump exits via done and the orphaned buffer is
	// collected.
	if done != nil {
		close(done)
	}
	if conn != nil {
		_ = conn.Close()
		c.events.StatusChanged(AnalysisEmotion, models.StatusIdle)
		c.events.StatusChanged(AnalysisSentiment, models.StatusIdle)
		c.logger.Info("telemetry channel closed")
	}
}

func (c *Channel) writePump(conn *websocket.Conn, send chan message, done chan struct{}) {
	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			deliberate := c.closing
			var done chan struct{}
			if c.conn == conn {
				c.conn = nil
				c.send = nil
				done, c.done = c.done, nil
			}
			c.mu.Unlock()
			if done != nil {
				close(done)
			}
			if !deliberate {
				c.logger.Warn("telemetry channel transport failure", zap.Error(err))
				c.events.StatusChanged(AnalysisEmotion, models.StatusError)
				c.events.StatusChanged(AnalysisSentiment, models.StatusError)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(PongWait))
		c.dispatch(msg)
	}
}

// dispatch routes one inbound typed message. Unrecognized types are ignored
// without failing the channel.
func (c *Channel) dispatch(msg message) {
	switch msg.Type {
	case "emotion_update":
		var sample models.EmotionSample
		if err := json.Unmarshal(msg.Data, &sample); err != nil {
			c.logger.Warn("invalid emotion_update payload", zap.Error(err))
			return
		}
		c.events.EmotionUpdated(sample)
		c.events.StatusChanged(AnalysisEmotion, models.StatusActive)

	case "transcript_analysis":
		var payload struct {
			Analysis struct {
				Sentiment *struct {
					// The backend has shipped the label under both names;
					// treat them as aliases.
					Label     string   `json:"label"`
					Sentiment string   `json:"sentiment"`
					Score     *float64 `json:"score"`
				} `json:"sentiment"`
			} `json:"analysis"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.Analysis.Sentiment == nil {
			return
		}
		s := payload.Analysis.Sentiment
		sample := models.SentimentSample{Sentiment: s.Label, Score: 0.5}
		if sample.Sentiment == "" {
			sample.Sentiment = s.Sentiment
		}
		if sample.Sentiment == "" {
			sample.Sentiment = "neutral"
		}
		if s.Score != nil {
			sample.Score = *s.Score
		}
		c.events.SentimentUpdated(sample)
		c.events.StatusChanged(AnalysisSentiment, models.StatusActive)

	case "error":
		c.logger.Warn("telemetry error message", zap.String("error", msg.Error))
		if strings.Contains(msg.Error, "emotion") {
			c.events.StatusChanged(AnalysisEmotion, models.StatusError)
		}
		if strings.Contains(msg.Error, "sentiment") {
			c.events.StatusChanged(AnalysisSentiment, models.StatusError)
		}

	default:
		// ignore
	}
}
