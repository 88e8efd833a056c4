// Package media acquires, validates and recovers camera/microphone streams
// from a pluggable device provider. The Manager exclusively owns the stream
// handle; other subsystems receive read/attach access to specific tracks.
package media

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Request describes a device acquisition.
type Request struct {
	Video       bool
	VideoWidth  int
	VideoHeight int
	Audio       bool
	// Audio processing hints passed through to the device layer.
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// Provider is the platform device layer. Acquire returns a fresh stream or a
// *DeviceError mapped from the platform failure.
type Provider interface {
	Acquire(ctx context.Context, req Request) (*Stream, error)
}

// Manager owns the single device stream handle for a session. All methods
// are safe for concurrent use.
type Manager struct {
	provider Provider
	logger   *zap.Logger

	width  int
	height int

	mu     sync.Mutex
	stream *Stream
}

// NewManager creates a manager over the given provider. Width/height apply to
// video acquisitions.
func NewManager(provider Provider, width, height int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{provider: provider, logger: logger, width: width, height: height}
}

func (m *Manager) audioRequest() Request {
	return Request{
		Audio:            true,
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	}
}

// AcquireCamera requests a combined video+audio stream and takes ownership of
// the handle. A previous handle, if any, is released first.
func (m *Manager) AcquireCamera(ctx context.Context) (*Stream, error) {
	if m.provider == nil {
		return nil, &DeviceError{Kind: KindDeviceNotFound, Op: "acquire camera"}
	}
	req := m.audioRequest()
	req.Video = true
	req.VideoWidth = m.width
	req.VideoHeight = m.height

	stream, err := m.provider.Acquire(ctx, req)
	if err != nil {
		return nil, AsDeviceError("acquire camera", err)
	}
	m.mu.Lock()
	if m.stream != nil {
		m.stream.StopAll()
	}
	m.stream = stream
	m.mu.Unlock()
	m.logger.Debug("camera stream acquired",
		zap.Int("video_tracks", len(stream.VideoTracks())),
		zap.Int("audio_tracks", len(stream.AudioTracks())))
	return stream, nil
}

// EnsureAudio returns a stream with at least one live audio track. When the
// current handle has none, it performs the one-shot fresh-stream recovery.
func (m *Manager) EnsureAudio(ctx context.Context) (*Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream != nil && len(m.stream.LiveAudioTracks()) > 0 {
		return m.stream, nil
	}
	return m.refreshAudioLocked(ctx)
}

// RefreshAudio requests a fresh audio-only stream and merges its audio track
// into the existing handle, stopping stale audio tracks first and discarding
// any video track from the fresh request. This is the only automatic
// recovery; a failure here is terminal for the caller.
func (m *Manager) RefreshAudio(ctx context.Context) (*Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshAudioLocked(ctx)
}

func (m *Manager) refreshAudioLocked(ctx context.Context) (*Stream, error) {
	if m.provider == nil {
		return nil, &DeviceError{Kind: KindDeviceNotFound, Op: "acquire microphone"}
	}

	m.logger.Info("requesting fresh audio-only stream")
	fresh, err := m.provider.Acquire(ctx, m.audioRequest())
	if err != nil {
		return nil, AsDeviceError("acquire microphone", err)
	}

	audio := fresh.AudioTracks()
	for _, t := range fresh.VideoTracks() {
		t.Stop()
	}

	if m.stream == nil {
		m.stream = NewStream(audio...)
	} else {
		m.stream.ReplaceAudio(audio)
	}
	return m.stream, nil
}

// Stream returns the current handle, or nil when none is held.
func (m *Manager) Stream() *Stream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream
}

// Release stops every track across both kinds and clears the handle.
// Idempotent.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return
	}
	m.stream.StopAll()
	m.stream = nil
	m.logger.Debug("media stream released")
}
