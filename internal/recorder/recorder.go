// Package recorder captures codec-negotiated chunked audio from a media
// stream, producing a single tagged blob on stop.
package recorder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	pionmedia "github.com/pion/webrtc/v3/pkg/media"
	"go.uber.org/zap"

	"github.com/aura-hire/interview-agent/internal/media"
	"github.com/aura-hire/interview-agent/internal/task"
)

// ChunkInterval is how often a data chunk is emitted during recording.
const ChunkInterval = time.Second

// PreferredMimeTypes is the ordered codec preference list for negotiation.
// The first supported entry wins; when none is supported the platform default
// encoding is used.
var PreferredMimeTypes = []string{
	"audio/webm;codecs=opus",
	"audio/webm",
	"audio/ogg;codecs=opus",
	"audio/mp4",
	"audio/wav",
}

var (
	// ErrUnsupported means the platform recorder API is absent.
	ErrUnsupported = errors.New("audio recording not supported")
	// ErrNoAudio means the supplied stream has zero live audio tracks.
	ErrNoAudio = errors.New("no live audio tracks")
	// ErrNotRecording is returned by Stop when no recording is active.
	ErrNotRecording = errors.New("not recording")
)

// Encoder compresses raw samples into container chunks for one negotiated
// mime type.
type Encoder interface {
	MimeType() string
	Encode(samples []pionmedia.Sample) ([]byte, error)
}

// EncoderFactory is the platform encoder layer. New with an empty mime type
// returns the platform default encoding.
type EncoderFactory interface {
	Supported(mimeType string) bool
	New(mimeType string) (Encoder, error)
}

// Blob is the final recording: all chunks concatenated, tagged with the
// negotiated encoding.
type Blob struct {
	ID       uuid.UUID
	MimeType string
	Data     []byte
}

// Recorder records audio from the live audio track of a stream. One recording
// at a time.
type Recorder struct {
	factory EncoderFactory
	logger  *zap.Logger

	// onError is invoked when a recorder error aborts an active recording;
	// the failure is retryable from the user's perspective.
	onError func(error)

	mu        sync.Mutex
	recording bool
	enc       Encoder
	chunks    [][]byte
	source    media.AudioSource
	loop      *task.Repeating
}

// New creates a recorder over the platform encoder factory. A nil factory
// means the recorder API is absent and Start fails with ErrUnsupported.
func New(factory EncoderFactory, onError func(error), logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{factory: factory, onError: onError, logger: logger}
}

// Recording reports whether a recording is active. Used by the transcription
// engine to gate restarts.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// negotiate walks the preference list and returns the first supported
// encoder, falling back to the platform default when none match.
func (r *Recorder) negotiate() (Encoder, error) {
	for _, mime := range PreferredMimeTypes {
		if !r.factory.Supported(mime) {
			continue
		}
		enc, err := r.factory.New(mime)
		if err != nil {
			r.logger.Warn("encoder creation failed, trying next", zap.String("mime_type", mime), zap.Error(err))
			continue
		}
		return enc, nil
	}
	enc, err := r.factory.New("")
	if err != nil {
		return nil, fmt.Errorf("default encoder: %w", err)
	}
	return enc, nil
}

// Start begins recording from the stream's live audio track, emitting one
// chunk per interval. Fails fast with ErrUnsupported when no encoder layer
// exists and ErrNoAudio when the stream has zero live audio tracks; the
// caller attempts a fresh-stream recovery on the latter before giving up.
func (r *Recorder) Start(stream *media.Stream) error {
	if r.factory == nil {
		return ErrUnsupported
	}

	live := stream.LiveAudioTracks()
	if len(live) == 0 {
		return ErrNoAudio
	}
	source, ok := live[0].(media.AudioSource)
	if !ok {
		return ErrNoAudio
	}

	enc, err := r.negotiate()
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return nil
	}
	r.recording = true
	r.enc = enc
	r.chunks = nil
	r.source = source
	r.loop = task.Every(ChunkInterval, r.Recording, r.emitChunk)
	r.mu.Unlock()

	r.logger.Info("recording started", zap.String("mime_type", enc.MimeType()))
	return nil
}

func (r *Recorder) emitChunk() {
	r.mu.Lock()
	enc := r.enc
	source := r.source
	r.mu.Unlock()
	if enc == nil || source == nil {
		return
	}

	samples := source.DrainSamples()
	if len(samples) == 0 {
		return
	}
	chunk, err := enc.Encode(samples)
	if err != nil {
		r.abort(fmt.Errorf("encode chunk: %w", err))
		return
	}
	if len(chunk) == 0 {
		return
	}

	r.mu.Lock()
	if r.recording {
		r.chunks = append(r.chunks, chunk)
	}
	r.mu.Unlock()
}

// abort resets the recorder on a mid-recording error and surfaces the failure
// as retryable.
func (r *Recorder) abort(err error) {
	r.mu.Lock()
	wasRecording := r.recording
	r.recording = false
	r.enc = nil
	r.source = nil
	r.chunks = nil
	r.mu.Unlock()

	if !wasRecording {
		return
	}
	r.logger.Error("recording aborted", zap.Error(err))
	if r.onError != nil {
		r.onError(err)
	}
}

// Stop halts the recording and concatenates accumulated chunks into a single
// blob tagged with the negotiated encoding. Stopping an inactive recorder
// returns ErrNotRecording without side effects.
func (r *Recorder) Stop() (Blob, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return Blob{}, ErrNotRecording
	}
	r.recording = false
	enc := r.enc
	source := r.source
	loop := r.loop
	r.enc = nil
	r.source = nil
	r.loop = nil
	r.mu.Unlock()

	if loop != nil {
		loop.Stop()
	}

	// Flush whatever the source buffered since the last tick.
	var tail []byte
	if source != nil && enc != nil {
		if samples := source.DrainSamples(); len(samples) > 0 {
			if chunk, err := enc.Encode(samples); err == nil {
				tail = chunk
			}
		}
	}

	r.mu.Lock()
	chunks := r.chunks
	r.chunks = nil
	r.mu.Unlock()
	if len(tail) > 0 {
		chunks = append(chunks, tail)
	}

	var size int
	for _, c := range chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	for _, c := range chunks {
		data = append(data, c...)
	}

	blob := Blob{ID: uuid.New(), MimeType: enc.MimeType(), Data: data}
	r.logger.Info("recording stopped", zap.String("mime_type", blob.MimeType), zap.Int("bytes", len(blob.Data)))
	return blob, nil
}
