package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"sync"

	"github.com/pion/webrtc/v3"
	pionmedia "github.com/pion/webrtc/v3/pkg/media"
)

// Track is one live media track owned by a Stream. Implementations come from
// the device Provider; consumers must never stop tracks themselves except
// during their own explicit teardown.
type Track interface {
	ID() string
	Kind() webrtc.RTPCodecType
	// Live reports whether the track is still producing media. Only live
	// tracks count as usable.
	Live() bool
	// Stop ends the track. Idempotent.
	Stop()
}

// FrameProvider is implemented by video tracks that can produce still frames
// for telemetry capture.
type FrameProvider interface {
	Frame() (image.Image, error)
}

// AudioSource is implemented by audio tracks that buffer captured samples for
// the recorder to drain once per chunk interval.
type AudioSource interface {
	DrainSamples() []pionmedia.Sample
}

// Stream is an owned handle over a set of tracks. Video and audio tracks may
// be replaced independently without destroying the other kind.
type Stream struct {
	mu     sync.Mutex
	tracks []Track
}

// NewStream builds a stream over the given tracks.
func NewStream(tracks ...Track) *Stream {
	return &Stream{tracks: tracks}
}

// Tracks returns a snapshot of all tracks.
func (s *Stream) Tracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

func (s *Stream) tracksOfKind(kind webrtc.RTPCodecType) []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Track
	for _, t := range s.tracks {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}

// VideoTracks returns the video tracks.
func (s *Stream) VideoTracks() []Track { return s.tracksOfKind(webrtc.RTPCodecTypeVideo) }

// AudioTracks returns the audio tracks, live or not.
func (s *Stream) AudioTracks() []Track { return s.tracksOfKind(webrtc.RTPCodecTypeAudio) }

// LiveAudioTracks returns only audio tracks still in a live state.
func (s *Stream) LiveAudioTracks() []Track {
	var out []Track
	for _, t := range s.AudioTracks() {
		if t.Live() {
			out = append(out, t)
		}
	}
	return out
}

// ReplaceAudio stops every existing audio track and attaches the given ones.
// Video tracks are untouched.
func (s *Stream) ReplaceAudio(replacements []Track) {
	s.mu.Lock()
	var kept []Track
	var stale []Track
	for _, t := range s.tracks {
		if t.Kind() == webrtc.RTPCodecTypeAudio {
			stale = append(stale, t)
			continue
		}
		kept = append(kept, t)
	}
	s.tracks = append(kept, replacements...)
	s.mu.Unlock()

	for _, t := range stale {
		t.Stop()
	}
}

// StopAll stops every track across both kinds. Idempotent.
func (s *Stream) StopAll() {
	for _, t := range s.Tracks() {
		t.Stop()
	}
}

// CaptureJPEG grabs the current video frame, encodes it as JPEG at the given
// quality and returns it as a base64 data URL, matching the telemetry frame
// payload format. Fails when no live video track can produce frames.
func (s *Stream) CaptureJPEG(quality int) (string, error) {
	for _, t := range s.VideoTracks() {
		if !t.Live() {
			continue
		}
		fp, ok := t.(FrameProvider)
		if !ok {
			continue
		}
		img, err := fp.Frame()
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		buf.WriteString("data:image/jpeg;base64,")
		enc := base64.NewEncoder(base64.StdEncoding, &buf)
		if err := jpeg.Encode(enc, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return "", &DeviceError{Kind: KindDeviceNotFound, Op: "capture frame"}
}
