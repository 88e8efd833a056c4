package media

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
	pionmedia "github.com/pion/webrtc/v3/pkg/media"
)

// SyntheticProvider generates test-pattern video frames and silent PCM audio.
// It stands in for a real device backend in headless and CI runs.
type SyntheticProvider struct{}

// NewSyntheticProvider returns a provider that always succeeds.
func NewSyntheticProvider() *SyntheticProvider { return &SyntheticProvider{} }

// Acquire builds a stream of synthetic tracks matching the request.
func (p *SyntheticProvider) Acquire(_ context.Context, req Request) (*Stream, error) {
	var tracks []Track
	if req.Video {
		w, h := req.VideoWidth, req.VideoHeight
		if w <= 0 {
			w = 640
		}
		if h <= 0 {
			h = 480
		}
		tracks = append(tracks, newSyntheticTrack(webrtc.RTPCodecTypeVideo, w, h))
	}
	if req.Audio {
		tracks = append(tracks, newSyntheticTrack(webrtc.RTPCodecTypeAudio, 0, 0))
	}
	return NewStream(tracks...), nil
}

type syntheticTrack struct {
	id     string
	kind   webrtc.RTPCodecType
	width  int
	height int

	mu        sync.Mutex
	live      bool
	lastDrain time.Time
}

func newSyntheticTrack(kind webrtc.RTPCodecType, w, h int) *syntheticTrack {
	return &syntheticTrack{
		id:        uuid.New().String(),
		kind:      kind,
		width:     w,
		height:    h,
		live:      true,
		lastDrain: time.Now(),
	}
}

func (t *syntheticTrack) ID() string                { return t.id }
func (t *syntheticTrack) Kind() webrtc.RTPCodecType { return t.kind }

func (t *syntheticTrack) Live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

func (t *syntheticTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live = false
}

// Frame renders a moving gradient so consecutive frames differ.
func (t *syntheticTrack) Frame() (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	phase := uint8(time.Now().UnixMilli() / 50)
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x) + phase,
				G: uint8(y),
				B: phase,
				A: 255,
			})
		}
	}
	return img, nil
}

// DrainSamples returns one silent 48kHz mono PCM sample covering the time
// since the previous drain.
func (t *syntheticTrack) DrainSamples() []pionmedia.Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.live {
		return nil
	}
	now := time.Now()
	elapsed := now.Sub(t.lastDrain)
	t.lastDrain = now
	if elapsed <= 0 {
		return nil
	}
	n := int(float64(48000) * elapsed.Seconds())
	return []pionmedia.Sample{{
		Data:     make([]byte, n*2),
		Duration: elapsed,
	}}
}
