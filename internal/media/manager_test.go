package media

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingProvider fails every acquire with the given error.
type failingProvider struct{ err error }

func (p *failingProvider) Acquire(context.Context, Request) (*Stream, error) {
	return nil, p.err
}

func TestAcquireCameraReturnsVideoAndAudio(t *testing.T) {
	m := NewManager(NewSyntheticProvider(), 320, 240, zap.NewNop())
	defer m.Release()

	s, err := m.AcquireCamera(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.VideoTracks(), 1)
	assert.Len(t, s.AudioTracks(), 1)
	assert.Len(t, s.LiveAudioTracks(), 1)
}

func TestAcquireCameraReplacesOldHandle(t *testing.T) {
	m := NewManager(NewSyntheticProvider(), 320, 240, zap.NewNop())
	defer m.Release()

	first, err := m.AcquireCamera(context.Background())
	require.NoError(t, err)
	firstVideo := first.VideoTracks()[0]

	second, err := m.AcquireCamera(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.False(t, firstVideo.Live(), "old handle's tracks are stopped")
}

func TestAcquireCameraPermissionDenied(t *testing.T) {
	cause := &DeviceError{Kind: KindPermissionDenied, Op: "open camera"}
	m := NewManager(&failingProvider{err: cause}, 320, 240, zap.NewNop())

	_, err := m.AcquireCamera(context.Background())
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, KindPermissionDenied, devErr.Kind)
	assert.Contains(t, devErr.Remedy(), "Allow camera")
}

func TestAcquireCameraUnknownErrorWrapped(t *testing.T) {
	cause := errors.New("ioctl failed")
	m := NewManager(&failingProvider{err: cause}, 320, 240, zap.NewNop())

	_, err := m.AcquireCamera(context.Background())
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, KindUnknown, devErr.Kind)
	assert.ErrorIs(t, err, cause)
}

func TestEnsureAudioReturnsExistingLiveAudio(t *testing.T) {
	m := NewManager(NewSyntheticProvider(), 320, 240, zap.NewNop())
	defer m.Release()

	first, err := m.AcquireCamera(context.Background())
	require.NoError(t, err)

	s, err := m.EnsureAudio(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, s, "live audio means no new acquisition")
}

func TestEnsureAudioRecoversDeadAudio(t *testing.T) {
	m := NewManager(NewSyntheticProvider(), 320, 240, zap.NewNop())
	defer m.Release()

	s, err := m.AcquireCamera(context.Background())
	require.NoError(t, err)
	video := s.VideoTracks()[0]
	for _, tr := range s.AudioTracks() {
		tr.Stop()
	}
	require.Empty(t, s.LiveAudioTracks())

	recovered, err := m.EnsureAudio(context.Background())
	require.NoError(t, err)
	assert.Same(t, s, recovered, "recovery merges into the existing handle")
	assert.Len(t, recovered.LiveAudioTracks(), 1)
	assert.True(t, video.Live(), "video track survives the audio swap")
}

func TestEnsureAudioWithoutCamera(t *testing.T) {
	m := NewManager(NewSyntheticProvider(), 320, 240, zap.NewNop())
	defer m.Release()

	s, err := m.EnsureAudio(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.VideoTracks(), "audio-only request carries no video")
	assert.Len(t, s.LiveAudioTracks(), 1)
}

func TestEnsureAudioNilProvider(t *testing.T) {
	m := NewManager(nil, 320, 240, zap.NewNop())

	_, err := m.EnsureAudio(context.Background())
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, KindDeviceNotFound, devErr.Kind)
}

func TestRefreshAudioDiscardsFreshVideo(t *testing.T) {
	m := NewManager(NewSyntheticProvider(), 320, 240, zap.NewNop())
	defer m.Release()

	_, err := m.AcquireCamera(context.Background())
	require.NoError(t, err)

	s, err := m.RefreshAudio(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.VideoTracks(), 1, "original video only; fresh video is dropped")
	assert.Len(t, s.LiveAudioTracks(), 1)
}

func TestReleaseStopsAllTracks(t *testing.T) {
	m := NewManager(NewSyntheticProvider(), 320, 240, zap.NewNop())

	s, err := m.AcquireCamera(context.Background())
	require.NoError(t, err)
	tracks := s.Tracks()

	m.Release()
	m.Release() // idempotent
	for _, tr := range tracks {
		assert.False(t, tr.Live())
	}
	assert.Nil(t, m.Stream())
}

func TestManagerConcurrentAcquireAndRecover(t *testing.T) {
	m := NewManager(NewSyntheticProvider(), 64, 48, zap.NewNop())
	defer m.Release()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			_, err := m.AcquireCamera(context.Background())
			assert.NoError(t, err)
			m.Release()
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			s, err := m.EnsureAudio(context.Background())
			assert.NoError(t, err)
			assert.NotNil(t, s)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	close(done)
	wg.Wait()
}

func TestCaptureJPEGDataURL(t *testing.T) {
	m := NewManager(NewSyntheticProvider(), 64, 48, zap.NewNop())
	defer m.Release()

	s, err := m.AcquireCamera(context.Background())
	require.NoError(t, err)

	frame, err := s.CaptureJPEG(80)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(frame, "data:image/jpeg;base64,"), "frame is a JPEG data URL")
	assert.Greater(t, len(frame), len("data:image/jpeg;base64,"))
}

func TestCaptureJPEGNoVideo(t *testing.T) {
	s := NewStream()
	_, err := s.CaptureJPEG(80)
	assert.Error(t, err)
}
