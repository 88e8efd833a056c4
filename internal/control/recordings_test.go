package control

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-hire/interview-agent/pkg/storage"
)

type stubStore struct {
	objects []storage.RecordingObject
	deleted []string
}

func (s *stubStore) ListRecordings(context.Context, string) ([]storage.RecordingObject, error) {
	return s.objects, nil
}

func (s *stubStore) GeneratePresignedDownloadURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://" + bucket + ".example.com/" + key + "?signed", nil
}

func (s *stubStore) DeleteRecording(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *stubStore) RecordingsBucket() string     { return "recordings" }
func (s *stubStore) PresignExpire() time.Duration { return 15 * time.Minute }

func newRecordingsRouter(t *testing.T, store RecordingStore) *gin.Engine {
	t.Helper()
	router, coord := newTestRouter(t, &stubBackend{sessionID: "sess-rec"})
	rh := NewRecordingsHandler(coord, store)
	router.GET("/session/recordings", rh.List)
	router.DELETE("/session/recordings/*key", rh.Delete)
	return router
}

func TestListRecordingsWithoutSession(t *testing.T) {
	router := newRecordingsRouter(t, &stubStore{})

	w, envelope := do(t, router, http.MethodGet, "/session/recordings", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, envelope.Success)
}

func TestListRecordingsPresignsEachObject(t *testing.T) {
	store := &stubStore{objects: []storage.RecordingObject{
		{Key: "interviews/sess-rec/recordings/a.bin", Size: 10},
		{Key: "interviews/sess-rec/recordings/b.bin", Size: 20},
	}}
	router := newRecordingsRouter(t, store)
	_, _ = do(t, router, http.MethodPost, "/session/start", "")

	w, envelope := do(t, router, http.MethodGet, "/session/recordings", "")
	require.Equal(t, http.StatusOK, w.Code)
	infos, ok := envelope.Data.([]any)
	require.True(t, ok)
	require.Len(t, infos, 2)
	first := infos[0].(map[string]any)
	assert.Equal(t, "interviews/sess-rec/recordings/a.bin", first["key"])
	assert.Contains(t, first["download_url"], "?signed")
	assert.Equal(t, float64(15*60), first["expires_in_sec"])
}

func TestDeleteRecordingScopedToSession(t *testing.T) {
	store := &stubStore{}
	router := newRecordingsRouter(t, store)
	_, _ = do(t, router, http.MethodPost, "/session/start", "")

	w, _ := do(t, router, http.MethodDelete,
		"/session/recordings/interviews/other/recordings/a.bin", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.deleted)

	w, _ = do(t, router, http.MethodDelete,
		"/session/recordings/interviews/sess-rec/recordings/a.bin", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"interviews/sess-rec/recordings/a.bin"}, store.deleted)
}
