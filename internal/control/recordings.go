package control

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aura-hire/interview-agent/internal/session"
	"github.com/aura-hire/interview-agent/pkg/response"
	"github.com/aura-hire/interview-agent/pkg/storage"
)

// RecordingStore is the object store behind the recordings surface.
// Satisfied by *storage.S3.
type RecordingStore interface {
	ListRecordings(ctx context.Context, sessionID string) ([]storage.RecordingObject, error)
	GeneratePresignedDownloadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
	DeleteRecording(ctx context.Context, key string) error
	RecordingsBucket() string
	PresignExpire() time.Duration
}

// RecordingInfo is one uploaded recording with a time-limited download URL.
type RecordingInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	DownloadURL  string    `json:"download_url"`
	ExpiresInSec int       `json:"expires_in_sec"`
}

// RecordingsHandler exposes a session's uploaded recordings.
type RecordingsHandler struct {
	coord *session.Coordinator
	store RecordingStore
}

// NewRecordingsHandler creates a recordings handler.
func NewRecordingsHandler(coord *session.Coordinator, store RecordingStore) *RecordingsHandler {
	return &RecordingsHandler{coord: coord, store: store}
}

// List handles GET /session/recordings.
func (h *RecordingsHandler) List(c *gin.Context) {
	sess := h.coord.Session()
	if sess == nil {
		response.Conflict(c, "no active session")
		return
	}

	objects, err := h.store.ListRecordings(c.Request.Context(), sess.ID)
	if err != nil {
		response.Internal(c, "failed to list recordings")
		return
	}

	expires := h.store.PresignExpire()
	infos := make([]RecordingInfo, 0, len(objects))
	for _, obj := range objects {
		url, err := h.store.GeneratePresignedDownloadURL(
			c.Request.Context(), h.store.RecordingsBucket(), obj.Key, expires)
		if err != nil {
			response.Internal(c, "failed to presign recording")
			return
		}
		infos = append(infos, RecordingInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			DownloadURL:  url,
			ExpiresInSec: int(expires / time.Second),
		})
	}
	response.OK(c, infos)
}

// Delete handles DELETE /session/recordings/*key. Only keys belonging to the
// current session may be removed.
func (h *RecordingsHandler) Delete(c *gin.Context) {
	sess := h.coord.Session()
	if sess == nil {
		response.Conflict(c, "no active session")
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	prefix := "interviews/" + sess.ID + "/recordings/"
	if !strings.HasPrefix(key, prefix) {
		response.BadRequest(c, "recording does not belong to this session")
		return
	}

	if err := h.store.DeleteRecording(c.Request.Context(), key); err != nil {
		response.Internal(c, "failed to delete recording")
		return
	}
	response.NoContent(c)
}
