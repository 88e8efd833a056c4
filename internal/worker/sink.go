package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/aura-hire/interview-agent/internal/recorder"
	"github.com/aura-hire/interview-agent/pkg/queue"
	"github.com/aura-hire/interview-agent/pkg/storage"
)

// DiskQueueSink spools finished recordings to local disk and enqueues an
// upload job. The worker picks the job up and moves the file to S3.
type DiskQueueSink struct {
	dir    string
	queue  *queue.Queue
	logger *zap.Logger
}

// NewDiskQueueSink creates a sink writing under dir. A nil queue disables
// enqueueing; the blob then just stays on disk.
func NewDiskQueueSink(dir string, q *queue.Queue, logger *zap.Logger) *DiskQueueSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiskQueueSink{dir: dir, queue: q, logger: logger}
}

// Save writes the blob to disk and enqueues its upload.
func (s *DiskQueueSink) Save(ctx context.Context, sessionID string, blob recorder.Blob) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create recordings dir: %w", err)
	}

	ext := storage.ExtensionForMimeType(blob.MimeType)
	path := filepath.Join(s.dir, fmt.Sprintf("%s.%s", blob.ID, ext))
	if err := os.WriteFile(path, blob.Data, 0o644); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	s.logger.Info("recording spooled",
		zap.String("recording_id", blob.ID.String()),
		zap.String("path", path),
		zap.Int("bytes", len(blob.Data)))

	if s.queue == nil {
		return nil
	}
	return s.queue.EnqueueRecordingUpload(ctx, queue.RecordingUploadPayload{
		RecordingID: blob.ID,
		SessionID:   sessionID,
		Path:        path,
		MimeType:    blob.MimeType,
	})
}
