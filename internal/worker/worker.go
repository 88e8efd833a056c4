package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/aura-hire/interview-agent/pkg/queue"
	"github.com/aura-hire/interview-agent/pkg/storage"
)

// UploadProcessor processes recording upload jobs: read the spooled blob
// from disk, upload to S3, remove the local file.
type UploadProcessor struct {
	s3     *storage.S3
	queue  *queue.Queue
	logger *zap.Logger
}

// NewUploadProcessor creates a recording upload processor.
func NewUploadProcessor(s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *UploadProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadProcessor{s3: s3, queue: q, logger: logger}
}

// Process executes one recording upload job.
func (p *UploadProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeRecordingUpload {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.RecordingUploadPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	f, err := os.Open(payload.Path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	ext := storage.ExtensionForMimeType(payload.MimeType)
	key := storage.RecordingKey(payload.SessionID, payload.RecordingID.String(), ext)

	s3URL, err := p.s3.Upload(ctx, p.s3.RecordingsBucket(), key, payload.MimeType, f)
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	f.Close()

	if err := os.Remove(payload.Path); err != nil {
		p.logger.Warn("removing spooled recording failed",
			zap.String("path", payload.Path), zap.Error(err))
	}

	p.logger.Info("recording upload completed",
		zap.String("recording_id", payload.RecordingID.String()),
		zap.String("s3_key", key),
		zap.String("s3_url", s3URL))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *UploadProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("upload worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
