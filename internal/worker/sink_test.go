package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aura-hire/interview-agent/internal/recorder"
)

func TestSinkSpoolsBlobToDisk(t *testing.T) {
	dir := t.TempDir()
	sink := NewDiskQueueSink(dir, nil, zap.NewNop())

	blob := recorder.Blob{
		ID:       uuid.New(),
		MimeType: "audio/webm;codecs=opus",
		Data:     []byte("opus bytes"),
	}
	require.NoError(t, sink.Save(context.Background(), "sess-1", blob))

	path := filepath.Join(dir, blob.ID.String()+".webm")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, blob.Data, data)
}

func TestSinkCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "recordings")
	sink := NewDiskQueueSink(dir, nil, zap.NewNop())

	blob := recorder.Blob{ID: uuid.New(), MimeType: "audio/wav", Data: []byte{1, 2, 3}}
	require.NoError(t, sink.Save(context.Background(), "sess-1", blob))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
