package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopSink(t *testing.T) {
	sink := NewNoopSink()

	rec := &GenerationRecord{
		Timestamp:  time.Now(),
		RequestID:  "test-123",
		ClientIP:   "1.2.3.4",
		StatusCode: 200,
	}

	assert.NoError(t, sink.Enqueue(rec))
	assert.NoError(t, sink.Shutdown(context.Background()))
}

type recordingWriter struct {
	mu      sync.Mutex
	batches [][]*GenerationRecord
}

func (w *recordingWriter) WriteBatch(ctx context.Context, records []*GenerationRecord) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, records)
	return "key", nil
}

func (w *recordingWriter) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func (w *recordingWriter) batchCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.batches)
}

func TestBatchSink_FlushOnSize(t *testing.T) {
	writer := &recordingWriter{}
	sink := NewBatchSink(S3SinkConfig{
		BufferSize:    100,
		FlushSize:     5,
		FlushInterval: time.Hour,
	}, writer)

	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Enqueue(&GenerationRecord{RequestID: "r"}))
	}

	assert.Eventually(t, func() bool { return writer.total() == 5 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, sink.Shutdown(context.Background()))
	assert.Equal(t, 1, writer.batchCount())
}

func TestBatchSink_FlushOnInterval(t *testing.T) {
	writer := &recordingWriter{}
	sink := NewBatchSink(S3SinkConfig{
		BufferSize:    100,
		FlushSize:     1000,
		FlushInterval: 20 * time.Millisecond,
	}, writer)
	defer sink.Shutdown(context.Background())

	require.NoError(t, sink.Enqueue(&GenerationRecord{RequestID: "a"}))
	require.NoError(t, sink.Enqueue(&GenerationRecord{RequestID: "b"}))

	assert.Eventually(t, func() bool { return writer.total() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestBatchSink_ShutdownDrains(t *testing.T) {
	writer := &recordingWriter{}
	sink := NewBatchSink(S3SinkConfig{
		BufferSize:    100,
		FlushSize:     1000,
		FlushInterval: time.Hour,
	}, writer)

	for i := 0; i < 7; i++ {
		require.NoError(t, sink.Enqueue(&GenerationRecord{RequestID: "r"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sink.Shutdown(ctx))

	assert.Equal(t, 7, writer.total())
	assert.ErrorIs(t, sink.Enqueue(&GenerationRecord{}), ErrSinkClosed)

	// A second shutdown is a no-op.
	assert.NoError(t, sink.Shutdown(ctx))
}

type blockingWriter struct {
	release chan struct{}
}

func (w *blockingWriter) WriteBatch(ctx context.Context, records []*GenerationRecord) (string, error) {
	<-w.release
	return "", nil
}

func TestBatchSink_FullBuffer(t *testing.T) {
	writer := &blockingWriter{release: make(chan struct{})}
	sink := NewBatchSink(S3SinkConfig{
		BufferSize:    1,
		FlushSize:     1,
		FlushInterval: time.Hour,
	}, writer)

	// The first record is picked up by the flusher, which then blocks.
	require.NoError(t, sink.Enqueue(&GenerationRecord{RequestID: "1"}))

	var full bool
	for i := 0; i < 10 && !full; i++ {
		if errors.Is(sink.Enqueue(&GenerationRecord{RequestID: "n"}), ErrSinkFull) {
			full = true
		}
	}
	assert.True(t, full)

	close(writer.release)
	require.NoError(t, sink.Shutdown(context.Background()))
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Writer_WriteBatch(t *testing.T) {
	putter := &fakePutter{}
	writer := NewS3WriterWithClient(putter, "audit-bucket", "logs/", "pod-1")
	writer.now = func() time.Time { return time.Date(2025, 11, 30, 14, 30, 22, 123, time.UTC) }

	key, err := writer.WriteBatch(context.Background(), []*GenerationRecord{
		{RequestID: "a", ClientIP: "1.2.3.4", StatusCode: 200},
		{RequestID: "b", ClientIP: "5.6.7.8", StatusCode: 429},
	})
	require.NoError(t, err)

	assert.Equal(t, "logs/2025/11/30/pod-1-20251130-143022-123.jsonl", key)
	assert.Equal(t, "audit-bucket", *putter.input.Bucket)
	assert.Equal(t, "application/x-ndjson", *putter.input.ContentType)

	lines := strings.Split(strings.TrimSpace(string(putter.body)), "\n")
	require.Len(t, lines, 2)

	var rec GenerationRecord
	require.NoError(t, json.NewDecoder(bytes.NewReader([]byte(lines[1]))).Decode(&rec))
	assert.Equal(t, "b", rec.RequestID)
	assert.Equal(t, 429, rec.StatusCode)
}

func TestS3Writer_EmptyBatch(t *testing.T) {
	putter := &fakePutter{}
	writer := NewS3WriterWithClient(putter, "b", "p/", "pod")

	key, err := writer.WriteBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.Nil(t, putter.input)
}

func TestS3Writer_UploadError(t *testing.T) {
	putter := &fakePutter{err: errors.New("access denied")}
	writer := NewS3WriterWithClient(putter, "b", "p/", "pod")

	_, err := writer.WriteBatch(context.Background(), []*GenerationRecord{{RequestID: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel("DEBUG"))
	assert.Equal(t, Info, ParseLevel("info"))
	assert.Equal(t, Warning, ParseLevel("warn"))
	assert.Equal(t, Error, ParseLevel("error"))
	assert.Equal(t, Critical, ParseLevel("fatal"))
	assert.Equal(t, Warning, ParseLevel("nonsense"))
}
