package logging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrSinkClosed is returned when enqueueing after Shutdown
	ErrSinkClosed = errors.New("logging sink is closed")

	// ErrSinkFull is returned when the in-memory buffer has no room left
	ErrSinkFull = errors.New("logging sink buffer is full")
)

// S3SinkConfig holds the batching and destination settings of the S3 sink
type S3SinkConfig struct {
	BufferSize    int
	FlushSize     int
	FlushInterval time.Duration
	S3Bucket      string
	S3Region      string
	S3Prefix      string
	PodName       string
}

// BatchWriter persists a batch of records.
type BatchWriter interface {
	WriteBatch(ctx context.Context, records []*GenerationRecord) (string, error)
}

// S3Sink buffers records in memory and uploads them in batches, either when
// FlushSize records are pending or every FlushInterval.
type S3Sink struct {
	records       chan *GenerationRecord
	writer        BatchWriter
	flushSize     int
	flushInterval time.Duration

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewS3Sink creates the AWS-backed writer and starts the background flusher.
func NewS3Sink(ctx context.Context, cfg S3SinkConfig) (*S3Sink, error) {
	writer, err := NewS3Writer(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix, cfg.PodName)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 writer: %w", err)
	}
	return NewBatchSink(cfg, writer), nil
}

// NewBatchSink starts a sink flushing to an arbitrary writer.
func NewBatchSink(cfg S3SinkConfig, writer BatchWriter) *S3Sink {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.FlushSize <= 0 {
		cfg.FlushSize = 1000
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Minute
	}

	s := &S3Sink{
		records:       make(chan *GenerationRecord, cfg.BufferSize),
		writer:        writer,
		flushSize:     cfg.FlushSize,
		flushInterval: cfg.FlushInterval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}

	go s.run()

	return s
}

// Enqueue adds a record without blocking the request path.
func (s *S3Sink) Enqueue(rec *GenerationRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSinkClosed
	}

	select {
	case s.records <- rec:
		return nil
	default:
		return ErrSinkFull
	}
}

// Shutdown stops accepting records, flushes what is buffered and waits for
// the flusher to exit or ctx to expire.
func (s *S3Sink) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stopCh)
	})

	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("logging sink shutdown: %w", ctx.Err())
	}
}

func (s *S3Sink) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]*GenerationRecord, 0, s.flushSize)

	for {
		select {
		case rec := <-s.records:
			batch = append(batch, rec)
			if len(batch) >= s.flushSize {
				batch = s.flush(batch)
			}

		case <-ticker.C:
			batch = s.flush(batch)

		case <-s.stopCh:
			for {
				select {
				case rec := <-s.records:
					batch = append(batch, rec)
					if len(batch) >= s.flushSize {
						batch = s.flush(batch)
					}
				default:
					s.flush(batch)
					return
				}
			}
		}
	}
}

func (s *S3Sink) flush(batch []*GenerationRecord) []*GenerationRecord {
	if len(batch) == 0 {
		return batch
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.writer.WriteBatch(ctx, batch); err != nil {
		Errorf("Failed to flush %d generation records: %v", len(batch), err)
	}

	return make([]*GenerationRecord, 0, s.flushSize)
}
