package ingest

import (
	"context"
	"errors"
	"sync"

	"docchat-backend/internal/shared/telemetry"
)

var (
	// ErrQueueFull is returned when the submission queue has no capacity left.
	ErrQueueFull = errors.New("ingestion queue full")
	// ErrClosed is returned when the pool is shutting down.
	ErrClosed = errors.New("ingestion pool closed")
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
)

// Handle tracks one submitted ingestion task.
type Handle struct {
	done chan struct{}
	err  error
}

// Done is closed when the task has finished, successfully or not.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the task's outcome. Only valid after Done is closed.
func (h *Handle) Err() error {
	return h.err
}

// Wait blocks until the task finishes or the context is canceled.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type task struct {
	documentID string
	handle     *Handle
}

// Pool runs ingestion tasks on a bounded set of workers fed from a bounded
// queue, so a burst of uploads is throttled instead of spawning a goroutine
// per document.
type Pool struct {
	pipeline *Pipeline
	tasks    chan task

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool constructs a Pool and starts its workers.
func NewPool(pipeline *Pipeline, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	p := &Pool{
		pipeline: pipeline,
		tasks:    make(chan task, queueSize),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues a document for ingestion, discarding the handle. It
// satisfies the documents.Ingestor contract.
func (p *Pool) Submit(documentID string) error {
	_, err := p.SubmitTracked(documentID)
	return err
}

// SubmitTracked enqueues a document for ingestion and returns a handle the
// caller may await or poll. It never blocks: a full queue is reported as
// ErrQueueFull.
func (p *Pool) SubmitTracked(documentID string) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}

	h := &Handle{done: make(chan struct{})}
	select {
	case p.tasks <- task{documentID: documentID, handle: h}:
		return h, nil
	default:
		return nil, ErrQueueFull
	}
}

// Close stops accepting submissions and waits for queued tasks to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		err := p.pipeline.Process(context.Background(), t.documentID)
		if err != nil {
			telemetry.Error("ingest.task", map[string]any{
				"document_id": t.documentID,
				"error":       err.Error(),
			})
		}
		t.handle.err = err
		close(t.handle.done)
	}
}
