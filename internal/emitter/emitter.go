package emitter

import (
	"context"
	"log"
	"sync"
	"time"

	"NetSentry/internal/model"

	"github.com/google/uuid"
)

// pendingBatches bounds the handoff queue between the capture path and the
// delivery goroutine.
const pendingBatches = 8

// Emitter buffers enriched records from the capture loop and flushes them
// to the downstream sink when the buffer reaches the batch size or on every
// flush-interval tick, whichever comes first. Delivery always runs on the
// emitter's own goroutine: the capture path only swaps the buffer and hands
// the batch off, so sink latency never reaches the capture loop. Delivery
// is at-most-once: a failed batch is dropped with a diagnostic and never
// re-enqueued.
type Emitter struct {
	sink           model.Sink
	batchSize      int
	flushInterval  time.Duration
	deliverTimeout time.Duration

	mu  sync.Mutex
	buf []model.LogRecord

	pending chan []model.LogRecord
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates an emitter for the given sink. Zero values fall back to a
// batch of 10, a 1s flush interval and a 1s delivery timeout.
func New(sink model.Sink, batchSize int, flushInterval, deliverTimeout time.Duration) *Emitter {
	if batchSize <= 0 {
		batchSize = 10
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	if deliverTimeout <= 0 {
		deliverTimeout = time.Second
	}
	return &Emitter{
		sink:           sink,
		batchSize:      batchSize,
		flushInterval:  flushInterval,
		deliverTimeout: deliverTimeout,
		buf:            make([]model.LogRecord, 0, batchSize),
		pending:        make(chan []model.LogRecord, pendingBatches),
		done:           make(chan struct{}),
	}
}

// Start launches the delivery goroutine.
func (e *Emitter) Start() {
	e.wg.Add(1)
	go e.run()
}

func (e *Emitter) run() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case batch := <-e.pending:
			e.deliver(batch)
		case <-ticker.C:
			e.Flush()
		case <-e.done:
			return
		}
	}
}

// Add appends one record to the buffer. When the batch size is reached the
// buffer is swapped out and handed to the delivery goroutine; if the
// handoff queue is full the batch is dropped so the capture path never
// waits on the sink.
func (e *Emitter) Add(rec model.LogRecord) {
	e.mu.Lock()
	e.buf = append(e.buf, rec)
	var batch []model.LogRecord
	if len(e.buf) >= e.batchSize {
		batch = e.buf
		e.buf = make([]model.LogRecord, 0, e.batchSize)
	}
	e.mu.Unlock()

	if batch == nil {
		return
	}
	select {
	case e.pending <- batch:
	default:
		log.Printf("emitter: dropped batch of %d records, delivery queue full", len(batch))
	}
}

// Pending returns the current buffer occupancy.
func (e *Emitter) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.buf)
}

// Flush swaps the buffer out under the lock, then attempts delivery outside
// it so new arrivals are neither blocked nor included in the in-flight
// batch. A no-op when the buffer is empty. Runs on the delivery goroutine
// (interval trigger) or during Stop, never on the capture path.
func (e *Emitter) Flush() {
	e.mu.Lock()
	if len(e.buf) == 0 {
		e.mu.Unlock()
		return
	}
	batch := e.buf
	e.buf = make([]model.LogRecord, 0, e.batchSize)
	e.mu.Unlock()

	e.deliver(batch)
}

// deliver attempts one bounded delivery. Batches carry a uuid so drops and
// successes can be correlated with the sink's own logs.
func (e *Emitter) deliver(batch []model.LogRecord) {
	batchID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), e.deliverTimeout)
	defer cancel()

	if err := e.sink.Deliver(ctx, batch); err != nil {
		log.Printf("emitter: dropped batch %s (%d records): %v", batchID, len(batch), err)
		return
	}
	log.Printf("emitter: delivered batch %s (%d records)", batchID, len(batch))
}

// Stop halts the delivery goroutine, delivers any batches still queued and
// attempts one final flush of buffered records.
func (e *Emitter) Stop() {
	close(e.done)
	e.wg.Wait()

	for {
		select {
		case batch := <-e.pending:
			e.deliver(batch)
		default:
			e.Flush()
			return
		}
	}
}
