package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Store is the local key-value store the engine persists to.
// repository.RecordRepo implements it.
type Store interface {
	Get(ctx context.Context, collection, key string, out any) error
	GetAll(ctx context.Context, collection string) ([]json.RawMessage, error)
	Set(ctx context.Context, collection, key string, value any, updatedAt int64) error
	ClearAll(ctx context.Context) error
}

const writeTimeout = 10 * time.Second

type opKind int

const (
	opSet opKind = iota
	opClear
	opBarrier
)

type op struct {
	kind       opKind
	collection string
	key        string
	value      any
	updatedAt  int64
	done       chan struct{}
}

// writer applies queued writes in issue order on one goroutine. A failed
// write is retried with exponential backoff, then logged and dropped.
type writer struct {
	store   Store
	retries int
	backoff time.Duration

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []op
	closed bool
	failed int
	done   chan struct{}
}

func newWriter(store Store, retries int, backoff time.Duration) *writer {
	w := &writer{store: store, retries: retries, backoff: backoff, done: make(chan struct{})}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

func (w *writer) enqueue(ops ...op) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		log.Printf("warn: persist after close dropped %d writes", len(ops))
		return
	}
	w.queue = append(w.queue, ops...)
	w.cond.Signal()
}

func (w *writer) set(collection, key string, value any, updatedAt int64) {
	w.enqueue(op{kind: opSet, collection: collection, key: key, value: value, updatedAt: updatedAt})
}

func (w *writer) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 {
			w.mu.Unlock()
			return
		}
		o := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		if o.kind == opBarrier {
			close(o.done)
			continue
		}
		if err := w.apply(o); err != nil {
			w.mu.Lock()
			w.failed++
			w.mu.Unlock()
			log.Printf("warn: persist %s/%s: %v", o.collection, o.key, err)
		}
	}
}

func (w *writer) apply(o op) error {
	var err error
	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		switch o.kind {
		case opClear:
			err = w.store.ClearAll(ctx)
		default:
			err = w.store.Set(ctx, o.collection, o.key, o.value, o.updatedAt)
		}
		cancel()
		if err == nil || attempt >= w.retries {
			return err
		}
		time.Sleep(w.backoff << attempt)
	}
}

// flush waits until every write queued before the call has been applied.
func (w *writer) flush(ctx context.Context) error {
	done := make(chan struct{})
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.queue = append(w.queue, op{kind: opBarrier, done: done})
	w.cond.Signal()
	w.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains the queue and stops the worker.
func (w *writer) close() {
	w.mu.Lock()
	w.closed = true
	w.cond.Signal()
	w.mu.Unlock()
	<-w.done
}

func (w *writer) failures() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failed
}
