package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// flakyStore fails the first failures writes.
type flakyStore struct {
	mu       sync.Mutex
	failures int
	order    []string
	data     map[string]any
}

func (f *flakyStore) Get(ctx context.Context, collection, key string, out any) error {
	return errors.New("not implemented")
}

func (f *flakyStore) GetAll(ctx context.Context, collection string) ([]json.RawMessage, error) {
	return nil, nil
}

func (f *flakyStore) Set(ctx context.Context, collection, key string, value any, updatedAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	if f.data == nil {
		f.data = map[string]any{}
	}
	f.data[collection+"/"+key] = value
	f.order = append(f.order, key)
	return nil
}

func (f *flakyStore) ClearAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = nil
	f.order = append(f.order, "*")
	return nil
}

func TestWriterRetriesInOrder(t *testing.T) {
	t.Parallel()

	store := &flakyStore{failures: 2}
	w := newWriter(store, 3, time.Millisecond)
	t.Cleanup(w.close)

	w.set("c", "a", 1, 1)
	w.set("c", "b", 2, 2)
	w.enqueue(op{kind: opClear})
	w.set("c", "d", 3, 3)
	require.NoError(t, w.flush(context.Background()))

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Equal(t, []string{"a", "b", "*", "d"}, store.order)
	require.Len(t, store.data, 1)
	require.Zero(t, w.failures())
}

func TestWriterGivesUp(t *testing.T) {
	t.Parallel()

	store := &flakyStore{failures: 3}
	w := newWriter(store, 2, time.Millisecond)

	w.set("c", "a", 1, 1)
	w.set("c", "b", 2, 2)
	require.NoError(t, w.flush(context.Background()))
	require.Equal(t, 1, w.failures())
	w.close()

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Equal(t, []string{"b"}, store.order)
}

func TestWriterFlushHonorsContext(t *testing.T) {
	t.Parallel()

	store := &flakyStore{failures: 1000}
	w := newWriter(store, 2, 50*time.Millisecond)
	t.Cleanup(w.close)

	w.set("c", "slow", 1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, w.flush(ctx), context.DeadlineExceeded)
}
