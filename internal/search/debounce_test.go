package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopinhq/loopin/internal/models"
	"github.com/loopinhq/loopin/internal/store/storetest"
)

type delivery struct {
	results Results
	err     error
}

func collector() (func(Results, error), *[]delivery, *sync.Mutex) {
	var mu sync.Mutex
	var got []delivery
	deliver := func(r Results, err error) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, delivery{r, err})
	}
	return deliver, &got, &mu
}

func TestDebouncerCoalescesRapidQueries(t *testing.T) {
	f := storetest.NewFake()
	f.Threads = []models.Thread{
		{ID: "t1", Title: "alpha", CreatedAt: time.Now()},
		{ID: "t2", Title: "alphabet", CreatedAt: time.Now()},
	}
	deliver, got, mu := collector()
	d := NewDebouncer(NewAggregator(f), 20*time.Millisecond, deliver)
	ctx := context.Background()

	d.Query(ctx, "a")
	d.Query(ctx, "al")
	d.Query(ctx, "alphab")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(*got) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NoError(t, (*got)[0].err)
	require.Len(t, (*got)[0].results.Threads, 1)
	assert.Equal(t, "t2", (*got)[0].results.Threads[0].ID)

	// Only one search ran for three keystrokes.
	assert.Equal(t, 1, f.Calls["SearchThreads"])
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	f := storetest.NewFake()
	f.Threads = []models.Thread{{ID: "t1", Title: "alpha", CreatedAt: time.Now()}}
	deliver, got, mu := collector()
	d := NewDebouncer(NewAggregator(f), time.Hour, deliver)
	ctx := context.Background()

	d.Query(ctx, "alp") // would fire an hour from now
	d.Flush(ctx, "alpha")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, *got, 1)
	require.Len(t, (*got)[0].results.Threads, 1)
	assert.Equal(t, "t1", (*got)[0].results.Threads[0].ID)
}

// gateStore holds one named query's thread search open until released.
type gateStore struct {
	*storetest.Fake
	held    string
	entered chan struct{}
	release chan struct{}
}

func (s *gateStore) SearchThreads(ctx context.Context, query string) ([]models.Thread, error) {
	if query == s.held {
		s.entered <- struct{}{}
		<-s.release
	}
	return s.Fake.SearchThreads(ctx, query)
}

func TestDebouncerDiscardsStaleResponse(t *testing.T) {
	gate := &gateStore{
		Fake:    storetest.NewFake(),
		held:    "stale",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	gate.Threads = []models.Thread{
		{ID: "t1", Title: "stale result", CreatedAt: time.Now()},
		{ID: "t2", Title: "fresh result", CreatedAt: time.Now()},
	}
	deliver, got, mu := collector()
	d := NewDebouncer(NewAggregator(gate), time.Millisecond, deliver)
	ctx := context.Background()

	staleDone := make(chan struct{})
	go func() {
		d.Flush(ctx, "stale")
		close(staleDone)
	}()
	<-gate.entered

	// A newer query dispatches and resolves while the first is in flight.
	d.Flush(ctx, "fresh")

	close(gate.release)
	<-staleDone

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, *got, 1, "the stale response must be discarded, not delivered")
	require.Len(t, (*got)[0].results.Threads, 1)
	assert.Equal(t, "t2", (*got)[0].results.Threads[0].ID)
}
