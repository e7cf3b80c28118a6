package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"blogwatch/internal/domain"
	"blogwatch/internal/logging"
)

func TestSchedulerRunsImmediately(t *testing.T) {
	srv := blogServer(t, 1)
	store := &memStore{}
	svc := newTestService(store, srv)

	store.pubs = []domain.Publication{{
		ID:          "feed-1",
		Title:       "Test Blog",
		URL:         srv.URL,
		LastFetched: time.Now().Add(-2 * time.Hour),
	}}

	sched := NewScheduler(svc, time.Hour, logging.Nop())
	sched.Start(context.Background())
	defer sched.Stop()

	deadline := time.After(5 * time.Second)
	for {
		store.mu.Lock()
		fetched := store.pubs[0].LastFetched
		store.mu.Unlock()
		if time.Since(fetched) < time.Minute {
			return
		}
		select {
		case <-deadline:
			t.Fatal("scheduler never refreshed the due publication")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	svc := newTestService(&memStore{}, nil)
	sched := NewScheduler(svc, time.Hour, logging.Nop())

	sched.Stop() // never started
	sched.Start(context.Background())
	sched.Stop()
	sched.Stop()
}

func TestSchedulerConcurrentStopWhileTicking(t *testing.T) {
	svc := newTestService(&memStore{}, nil)
	sched := NewScheduler(svc, time.Millisecond, logging.Nop())

	sched.Start(context.Background())
	time.Sleep(20 * time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Stop()
		}()
	}
	wg.Wait()

	// A stopped scheduler can be started again.
	sched.Start(context.Background())
	sched.Stop()
}
