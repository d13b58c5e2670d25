package executors

import (
	"context"
	"sync"
	"testing"
	"time"
)

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	runs    int
	mu      sync.Mutex
}

func (r *blockingRunner) RunSweep(ctx context.Context) {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()

	r.started <- struct{}{}
	<-r.release
}

type noopRefresher struct{}

func (noopRefresher) RefreshAll(ctx context.Context) {}

func newTestSweeper(runner SweepRunner) *Sweeper {
	return &Sweeper{
		processor:       runner,
		market:          noopRefresher{},
		sweepInterval:   time.Minute,
		refreshInterval: time.Hour,
		gate:            make(chan struct{}, 1),
	}
}

func TestTrySweepDropsOverlappingRequests(t *testing.T) {
	runner := &blockingRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	sweeper := newTestSweeper(runner)

	done := make(chan bool)
	go func() {
		done <- sweeper.TrySweep(context.Background())
	}()

	<-runner.started

	// The first sweep holds the gate, so a second request is dropped.
	if sweeper.TrySweep(context.Background()) {
		t.Fatalf("overlapping sweep should be dropped")
	}

	close(runner.release)
	if !<-done {
		t.Fatalf("first sweep should report success")
	}

	runner.mu.Lock()
	runs := runner.runs
	runner.mu.Unlock()
	if runs != 1 {
		t.Fatalf("runs = %d, want 1", runs)
	}
}

func TestTrySweepRunsAgainAfterRelease(t *testing.T) {
	runner := &blockingRunner{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	close(runner.release)
	sweeper := newTestSweeper(runner)

	if !sweeper.TrySweep(context.Background()) {
		t.Fatalf("first sweep should run")
	}
	if !sweeper.TrySweep(context.Background()) {
		t.Fatalf("sweep after release should run")
	}
}

func TestStartLoopStopsOnContextCancel(t *testing.T) {
	runner := &blockingRunner{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
	close(runner.release)
	sweeper := newTestSweeper(runner)
	sweeper.sweepInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- sweeper.StartLoop(ctx)
	}()

	<-runner.started
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("loop returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop after cancel")
	}
}
