package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestPool(workers, queueSize int) *Pool {
	pool := NewPool(PoolConfig{
		WorkerCount: workers,
		QueueSize:   queueSize,
		Logger:      zap.NewNop(),
	})
	pool.Start()
	return pool
}

func TestDoReturnsResult(t *testing.T) {
	pool := newTestPool(2, 8)
	defer pool.Stop()

	got, err := pool.Do(context.Background(), "answer", func(ctx context.Context) (any, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got.(int) != 42 {
		t.Errorf("Do = %v, want 42", got)
	}
}

func TestDoPropagatesError(t *testing.T) {
	pool := newTestPool(1, 8)
	defer pool.Stop()

	wantErr := errors.New("boom")
	_, err := pool.Do(context.Background(), "failing", func(ctx context.Context) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Do error = %v, want %v", err, wantErr)
	}
}

func TestDoRejectsWhenQueueFull(t *testing.T) {
	pool := newTestPool(1, 1)
	defer pool.Stop()

	block := make(chan struct{})
	release := sync.OnceFunc(func() { close(block) })
	defer release()

	// Occupy the single worker, then fill the single queue slot.
	go pool.Do(context.Background(), "blocker", func(ctx context.Context) (any, error) {
		<-block
		return nil, nil
	})
	time.Sleep(50 * time.Millisecond)
	go pool.Do(context.Background(), "queued", func(ctx context.Context) (any, error) {
		return nil, nil
	})
	time.Sleep(50 * time.Millisecond)

	_, err := pool.Do(context.Background(), "rejected", func(ctx context.Context) (any, error) {
		return nil, nil
	})
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("Do error = %v, want ErrQueueFull", err)
	}
}

func TestJobSurvivesCallerCancellation(t *testing.T) {
	pool := newTestPool(1, 8)
	defer pool.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The job context is detached: an already-canceled caller context still
	// runs the job to completion.
	got, err := pool.Do(ctx, "detached", func(jobCtx context.Context) (any, error) {
		return jobCtx.Err(), nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != nil && got.(error) != nil {
		t.Errorf("job context unexpectedly canceled: %v", got)
	}
}

func TestStopAfterJobsCompleteRefusesSubmissions(t *testing.T) {
	pool := newTestPool(2, 8)

	results := make(chan int, 4)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			if _, err := pool.Do(context.Background(), "drain", func(ctx context.Context) (any, error) {
				time.Sleep(10 * time.Millisecond)
				results <- i
				return nil, nil
			}); err != nil {
				t.Errorf("Do: %v", err)
			}
		}()
	}

	wg.Wait()
	pool.Stop()

	if len(results) != 4 {
		t.Errorf("expected 4 completed jobs, got %d", len(results))
	}

	// Submissions after Stop are refused.
	if _, err := pool.Do(context.Background(), "late", func(ctx context.Context) (any, error) {
		return nil, nil
	}); !errors.Is(err, ErrStopped) {
		t.Errorf("Do after Stop = %v, want ErrStopped", err)
	}
}
