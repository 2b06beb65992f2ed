package concurrency

import (
	"testing"
	"time"
)

func TestGPUWorkerSubmitRunsOnWorkerGoroutine(t *testing.T) {
	w := NewGPUWorker(0)
	defer w.Stop()

	result, err := w.Submit(func() (any, error) { return 42, nil })
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.(int) != 42 {
		t.Errorf("got %v, want 42", result)
	}
}

func TestGPUWorkerSubmitPropagatesError(t *testing.T) {
	w := NewGPUWorker(0)
	defer w.Stop()

	wantErr := errTest
	_, err := w.Submit(func() (any, error) { return nil, wantErr })
	if err != wantErr {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestGPUWorkerSerializesConcurrentSubmits(t *testing.T) {
	w := NewGPUWorker(0)
	defer w.Stop()

	var counter int
	done := make(chan struct{}, 50)
	for i := 0; i < 50; i++ {
		go func() {
			w.Submit(func() (any, error) {
				counter++ // only safe because the worker serializes access
				return nil, nil
			})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 50; i++ {
		<-done
	}
	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
}

func TestGPUWorkerPoolGetOrCreateReturnsSameWorker(t *testing.T) {
	p := NewGPUWorkerPool()
	defer p.Shutdown()

	w1 := p.GetOrCreate(2)
	w2 := p.GetOrCreate(2)
	if w1 != w2 {
		t.Fatal("expected the same worker for the same gpu_index")
	}
	if p.ActiveCount() != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", p.ActiveCount())
	}
}

func TestGPUWorkerPoolEvict(t *testing.T) {
	p := NewGPUWorkerPool()
	defer p.Shutdown()

	p.GetOrCreate(1)
	p.Evict(1)
	if p.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0 after evict", p.ActiveCount())
	}
}

func TestGPUWorkerPoolSetMaxIdleTime(t *testing.T) {
	p := NewGPUWorkerPool()
	defer p.Shutdown()
	p.SetMaxIdleTime(50 * time.Millisecond)
	p.GetOrCreate(3)
	time.Sleep(200 * time.Millisecond)
	p.evictIdle()
	if p.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0 after idle eviction", p.ActiveCount())
	}
}

var errTest = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
