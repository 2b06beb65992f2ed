// Package concurrency serializes concurrent ABI calls against a single GPU
// index onto one owning goroutine, the same per-key isolation shape as the
// teacher's WorkerPool/BrainWorker (one dedicated worker per key, an
// operation queue, idle eviction) — adapted here because an OpenCL context
// and its command queues are not safe to drive from multiple goroutines at
// once, so every call the cgo ABI shim makes for a given gpu_index is routed
// through that gpu_index's single worker instead of calling pkg/driver
// directly from whatever OS thread cgo handed it.
package concurrency

import (
	"context"
	"sync"
	"time"
)

// Task is one queued unit of work: run it, return its result and error.
type Task struct {
	Run    func() (any, error)
	result chan any
	err    chan error
}

// GPUWorker owns gpu_index's call queue. Every Driver call for this GPU runs
// on worker.run's goroutine, never concurrently with another call for the
// same GPU.
type GPUWorker struct {
	gpuIndex int
	tasks    chan *Task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.RWMutex
	opsProcessed uint64
	lastOp       time.Time
}

// NewGPUWorker starts gpu_index's worker goroutine.
func NewGPUWorker(gpuIndex int) *GPUWorker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &GPUWorker{
		gpuIndex: gpuIndex,
		tasks:    make(chan *Task, 256),
		ctx:      ctx,
		cancel:   cancel,
		lastOp:   time.Now(),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *GPUWorker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case t := <-w.tasks:
			w.exec(t)
		}
	}
}

func (w *GPUWorker) exec(t *Task) {
	w.mu.Lock()
	w.opsProcessed++
	w.lastOp = time.Now()
	w.mu.Unlock()

	result, err := t.Run()
	t.result <- result
	t.err <- err
}

func (w *GPUWorker) drain() {
	for {
		select {
		case t := <-w.tasks:
			w.exec(t)
		default:
			return
		}
	}
}

// Submit queues fn and blocks for its result.
func (w *GPUWorker) Submit(fn func() (any, error)) (any, error) {
	t := &Task{Run: fn, result: make(chan any, 1), err: make(chan error, 1)}
	select {
	case w.tasks <- t:
	case <-w.ctx.Done():
		return nil, context.Canceled
	}
	select {
	case res := <-t.result:
		return res, <-t.err
	case <-w.ctx.Done():
		return nil, context.Canceled
	}
}

// SubmitAsync queues fn without waiting, dropping it if the queue is full.
func (w *GPUWorker) SubmitAsync(fn func() (any, error)) {
	t := &Task{Run: fn, result: make(chan any, 1), err: make(chan error, 1)}
	select {
	case w.tasks <- t:
	default:
	}
}

// Stop drains queued tasks then stops the worker goroutine.
func (w *GPUWorker) Stop() {
	w.cancel()
	w.wg.Wait()
}

// Stats reports queue occupancy and throughput for introspection.
func (w *GPUWorker) Stats() map[string]any {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return map[string]any{
		"gpu_index":      w.gpuIndex,
		"ops_processed":  w.opsProcessed,
		"last_op":        w.lastOp,
		"queue_length":   len(w.tasks),
		"queue_capacity": cap(w.tasks),
	}
}

// GPUWorkerPool lazily creates and tracks one GPUWorker per gpu_index,
// evicting idle ones after maxIdleTime (mirrors the teacher's
// WorkerPool.evictionLoop, keyed by gpu_index instead of an index UUID).
type GPUWorkerPool struct {
	mu       sync.RWMutex
	createMu sync.Mutex
	workers  map[int]*GPUWorker

	maxIdleTime time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewGPUWorkerPool builds an empty pool and starts its eviction loop.
func NewGPUWorkerPool() *GPUWorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &GPUWorkerPool{
		workers:     make(map[int]*GPUWorker),
		maxIdleTime: 30 * time.Minute,
		ctx:         ctx,
		cancel:      cancel,
	}
	go p.evictionLoop()
	return p
}

// GetOrCreate returns gpu_index's worker, creating it on first use.
func (p *GPUWorkerPool) GetOrCreate(gpuIndex int) *GPUWorker {
	p.mu.RLock()
	w, ok := p.workers[gpuIndex]
	p.mu.RUnlock()
	if ok {
		return w
	}

	p.createMu.Lock()
	defer p.createMu.Unlock()

	p.mu.RLock()
	w, ok = p.workers[gpuIndex]
	p.mu.RUnlock()
	if ok {
		return w
	}

	w = NewGPUWorker(gpuIndex)
	p.mu.Lock()
	p.workers[gpuIndex] = w
	p.mu.Unlock()
	return w
}

// Evict stops and removes gpu_index's worker, if any.
func (p *GPUWorkerPool) Evict(gpuIndex int) {
	p.mu.Lock()
	w, ok := p.workers[gpuIndex]
	if ok {
		delete(p.workers, gpuIndex)
	}
	p.mu.Unlock()
	if ok {
		w.Stop()
	}
}

func (p *GPUWorkerPool) evictionLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.evictIdle()
		}
	}
}

func (p *GPUWorkerPool) evictIdle() {
	now := time.Now()
	var stale []int
	p.mu.RLock()
	for idx, w := range p.workers {
		w.mu.RLock()
		idle := now.Sub(w.lastOp) > p.maxIdleTime
		w.mu.RUnlock()
		if idle {
			stale = append(stale, idx)
		}
	}
	p.mu.RUnlock()
	for _, idx := range stale {
		p.Evict(idx)
	}
}

// SetMaxIdleTime updates the idle-eviction threshold at runtime.
func (p *GPUWorkerPool) SetMaxIdleTime(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maxIdleTime = d
}

// ActiveCount reports the number of live per-GPU workers.
func (p *GPUWorkerPool) ActiveCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.workers)
}

// Shutdown stops every worker.
func (p *GPUWorkerPool) Shutdown() {
	p.cancel()
	p.mu.Lock()
	workers := make([]*GPUWorker, 0, len(p.workers))
	for _, w := range p.workers {
		workers = append(workers, w)
	}
	p.workers = make(map[int]*GPUWorker)
	p.mu.Unlock()
	for _, w := range workers {
		w.Stop()
	}
}
