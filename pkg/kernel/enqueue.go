// Package kernel implements the profiled-enqueue helper, the noise-factor
// wiring, and the command dispatcher (§4.2, §4.3).
package kernel

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mycelia-sim/ccdriver/pkg/clffi"
	"github.com/mycelia-sim/ccdriver/pkg/core"
	"github.com/mycelia-sim/ccdriver/pkg/noise"
)

var log = logrus.WithField("component", "kernel")

// Metrics is the "last metrics" slot published after every profiled launch.
type Metrics struct {
	Name       string
	DurationMS float64
	Error      float64
	Variance   float64
}

// ThrottleScope selects which gpu_index a throttle applies to, or global.
type ThrottleScope struct {
	Global bool
	GPU    int
}

// Enqueuer owns the noise controller, last-metrics slot, and throttle/abort
// state shared by every profiled kernel launch of one gpu_index's
// simulation; the driver builds one Enqueuer per gpu_index.
type Enqueuer struct {
	mu sync.Mutex

	Noise *noise.Controller

	lastMetrics Metrics
	forceFinish bool

	throttleMS int
	throttleSc ThrottleScope

	abort bool
}

// NewEnqueuer builds an Enqueuer seeded from KernelConfig.
func NewEnqueuer(cfg core.KernelConfig) *Enqueuer {
	init := cfg.NoiseFactorInit
	if init == 0 {
		init = 1.0
	}
	return &Enqueuer{
		Noise:       noise.New(init),
		forceFinish: cfg.ForceFinish,
		throttleMS:  cfg.ThrottleMS,
		throttleSc:  ThrottleScope{Global: cfg.ThrottleScopeGPU < 0, GPU: cfg.ThrottleScopeGPU},
	}
}

// SetThrottle implements cc_set_kernel_throttle: sleep ms after every
// profiled enqueue matching scope.
func (e *Enqueuer) SetThrottle(ms int, scope ThrottleScope) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.throttleMS = ms
	e.throttleSc = scope
}

// RequestAbort sets this Enqueuer's abort flag, checked between Hebbian
// chunks and autonomous cycles (§5). Other gpu_indexes' Enqueuers are not
// affected.
func (e *Enqueuer) RequestAbort() {
	e.mu.Lock()
	e.abort = true
	e.mu.Unlock()
}

// ClearAbort resets the abort flag. The orchestrator calls it when a cycle
// batch ends, so a requested abort stops the batch in flight, or the next
// one if none is running.
func (e *Enqueuer) ClearAbort() {
	e.mu.Lock()
	e.abort = false
	e.mu.Unlock()
}

// Aborted reports whether an abort has been requested.
func (e *Enqueuer) Aborted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.abort
}

// LastMetrics returns the most recently published kernel metrics.
func (e *Enqueuer) LastMetrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastMetrics
}

// Launch enqueues kernel over globalSize (optional localSize) on queue,
// profiles it per §4.2, feeds the noise controller, and applies throttling.
// gpuIndex identifies the slot for throttle-scope matching only.
func (e *Enqueuer) Launch(queue, kern uintptr, globalSize, localSize []uintptr, label string, gpuIndex int) error {
	ev, err := clffi.EnqueueNDRangeKernel(queue, kern, globalSize, localSize)
	if err != nil {
		log.WithField("kernel", label).WithField("err", err).Error("kernel launch failed")
		e.publish(Metrics{Name: label})
		return core.NewError(core.KindLaunch, "clEnqueueNDRangeKernel failed: "+label, err, 0)
	}
	defer clffi.ReleaseEvent(ev)

	if e.forceFinish {
		if werr := clffi.WaitForEvents([]uintptr{ev}); werr != nil {
			e.publish(Metrics{Name: label})
			return core.NewError(core.KindLaunch, "event wait failed: "+label, werr, 0)
		}
		start, end, perr := clffi.EventProfilingNanos(ev)
		if perr == nil && end >= start {
			durationMS := float64(end-start) * 1e-6
			factor := e.Noise.Factor()
			variance := durationMS * 1e-3 * factor
			if variance < 1e-6 {
				variance = 1e-6
			}
			newFactor, derivedErr := e.Noise.Update(variance)
			log.WithFields(logrus.Fields{"kernel": label, "gpu_index": gpuIndex, "ms": durationMS, "variance": variance, "error": derivedErr, "noise_factor": newFactor}).Debug("kernel launched")
			e.publish(Metrics{Name: label, DurationMS: durationMS, Error: derivedErr, Variance: variance})
		}
	}

	e.applyThrottle(gpuIndex)
	return nil
}

func (e *Enqueuer) publish(m Metrics) {
	e.mu.Lock()
	e.lastMetrics = m
	e.mu.Unlock()
}

func (e *Enqueuer) applyThrottle(gpuIndex int) {
	e.mu.Lock()
	ms, scope := e.throttleMS, e.throttleSc
	e.mu.Unlock()
	if ms <= 0 {
		return
	}
	if !scope.Global && scope.GPU != gpuIndex {
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// ReductionParams computes LWS/local-memory sizing for reduction-style
// kernels (§4.3): LWS=256 clamped to the device's max work-group size, local
// memory sized to LWS*sizeof(accumulator) where accumulator is float64 iff
// the device has FP64.
type ReductionParams struct {
	LWS           uintptr
	LocalMemBytes uintptr
}

// ComputeReductionParams returns the reduction dispatch parameters for a
// device, or an error if local memory would exceed the device's budget.
func ComputeReductionParams(maxWorkGroupSize, localMemSize uintptr, fp64 bool) (ReductionParams, error) {
	lws := uintptr(256)
	if maxWorkGroupSize > 0 && lws > maxWorkGroupSize {
		lws = maxWorkGroupSize
	}
	accSize := uintptr(4)
	if fp64 {
		accSize = 8
	}
	localBytes := lws * accSize
	if localMemSize > 0 && localBytes > localMemSize {
		return ReductionParams{}, core.NewError(core.KindValidation, "reduction local memory exceeds device budget", core.ErrInvalidArgument, 0)
	}
	return ReductionParams{LWS: lws, LocalMemBytes: localBytes}, nil
}
