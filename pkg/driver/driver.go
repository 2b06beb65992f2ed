// Package driver composes every owned component into a single explicitly-
// owned value (§9's redesign note: "Mutable singletons ... carry them in an
// explicitly-owned Driver value; the C ABI is a thin facade over a single
// instance"). Both the cgo C-ABI shim and the MCP control-plane surface
// call through this package; neither embeds simulation logic itself.
package driver

import (
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mycelia-sim/ccdriver/pkg/agent"
	"github.com/mycelia-sim/ccdriver/pkg/bridge"
	"github.com/mycelia-sim/ccdriver/pkg/concurrency"
	"github.com/mycelia-sim/ccdriver/pkg/core"
	"github.com/mycelia-sim/ccdriver/pkg/device"
	"github.com/mycelia-sim/ccdriver/pkg/kernel"
	"github.com/mycelia-sim/ccdriver/pkg/mycel"
	"github.com/mycelia-sim/ccdriver/pkg/noise"
	"github.com/mycelia-sim/ccdriver/pkg/orchestrator"
	"github.com/mycelia-sim/ccdriver/pkg/persist"
	"github.com/mycelia-sim/ccdriver/pkg/quantum"
	"github.com/mycelia-sim/ccdriver/pkg/render"
	"github.com/mycelia-sim/ccdriver/pkg/subqg"
)

var log = logrus.WithField("component", "driver")

// Driver is the single instance the process owns. Per-GPU simulation state
// is keyed by gpu_index so multiple device slots can each carry their own
// SubQG/Mycel/Agent/Orchestrator stack, matching the registry's per-slot
// ownership model (§9 "Device discovery").
type Driver struct {
	mu        sync.Mutex
	cfg       core.Config
	Registry  *device.Registry
	Workers   *concurrency.GPUWorkerPool
	sessionID string

	sims map[int]*simulation

	quantumEnabled bool
	lastEchoProfile quantum.Profile
	lastErr         string
}

type simulation struct {
	SubQG        *subqg.Engine
	Mycel        *mycel.State
	Agents       *agent.Population
	Neurons      *orchestrator.NeuronState
	Orchestrator *orchestrator.Orchestrator
	Enqueuer     *kernel.Enqueuer
	Dispatcher   *kernel.Dispatcher
	Quantum      *quantum.State
}

// New builds a Driver from cfg. Device discovery and per-GPU simulation
// state are both lazy: nothing touches OpenCL or allocates simulation
// buffers until EnsureGPU is called for a given gpu_index.
func New(cfg core.Config) *Driver {
	return &Driver{
		cfg:            cfg,
		Registry:       device.NewRegistry(cfg.Device),
		Workers:        concurrency.NewGPUWorkerPool(),
		sessionID:      uuid.NewString(),
		sims:           make(map[int]*simulation),
		quantumEnabled: cfg.Quantum.Enabled && os.Getenv("CC_DISABLE_QUANTUM") == "",
	}
}

// SessionID returns this process's unique driver instance ID, stamped into
// logs and reported by driver_status so an operator juggling multiple
// driverd processes can tell which one a given log line came from.
func (d *Driver) SessionID() string { return d.sessionID }

// Call routes fn through gpu_index's dedicated worker goroutine, serializing
// it against every other call for the same GPU (§9: a single OpenCL context
// per slot is not safe to drive from concurrent goroutines). The cgo ABI
// shim routes its device and simulation calls through this, since cgo
// exports may run on arbitrary OS threads; its status, last-error, abort,
// throttle, quantum-enable, echo-profile and QASM exports call the Driver
// directly.
func (d *Driver) Call(gpuIndex int, fn func() (any, error)) (any, error) {
	w := d.Workers.GetOrCreate(gpuIndex)
	return w.Submit(fn)
}

// EnsureGPU lazily builds the full simulation stack for gpu_index: the
// device slot (context/queues), SubQG field, Mycel graph, agent population,
// neuron state, and the orchestrator wiring them together (§4.8).
func (d *Driver) EnsureGPU(gpuIndex int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.sims[gpuIndex]; ok {
		return nil
	}

	slot, err := d.Registry.EnsureSlot(gpuIndex)
	if err != nil {
		return d.fail(err)
	}

	sq := subqg.NewEngine(d.cfg.SubQG.Width, d.cfg.SubQG.Height, d.cfg.SubQG.NoiseLevel, d.cfg.SubQG.Threshold, d.cfg.SubQG.Deterministic, d.cfg.SubQG.RNGSeed)
	if err := sq.BindDevice(d.Registry, d.cfg.Device.CacheDir, slot); err != nil {
		return d.fail(err)
	}

	my := mycel.New(d.cfg.Mycel.Capacity, d.cfg.Mycel.Channels, d.cfg.Mycel.Neighbors, 0)
	my.Init(d.cfg.Mycel.ActivePrefix, d.cfg.Mycel.DefaultDecay, d.cfg.Mycel.DefaultDiffusion, d.cfg.Mycel.NutrientRecovery)
	my.SetReproParams(d.cfg.Mycel.ReproThresholdNu, d.cfg.Mycel.ReproThresholdAct, d.cfg.Mycel.ReproMutationSig)

	ag, err := agent.New(d.cfg.Agent.Count, agent.Stride)
	if err != nil {
		return d.fail(err)
	}

	n := d.cfg.Mycel.Capacity
	neurons := &orchestrator.NeuronState{
		V: make([]float32, n), U: make([]float32, n), Current: make([]float32, n),
		Spikes: make([]uint8, n), LastSpikes: make([]uint8, n),
		SocialWeights: make([]float32, n*n),
	}
	neurons.Params = bridge.IzhikevichParams{
		A: constSlice(n, 0.02), B: constSlice(n, 0.2), C: constSlice(n, -65), D: constSlice(n, 8),
	}
	for i := range neurons.V {
		neurons.V[i] = -65
		neurons.U[i] = -13
	}

	nc := noise.New(d.cfg.Kernel.NoiseFactorInit)
	en := kernel.NewEnqueuer(d.cfg.Kernel)
	en.Noise = nc

	orc := orchestrator.New(sq, my, ag, neurons, en, d.cfg.Kernel.ForceFinish, int64(gpuIndex)+1)

	d.sims[gpuIndex] = &simulation{
		SubQG: sq, Mycel: my, Agents: ag, Neurons: neurons,
		Orchestrator: orc, Enqueuer: en,
	}
	return nil
}

// RunCycles runs mycel_agent_cycle for gpu_index (§4.8, §6).
func (d *Driver) RunCycles(gpuIndex, cycles int, sensoryGain, learningRate, dt float32) (int, error) {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return 0, err
	}
	completed, err := sim.Orchestrator.RunCycles(cycles, sensoryGain, learningRate, dt)
	if err != nil {
		return completed, d.fail(err)
	}
	return completed, nil
}

// RequestAbort sets gpu_index's abort flag (held by its Enqueuer), checked
// at Hebbian-chunk and cycle boundaries (§5 "Cancellation & timeouts").
// Other gpu_indexes keep running.
func (d *Driver) RequestAbort(gpuIndex int) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	sim.Enqueuer.RequestAbort()
	return nil
}

// SetThrottle configures the post-enqueue sleep (§5, §6).
func (d *Driver) SetThrottle(gpuIndex, ms int, scope kernel.ThrottleScope) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	sim.Enqueuer.SetThrottle(ms, scope)
	return nil
}

// SaveState writes gpu_index's mycel state to path (§4.11, §6).
func (d *Driver) SaveState(gpuIndex int, path string) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	if err := persist.Save(sim.Mycel, path); err != nil {
		return d.fail(err)
	}
	return nil
}

// LoadState reads path into gpu_index's mycel state, replacing the state
// used by the mycel entry points and by the autonomous cycle (§4.11). The
// mycel state is host-side, so nothing is uploaded to the device.
func (d *Driver) LoadState(gpuIndex int, path string) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	loaded, err := persist.Load(path)
	if err != nil {
		return d.fail(err)
	}
	sim.Mycel = loaded
	sim.Orchestrator.Mycel = loaded
	return nil
}

// LastMetrics returns the most recent profiled-enqueue metrics for
// gpu_index, mirroring get_last_quantum_echo_profile's "last X" pattern for
// the kernel dispatcher.
func (d *Driver) LastMetrics(gpuIndex int) (kernel.Metrics, error) {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return kernel.Metrics{}, err
	}
	return sim.Enqueuer.LastMetrics(), nil
}

// Status reports whether gpu_index has been initialized (driver_status).
func (d *Driver) Status(gpuIndex int) (initialized bool, phase orchestrator.Phase) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sim, ok := d.sims[gpuIndex]
	if !ok {
		return false, orchestrator.PhaseIdle
	}
	return true, sim.Orchestrator.Phase()
}

// QuantumEnabled reports whether the quantum subsystem is active (§6
// set_quantum_enabled / CC_DISABLE_QUANTUM).
func (d *Driver) QuantumEnabled() bool { return d.quantumEnabled }

// SetQuantumEnabled implements set_quantum_enabled (§6).
func (d *Driver) SetQuantumEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quantumEnabled = enabled
}

// RecordEchoProfile stores the most recent quantum echo/OTOC profiling
// counters, read back by get_last_quantum_echo_profile (§6).
func (d *Driver) RecordEchoProfile(p quantum.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastEchoProfile = p
}

// LastEchoProfile returns the stored profile from RecordEchoProfile.
func (d *Driver) LastEchoProfile() quantum.Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastEchoProfile
}

// LastError implements cc_get_last_error's thread-local-mirrored payload at
// the core layer: the ABI shim is responsible for the actual per-thread
// storage (§9); this just tracks the most recent failure message.
func (d *Driver) LastError() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastErr == "" {
		return "OK"
	}
	return d.lastErr
}

func (d *Driver) fail(err error) error {
	d.mu.Lock()
	d.lastErr = err.Error()
	d.mu.Unlock()
	log.WithField("err", err).Warn("driver call failed")
	return err
}

func (d *Driver) sim(gpuIndex int) (*simulation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sim, ok := d.sims[gpuIndex]
	if !ok {
		return nil, d.fail(core.NewError(core.KindValidation, "gpu not initialized", core.ErrNotInitialized, 0))
	}
	return sim, nil
}

// ShutdownGPU releases gpu_index's device slot and drops its simulation
// state (§6 shutdown_gpu).
func (d *Driver) ShutdownGPU(gpuIndex int) error {
	d.mu.Lock()
	delete(d.sims, gpuIndex)
	d.mu.Unlock()
	d.Registry.ShutdownSlot(gpuIndex)
	d.Workers.Evict(gpuIndex)
	return nil
}

// RenderFrame implements render_frame_to_buffer's CPU fallback path (§4.10,
// §6) for gpu_index's current SubQG field.
func (d *Driver) RenderFrame(gpuIndex int, opt render.Options) ([]byte, error) {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return nil, err
	}
	if opt.SubQGField == nil {
		opt.SubQGField = sim.SubQG.Energy
	}
	out, err := render.FrameToBuffer(opt)
	if err != nil {
		return nil, d.fail(err)
	}
	return out, nil
}

func constSlice(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}
