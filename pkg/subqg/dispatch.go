package subqg

import (
	"unsafe"

	"github.com/mycelia-sim/ccdriver/pkg/clffi"
	"github.com/mycelia-sim/ccdriver/pkg/core"
	"github.com/mycelia-sim/ccdriver/pkg/device"
	"github.com/mycelia-sim/ccdriver/pkg/kernel"
)

const kernelName = "subqg_simulation_step_batched"

// coupledFields are the six diffusing fields plus drift and phase: every
// work-item's Laplacian/gradient reads a neighbor's value, so each gets a
// double-buffered "_in"/"_out" device pair (see kernel_source.go) instead of
// an in-place update.
var coupledFields = []string{
	"energy", "pressure", "gravity", "magnetism", "temperature", "potential",
	"drift_x", "drift_y", "phase",
}

// singleFields have no neighbor dependency; the kernel derives them purely
// from a cell's own freshly computed coupled-field values and writes them
// once, in place.
var singleFields = []string{"interference", "node_flag", "spin", "topology", "field_map"}

// Engine couples a State to an optional GPU device slot. StepBatched runs
// the compiled kernel when a slot is bound and falls back to the host
// reference implementation otherwise (§9: deterministic semantics only hold
// on the RNG-external/deterministic path either way).
type Engine struct {
	*State
	slot *core.DeviceSlot
	bufs map[string]uintptr
}

// NewEngine wraps a freshly-allocated State with no device binding; use
// BindDevice to attach GPU buffers.
func NewEngine(w, h int, noiseLevel, threshold float32, deterministic bool, seed uint64) *Engine {
	return &Engine{State: New(w, h, noiseLevel, threshold, deterministic, seed)}
}

// BindDevice compiles the step kernel for slot and allocates device buffers
// mirroring every host field, double-buffering the nine fields whose
// Laplacian/gradient reads a neighbor's value (§4.4).
func (e *Engine) BindDevice(reg *device.Registry, cacheDir string, slot *core.DeviceSlot) error {
	if _, err := device.CompileKernel(slot, cacheDir, stepKernelSource, kernelName); err != nil {
		return err
	}
	e.slot = slot
	e.bufs = map[string]uintptr{}

	floatLen := map[string]int{
		"energy": len(e.Energy), "phase": len(e.Phase), "interference": len(e.Interference),
		"pressure": len(e.Pressure), "gravity": len(e.Gravity), "magnetism": len(e.Magnetism),
		"temperature": len(e.Temperature), "potential": len(e.Potential),
		"drift_x": len(e.DriftX), "drift_y": len(e.DriftY),
		"rng_e": len(e.RNGEnergy), "rng_p": len(e.RNGPhase), "rng_s": len(e.RNGSpin),
		"field_map": len(e.FieldMap),
	}
	alloc := func(name string, n int) error {
		mem, err := clffi.CreateBuffer(slot.Context, clffi.CLMemReadWrite, n*4)
		if err != nil {
			return core.NewError(core.KindAllocation, "subqg buffer alloc failed: "+name, err, 0)
		}
		e.bufs[name] = mem
		return nil
	}
	for _, name := range coupledFields {
		if err := alloc(name+"_in", floatLen[name]); err != nil {
			return err
		}
		if err := alloc(name+"_out", floatLen[name]); err != nil {
			return err
		}
	}
	for _, name := range []string{"rng_e", "rng_p", "rng_s", "interference", "field_map"} {
		if err := alloc(name, floatLen[name]); err != nil {
			return err
		}
	}
	intFields := map[string][]int32{"node_flag": e.NodeFlag, "spin": e.Spin, "topology": e.Topology}
	for name, data := range intFields {
		if err := alloc(name, len(data)); err != nil {
			return err
		}
	}
	return nil
}

// StepBatched runs one tick (§4.4). With a bound device it uploads the
// host mirrors into the "_in" buffers, enqueues the kernel, finishes, reads
// the "_out"/single buffers back into the host mirrors, and swaps the
// host-visible slices to the freshly computed values; without a bound
// device it runs the reference Go implementation directly.
func (e *Engine) StepBatched(en *kernel.Enqueuer, extE, extP, extS []float32) error {
	if e.slot == nil {
		return e.Step(extE, extP, extS)
	}
	if extE != nil {
		copy(e.RNGEnergy, extE)
		copy(e.RNGPhase, extP)
		copy(e.RNGSpin, extS)
	} else if e.Deterministic {
		e.fillDeterministic()
	} else {
		return errNoRNG
	}

	if err := e.uploadAll(); err != nil {
		return err
	}

	pair := e.slot.Programs[kernelName]
	variant := pair.Strict
	if pair.Fast != nil {
		variant = pair.Fast
	}
	if err := bindStepArgs(variant.Kernel, e); err != nil {
		return err
	}

	gws := []uintptr{uintptr(e.C)}
	if err := en.Launch(e.slot.MainQueue, variant.Kernel, gws, nil, kernelName, e.slot.GPUIndex); err != nil {
		return err
	}
	if err := clffi.Finish(e.slot.MainQueue); err != nil {
		return core.NewError(core.KindLaunch, "subqg step finish failed", err, 0)
	}
	return e.downloadAll()
}

func (e *Engine) coupledHostSlice(name string) []float32 {
	switch name {
	case "energy":
		return e.Energy
	case "pressure":
		return e.Pressure
	case "gravity":
		return e.Gravity
	case "magnetism":
		return e.Magnetism
	case "temperature":
		return e.Temperature
	case "potential":
		return e.Potential
	case "drift_x":
		return e.DriftX
	case "drift_y":
		return e.DriftY
	case "phase":
		return e.Phase
	}
	return nil
}

func bindStepArgs(kern uintptr, e *Engine) error {
	idx := uint32(0)
	bindBuf := func(name string) error {
		if err := clffi.SetKernelArgBuffer(kern, idx, e.bufs[name]); err != nil {
			return core.NewError(core.KindLaunch, "SetKernelArg failed: "+name, err, 0)
		}
		idx++
		return nil
	}

	// Matches kernel_source.go's parameter order exactly: energy_in/out,
	// phase_in/out, interference, node_flag/spin/topology, then the
	// remaining seven coupled in/out pairs, then the three RNG buffers.
	order := []string{
		"energy_in", "energy_out", "phase_in", "phase_out", "interference",
		"node_flag", "spin", "topology",
		"pressure_in", "pressure_out", "gravity_in", "gravity_out",
		"magnetism_in", "magnetism_out", "temperature_in", "temperature_out",
		"potential_in", "potential_out", "drift_x_in", "drift_x_out",
		"drift_y_in", "drift_y_out", "rng_e", "rng_p", "rng_s",
	}
	for _, name := range order {
		if err := bindBuf(name); err != nil {
			return err
		}
	}

	scalars := []struct {
		name string
		f    func(k uintptr, i uint32) error
	}{
		{"noise_level", func(k uintptr, i uint32) error { return clffi.SetKernelArgFloat32(k, i, e.NoiseLevel) }},
		{"threshold", func(k uintptr, i uint32) error { return clffi.SetKernelArgFloat32(k, i, e.Threshold) }},
		{"noise_factor", func(k uintptr, i uint32) error { return clffi.SetKernelArgFloat32(k, i, e.NoiseFactor) }},
		{"W", func(k uintptr, i uint32) error { return clffi.SetKernelArgUint32(k, i, uint32(e.W)) }},
		{"H", func(k uintptr, i uint32) error { return clffi.SetKernelArgUint32(k, i, uint32(e.H)) }},
		{"C", func(k uintptr, i uint32) error { return clffi.SetKernelArgUint32(k, i, uint32(e.C)) }},
	}
	for _, sc := range scalars {
		if err := sc.f(kern, idx); err != nil {
			return core.NewError(core.KindLaunch, "SetKernelArg failed: "+sc.name, err, 0)
		}
		idx++
	}
	if err := bindBuf("field_map"); err != nil {
		return err
	}
	return clffi.SetKernelArgUint32(kern, idx, 1)
}

func (e *Engine) uploadAll() error {
	for _, name := range coupledFields {
		data := e.coupledHostSlice(name)
		if len(data) == 0 {
			continue
		}
		if err := clffi.EnqueueWriteBuffer(e.slot.XferQueue, e.bufs[name+"_in"], true, unsafe.Pointer(&data[0]), len(data)*4); err != nil {
			return core.NewError(core.KindLaunch, "subqg upload failed: "+name, err, 0)
		}
	}
	rng := map[string][]float32{"rng_e": e.RNGEnergy, "rng_p": e.RNGPhase, "rng_s": e.RNGSpin}
	for name, data := range rng {
		if len(data) == 0 {
			continue
		}
		if err := clffi.EnqueueWriteBuffer(e.slot.XferQueue, e.bufs[name], true, unsafe.Pointer(&data[0]), len(data)*4); err != nil {
			return core.NewError(core.KindLaunch, "subqg upload failed: "+name, err, 0)
		}
	}
	return nil
}

func (e *Engine) downloadAll() error {
	for _, name := range coupledFields {
		data := e.coupledHostSlice(name)
		if len(data) == 0 {
			continue
		}
		if err := clffi.EnqueueReadBuffer(e.slot.XferQueue, e.bufs[name+"_out"], true, unsafe.Pointer(&data[0]), len(data)*4); err != nil {
			return core.NewError(core.KindLaunch, "subqg download failed: "+name, err, 0)
		}
	}
	singleHost := map[string]any{
		"interference": e.Interference, "node_flag": e.NodeFlag,
		"spin": e.Spin, "topology": e.Topology, "field_map": e.FieldMap,
	}
	for _, name := range singleFields {
		switch data := singleHost[name].(type) {
		case []float32:
			if len(data) == 0 {
				continue
			}
			if err := clffi.EnqueueReadBuffer(e.slot.XferQueue, e.bufs[name], true, unsafe.Pointer(&data[0]), len(data)*4); err != nil {
				return core.NewError(core.KindLaunch, "subqg download failed: "+name, err, 0)
			}
		case []int32:
			if len(data) == 0 {
				continue
			}
			if err := clffi.EnqueueReadBuffer(e.slot.XferQueue, e.bufs[name], true, unsafe.Pointer(&data[0]), len(data)*4); err != nil {
				return core.NewError(core.KindLaunch, "subqg download failed: "+name, err, 0)
			}
		}
	}
	return nil
}
