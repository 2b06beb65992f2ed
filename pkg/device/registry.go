// Package device owns platform/device discovery, per-gpu_index slot
// lifecycle and the on-disk kernel-binary cache (§4.1).
package device

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mycelia-sim/ccdriver/pkg/clffi"
	"github.com/mycelia-sim/ccdriver/pkg/core"
)

var log = logrus.WithField("component", "device")

// Registry owns up to MaxSlots DeviceSlots, one per gpu_index. One mutex
// guards slot creation/teardown; each slot guards its own state afterward
// (§9 redesign note: "registry owning N slot cells, each protected
// individually for finer-grained concurrency").
type Registry struct {
	mu       sync.Mutex
	cfg      core.DeviceConfig
	slots    map[int]*core.DeviceSlot
	platform uintptr
	devices  []uintptr
	cacheDir string
}

// NewRegistry constructs an empty registry; discovery happens lazily on
// first EnsureSlot, mirroring the teacher's lazy-load-once loader pattern.
func NewRegistry(cfg core.DeviceConfig) *Registry {
	dir := cfg.CacheDir
	if dir == "" {
		dir = "build/kernel_cache"
	}
	return &Registry{cfg: cfg, slots: make(map[int]*core.DeviceSlot), cacheDir: dir}
}

// DiscoverDevices enumerates platforms and collects up to MaxSlots GPU
// devices in discovery order. Idempotent: subsequent calls return the
// cached count.
func (r *Registry) DiscoverDevices() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.devices != nil {
		return len(r.devices), nil
	}
	plats, err := clffi.Platforms()
	if err != nil {
		return 0, core.NewError(core.KindCapability, "platform discovery failed", err, 0)
	}
	var devs []uintptr
	var chosenPlatform uintptr
	for _, p := range plats {
		ds, err := clffi.Devices(p, clffi.CLDeviceTypeGPU)
		if err != nil || len(ds) == 0 {
			continue
		}
		chosenPlatform = p
		devs = append(devs, ds...)
		if len(devs) >= r.maxSlots() {
			break
		}
	}
	if len(devs) > r.maxSlots() {
		devs = devs[:r.maxSlots()]
	}
	if len(devs) == 0 {
		return 0, core.NewError(core.KindCapability, "no GPU devices found", core.ErrNoDevice, 0)
	}
	r.platform = chosenPlatform
	r.devices = devs
	log.WithField("count", len(devs)).Info("discovered GPU devices")
	return len(devs), nil
}

func (r *Registry) maxSlots() int {
	if r.cfg.MaxSlots <= 0 {
		return 8
	}
	if r.cfg.MaxSlots > 8 {
		return 8
	}
	return r.cfg.MaxSlots
}

// GetSlot returns the slot for gpu_index if it exists and is initialized,
// or nil. Every public API call starts here.
func (r *Registry) GetSlot(gpuIndex int) *core.DeviceSlot {
	r.mu.Lock()
	s, ok := r.slots[gpuIndex]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	s.Lock()
	defer s.Unlock()
	if !s.Initialized || s.Errored {
		return nil
	}
	return s
}

// EnsureSlot resolves gpu_index to a ready context+queue, creating it on
// first access. Returns the same slot on every subsequent call for the same
// index until ShutdownSlot (§8 "device-slot integrity").
func (r *Registry) EnsureSlot(gpuIndex int) (*core.DeviceSlot, error) {
	if _, err := r.DiscoverDevices(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	if s, ok := r.slots[gpuIndex]; ok {
		r.mu.Unlock()
		s.Lock()
		defer s.Unlock()
		if s.Errored {
			return nil, core.NewError(core.KindAllocation, "slot previously errored", core.ErrSlotErrored, 0)
		}
		return s, nil
	}
	if gpuIndex < 0 || gpuIndex >= len(r.devices) {
		r.mu.Unlock()
		return nil, core.NewError(core.KindValidation, "gpu_index out of range", core.ErrInvalidArgument, 0)
	}
	slot := &core.DeviceSlot{GPUIndex: gpuIndex, PlatformID: r.platform, DeviceID: r.devices[gpuIndex], Programs: map[string]*core.KernelVariantPair{}}
	r.slots[gpuIndex] = slot
	r.mu.Unlock()

	slot.Lock()
	defer slot.Unlock()
	if err := r.initSlot(slot); err != nil {
		slot.Errored = true
		slot.ErrorMsg = err.Error()
		return nil, err
	}
	slot.Initialized = true
	return slot, nil
}

func (r *Registry) initSlot(slot *core.DeviceSlot) error {
	caps, err := probeCaps(slot.DeviceID)
	if err != nil {
		return core.NewError(core.KindCapability, "capability probe failed", err, 0)
	}
	slot.Caps = caps
	slot.Tag = deviceTag(slot.GPUIndex, slot.DeviceID)

	ctx, err := clffi.CreateContext(slot.PlatformID, []uintptr{slot.DeviceID})
	if err != nil {
		return core.NewError(core.KindAllocation, "clCreateContext failed", err, 0)
	}
	slot.Context = ctx

	mainQ, err := clffi.CreateCommandQueue(ctx, slot.DeviceID, true, true)
	if err != nil {
		log.WithField("gpu", slot.GPUIndex).Warn("out-of-order queue unavailable, falling back to in-order")
		mainQ, err = clffi.CreateCommandQueue(ctx, slot.DeviceID, false, true)
		if err != nil {
			clffi.ReleaseContext(ctx)
			return core.NewError(core.KindAllocation, "clCreateCommandQueue failed", err, 0)
		}
	}
	slot.MainQueue = mainQ

	xferQ, err := clffi.CreateCommandQueue(ctx, slot.DeviceID, false, true)
	if err != nil {
		slot.XferQueue = mainQ
	} else {
		slot.XferQueue = xferQ
	}

	if caps.DeviceEnqueue {
		defQ, err := clffi.CreateDeviceQueue(ctx, slot.DeviceID, true)
		if err == nil {
			if err := clffi.SetDefaultDeviceCommandQueue(ctx, slot.DeviceID, defQ); err == nil {
				slot.DefaultQueue = defQ
			} else {
				log.WithField("gpu", slot.GPUIndex).Warn("clSetDefaultDeviceCommandQueue failed, degrading without device-enqueue")
			}
		} else {
			log.WithField("gpu", slot.GPUIndex).Info("device-enqueue unavailable on this ICD, degrading")
		}
	}

	staging, err := clffi.CreateBuffer(ctx, clffi.CLMemReadWrite, 2*4)
	if err != nil {
		return core.NewError(core.KindAllocation, "pinned staging buffer alloc failed", err, 0)
	}
	slot.PinnedStaging = staging

	log.WithField("gpu", slot.GPUIndex).WithField("tag", slot.Tag).Info("device slot initialized")
	return nil
}

// ShutdownSlot releases every handle owned by a slot and removes it from the
// registry so a later EnsureSlot creates a fresh one.
func (r *Registry) ShutdownSlot(gpuIndex int) {
	r.mu.Lock()
	slot, ok := r.slots[gpuIndex]
	if ok {
		delete(r.slots, gpuIndex)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	slot.Lock()
	defer slot.Unlock()
	for _, pair := range slot.Programs {
		releaseVariant(pair.Strict)
		releaseVariant(pair.Fast)
	}
	if slot.PinnedStaging != 0 {
		clffi.ReleaseMemObject(slot.PinnedStaging)
	}
	if slot.DefaultQueue != 0 {
		clffi.ReleaseCommandQueue(slot.DefaultQueue)
	}
	if slot.XferQueue != 0 && slot.XferQueue != slot.MainQueue {
		clffi.ReleaseCommandQueue(slot.XferQueue)
	}
	if slot.MainQueue != 0 {
		clffi.ReleaseCommandQueue(slot.MainQueue)
	}
	if slot.Context != 0 {
		clffi.ReleaseContext(slot.Context)
	}
	slot.Initialized = false
}

func releaseVariant(v *core.KernelVariant) {
	if v == nil {
		return
	}
	if v.Kernel != 0 {
		clffi.ReleaseKernel(v.Kernel)
	}
	if v.Program != 0 {
		clffi.ReleaseProgram(v.Program)
	}
}

// FinishSlot blocks until every command queued on the slot's main and
// transfer queues has completed.
func (r *Registry) FinishSlot(gpuIndex int) error {
	slot := r.GetSlot(gpuIndex)
	if slot == nil {
		return core.NewError(core.KindValidation, "finish on uninitialized slot", core.ErrSlotNotInit, 0)
	}
	slot.Lock()
	defer slot.Unlock()
	if err := clffi.Finish(slot.MainQueue); err != nil {
		return core.NewError(core.KindLaunch, "clFinish(main) failed", err, 0)
	}
	if slot.XferQueue != slot.MainQueue {
		if err := clffi.Finish(slot.XferQueue); err != nil {
			return core.NewError(core.KindLaunch, "clFinish(transfer) failed", err, 0)
		}
	}
	return nil
}

func probeCaps(device uintptr) (core.BuildCaps, error) {
	var caps core.BuildCaps
	ext, err := clffi.DeviceInfoString(device, clffi.CLDeviceExtensions)
	if err != nil {
		return caps, err
	}
	caps.FP64 = containsWord(ext, "cl_khr_fp64")
	caps.Atomics32 = containsWord(ext, "cl_khr_global_int32_base_atomics") || containsWord(ext, "cl_khr_int64_base_atomics")
	caps.Atomics64 = containsWord(ext, "cl_khr_int64_base_atomics")

	ver, err := clffi.DeviceInfoString(device, clffi.CLDeviceOpenCLCVersion)
	if err == nil {
		maj, min := parseCLVersion(ver)
		caps.CLVersionMajor, caps.CLVersionMinor = maj, min
	}
	caps.DeviceEnqueue = caps.CLVersionAtLeast(2, 0)
	return caps, nil
}

func containsWord(haystack, word string) bool {
	for i := 0; i+len(word) <= len(haystack); i++ {
		if haystack[i:i+len(word)] == word {
			return true
		}
	}
	return false
}

// parseCLVersion extracts "major.minor" out of strings shaped like
// "OpenCL C 2.0" or "OpenCL 1.2 Mesa ...".
func parseCLVersion(s string) (int, int) {
	maj, min := 1, 2
	digitsAt := -1
	for i := 0; i+2 < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' && s[i+1] == '.' && s[i+2] >= '0' && s[i+2] <= '9' {
			digitsAt = i
			break
		}
	}
	if digitsAt >= 0 {
		maj = int(s[digitsAt] - '0')
		min = int(s[digitsAt+2] - '0')
	}
	return maj, min
}

func deviceTag(gpuIndex int, device uintptr) core.DeviceTag {
	name, err := clffi.DeviceInfoString(device, 0x102B /* CL_DEVICE_NAME */)
	if err != nil || name == "" {
		return core.DeviceTag(fmt.Sprintf("gpu%d", gpuIndex))
	}
	return core.DeviceTag(sanitizeTag(fmt.Sprintf("gpu%d_%s", gpuIndex, name)))
}

func sanitizeTag(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			if len(out) > 0 && out[len(out)-1] != '_' {
				out = append(out, '_')
			}
		}
	}
	return string(out)
}
