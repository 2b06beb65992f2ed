package driver

import (
	"unsafe"

	"github.com/mycelia-sim/ccdriver/pkg/clffi"
	"github.com/mycelia-sim/ccdriver/pkg/core"
	"github.com/mycelia-sim/ccdriver/pkg/kernel"
)

// kernelDispatcherFor builds a Dispatcher with the generic arithmetic
// handler pre-registered for every ArithmeticOp (§4.3, §1 out-of-scope
// kernels: only the dispatch contract matters).
func kernelDispatcherFor(slot *core.DeviceSlot) *kernel.Dispatcher {
	d := kernel.NewDispatcher()
	handler := kernel.ArithmeticHandler(slot)
	for _, op := range core.AllArithmeticOps {
		cmd := &core.ArithmeticCommand{Op: op}
		d.Register(cmd.Type(), handler)
	}
	return d
}

// AllocateMemory implements allocate_gpu_memory: a real device buffer on
// gpu_index's context, tracked by an opaque handle for later write/read/free.
func (d *Driver) AllocateMemory(gpuIndex int, size int) (uintptr, error) {
	slot := d.Registry.GetSlot(gpuIndex)
	if slot == nil {
		return 0, d.fail(core.NewError(core.KindValidation, "allocate_gpu_memory on uninitialized slot", core.ErrSlotNotInit, 0))
	}
	if size <= 0 {
		return 0, d.fail(core.NewError(core.KindValidation, "non-positive allocation size", core.ErrInvalidArgument, 0))
	}
	buf, err := clffi.CreateBuffer(slot.Context, clffi.CLMemReadWrite, size)
	if err != nil {
		return 0, d.fail(core.NewError(core.KindAllocation, "clCreateBuffer failed", err, 0))
	}
	return buf, nil
}

// FreeMemory implements free_gpu_memory.
func (d *Driver) FreeMemory(gpuIndex int, handle uintptr) error {
	if handle == 0 {
		return nil
	}
	if err := clffi.ReleaseMemObject(handle); err != nil {
		return d.fail(core.NewError(core.KindAllocation, "clReleaseMemObject failed", err, 0))
	}
	return nil
}

// WriteHostToGPUBlocking implements write_host_to_gpu_blocking. offset is
// applied by the caller prior to invocation (handle already points at the
// buffer's base; this driver does not support sub-buffer offsets beyond what
// the caller encodes into src's slice window).
func (d *Driver) WriteHostToGPUBlocking(gpuIndex int, handle uintptr, src []byte) error {
	slot := d.Registry.GetSlot(gpuIndex)
	if slot == nil {
		return d.fail(core.NewError(core.KindValidation, "write on uninitialized slot", core.ErrSlotNotInit, 0))
	}
	if len(src) == 0 {
		return nil
	}
	if err := clffi.EnqueueWriteBuffer(slot.XferQueue, handle, true, unsafe.Pointer(&src[0]), len(src)); err != nil {
		return d.fail(core.NewError(core.KindLaunch, "clEnqueueWriteBuffer failed", err, 0))
	}
	return nil
}

// ReadGPUToHostBlocking implements read_gpu_to_host_blocking.
func (d *Driver) ReadGPUToHostBlocking(gpuIndex int, handle uintptr, dst []byte) error {
	slot := d.Registry.GetSlot(gpuIndex)
	if slot == nil {
		return d.fail(core.NewError(core.KindValidation, "read on uninitialized slot", core.ErrSlotNotInit, 0))
	}
	if len(dst) == 0 {
		return nil
	}
	if err := clffi.EnqueueReadBuffer(slot.XferQueue, handle, true, unsafe.Pointer(&dst[0]), len(dst)); err != nil {
		return d.fail(core.NewError(core.KindLaunch, "clEnqueueReadBuffer failed", err, 0))
	}
	return nil
}

// ExecuteArithmetic dispatches one out-of-scope arithmetic kernel (§1):
// only its validate/bind/profile contract is exercised, not its math.
func (d *Driver) ExecuteArithmetic(gpuIndex int, op core.ArithmeticOp, inputs []core.GPUBufferHandle, output core.GPUBufferHandle, shape [4]int32, scalars map[string]float32, fastMath bool) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	slot := d.Registry.GetSlot(gpuIndex)
	if slot == nil {
		return d.fail(core.NewError(core.KindValidation, "arithmetic op on uninitialized slot", core.ErrSlotNotInit, 0))
	}
	cmd := &core.ArithmeticCommand{Op: op, Inputs: inputs, Output: output, Shape: shape, Scalars: scalars, FastMath: fastMath}
	if sim.Dispatcher == nil {
		sim.Dispatcher = kernelDispatcherFor(slot)
	}
	return sim.Dispatcher.Dispatch(sim.Enqueuer, cmd.Type(), cmd)
}
