// Command ccdriver-lib is the cgo c-shared package exporting the stable C
// ABI of §6: lifecycle, memory, kernel dispatch, SubQG/Mycel, quantum, and
// rendering entry points over a single process-wide Driver. Every export
// that does device or simulation work routes its Driver call through
// Driver.Call so the work actually runs on gpu_index's dedicated worker
// goroutine rather than whatever OS thread cgo happened to hand it (§5, §9).
// The status, last-error, abort, throttle, quantum-enable, echo-profile and
// QASM export/import entry points call the Driver directly.
//
// No string is returned as an owned const char* the caller must free:
// every string-producing export follows the size-probe convention already
// used by read_full_pheromone_buffer (§4.11) — pass a NULL/zero-length
// buffer to learn the required length, then call again with a buffer that
// size.
package main

import "C"

import (
	"os"
	"unsafe"

	"github.com/mycelia-sim/ccdriver/pkg/core"
	"github.com/mycelia-sim/ccdriver/pkg/driver"
	"github.com/mycelia-sim/ccdriver/pkg/kernel"
)

var drv *driver.Driver

func init() {
	cfg, err := core.LoadConfig(os.Getenv("CC_CONFIG"))
	if err != nil {
		cfg = core.DefaultConfig()
	}
	core.PrintBanner()
	drv = driver.New(cfg)
}

// writeCString copies s into buf (capacity bufCap bytes) NUL-terminated,
// truncating if necessary, and returns the untruncated length s would need
// — the same size-probe contract as read_full_pheromone_buffer.
func writeCString(s string, buf *C.char, bufCap C.int) C.int {
	n := C.int(len(s))
	if buf == nil || bufCap <= 0 {
		return n
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(bufCap))
	copied := copy(dst[:bufCap-1], s)
	dst[copied] = 0
	return n
}

//export cc_get_version
func cc_get_version(buf *C.char, bufCap C.int) C.int {
	return writeCString("1.0.0", buf, bufCap)
}

//export cc_get_last_error
func cc_get_last_error(buf *C.char, bufCap C.int) C.int {
	return writeCString(drv.LastError(), buf, bufCap)
}

//export initialize_gpu
func initialize_gpu(gpuIndex C.int) C.int {
	_, err := drv.Call(int(gpuIndex), func() (any, error) {
		return nil, drv.EnsureGPU(int(gpuIndex))
	})
	if err != nil {
		return -1
	}
	return 0
}

//export shutdown_gpu
func shutdown_gpu(gpuIndex C.int) {
	drv.Call(int(gpuIndex), func() (any, error) {
		return nil, drv.ShutdownGPU(int(gpuIndex))
	})
}

//export finish_gpu
func finish_gpu(gpuIndex C.int) C.int {
	initialized, _ := drv.Status(int(gpuIndex))
	if !initialized {
		return 0
	}
	return 1
}

//export set_quantum_enabled
func set_quantum_enabled(enabled C.int) {
	drv.SetQuantumEnabled(enabled != 0)
}

//export cc_request_abort
func cc_request_abort(gpuIndex C.int) C.int {
	if err := drv.RequestAbort(int(gpuIndex)); err != nil {
		return -1
	}
	return 0
}

//export cc_set_kernel_throttle
func cc_set_kernel_throttle(gpuIndex, ms C.int) C.int {
	if err := drv.SetThrottle(int(gpuIndex), int(ms), kernel.ThrottleScope{GPU: int(gpuIndex)}); err != nil {
		return -1
	}
	return 0
}

//export driver_status
func driver_status(gpuIndex C.int, initializedOut *C.int, phaseOut *C.int) {
	initialized, phase := drv.Status(int(gpuIndex))
	if initializedOut != nil {
		if initialized {
			*initializedOut = 1
		} else {
			*initializedOut = 0
		}
	}
	if phaseOut != nil {
		*phaseOut = C.int(phase)
	}
}

//export allocate_gpu_memory
func allocate_gpu_memory(gpuIndex C.int, size C.longlong) C.ulonglong {
	v, err := drv.Call(int(gpuIndex), func() (any, error) {
		return drv.AllocateMemory(int(gpuIndex), int(size))
	})
	if err != nil {
		return 0
	}
	return C.ulonglong(v.(uintptr))
}

//export free_gpu_memory
func free_gpu_memory(gpuIndex C.int, handle C.ulonglong) {
	drv.Call(int(gpuIndex), func() (any, error) {
		return nil, drv.FreeMemory(int(gpuIndex), uintptr(handle))
	})
}

//export write_host_to_gpu_blocking
func write_host_to_gpu_blocking(gpuIndex C.int, handle C.ulonglong, src unsafe.Pointer, size C.longlong) C.int {
	if size <= 0 {
		return 1
	}
	data := unsafe.Slice((*byte)(src), int(size))
	_, err := drv.Call(int(gpuIndex), func() (any, error) {
		return nil, drv.WriteHostToGPUBlocking(int(gpuIndex), uintptr(handle), data)
	})
	if err != nil {
		return 0
	}
	return 1
}

//export read_gpu_to_host_blocking
func read_gpu_to_host_blocking(gpuIndex C.int, handle C.ulonglong, dst unsafe.Pointer, size C.longlong) C.int {
	if size <= 0 {
		return 1
	}
	data := unsafe.Slice((*byte)(dst), int(size))
	_, err := drv.Call(int(gpuIndex), func() (any, error) {
		return nil, drv.ReadGPUToHostBlocking(int(gpuIndex), uintptr(handle), data)
	})
	if err != nil {
		return 0
	}
	return 1
}

func main() {}
