package clffi

import (
	"fmt"
	"unsafe"
)

// Err wraps an OpenCL status code as a Go error, or nil on CL_SUCCESS.
func Err(op string, code int32) error {
	if code == CLSuccess {
		return nil
	}
	return fmt.Errorf("%s: %s (%d)", op, ErrorString(code), code)
}

// Platforms enumerates every OpenCL platform visible to the ICD loader.
func Platforms() ([]uintptr, error) {
	if err := Load(); err != nil {
		return nil, err
	}
	var count uint32
	if code := fn.clGetPlatformIDs(0, nil, &count); code != CLSuccess {
		return nil, Err("clGetPlatformIDs(count)", code)
	}
	if count == 0 {
		return nil, nil
	}
	ids := make([]uintptr, count)
	if code := fn.clGetPlatformIDs(count, &ids[0], nil); code != CLSuccess {
		return nil, Err("clGetPlatformIDs", code)
	}
	return ids, nil
}

// Devices enumerates devices of deviceType on platform.
func Devices(platform uintptr, deviceType uint64) ([]uintptr, error) {
	var count uint32
	code := fn.clGetDeviceIDs(platform, deviceType, 0, nil, &count)
	if code == CLDeviceNotFound {
		return nil, nil
	}
	if code != CLSuccess {
		return nil, Err("clGetDeviceIDs(count)", code)
	}
	ids := make([]uintptr, count)
	if code := fn.clGetDeviceIDs(platform, deviceType, count, &ids[0], nil); code != CLSuccess {
		return nil, Err("clGetDeviceIDs", code)
	}
	return ids, nil
}

// DeviceInfoString reads a string-valued clGetDeviceInfo param.
func DeviceInfoString(device uintptr, param uint32) (string, error) {
	var size uintptr
	if code := fn.clGetDeviceInfo(device, param, 0, nil, &size); code != CLSuccess {
		return "", Err("clGetDeviceInfo(size)", code)
	}
	if size == 0 {
		return "", nil
	}
	buf := make([]byte, size)
	if code := fn.clGetDeviceInfo(device, param, size, unsafe.Pointer(&buf[0]), nil); code != CLSuccess {
		return "", Err("clGetDeviceInfo", code)
	}
	return trimNUL(buf), nil
}

// DeviceInfoUint64 reads a cl_ulong/cl_bitfield-valued param.
func DeviceInfoUint64(device uintptr, param uint32) (uint64, error) {
	var v uint64
	code := fn.clGetDeviceInfo(device, param, unsafe.Sizeof(v), unsafe.Pointer(&v), nil)
	return v, Err("clGetDeviceInfo", code)
}

// DeviceInfoUint32 reads a cl_uint-valued param.
func DeviceInfoUint32(device uintptr, param uint32) (uint32, error) {
	var v uint32
	code := fn.clGetDeviceInfo(device, param, unsafe.Sizeof(v), unsafe.Pointer(&v), nil)
	return v, Err("clGetDeviceInfo", code)
}

// DeviceInfoSize reads a size_t-valued param.
func DeviceInfoSize(device uintptr, param uint32) (uintptr, error) {
	var v uintptr
	code := fn.clGetDeviceInfo(device, param, unsafe.Sizeof(v), unsafe.Pointer(&v), nil)
	return v, Err("clGetDeviceInfo", code)
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// CreateContext creates a context spanning devices on platform.
func CreateContext(platform uintptr, devices []uintptr) (uintptr, error) {
	props := []uintptr{uintptr(CLContextPlatform), platform, 0}
	var errcode int32
	ctx := fn.clCreateContext(&props[0], uint32(len(devices)), &devices[0], 0, nil, &errcode)
	if errcode != CLSuccess {
		return 0, Err("clCreateContext", errcode)
	}
	return ctx, nil
}

// CreateCommandQueue creates a host-side queue, optionally out-of-order and/or profiled.
func CreateCommandQueue(context, device uintptr, outOfOrder, profiling bool) (uintptr, error) {
	var props uint64
	if outOfOrder {
		props |= CLQueueOutOfOrderExecModeEnable
	}
	if profiling {
		props |= CLQueueProfilingEnable
	}
	var errcode int32
	var q uintptr
	if fn.clCreateCommandQueueWithProperties != nil {
		plist := []uint64{0x1093 /* CL_QUEUE_PROPERTIES */, props, 0}
		q = fn.clCreateCommandQueueWithProperties(context, device, &plist[0], &errcode)
	} else {
		q = fn.clCreateCommandQueue(context, device, props, &errcode)
	}
	if errcode != CLSuccess {
		return 0, Err("clCreateCommandQueue", errcode)
	}
	return q, nil
}

// CreateDeviceQueue creates an on-device queue for OpenCL 2.0 device-enqueue
// (clCreateCommandQueueWithProperties with CL_QUEUE_ON_DEVICE[_DEFAULT]).
func CreateDeviceQueue(context, device uintptr, isDefault bool) (uintptr, error) {
	if fn.clCreateCommandQueueWithProperties == nil {
		return 0, fmt.Errorf("clCreateCommandQueueWithProperties unavailable: device-enqueue requires OpenCL 2.0")
	}
	props := CLQueueOnDevice | CLQueueProfilingEnable
	if isDefault {
		props |= CLQueueOnDeviceDefault
	}
	plist := []uint64{0x1093, props, 0}
	var errcode int32
	q := fn.clCreateCommandQueueWithProperties(context, device, &plist[0], &errcode)
	if errcode != CLSuccess {
		return 0, Err("clCreateCommandQueueWithProperties(on-device)", errcode)
	}
	return q, nil
}

// SetDefaultDeviceCommandQueue installs queue as the device's default queue
// for kernels that enqueue further work from within device code.
func SetDefaultDeviceCommandQueue(context, device, queue uintptr) error {
	if fn.clSetDefaultDeviceCommandQueue == nil {
		return fmt.Errorf("clSetDefaultDeviceCommandQueue unavailable")
	}
	return Err("clSetDefaultDeviceCommandQueue", fn.clSetDefaultDeviceCommandQueue(context, device, queue))
}

// CreateProgramWithSource compiles a program from a single source string.
func CreateProgramWithSource(context uintptr, source string) (uintptr, error) {
	cSrc := append([]byte(source), 0)
	ptr := uintptr(unsafe.Pointer(&cSrc[0]))
	length := uintptr(len(source))
	var errcode int32
	prog := fn.clCreateProgramWithSource(context, 1, &ptr, &length, &errcode)
	if errcode != CLSuccess {
		return 0, Err("clCreateProgramWithSource", errcode)
	}
	return prog, nil
}

// CreateProgramWithBinary loads a cached kernel binary for a single device.
func CreateProgramWithBinary(context, device uintptr, binary []byte) (uintptr, error) {
	if len(binary) == 0 {
		return 0, fmt.Errorf("empty binary")
	}
	length := uintptr(len(binary))
	binPtr := uintptr(unsafe.Pointer(&binary[0]))
	var status, errcode int32
	devs := []uintptr{device}
	prog := fn.clCreateProgramWithBinary(context, 1, &devs[0], &length, &binPtr, &status, &errcode)
	if errcode != CLSuccess {
		return 0, Err("clCreateProgramWithBinary", errcode)
	}
	if status != CLSuccess {
		return 0, Err("clCreateProgramWithBinary(status)", status)
	}
	return prog, nil
}

// BuildProgram builds program for device with the given build options string.
// On CL_BUILD_PROGRAM_FAILURE the build log is attached to the returned error.
func BuildProgram(program, device uintptr, options string) error {
	var optPtr uintptr
	if options != "" {
		cOpt := append([]byte(options), 0)
		optPtr = uintptr(unsafe.Pointer(&cOpt[0]))
	}
	devs := []uintptr{device}
	code := fn.clBuildProgram(program, 1, &devs[0], optPtr, 0, nil)
	if code == CLSuccess {
		return nil
	}
	log, logErr := ProgramBuildLog(program, device)
	if logErr == nil && log != "" {
		return fmt.Errorf("%s: %s", Err("clBuildProgram", code), log)
	}
	return Err("clBuildProgram", code)
}

// ProgramBuildLog retrieves the build log text for program on device.
func ProgramBuildLog(program, device uintptr) (string, error) {
	var size uintptr
	if code := fn.clGetProgramBuildInfo(program, device, CLProgramBuildLog, 0, nil, &size); code != CLSuccess {
		return "", Err("clGetProgramBuildInfo(size)", code)
	}
	if size == 0 {
		return "", nil
	}
	buf := make([]byte, size)
	if code := fn.clGetProgramBuildInfo(program, device, CLProgramBuildLog, size, unsafe.Pointer(&buf[0]), nil); code != CLSuccess {
		return "", Err("clGetProgramBuildInfo", code)
	}
	return trimNUL(buf), nil
}

// ProgramBinarySizes returns the compiled binary size for each device
// attached to program, in attachment order.
func ProgramBinarySizes(program uintptr, numDevices int) ([]uintptr, error) {
	sizes := make([]uintptr, numDevices)
	code := fn.clGetProgramInfo(program, CLProgramBinarySizes, uintptr(numDevices)*unsafe.Sizeof(sizes[0]), unsafe.Pointer(&sizes[0]), nil)
	return sizes, Err("clGetProgramInfo(binary sizes)", code)
}

// ProgramBinary retrieves the single-device compiled binary of size n.
func ProgramBinary(program uintptr, n uintptr) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	bufPtrs := []uintptr{uintptr(unsafe.Pointer(&buf[0]))}
	code := fn.clGetProgramInfo(program, CLProgramBinaries, unsafe.Sizeof(bufPtrs[0]), unsafe.Pointer(&bufPtrs[0]), nil)
	return buf, Err("clGetProgramInfo(binaries)", code)
}

// ReleaseProgram releases a compiled program object.
func ReleaseProgram(program uintptr) error { return Err("clReleaseProgram", fn.clReleaseProgram(program)) }

// CreateKernel looks up an entry point by name within a built program.
func CreateKernel(program uintptr, name string) (uintptr, error) {
	cName := append([]byte(name), 0)
	var errcode int32
	k := fn.clCreateKernel(program, uintptr(unsafe.Pointer(&cName[0])), &errcode)
	if errcode != CLSuccess {
		return 0, Err("clCreateKernel("+name+")", errcode)
	}
	return k, nil
}

// ReleaseKernel releases a kernel object.
func ReleaseKernel(kernel uintptr) error { return Err("clReleaseKernel", fn.clReleaseKernel(kernel)) }

// SetKernelArgBuffer binds a cl_mem argument at index.
func SetKernelArgBuffer(kernel uintptr, index uint32, mem uintptr) error {
	return Err("clSetKernelArg", fn.clSetKernelArg(kernel, index, unsafe.Sizeof(mem), unsafe.Pointer(&mem)))
}

// SetKernelArgUint32 binds a scalar uint32 argument at index.
func SetKernelArgUint32(kernel uintptr, index uint32, v uint32) error {
	return Err("clSetKernelArg", fn.clSetKernelArg(kernel, index, unsafe.Sizeof(v), unsafe.Pointer(&v)))
}

// SetKernelArgFloat32 binds a scalar float argument at index.
func SetKernelArgFloat32(kernel uintptr, index uint32, v float32) error {
	return Err("clSetKernelArg", fn.clSetKernelArg(kernel, index, unsafe.Sizeof(v), unsafe.Pointer(&v)))
}

// SetKernelArgLocal reserves n bytes of __local scratch at index (no host value).
func SetKernelArgLocal(kernel uintptr, index uint32, n uintptr) error {
	return Err("clSetKernelArg", fn.clSetKernelArg(kernel, index, n, nil))
}

// CreateBuffer allocates a device buffer of size bytes with the given flags.
func CreateBuffer(context uintptr, flags uint64, size int) (uintptr, error) {
	var errcode int32
	mem := fn.clCreateBuffer(context, flags, uintptr(size), nil, &errcode)
	if errcode != CLSuccess {
		return 0, Err("clCreateBuffer", errcode)
	}
	return mem, nil
}

// ReleaseMemObject frees a device buffer.
func ReleaseMemObject(mem uintptr) error { return Err("clReleaseMemObject", fn.clReleaseMemObject(mem)) }

// EnqueueWriteBuffer copies host data into a device buffer.
func EnqueueWriteBuffer(queue, buffer uintptr, blocking bool, data unsafe.Pointer, size int) error {
	b := CLFalse
	if blocking {
		b = CLTrue
	}
	code := fn.clEnqueueWriteBuffer(queue, buffer, b, 0, uintptr(size), data, 0, nil, nil)
	return Err("clEnqueueWriteBuffer", code)
}

// EnqueueReadBuffer copies device data back into a host buffer.
func EnqueueReadBuffer(queue, buffer uintptr, blocking bool, data unsafe.Pointer, size int) error {
	b := CLFalse
	if blocking {
		b = CLTrue
	}
	code := fn.clEnqueueReadBuffer(queue, buffer, b, 0, uintptr(size), data, 0, nil, nil)
	return Err("clEnqueueReadBuffer", code)
}

// EnqueueNDRangeKernel dispatches kernel over globalSize (and optional
// localSize, pass nil to let the ICD pick) on queue, returning a profiling
// event handle. Caller must ReleaseEvent it.
func EnqueueNDRangeKernel(queue, kernel uintptr, globalSize, localSize []uintptr) (uintptr, error) {
	var event uintptr
	var localPtr *uintptr
	if len(localSize) > 0 {
		localPtr = &localSize[0]
	}
	code := fn.clEnqueueNDRangeKernel(queue, kernel, uint32(len(globalSize)), nil, &globalSize[0], localPtr, 0, nil, &event)
	if code != CLSuccess {
		return 0, Err("clEnqueueNDRangeKernel", code)
	}
	return event, nil
}

// EnqueueMapBuffer maps a device buffer into host address space.
func EnqueueMapBuffer(queue, buffer uintptr, blocking bool, flags uint64, size int) (unsafe.Pointer, error) {
	b := CLFalse
	if blocking {
		b = CLTrue
	}
	var errcode int32
	ptr := fn.clEnqueueMapBuffer(queue, buffer, b, flags, 0, uintptr(size), 0, nil, nil, &errcode)
	if errcode != CLSuccess {
		return nil, Err("clEnqueueMapBuffer", errcode)
	}
	return ptr, nil
}

// EnqueueUnmapMemObject releases a previously mapped pointer.
func EnqueueUnmapMemObject(queue, mem uintptr, ptr unsafe.Pointer) error {
	return Err("clEnqueueUnmapMemObject", fn.clEnqueueUnmapMemObject(queue, mem, ptr, 0, nil, nil))
}

// Finish blocks until every command previously queued on queue has completed.
func Finish(queue uintptr) error { return Err("clFinish", fn.clFinish(queue)) }

// Flush issues queued commands to the device without waiting for completion.
func Flush(queue uintptr) error { return Err("clFlush", fn.clFlush(queue)) }

// WaitForEvents blocks until every event in the list completes.
func WaitForEvents(events []uintptr) error {
	if len(events) == 0 {
		return nil
	}
	return Err("clWaitForEvents", fn.clWaitForEvents(uint32(len(events)), &events[0]))
}

// EventProfilingNanos returns the CL_PROFILING_COMMAND_START/END timestamps
// (device clock nanoseconds) for a completed, profiled command event.
func EventProfilingNanos(event uintptr) (start, end uint64, err error) {
	if code := fn.clGetEventProfilingInfo(event, CLProfilingCommandStart, unsafe.Sizeof(start), unsafe.Pointer(&start), nil); code != CLSuccess {
		return 0, 0, Err("clGetEventProfilingInfo(start)", code)
	}
	if code := fn.clGetEventProfilingInfo(event, CLProfilingCommandEnd, unsafe.Sizeof(end), unsafe.Pointer(&end), nil); code != CLSuccess {
		return 0, 0, Err("clGetEventProfilingInfo(end)", code)
	}
	return start, end, nil
}

// ReleaseEvent releases an event object returned by EnqueueNDRangeKernel.
func ReleaseEvent(event uintptr) error { return Err("clReleaseEvent", fn.clReleaseEvent(event)) }

// ReleaseCommandQueue releases a command queue.
func ReleaseCommandQueue(queue uintptr) error {
	return Err("clReleaseCommandQueue", fn.clReleaseCommandQueue(queue))
}

// ReleaseContext releases a context.
func ReleaseContext(context uintptr) error { return Err("clReleaseContext", fn.clReleaseContext(context)) }
