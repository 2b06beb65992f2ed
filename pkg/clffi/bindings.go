package clffi

import "unsafe"

// functionTable holds every OpenCL entry point the driver binds via purego.
// Grouping them in one struct (rather than package-level vars) keeps
// bindAll a single, auditable pass and makes it trivial to see which
// symbols a build actually depends on.
type functionTable struct {
	clGetPlatformIDs func(numEntries uint32, platforms *uintptr, numPlatforms *uint32) int32
	clGetPlatformInfo func(platform uintptr, param uint32, size uintptr, value unsafe.Pointer, sizeRet *uintptr) int32

	clGetDeviceIDs  func(platform uintptr, deviceType uint64, numEntries uint32, devices *uintptr, numDevices *uint32) int32
	clGetDeviceInfo func(device uintptr, param uint32, size uintptr, value unsafe.Pointer, sizeRet *uintptr) int32

	clCreateContext func(properties *uintptr, numDevices uint32, devices *uintptr, pfnNotify uintptr, userData unsafe.Pointer, errcodeRet *int32) uintptr

	clCreateCommandQueue              func(context, device uintptr, properties uint64, errcodeRet *int32) uintptr
	clCreateCommandQueueWithProperties func(context, device uintptr, properties *uint64, errcodeRet *int32) uintptr
	clSetDefaultDeviceCommandQueue    func(context, device, queue uintptr) int32

	clCreateProgramWithSource  func(context uintptr, count uint32, strings *uintptr, lengths *uintptr, errcodeRet *int32) uintptr
	clCreateProgramWithBinary  func(context uintptr, numDevices uint32, devices *uintptr, lengths *uintptr, binaries *uintptr, binaryStatus *int32, errcodeRet *int32) uintptr
	clBuildProgram             func(program uintptr, numDevices uint32, devices *uintptr, options uintptr, pfnNotify uintptr, userData unsafe.Pointer) int32
	clGetProgramBuildInfo      func(program, device uintptr, param uint32, size uintptr, value unsafe.Pointer, sizeRet *uintptr) int32
	clGetProgramInfo           func(program uintptr, param uint32, size uintptr, value unsafe.Pointer, sizeRet *uintptr) int32
	clReleaseProgram           func(program uintptr) int32

	clCreateKernel   func(program uintptr, name uintptr, errcodeRet *int32) uintptr
	clSetKernelArg   func(kernel uintptr, index uint32, size uintptr, value unsafe.Pointer) int32
	clReleaseKernel  func(kernel uintptr) int32

	clCreateBuffer       func(context uintptr, flags uint64, size uintptr, hostPtr unsafe.Pointer, errcodeRet *int32) uintptr
	clReleaseMemObject   func(mem uintptr) int32
	clEnqueueWriteBuffer func(queue, buffer uintptr, blocking uint32, offset, size uintptr, ptr unsafe.Pointer, numEvents uint32, waitList *uintptr, event *uintptr) int32
	clEnqueueReadBuffer  func(queue, buffer uintptr, blocking uint32, offset, size uintptr, ptr unsafe.Pointer, numEvents uint32, waitList *uintptr, event *uintptr) int32
	clEnqueueMapBuffer   func(queue, buffer uintptr, blocking uint32, flags uint64, offset, size uintptr, numEvents uint32, waitList *uintptr, event *uintptr, errcodeRet *int32) unsafe.Pointer
	clEnqueueUnmapMemObject func(queue, mem uintptr, mappedPtr unsafe.Pointer, numEvents uint32, waitList *uintptr, event *uintptr) int32

	clEnqueueNDRangeKernel func(queue, kernel uintptr, workDim uint32, globalOffset, globalSize, localSize *uintptr, numEvents uint32, waitList *uintptr, event *uintptr) int32

	clFinish func(queue uintptr) int32
	clFlush  func(queue uintptr) int32

	clWaitForEvents         func(numEvents uint32, list *uintptr) int32
	clGetEventProfilingInfo func(event uintptr, param uint32, size uintptr, value unsafe.Pointer, sizeRet *uintptr) int32
	clReleaseEvent          func(event uintptr) int32

	clReleaseCommandQueue func(queue uintptr) int32
	clReleaseContext      func(context uintptr) int32
}

func bindAll(lib uintptr, t *functionTable) {
	registerFunc(&t.clGetPlatformIDs, lib, "clGetPlatformIDs")
	registerFunc(&t.clGetPlatformInfo, lib, "clGetPlatformInfo")
	registerFunc(&t.clGetDeviceIDs, lib, "clGetDeviceIDs")
	registerFunc(&t.clGetDeviceInfo, lib, "clGetDeviceInfo")
	registerFunc(&t.clCreateContext, lib, "clCreateContext")
	registerFunc(&t.clCreateCommandQueue, lib, "clCreateCommandQueue")
	registerFunc(&t.clCreateCommandQueueWithProperties, lib, "clCreateCommandQueueWithProperties")
	registerFunc(&t.clSetDefaultDeviceCommandQueue, lib, "clSetDefaultDeviceCommandQueue")
	registerFunc(&t.clCreateProgramWithSource, lib, "clCreateProgramWithSource")
	registerFunc(&t.clCreateProgramWithBinary, lib, "clCreateProgramWithBinary")
	registerFunc(&t.clBuildProgram, lib, "clBuildProgram")
	registerFunc(&t.clGetProgramBuildInfo, lib, "clGetProgramBuildInfo")
	registerFunc(&t.clGetProgramInfo, lib, "clGetProgramInfo")
	registerFunc(&t.clReleaseProgram, lib, "clReleaseProgram")
	registerFunc(&t.clCreateKernel, lib, "clCreateKernel")
	registerFunc(&t.clSetKernelArg, lib, "clSetKernelArg")
	registerFunc(&t.clReleaseKernel, lib, "clReleaseKernel")
	registerFunc(&t.clCreateBuffer, lib, "clCreateBuffer")
	registerFunc(&t.clReleaseMemObject, lib, "clReleaseMemObject")
	registerFunc(&t.clEnqueueWriteBuffer, lib, "clEnqueueWriteBuffer")
	registerFunc(&t.clEnqueueReadBuffer, lib, "clEnqueueReadBuffer")
	registerFunc(&t.clEnqueueMapBuffer, lib, "clEnqueueMapBuffer")
	registerFunc(&t.clEnqueueUnmapMemObject, lib, "clEnqueueUnmapMemObject")
	registerFunc(&t.clEnqueueNDRangeKernel, lib, "clEnqueueNDRangeKernel")
	registerFunc(&t.clFinish, lib, "clFinish")
	registerFunc(&t.clFlush, lib, "clFlush")
	registerFunc(&t.clWaitForEvents, lib, "clWaitForEvents")
	registerFunc(&t.clGetEventProfilingInfo, lib, "clGetEventProfilingInfo")
	registerFunc(&t.clReleaseEvent, lib, "clReleaseEvent")
	registerFunc(&t.clReleaseCommandQueue, lib, "clReleaseCommandQueue")
	registerFunc(&t.clReleaseContext, lib, "clReleaseContext")
}
