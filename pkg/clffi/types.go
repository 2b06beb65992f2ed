package clffi

// Subset of the OpenCL 1.2/2.0 C API constants the driver needs. Names and
// values match the Khronos cl.h header exactly.
const (
	CLSuccess             int32 = 0
	CLDeviceNotFound      int32 = -1
	CLBuildProgramFailure int32 = -11
	CLInvalidKernelArgs   int32 = -52
	CLInvalidValue        int32 = -30

	CLDeviceTypeGPU     uint64 = 1 << 2
	CLDeviceTypeDefault uint64 = 1 << 0

	CLPlatformVersion uint32 = 0x0901

	CLDeviceExtensions             uint32 = 0x1030
	CLDeviceMaxWorkGroupSize       uint32 = 0x1004
	CLDeviceLocalMemSize           uint32 = 0x1023
	CLDeviceOpenCLCVersion         uint32 = 0x103D
	CLDeviceSVMCapabilities        uint32 = 0x1053 // presence implies 2.0 device-enqueue path
	CLDeviceMaxComputeUnits        uint32 = 0x1002

	CLContextPlatform uint64 = 0x1084

	CLQueueOutOfOrderExecModeEnable uint64 = 1 << 0
	CLQueueProfilingEnable          uint64 = 1 << 1
	CLQueueOnDevice                 uint64 = 1 << 2
	CLQueueOnDeviceDefault          uint64 = 1 << 3

	CLMemReadWrite uint64 = 1 << 0
	CLMemReadOnly  uint64 = 1 << 2
	CLMemWriteOnly uint64 = 1 << 1

	CLProgramBuildLog    uint32 = 0x1183
	CLProgramBuildStatus uint32 = 0x1181

	CLProgramBinarySizes uint32 = 0x1165
	CLProgramBinaries    uint32 = 0x1166
	CLProgramNumDevices  uint32 = 0x1162

	CLProfilingCommandQueued uint32 = 0x1280
	CLProfilingCommandSubmit uint32 = 0x1281
	CLProfilingCommandStart  uint32 = 0x1282
	CLProfilingCommandEnd    uint32 = 0x1283

	CLComplete int32 = 0x0
	CLTrue     uint32 = 1
	CLFalse    uint32 = 0
)

// ErrorString implements the OpenCL status->string mapping used by log fields;
// the full table is out of scope (§1), this covers the codes the driver
// itself branches on.
func ErrorString(code int32) string {
	switch code {
	case CLSuccess:
		return "CL_SUCCESS"
	case CLDeviceNotFound:
		return "CL_DEVICE_NOT_FOUND"
	case CLBuildProgramFailure:
		return "CL_BUILD_PROGRAM_FAILURE"
	case CLInvalidKernelArgs:
		return "CL_INVALID_KERNEL_ARGS"
	case CLInvalidValue:
		return "CL_INVALID_VALUE"
	default:
		return "CL_ERROR"
	}
}
