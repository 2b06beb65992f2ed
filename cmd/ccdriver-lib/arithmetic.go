package main

import "C"

import (
	"github.com/mycelia-sim/ccdriver/pkg/core"
)

func shapeFromC(d0, d1, d2, d3 C.int) [4]int32 {
	return [4]int32{int32(d0), int32(d1), int32(d2), int32(d3)}
}

// dispatchArithmetic runs op through the generic out-of-scope arithmetic
// path (§1, §4.3): the individual kernels' math is out of scope, only the
// validate/bind/profile contract is exercised.
func dispatchArithmetic(gpuIndex C.int, op core.ArithmeticOp, input, output C.ulonglong, d0, d1, d2, d3 C.int, fastMath C.int) C.int {
	var inputs []core.GPUBufferHandle
	if input != 0 {
		inputs = []core.GPUBufferHandle{core.GPUBufferHandle(input)}
	}
	_, err := drv.Call(int(gpuIndex), func() (any, error) {
		return nil, drv.ExecuteArithmetic(int(gpuIndex), op, inputs, core.GPUBufferHandle(output), shapeFromC(d0, d1, d2, d3), nil, fastMath != 0)
	})
	if err != nil {
		return 0
	}
	return 1
}

// execute_arithmetic_op_on_gpu is the generic dispatch entry point behind
// every execute_<op>_on_gpu wrapper (§1 "only their dispatch contract
// matters"): op names the ArithmeticOp by its string value (e.g. "matmul",
// "softmax", "gelu").
//
//export execute_arithmetic_op_on_gpu
func execute_arithmetic_op_on_gpu(gpuIndex C.int, op *C.char, input, output C.ulonglong, d0, d1, d2, d3 C.int, fastMath C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.ArithmeticOp(C.GoString(op)), input, output, d0, d1, d2, d3, fastMath)
}

//export execute_matmul_on_gpu
func execute_matmul_on_gpu(gpuIndex C.int, a, b, out C.ulonglong, m, k, n C.int, fastMath C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpMatmul, a, out, m, k, n, 0, fastMath)
}

//export execute_matmul_backward_on_gpu
func execute_matmul_backward_on_gpu(gpuIndex C.int, a, b, gradOut, out C.ulonglong, m, k, n C.int, fastMath C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpMatmulBackward, a, out, m, k, n, 0, fastMath)
}

//export execute_softmax_on_gpu
func execute_softmax_on_gpu(gpuIndex C.int, in, out C.ulonglong, rows, cols C.int, fastMath C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpSoftmax, in, out, rows, cols, 0, 0, fastMath)
}

//export execute_gelu_on_gpu
func execute_gelu_on_gpu(gpuIndex C.int, in, out C.ulonglong, n C.int, fastMath C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpGelu, in, out, n, 0, 0, 0, fastMath)
}

//export execute_layernorm_on_gpu
func execute_layernorm_on_gpu(gpuIndex C.int, in, out C.ulonglong, rows, cols C.int, fastMath C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpLayerNorm, in, out, rows, cols, 0, 0, fastMath)
}

// execute_adam_update_on_gpu is not a standalone ABI entry in this driver:
// Adam runs fused into mycel_agent_cycle against the agent population's own
// m/v buffers (§4.6), not against arbitrary caller-supplied buffers, so
// there is no generic dispatch slot for it here.

//export execute_sgd_update_on_gpu
func execute_sgd_update_on_gpu(gpuIndex C.int, params, grads C.ulonglong, n C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpSGDUpdate, grads, params, n, 0, 0, 0, 0)
}

//export execute_conv2d_forward_on_gpu
func execute_conv2d_forward_on_gpu(gpuIndex C.int, in, weights, out C.ulonglong, n, c, h, w C.int, fastMath C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpConv2DForward, in, out, n, c, h, w, fastMath)
}

//export execute_conv2d_backward_on_gpu
func execute_conv2d_backward_on_gpu(gpuIndex C.int, in, weights, gradOut, out C.ulonglong, n, c, h, w C.int, fastMath C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpConv2DBackward, in, out, n, c, h, w, fastMath)
}

//export execute_embedding_lookup_gpu
func execute_embedding_lookup_gpu(gpuIndex C.int, table, indices, out C.ulonglong, n, dim C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpEmbeddingLookup, table, out, n, dim, 0, 0, 0)
}

//export execute_embedding_backward_gpu
func execute_embedding_backward_gpu(gpuIndex C.int, gradOut, indices, gradTable C.ulonglong, n, dim C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpEmbeddingBackward, gradOut, gradTable, n, dim, 0, 0, 0)
}

//export execute_fused_diffusion_on_gpu
func execute_fused_diffusion_on_gpu(gpuIndex C.int, in, out C.ulonglong, n C.int, fastMath C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpFusedDiffusion, in, out, n, 0, 0, 0, fastMath)
}

//export execute_hebbian_update_on_gpu
func execute_hebbian_update_on_gpu(gpuIndex C.int, weights, spikes C.ulonglong, n C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpHebbianUpdate, spikes, weights, n, 0, 0, 0, 0)
}

//export execute_threshold_spike_on_gpu
func execute_threshold_spike_on_gpu(gpuIndex C.int, in, out C.ulonglong, n C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpThresholdSpike, in, out, n, 0, 0, 0, 0)
}

//export execute_shape_loss_with_reward_penalty_list_gpu
func execute_shape_loss_with_reward_penalty_list_gpu(gpuIndex C.int, shapes, rewards, out C.ulonglong, n C.int) C.int {
	return dispatchArithmetic(gpuIndex, core.OpShapeLossRewardPenaltyList, shapes, out, n, 0, 0, 0, 0)
}
