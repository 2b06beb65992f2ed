package main

import "C"

import (
	"unsafe"

	"github.com/mycelia-sim/ccdriver/pkg/quantum"
)

// gatesFromC decodes a gate sequence from four parallel C arrays (axis,
// theta, target, control), avoiding any assumption about struct layout or
// padding across the C ABI boundary.
func gatesFromC(axis *C.int, theta *C.double, target, control *C.int, n C.int) []quantum.Gate {
	if n <= 0 {
		return nil
	}
	axes := unsafe.Slice((*int32)(unsafe.Pointer(axis)), int(n))
	thetas := unsafe.Slice((*float64)(unsafe.Pointer(theta)), int(n))
	targets := unsafe.Slice((*int32)(unsafe.Pointer(target)), int(n))
	controls := unsafe.Slice((*int32)(unsafe.Pointer(control)), int(n))
	out := make([]quantum.Gate, n)
	for i := range out {
		out[i] = quantum.Gate{
			Axis:    quantum.GateAxis(axes[i]),
			Theta:   thetas[i],
			Target:  int(targets[i]),
			Control: int(controls[i]),
		}
	}
	return out
}

func hamiltonianFromC(weight *C.double, mask *C.int, n C.int) quantum.Hamiltonian {
	if n <= 0 {
		return nil
	}
	weights := unsafe.Slice((*float64)(unsafe.Pointer(weight)), int(n))
	masks := unsafe.Slice((*int32)(unsafe.Pointer(mask)), int(n))
	h := make(quantum.Hamiltonian, n)
	for i := range h {
		h[i] = quantum.PauliTerm{Weight: weights[i], Mask: int(masks[i])}
	}
	return h
}

func float64sFromC(p *C.double, n C.int) []float64 {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(p)), int(n))
}

func intsFromC(p *C.int, n C.int) []int {
	if p == nil || n <= 0 {
		return nil
	}
	src := unsafe.Slice((*int32)(unsafe.Pointer(p)), int(n))
	out := make([]int, n)
	for i, v := range src {
		out[i] = int(v)
	}
	return out
}

func uint64sFromC(p *C.ulonglong, n C.int) []uint64 {
	if p == nil || n <= 0 {
		return nil
	}
	src := unsafe.Slice((*uint64)(unsafe.Pointer(p)), int(n))
	out := make([]uint64, n)
	copy(out, src)
	return out
}

// writeAmplitudes copies s's amplitudes into out (interleaved re/im,
// capacity 2*dim floats); returns the state's dimension.
func writeAmplitudes(s *quantum.State, out *C.float, bufCap C.int) C.int {
	dim := s.Dim()
	if out != nil && int(bufCap) >= dim*2 {
		dst := unsafe.Slice((*float32)(unsafe.Pointer(out)), dim*2)
		for i, a := range s.Amps {
			dst[2*i] = float32(real(a))
			dst[2*i+1] = float32(imag(a))
		}
	}
	return C.int(dim)
}

//export quantum_upload_gate_sequence
func quantum_upload_gate_sequence(gpuIndex, numQubits C.int) C.int {
	_, err := drv.Call(int(gpuIndex), func() (any, error) {
		return nil, drv.QuantumUploadGateSequence(int(gpuIndex), int(numQubits))
	})
	if err != nil {
		return 0
	}
	return 1
}

//export quantum_apply_gate_sequence
func quantum_apply_gate_sequence(gpuIndex C.int, axis *C.int, theta *C.double, target, control *C.int, n C.int, out *C.float, outCap C.int) C.int {
	seq := gatesFromC(axis, theta, target, control, n)
	v, err := drv.Call(int(gpuIndex), func() (any, error) { return drv.QuantumApplySequence(int(gpuIndex), seq) })
	if err != nil {
		return -1
	}
	p := v.(quantum.Profile)
	if out != nil && outCap > 0 {
		if s, err := drv.QuantumState(int(gpuIndex)); err == nil {
			writeAmplitudes(s, out, outCap)
		}
	}
	return C.int(p.Enqueues)
}

//export get_last_quantum_echo_profile
func get_last_quantum_echo_profile(single, two, three, fused, enqueues *C.int, bytesTouched *C.longlong) {
	p := drv.LastEchoProfile()
	if single != nil {
		*single = C.int(p.SingleQubitGates)
	}
	if two != nil {
		*two = C.int(p.TwoQubitGates)
	}
	if three != nil {
		*three = C.int(p.ThreeQubitGates)
	}
	if fused != nil {
		*fused = C.int(p.FusedGroups)
	}
	if enqueues != nil {
		*enqueues = C.int(p.Enqueues)
	}
	if bytesTouched != nil {
		*bytesTouched = C.longlong(p.BytesTouched)
	}
}

//export quantum_export_to_qasm
func quantum_export_to_qasm(axis *C.int, theta *C.double, target, control *C.int, n C.int, buf *C.char, bufCap C.int) C.int {
	seq := gatesFromC(axis, theta, target, control, n)
	return writeCString(drv.QuantumExportQASM(seq), buf, bufCap)
}

//export quantum_import_from_qasm
func quantum_import_from_qasm(src *C.char, axisOut, targetOut, controlOut *C.int, thetaOut *C.double, bufCap C.int) C.int {
	seq, err := drv.QuantumImportQASM(C.GoString(src))
	if err != nil {
		return -1
	}
	if axisOut != nil && targetOut != nil && controlOut != nil && thetaOut != nil && int(bufCap) >= len(seq) {
		axes := unsafe.Slice((*int32)(unsafe.Pointer(axisOut)), len(seq))
		targets := unsafe.Slice((*int32)(unsafe.Pointer(targetOut)), len(seq))
		controls := unsafe.Slice((*int32)(unsafe.Pointer(controlOut)), len(seq))
		thetas := unsafe.Slice((*float64)(unsafe.Pointer(thetaOut)), len(seq))
		for i, g := range seq {
			axes[i] = int32(g.Axis)
			targets[i] = int32(g.Target)
			controls[i] = int32(g.Control)
			thetas[i] = g.Theta
		}
	}
	return C.int(len(seq))
}

//export execute_grover_gpu
func execute_grover_gpu(gpuIndex, numQubits, iterations, mask, value C.int, out *C.float, outCap C.int) C.int {
	v, err := drv.Call(int(gpuIndex), func() (any, error) {
		return drv.ExecuteGrover(int(gpuIndex), int(numQubits), int(iterations), int(mask), int(value))
	})
	if err != nil {
		return -1
	}
	return writeAmplitudes(v.(*quantum.State), out, outCap)
}

//export execute_vqe_gpu
func execute_vqe_gpu(gpuIndex, numQubits, layers C.int, params *C.double, nParams C.int, weight *C.double, mask *C.int, nTerms C.int, energyOut *C.double) C.int {
	p := float64sFromC(params, nParams)
	h := hamiltonianFromC(weight, mask, nTerms)
	v, err := drv.Call(int(gpuIndex), func() (any, error) { return drv.ExecuteVQE(int(gpuIndex), int(numQubits), int(layers), p, h) })
	if err != nil {
		return -1
	}
	if energyOut != nil {
		*energyOut = C.double(v.(float64))
	}
	return 0
}

//export execute_vqe_gradients_parallel_gpu
func execute_vqe_gradients_parallel_gpu(gpuIndex, numQubits, layers C.int, params *C.double, nParams C.int, weight *C.double, mask *C.int, nTerms C.int, gradsOut *C.double, gradsCap C.int) C.int {
	p := float64sFromC(params, nParams)
	h := hamiltonianFromC(weight, mask, nTerms)
	v, err := drv.Call(int(gpuIndex), func() (any, error) { return drv.ExecuteVQEGradients(int(gpuIndex), int(numQubits), int(layers), p, h) })
	if err != nil {
		return -1
	}
	grads := v.([]float64)
	if gradsOut != nil && int(gradsCap) >= len(grads) {
		dst := unsafe.Slice((*float64)(unsafe.Pointer(gradsOut)), len(grads))
		copy(dst, grads)
	}
	return C.int(len(grads))
}

//export execute_qaoa_gpu
func execute_qaoa_gpu(gpuIndex, numQubits C.int, weight *C.double, mask *C.int, nTerms C.int, gammas, betas *C.double, nLayers C.int, out *C.float, outCap C.int) C.int {
	h := hamiltonianFromC(weight, mask, nTerms)
	g, b := float64sFromC(gammas, nLayers), float64sFromC(betas, nLayers)
	v, err := drv.Call(int(gpuIndex), func() (any, error) { return drv.ExecuteQAOA(int(gpuIndex), int(numQubits), h, g, b) })
	if err != nil {
		return -1
	}
	return writeAmplitudes(v.(*quantum.State), out, outCap)
}

//export execute_hhl_gpu
func execute_hhl_gpu(gpuIndex, numQubits C.int, b *C.double, nB C.int, workLo C.int, lambdas *C.double, nLambdas C.int, cScale C.double, clockLo, clockHi, ancilla C.int, out *C.float, outCap C.int) C.int {
	bv := float64sFromC(b, nB)
	boot := quantum.HHLBootstrap{Lambdas: float64sFromC(lambdas, nLambdas), CScale: float64(cScale)}
	v, err := drv.Call(int(gpuIndex), func() (any, error) {
		return drv.ExecuteHHL(int(gpuIndex), int(numQubits), bv, int(workLo), boot, int(clockLo), int(clockHi), int(ancilla))
	})
	if err != nil {
		return -1
	}
	return writeAmplitudes(v.(*quantum.State), out, outCap)
}

//export execute_qml_classifier_gpu
func execute_qml_classifier_gpu(gpuIndex C.int, features *C.double, nFeatures C.int, weight *C.double, mask *C.int, nTerms C.int, scoreOut *C.double) C.int {
	f := float64sFromC(features, nFeatures)
	h := hamiltonianFromC(weight, mask, nTerms)
	v, err := drv.Call(int(gpuIndex), func() (any, error) { return drv.ExecuteQMLClassifier(int(gpuIndex), f, h) })
	if err != nil {
		return -1
	}
	if scoreOut != nil {
		*scoreOut = C.double(v.(float64))
	}
	return 0
}

//export execute_qec_cycle_gpu
func execute_qec_cycle_gpu(gpuIndex C.int, stabilizers *C.int, n C.int, out *C.int, outCap C.int) C.int {
	s := intsFromC(stabilizers, n)
	v, err := drv.Call(int(gpuIndex), func() (any, error) { return drv.ExecuteQECCycle(int(gpuIndex), s) })
	if err != nil {
		return -1
	}
	flags := v.([]bool)
	if out != nil && int(outCap) >= len(flags) {
		dst := unsafe.Slice((*int32)(unsafe.Pointer(out)), len(flags))
		for i, f := range flags {
			if f {
				dst[i] = 1
			} else {
				dst[i] = 0
			}
		}
	}
	return C.int(len(flags))
}

//export execute_shor_gpu
func execute_shor_gpu(gpuIndex C.int, n C.ulonglong, candidates *C.ulonglong, nCandidates C.int, factor1, factor2, witness, period *C.ulonglong, found *C.int) C.int {
	cands := uint64sFromC(candidates, nCandidates)
	v, err := drv.Call(int(gpuIndex), func() (any, error) { return drv.ExecuteShor(int(gpuIndex), uint64(n), cands) })
	if err != nil {
		return -1
	}
	res := v.(quantum.ShorResult)
	if factor1 != nil {
		*factor1 = C.ulonglong(res.Factor1)
	}
	if factor2 != nil {
		*factor2 = C.ulonglong(res.Factor2)
	}
	if witness != nil {
		*witness = C.ulonglong(res.Witness)
	}
	if period != nil {
		*period = C.ulonglong(res.Period)
	}
	if found != nil {
		if res.Found {
			*found = 1
		} else {
			*found = 0
		}
	}
	return 0
}

//export execute_quantum_echoes_otoc_gpu
func execute_quantum_echoes_otoc_gpu(gpuIndex C.int,
	uAxis *C.int, uTheta *C.double, uTarget, uControl *C.int, uN C.int,
	wAxis *C.int, wTheta *C.double, wTarget, wControl *C.int, wN C.int,
	vAxis *C.int, vTheta *C.double, vTarget, vControl *C.int, vN C.int,
	otoc C.int, lOut, otocReOut, otocImOut *C.double) C.int {
	u := gatesFromC(uAxis, uTheta, uTarget, uControl, uN)
	w := gatesFromC(wAxis, wTheta, wTarget, wControl, wN)
	v := gatesFromC(vAxis, vTheta, vTarget, vControl, vN)
	res, err := drv.Call(int(gpuIndex), func() (any, error) {
		return drv.ExecuteQuantumEchoOTOC(int(gpuIndex), u, w, v, otoc != 0)
	})
	if err != nil {
		return -1
	}
	r := res.(quantum.EchoResult)
	if lOut != nil {
		*lOut = C.double(r.L)
	}
	if otocReOut != nil {
		*otocReOut = C.double(r.OTOC2Re)
	}
	if otocImOut != nil {
		*otocImOut = C.double(r.OTOC2Im)
	}
	return 0
}
