package driver

import (
	"github.com/mycelia-sim/ccdriver/pkg/core"
	"github.com/mycelia-sim/ccdriver/pkg/quantum"
)

// quantumSim returns gpu_index's quantum state, refusing when the quantum
// subsystem is disabled (CC_DISABLE_QUANTUM / set_quantum_enabled(0)).
func (d *Driver) quantumSim(gpuIndex int) (*simulation, error) {
	if !d.QuantumEnabled() {
		return nil, d.fail(core.NewError(core.KindValidation, "quantum subsystem disabled", core.ErrQuantumDisabled, 0))
	}
	return d.sim(gpuIndex)
}

// QuantumUploadGateSequence implements quantum_upload_gate_sequence: resets
// gpu_index's state vector to |0...0> at the given qubit count.
func (d *Driver) QuantumUploadGateSequence(gpuIndex, numQubits int) error {
	sim, err := d.quantumSim(gpuIndex)
	if err != nil {
		return err
	}
	s, err := quantum.NewZero(numQubits)
	if err != nil {
		return d.fail(err)
	}
	sim.Quantum = s
	return nil
}

// QuantumApplySequence implements quantum_apply_gate_sequence.
func (d *Driver) QuantumApplySequence(gpuIndex int, seq []quantum.Gate) (quantum.Profile, error) {
	sim, err := d.quantumSim(gpuIndex)
	if err != nil {
		return quantum.Profile{}, err
	}
	if sim.Quantum == nil {
		return quantum.Profile{}, d.fail(core.NewError(core.KindValidation, "no quantum state uploaded", core.ErrNotInitialized, 0))
	}
	p := sim.Quantum.ApplySequenceProfiled(seq)
	d.RecordEchoProfile(p)
	return p, nil
}

// QuantumState returns gpu_index's current quantum state vector, exposed so
// the ABI facade can read amplitudes back after quantum_apply_gate_sequence
// without threading the state through every quantum call's return value.
func (d *Driver) QuantumState(gpuIndex int) (*quantum.State, error) {
	sim, err := d.quantumSim(gpuIndex)
	if err != nil {
		return nil, err
	}
	if sim.Quantum == nil {
		return nil, d.fail(core.NewError(core.KindValidation, "no quantum state uploaded", core.ErrNotInitialized, 0))
	}
	return sim.Quantum, nil
}

// QuantumExportQASM implements quantum_export_to_qasm for the sequence the
// caller passes; the driver does not retain the last applied sequence.
func (d *Driver) QuantumExportQASM(seq []quantum.Gate) string {
	return quantum.ExportQASM(seq)
}

// QuantumImportQASM implements quantum_import_from_qasm.
func (d *Driver) QuantumImportQASM(src string) ([]quantum.Gate, error) {
	seq, err := quantum.ImportQASM(src)
	if err != nil {
		return nil, d.fail(err)
	}
	return seq, nil
}

// ExecuteGrover implements execute_grover_gpu.
func (d *Driver) ExecuteGrover(gpuIndex, numQubits, iterations, mask, value int) (*quantum.State, error) {
	sim, err := d.quantumSim(gpuIndex)
	if err != nil {
		return nil, err
	}
	s, err := quantum.GroverSearch(numQubits, iterations, mask, value)
	if err != nil {
		return nil, d.fail(err)
	}
	sim.Quantum = s
	return s, nil
}

// ExecuteVQE implements execute_vqe_gpu: builds the ansatz and returns its energy.
func (d *Driver) ExecuteVQE(gpuIndex, numQubits, layers int, params []float64, h quantum.Hamiltonian) (float64, error) {
	sim, err := d.quantumSim(gpuIndex)
	if err != nil {
		return 0, err
	}
	s, err := quantum.VQEAnsatz(numQubits, layers, params)
	if err != nil {
		return 0, d.fail(err)
	}
	sim.Quantum = s
	energy, err := quantum.VQEEnergy(numQubits, layers, params, h)
	if err != nil {
		return 0, d.fail(err)
	}
	return energy, nil
}

// ExecuteVQEGradients implements execute_vqe_gradients_parallel_gpu.
func (d *Driver) ExecuteVQEGradients(gpuIndex, numQubits, layers int, params []float64, h quantum.Hamiltonian) ([]float64, error) {
	if _, err := d.quantumSim(gpuIndex); err != nil {
		return nil, err
	}
	grads, err := quantum.VQEParameterShiftGradients(numQubits, layers, params, h)
	if err != nil {
		return nil, d.fail(err)
	}
	return grads, nil
}

// ExecuteQAOA implements execute_qaoa_gpu.
func (d *Driver) ExecuteQAOA(gpuIndex, numQubits int, h quantum.Hamiltonian, gammas, betas []float64) (*quantum.State, error) {
	sim, err := d.quantumSim(gpuIndex)
	if err != nil {
		return nil, err
	}
	s, err := quantum.QAOARun(numQubits, h, gammas, betas)
	if err != nil {
		return nil, d.fail(err)
	}
	sim.Quantum = s
	return sim.Quantum, nil
}

// ExecuteHHL implements execute_hhl_gpu: prepares b, applies the bootstrap
// ancilla rotation, and returns the updated state.
func (d *Driver) ExecuteHHL(gpuIndex, numQubits int, b []float64, workLo int, boot quantum.HHLBootstrap, clockLo, clockHi, ancilla int) (*quantum.State, error) {
	sim, err := d.quantumSim(gpuIndex)
	if err != nil {
		return nil, err
	}
	s, err := quantum.NewZero(numQubits)
	if err != nil {
		return nil, d.fail(err)
	}
	if err := s.PrepareB(b, workLo); err != nil {
		return nil, d.fail(err)
	}
	s.ApplyAncillaRotation(boot, clockLo, clockHi, ancilla)
	sim.Quantum = s
	return s, nil
}

// ExecuteQMLClassifier implements execute_qml_classifier_gpu.
func (d *Driver) ExecuteQMLClassifier(gpuIndex int, features []float64, readout quantum.Hamiltonian) (float64, error) {
	sim, err := d.quantumSim(gpuIndex)
	if err != nil {
		return 0, err
	}
	s, err := quantum.QMLFeatureMap(features)
	if err != nil {
		return 0, d.fail(err)
	}
	sim.Quantum = s
	return readout.Expectation(s), nil
}

// ExecuteQECCycle implements execute_qec_cycle_gpu: prepares the Steane
// logical zero state and returns its syndrome under stabilizers.
func (d *Driver) ExecuteQECCycle(gpuIndex int, stabilizers []int) ([]bool, error) {
	sim, err := d.quantumSim(gpuIndex)
	if err != nil {
		return nil, err
	}
	s, err := quantum.SteaneZeroState()
	if err != nil {
		return nil, d.fail(err)
	}
	sim.Quantum = s
	return s.SyndromeExtraction(stabilizers), nil
}

// ExecuteShor implements execute_shor_gpu: runs phase-estimation-based
// period finding for each candidate witness base until one yields a
// non-trivial factor of N (§4.9 algorithm primitives, composed).
func (d *Driver) ExecuteShor(gpuIndex int, n uint64, candidates []uint64) (quantum.ShorResult, error) {
	if _, err := d.quantumSim(gpuIndex); err != nil {
		return quantum.ShorResult{}, err
	}
	expQubits := quantum.RequiredExponentQubits(n)
	resQubits := quantum.RequiredExponentQubits(n) / 2
	if resQubits < 1 {
		resQubits = 1
	}
	res, err := quantum.ShorFactor(n, expQubits, resQubits, candidates)
	if err != nil {
		return quantum.ShorResult{}, d.fail(err)
	}
	return res, nil
}

// ExecuteQuantumEchoOTOC implements execute_quantum_echoes_otoc_gpu.
func (d *Driver) ExecuteQuantumEchoOTOC(gpuIndex int, u, w, v []quantum.Gate, otoc bool) (quantum.EchoResult, error) {
	sim, err := d.quantumSim(gpuIndex)
	if err != nil {
		return quantum.EchoResult{}, err
	}
	if sim.Quantum == nil {
		return quantum.EchoResult{}, d.fail(core.NewError(core.KindValidation, "no quantum state uploaded", core.ErrNotInitialized, 0))
	}
	return quantum.RunEchoOTOC(sim.Quantum, u, w, v, otoc), nil
}
