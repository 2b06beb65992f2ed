package quantum

import "math"

// PauliTerm is a weighted tensor-product Pauli-Z observable used by the
// host-side VQE/QAOA cost evaluation: weight * prod_i Z_i for i in Qubits,
// i.e. a Z-mask term (§4.9 restricts the sampled Hamiltonian to diagonal
// Z/ZZ terms, which is sufficient for the parameter-shift scenarios).
type PauliTerm struct {
	Weight float64
	Mask   int
}

// Hamiltonian is a sum of PauliTerm.
type Hamiltonian []PauliTerm

// Expectation evaluates sum_i term.Weight * <psi|Z^mask|psi>.
func (h Hamiltonian) Expectation(s *State) float64 {
	var e float64
	for _, term := range h {
		e += term.Weight * s.PauliZExpectation(term.Mask)
	}
	return e
}

// VQEAnsatz runs the hardware-efficient ansatz of §4.9: per layer, RY(theta)
// then RZ(theta) per qubit, then a CNOT chain with wrap, starting from |0...0>
// (§4.9 names no initial layer beyond the per-layer RY/RZ/CNOT sequence).
// params is laid out [layer][qubit][ry,rz], length = layers*numQubits*2.
// Returns a validation error instead of panicking when numQubits is out of
// range (§7): numQubits here is caller-supplied all the way from the ABI, so
// it must refuse, not crash the process.
func VQEAnsatz(numQubits, layers int, params []float64) (*State, error) {
	s, err := NewZero(numQubits)
	if err != nil {
		return nil, err
	}
	applyAnsatzLayers(s, numQubits, layers, params)
	return s, nil
}

func applyAnsatzLayers(s *State, numQubits, layers int, params []float64) {
	idx := 0
	for l := 0; l < layers; l++ {
		for q := 0; q < numQubits; q++ {
			ry := params[idx]
			rz := params[idx+1]
			idx += 2
			s.ApplyGate(Gate{Axis: AxisY, Theta: ry}.Matrix(), q)
			s.ApplyGate(Gate{Axis: AxisZ, Theta: rz}.Matrix(), q)
		}
		for q := 0; q < numQubits; q++ {
			s.ApplyCNOT(q, (q+1)%numQubits)
		}
	}
}

// VQEEnergy runs the ansatz and evaluates H's expectation.
func VQEEnergy(numQubits, layers int, params []float64, h Hamiltonian) (float64, error) {
	s, err := VQEAnsatz(numQubits, layers, params)
	if err != nil {
		return 0, err
	}
	return h.Expectation(s), nil
}

// VQEParameterShiftGradients computes per-parameter gradients via the
// parameter-shift rule (§4.9): dE/dtheta_i = 0.5*(E(theta+pi/2*e_i) -
// E(theta-pi/2*e_i)). One independent ansatz evaluation per parameter,
// mirroring the "per work-item runs the full ansatz into its own slice"
// batched-kernel contract.
func VQEParameterShiftGradients(numQubits, layers int, params []float64, h Hamiltonian) ([]float64, error) {
	grads := make([]float64, len(params))
	shifted := make([]float64, len(params))
	copy(shifted, params)
	for i := range params {
		orig := shifted[i]
		shifted[i] = orig + math.Pi/2
		ePlus, err := VQEEnergy(numQubits, layers, shifted, h)
		if err != nil {
			return nil, err
		}
		shifted[i] = orig - math.Pi/2
		eMinus, err := VQEEnergy(numQubits, layers, shifted, h)
		if err != nil {
			return nil, err
		}
		shifted[i] = orig
		grads[i] = 0.5 * (ePlus - eMinus)
	}
	return grads, nil
}

// QAOACost applies the QAOA cost unitary exp(-i*gamma*H) for a diagonal
// Z/ZZ-mask Hamiltonian by phasing each basis amplitude directly (the
// diagonal operator commutes with basis projection, so no gate decomposition
// is needed on the host).
func QAOACost(s *State, h Hamiltonian, gamma float64) {
	phase := make([]complex128, len(s.Amps))
	for idx := range s.Amps {
		var energy float64
		for _, term := range h {
			sign := 1.0
			if onesCountParity(idx & term.Mask) {
				sign = -1
			}
			energy += term.Weight * sign
		}
		phase[idx] = complex(math.Cos(-gamma*energy), math.Sin(-gamma*energy))
	}
	for idx := range s.Amps {
		s.Amps[idx] *= phase[idx]
	}
}

func onesCountParity(v int) bool {
	parity := 0
	for v != 0 {
		parity ^= v & 1
		v >>= 1
	}
	return parity == 1
}

// QAOAMixer applies the transverse-field mixer exp(-i*beta*X) on every
// qubit (§4.9 QAOA cost/mixer).
func QAOAMixer(s *State, beta float64) {
	for q := 0; q < s.NumQubits; q++ {
		s.ApplyGate(Gate{Axis: AxisX, Theta: 2 * beta}.Matrix(), q)
	}
}

// QAOARun applies p alternating cost/mixer layers starting from |+>^n.
// Returns a validation error instead of panicking when numQubits is out of
// range (§7), matching VQEAnsatz: numQubits reaches here straight from the
// ABI's caller-supplied argument.
func QAOARun(numQubits int, h Hamiltonian, gammas, betas []float64) (*State, error) {
	s, err := NewZero(numQubits)
	if err != nil {
		return nil, err
	}
	s.ApplyHadamardAll()
	for p := range gammas {
		QAOACost(s, h, gammas[p])
		QAOAMixer(s, betas[p])
	}
	return s, nil
}
