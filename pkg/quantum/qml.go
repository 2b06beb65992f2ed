package quantum

// QMLFeatureMap encodes a classical feature vector into a quantum state via
// angle embedding: RY(pi*x_i) per qubit, then one layer of CNOT entanglers
// with wrap (§4.9 QML feature map; mirrors the VQE ansatz's entangling
// pattern since the spec gives no separate entangler for the classifier).
func QMLFeatureMap(features []float64) (*State, error) {
	numQubits := len(features)
	s, err := NewZero(numQubits)
	if err != nil {
		return nil, err
	}
	for q, x := range features {
		s.ApplyGate(Gate{Axis: AxisY, Theta: piTimes(x)}.Matrix(), q)
	}
	for q := 0; q < numQubits; q++ {
		s.ApplyCNOT(q, (q+1)%numQubits)
	}
	return s, nil
}

func piTimes(x float64) float64 {
	const pi = 3.14159265358979323846
	return pi * x
}

// QMLClassify runs the feature map then evaluates a diagonal-Z readout
// Hamiltonian, returning its expectation as the classifier's decision score.
func QMLClassify(features []float64, readout Hamiltonian) (float64, error) {
	s, err := QMLFeatureMap(features)
	if err != nil {
		return 0, err
	}
	return readout.Expectation(s), nil
}
