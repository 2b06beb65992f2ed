package quantum

// SteaneZeroState builds the 7-qubit Steane code's logical |0_L> by encoding
// it with the code's stabilizer-generating circuit (§4.9 Steane-7 zero-state).
// The host reference here prepares the equal superposition over the code's
// 8 codewords via the standard encoder: H on the 3 redundancy qubits
// followed by the Steane parity-check CNOT pattern.
func SteaneZeroState() (*State, error) {
	s, err := NewZero(7)
	if err != nil {
		return nil, err
	}
	for _, q := range []int{0, 1, 2} {
		s.ApplyHadamard(q)
	}
	// X-stabilizer generators of the Steane code, applied as CNOT fan-out
	// from the three Hadamard'd qubits to fix up the remaining four.
	cnots := [][2]int{{0, 3}, {0, 4}, {1, 3}, {1, 5}, {2, 4}, {2, 5}, {0, 6}, {1, 6}, {2, 6}}
	for _, c := range cnots {
		s.ApplyCNOT(c[0], c[1])
	}
	return s, nil
}

// SyndromeExtraction measures a set of stabilizer Z-masks against the state
// by computing the parity expectation per stabilizer (§4.9 QEC syndrome
// extraction): a non-zero expectation close to -1 flags a triggered
// syndrome bit under the convention that +1 means "no error detected".
func (s *State) SyndromeExtraction(stabilizers []int) []bool {
	triggered := make([]bool, len(stabilizers))
	for i, mask := range stabilizers {
		triggered[i] = s.PauliZExpectation(mask) < 0
	}
	return triggered
}
