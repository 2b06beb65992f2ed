package quantum

// GroverSearch runs the standard Grover iteration: start from |+>^n,
// repeat `iterations` times (oracle phase-flip on (idx&mask)==value,
// then diffusion) (§4.9).
func GroverSearch(numQubits, iterations, mask, value int) (*State, error) {
	s, err := NewZero(numQubits)
	if err != nil {
		return nil, err
	}
	s.ApplyHadamardAll()
	for i := 0; i < iterations; i++ {
		s.ApplyPhaseFlipMask(mask, value)
		s.GroverDiffusion()
	}
	return s, nil
}

// MostProbable returns the basis index with the largest probability and its
// probability, for reading out a Grover search result.
func (s *State) MostProbable() (int, float64) {
	best, bestP := 0, -1.0
	for idx, p := range s.Probabilities() {
		if p > bestP {
			best, bestP = idx, p
		}
	}
	return best, bestP
}
