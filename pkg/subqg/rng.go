package subqg

// splitMix64 is the internal deterministic RNG state (§4.4: "rng_seed
// (splitmix64-compatible; non-zero fallback)").
type splitMix64 struct{ state uint64 }

func newSplitMix64(seed uint64) *splitMix64 {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &splitMix64{state: seed}
}

func (s *splitMix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// nextFloat01 returns a uniform float32 in [0, 1).
func (s *splitMix64) nextFloat01() float32 {
	return float32(s.next()>>11) / float32(1<<53)
}

// nextSigned returns a uniform float32 in [-1, 1).
func (s *splitMix64) nextSigned() float32 {
	return s.nextFloat01()*2 - 1
}

// fillDeterministic generates C values into each of the three RNG buffers
// from the internal splitmix64 state (§4.4: "if deterministic, generate from
// the internal state").
func (s *State) fillDeterministic() {
	for i := 0; i < s.C; i++ {
		s.RNGEnergy[i] = s.rng.nextSigned()
		s.RNGPhase[i] = s.rng.nextSigned()
		s.RNGSpin[i] = s.rng.nextSigned()
	}
}
