package quantum

// Profile is the "last echo profile" struct of §4.9: gate/launch/byte
// counters accumulated across a sequence application, exported to callers
// (and, at the ABI layer, to get_last_quantum_echo_profile).
type Profile struct {
	SingleQubitGates int
	TwoQubitGates    int
	ThreeQubitGates  int
	FusedGroups      int
	Enqueues         int
	BytesTouched     int64
}

const bytesPerAmp = 8 // complex64: 2 x float32

// ApplySequenceProfiled runs ApplySequence but additionally tallies gate
// counts, fused-group count, and bytes touched (dim*sizeof(complex64)) into
// a Profile (§4.9).
func (s *State) ApplySequenceProfiled(seq []Gate) Profile {
	fused := fuseSequence(seq)
	p := Profile{
		FusedGroups: len(seq) - len(fused),
	}
	dim := int64(s.Dim())
	for _, g := range fused {
		m := g.Matrix()
		if g.Control >= 0 {
			s.ApplyControlledGate(m, g.Control, g.Target)
			p.TwoQubitGates++
		} else {
			s.ApplyGate(m, g.Target)
			p.SingleQubitGates++
		}
		p.Enqueues++
		p.BytesTouched += dim * bytesPerAmp
	}
	return p
}
