package quantum

// EchoResult holds the readouts of the echo / OTOC(2) protocol (§4.9).
type EchoResult struct {
	L          float64 // |alpha_0|^2 after U . W . U^dagger
	OTOC2Re    float64
	OTOC2Im    float64
	OTOCEnable bool
}

// RunEchoOTOC implements §4.9's echo/OTOC(2) protocol starting from s
// (mutated in place for the echo readout). If otoc is true, a second run
// starting from a clone of the original s applies the full
// U -> W -> U^dagger -> V -> U -> W^dagger -> U^dagger -> V^dagger sequence
// and reads amplitude 0 for Re/Im(OTOC2); s itself is left at the post-echo
// state either way.
func RunEchoOTOC(s *State, u, w, v []Gate, otoc bool) EchoResult {
	var initial *State
	if otoc {
		initial = s.Clone()
	}

	s.ApplySequence(u)
	s.ApplySequence(w)
	s.ApplySequenceDagger(u)
	alpha0 := s.Amps[0]
	res := EchoResult{L: real(alpha0)*real(alpha0) + imag(alpha0)*imag(alpha0)}

	if otoc {
		t := initial
		t.ApplySequence(u)
		t.ApplySequence(w)
		t.ApplySequenceDagger(u)
		t.ApplySequence(v)
		t.ApplySequence(u)
		t.ApplySequenceDagger(w)
		t.ApplySequenceDagger(u)
		t.ApplySequenceDagger(v)
		a := t.Amps[0]
		res.OTOC2Re = real(a)
		res.OTOC2Im = imag(a)
		res.OTOCEnable = true
	}
	return res
}
