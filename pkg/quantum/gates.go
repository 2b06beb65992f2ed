package quantum

import "math"

// Mat2 is a dense 2x2 unitary matrix [[a,b],[c,d]].
type Mat2 [4]complex128

// GateAxis identifies a Pauli rotation axis for fusion/adjoint (§4.9).
type GateAxis int

const (
	AxisNone GateAxis = iota
	AxisX
	AxisY
	AxisZ
)

// Gate is one entry in a gate sequence: either a rotation by Theta about
// Axis on Target, a fixed Pauli (Theta=pi, Axis set), or a CNOT/controlled
// phase keyed by Control>=0.
type Gate struct {
	Axis    GateAxis
	Theta   float64
	Target  int
	Control int // -1 when uncontrolled
}

// Matrix returns the 2x2 unitary for a rotation gate about Axis by Theta.
func (g Gate) Matrix() Mat2 {
	c := complex(math.Cos(g.Theta/2), 0)
	s := math.Sin(g.Theta / 2)
	switch g.Axis {
	case AxisX:
		return Mat2{c, complex(0, -s), complex(0, -s), c}
	case AxisY:
		return Mat2{c, complex(-s, 0), complex(s, 0), c}
	case AxisZ:
		return Mat2{complex(math.Cos(-g.Theta/2), math.Sin(-g.Theta/2)), 0, 0, complex(math.Cos(g.Theta/2), math.Sin(g.Theta/2))}
	default:
		return Mat2{1, 0, 0, 1}
	}
}

// ApplyGate applies a 1-qubit gate on target t: 2^(n-1) work items touch
// amplitudes at base = blk*(2*stride)+off, stride=1<<t (§4.9).
func (s *State) ApplyGate(m Mat2, target int) {
	stride := 1 << uint(target)
	dim := s.Dim()
	for base := 0; base < dim; base += 2 * stride {
		for off := 0; off < stride; off++ {
			i0 := base + off
			i1 := i0 + stride
			a0, a1 := s.Amps[i0], s.Amps[i1]
			s.Amps[i0] = m[0]*a0 + m[1]*a1
			s.Amps[i1] = m[2]*a0 + m[3]*a1
		}
	}
}

// ApplyControlledGate applies m on target, conditioned on control bit being
// 1 (§4.9): only pair-indices with the control bit set are touched.
func (s *State) ApplyControlledGate(m Mat2, control, target int) {
	stride := 1 << uint(target)
	ctrlMask := 1 << uint(control)
	dim := s.Dim()
	for base := 0; base < dim; base += 2 * stride {
		for off := 0; off < stride; off++ {
			i0 := base + off
			i1 := i0 + stride
			if i0&ctrlMask == 0 {
				continue
			}
			a0, a1 := s.Amps[i0], s.Amps[i1]
			s.Amps[i0] = m[0]*a0 + m[1]*a1
			s.Amps[i1] = m[2]*a0 + m[3]*a1
		}
	}
}

// ApplyCNOT is the Pauli-X controlled gate.
func (s *State) ApplyCNOT(control, target int) {
	s.ApplyControlledGate(Mat2{0, 1, 1, 0}, control, target)
}

// ApplyHadamard applies H to target.
func (s *State) ApplyHadamard(target int) {
	inv := complex(1/math.Sqrt2, 0)
	s.ApplyGate(Mat2{inv, inv, inv, -inv}, target)
}

// ApplyHadamardAll applies H^(x)n across every qubit (§4.9 Grover diffusion).
func (s *State) ApplyHadamardAll() {
	for q := 0; q < s.NumQubits; q++ {
		s.ApplyHadamard(q)
	}
}

// ApplyPhaseFlipMask flips the sign of every basis state matching
// (idx & mask) == value (Grover oracle, §4.9).
func (s *State) ApplyPhaseFlipMask(mask, value int) {
	for idx := range s.Amps {
		if idx&mask == value {
			s.Amps[idx] = -s.Amps[idx]
		}
	}
}

// ApplyPhaseFlipExceptZero flips every amplitude except |0...0> (Grover
// diffusion's middle step, §4.9).
func (s *State) ApplyPhaseFlipExceptZero() {
	for idx := 1; idx < len(s.Amps); idx++ {
		s.Amps[idx] = -s.Amps[idx]
	}
}

// GroverDiffusion implements §4.9: H^n -> phase-flip-except-zero -> H^n.
func (s *State) GroverDiffusion() {
	s.ApplyHadamardAll()
	s.ApplyPhaseFlipExceptZero()
	s.ApplyHadamardAll()
}

// fuseSequence implements §4.9's peephole fusion: adjacent same-axis
// rotations on the same target are merged by adding angles; pairs of
// identical Pauli-X/Y/Z on the same target fold to identity.
func fuseSequence(seq []Gate) []Gate {
	out := make([]Gate, 0, len(seq))
	for _, g := range seq {
		if len(out) > 0 {
			last := &out[len(out)-1]
			if last.Axis == g.Axis && last.Target == g.Target && last.Control == g.Control {
				last.Theta += g.Theta
				if isMultipleOf2Pi(last.Theta) {
					out = out[:len(out)-1]
				}
				continue
			}
		}
		out = append(out, g)
	}
	return out
}

func isMultipleOf2Pi(theta float64) bool {
	const twoPi = 2 * math.Pi
	rem := math.Mod(theta, twoPi)
	if rem < 0 {
		rem += twoPi
	}
	return rem < 1e-9 || twoPi-rem < 1e-9
}

// ApplySequence runs gates in order after peephole fusion (§4.9).
func (s *State) ApplySequence(seq []Gate) {
	for _, g := range fuseSequence(seq) {
		m := g.Matrix()
		if g.Control >= 0 {
			s.ApplyControlledGate(m, g.Control, g.Target)
		} else {
			s.ApplyGate(m, g.Target)
		}
	}
}

// ApplySequenceDagger applies the adjoint of seq: reverse order, negate
// rotation angles (§4.9).
func (s *State) ApplySequenceDagger(seq []Gate) {
	rev := make([]Gate, len(seq))
	for i, g := range seq {
		ng := g
		ng.Theta = -g.Theta
		rev[len(seq)-1-i] = ng
	}
	s.ApplySequence(rev)
}
