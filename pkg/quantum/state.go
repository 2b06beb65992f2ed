// Package quantum implements the dense state-vector simulator (§4.9):
// gate application/fusion/adjoint, VQE/QAOA/Grover host routines, and the
// echo/OTOC(2) protocol.
package quantum

import (
	"math"
	"math/bits"

	"github.com/mycelia-sim/ccdriver/pkg/core"
)

// State is a dense complex state-vector of dimension 2^n (§3 QuantumState).
type State struct {
	NumQubits int
	Amps      []complex128
}

// NewZero allocates a num-qubit state initialized to |0...0>.
func NewZero(numQubits int) (*State, error) {
	if numQubits <= 0 || numQubits > 30 {
		return nil, core.NewError(core.KindValidation, "invalid qubit count", core.ErrInvalidArgument, 0)
	}
	dim := 1 << uint(numQubits)
	amps := make([]complex128, dim)
	amps[0] = 1
	return &State{NumQubits: numQubits, Amps: amps}, nil
}

// Dim returns the Hilbert-space dimension 2^n.
func (s *State) Dim() int { return len(s.Amps) }

// Norm2 returns ||psi||^2.
func (s *State) Norm2() float64 {
	var sum float64
	for _, a := range s.Amps {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return sum
}

// CheckNorm1 is `quantum_check_norm1` (§8 quantum norm property, debug-build
// gated in the source): |1 - ||psi||^2| < eps.
func (s *State) CheckNorm1(eps float64) bool {
	return math.Abs(1-s.Norm2()) < eps
}

// Probabilities returns |amp|^2 per basis state (§4.9).
func (s *State) Probabilities() []float64 {
	out := make([]float64, len(s.Amps))
	for i, a := range s.Amps {
		out[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return out
}

// PauliZExpectation computes sign=(popcount(idx&mask)&1)?-1:1, accumulate
// sign*|amp|^2 (§4.9).
func (s *State) PauliZExpectation(mask int) float64 {
	var acc float64
	for idx, a := range s.Amps {
		p := real(a)*real(a) + imag(a)*imag(a)
		sign := 1.0
		if bits.OnesCount(uint(idx&mask))&1 == 1 {
			sign = -1
		}
		acc += sign * p
	}
	return acc
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	amps := make([]complex128, len(s.Amps))
	copy(amps, s.Amps)
	return &State{NumQubits: s.NumQubits, Amps: amps}
}
