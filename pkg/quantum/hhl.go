package quantum

import "math"

// HHLBootstrap implements the host-side bootstrap step of the HHL routine
// (§4.9 execute_hhl_gpu): prepares |b> on the work register, then applies
// the controlled-rotation stage for a pre-diagonalized Hermitian A with
// eigenvalues lambdas (the full QPE stage is out of scope for the host
// reference path; the bootstrap exercises the rotation ancilla and the
// state layout the GPU kernel would populate).
type HHLBootstrap struct {
	Lambdas []float64 // eigenvalues of A, one per clock register basis state
	CScale  float64   // rotation scale constant (typically min(lambdas))
}

// PrepareB normalizes b into the work register's amplitudes (qubit 0 of a
// dedicated work register at offset workLo).
func (s *State) PrepareB(b []float64, workLo int) error {
	var norm float64
	for _, v := range b {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return ErrZeroVector
	}
	for i := range s.Amps {
		s.Amps[i] = 0
	}
	for i, v := range b {
		if i >= len(s.Amps) {
			break
		}
		idx := i << uint(workLo)
		s.Amps[idx] = complex(v/norm, 0)
	}
	return nil
}

// ApplyAncillaRotation applies the HHL controlled-rotation step: for each
// clock basis value k with eigenvalue lambda_k, rotate the ancilla qubit by
// angle 2*asin(clamp(C/lambda_k, -1, 1)) (§4.9 bootstrap).
func (s *State) ApplyAncillaRotation(boot HHLBootstrap, clockLo, clockHi, ancilla int) {
	clockMask := 0
	for q := clockLo; q < clockHi; q++ {
		clockMask |= 1 << uint(q)
	}
	ancillaMask := 1 << uint(ancilla)
	out := make([]complex128, len(s.Amps))
	for idx, amp := range s.Amps {
		if amp == 0 || idx&ancillaMask != 0 {
			continue
		}
		k := extractBits(idx, clockLo, clockHi)
		if k >= len(boot.Lambdas) || boot.Lambdas[k] == 0 {
			out[idx] += amp
			continue
		}
		ratio := boot.CScale / boot.Lambdas[k]
		if ratio > 1 {
			ratio = 1
		} else if ratio < -1 {
			ratio = -1
		}
		theta := 2 * math.Asin(ratio)
		cosv, sinv := math.Cos(theta/2), math.Sin(theta/2)
		one := idx | ancillaMask
		_ = clockMask
		out[idx] += complex(cosv, 0) * amp
		out[one] += complex(sinv, 0) * amp
	}
	s.Amps = out
}
