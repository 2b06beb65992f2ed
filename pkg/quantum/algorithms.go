package quantum

import "math"

// ApplySwap swaps qubits a and b via an out-of-place temp buffer, then
// copies back (§4.9: SWAP likewise out-of-place).
func (s *State) ApplySwap(a, b int) {
	if a == b {
		return
	}
	maskA := 1 << uint(a)
	maskB := 1 << uint(b)
	tmp := make([]complex128, len(s.Amps))
	copy(tmp, s.Amps)
	for idx := range s.Amps {
		bitA := idx & maskA
		bitB := idx & maskB
		if (bitA != 0) == (bitB != 0) {
			continue
		}
		swapped := idx &^ maskA &^ maskB
		if bitB != 0 {
			swapped |= maskA
		}
		if bitA != 0 {
			swapped |= maskB
		}
		s.Amps[idx] = tmp[swapped]
	}
}

// ModExp applies |x>|0> -> |x>|a^x mod N> into a fresh out-of-place buffer
// over the qubit range [expLo,expHi) (exponent register) and [resLo,resHi)
// (result register), then copies back (§4.9 modular exponentiation).
func (s *State) ModExp(a, modN uint64, expLo, expHi, resLo, resHi int) {
	dim := s.Dim()
	out := make([]complex128, dim)
	expMask := 0
	for q := expLo; q < expHi; q++ {
		expMask |= 1 << uint(q)
	}
	resMask := 0
	for q := resLo; q < resHi; q++ {
		resMask |= 1 << uint(q)
	}
	for idx, amp := range s.Amps {
		if amp == 0 {
			continue
		}
		x := extractBits(idx, expLo, expHi)
		v := modPow(a, uint64(x), modN)
		newRes := int(v) << uint(resLo)
		target := (idx &^ resMask) | (newRes & resMask)
		out[target] += amp
	}
	s.Amps = out
}

func extractBits(idx, lo, hi int) int {
	return (idx >> uint(lo)) & ((1 << uint(hi-lo)) - 1)
}

func modPow(base, exp, mod uint64) uint64 {
	if mod == 1 {
		return 0
	}
	result := uint64(1)
	base = base % mod
	for exp > 0 {
		if exp&1 == 1 {
			result = (result * base) % mod
		}
		exp >>= 1
		base = (base * base) % mod
	}
	return result
}

// InverseQFT runs the standard H + controlled-phase sequence on a
// contiguous qubit range [lo,hi), then reverse-swaps (§4.9).
func (s *State) InverseQFT(lo, hi int) {
	for q := hi - 1; q >= lo; q-- {
		s.ApplyHadamard(q)
		for c := q - 1; c >= lo; c-- {
			k := q - c + 1
			theta := -math.Pi / math.Pow(2, float64(k-1))
			s.ApplyControlledPhase(c, q, theta)
		}
	}
	for i, j := lo, hi-1; i < j; i, j = i+1, j-1 {
		s.ApplySwap(i, j)
	}
}

// ApplyControlledPhase applies diag(1, e^{i theta}) on target, conditioned
// on control.
func (s *State) ApplyControlledPhase(control, target int, theta float64) {
	s.ApplyControlledGate(Mat2{1, 0, 0, complex(math.Cos(theta), math.Sin(theta))}, control, target)
}
