package quantum

import "math"

// ShorResult is what ShorFactor returns: the two non-trivial factors it
// found (if any), the witness base a, and the period it measured.
type ShorResult struct {
	Factor1, Factor2 uint64
	Witness          uint64
	Period           uint64
	Found            bool
}

// ShorPeriodCircuit builds the phase-estimation circuit for a^x mod N: an
// exponent register of expQubits in equal superposition, ModExp into a
// resQubits result register, then InverseQFT back on the exponent register
// (§4.9's modular exponentiation + inverse QFT primitives, composed).
func ShorPeriodCircuit(a, modN uint64, expQubits, resQubits int) (*State, error) {
	s, err := NewZero(expQubits + resQubits)
	if err != nil {
		return nil, err
	}
	for q := 0; q < expQubits; q++ {
		s.ApplyHadamard(q)
	}
	s.ModExp(a, modN, 0, expQubits, expQubits, expQubits+resQubits)
	s.InverseQFT(0, expQubits)
	return s, nil
}

// SampleExponentRegister collapses to the most probable exponent-register
// value, standing in for a measurement shot (the driver has no RNG/sampling
// dependency of its own to draw a weighted sample).
func SampleExponentRegister(s *State, expQubits int) int {
	expMask := (1 << uint(expQubits)) - 1
	probs := s.Probabilities()
	best, bestP := 0, -1.0
	for idx, p := range probs {
		reading := idx & expMask
		if p > bestP {
			bestP = p
			best = reading
		}
	}
	return best
}

// continuedFractionPeriod recovers a candidate period r from a phase
// measurement y/2^expQubits via the standard continued-fraction expansion,
// capped so the convergent denominator stays below N.
func continuedFractionPeriod(y uint64, expQubits int, modN uint64) uint64 {
	if y == 0 {
		return 0
	}
	r0, r1 := y, uint64(1)<<uint(expQubits)
	var qPrev, qCur uint64 = 1, 0
	for r1 != 0 {
		a := r0 / r1
		r0, r1 = r1, r0%r1
		qPrev, qCur = qCur, a*qCur+qPrev
		if qCur >= modN {
			break
		}
	}
	return qCur
}

func gcdUint64(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ShorFactor implements execute_shor_gpu: finds a non-trivial factor of N by
// running phase estimation for witness bases drawn from candidates, then
// applying the classical period->factor reduction (§4.9's algorithm
// primitives, composed into the full routine — N must be odd and composite).
func ShorFactor(N uint64, expQubits, resQubits int, candidates []uint64) (ShorResult, error) {
	for _, a := range candidates {
		if a < 2 || a >= N {
			continue
		}
		if g := gcdUint64(a, N); g != 1 {
			return ShorResult{Factor1: g, Factor2: N / g, Witness: a, Found: true}, nil
		}

		s, err := ShorPeriodCircuit(a, N, expQubits, resQubits)
		if err != nil {
			return ShorResult{}, err
		}
		y := SampleExponentRegister(s, expQubits)
		r := continuedFractionPeriod(uint64(y), expQubits, N)
		if r == 0 || r%2 != 0 {
			continue
		}
		half := modPow(a, uint64(r)/2, N)
		if half == N-1 || half == 1 {
			continue
		}
		f1 := gcdUint64(half-1, N)
		f2 := gcdUint64(half+1, N)
		if f1 > 1 && f1 < N {
			return ShorResult{Factor1: f1, Factor2: N / f1, Witness: a, Period: r, Found: true}, nil
		}
		if f2 > 1 && f2 < N {
			return ShorResult{Factor1: f2, Factor2: N / f2, Witness: a, Period: r, Found: true}, nil
		}
	}
	return ShorResult{}, nil
}

// RequiredExponentQubits returns the smallest register width satisfying the
// usual phase-estimation precision bound 2^n >= N^2.
func RequiredExponentQubits(N uint64) int {
	threshold := float64(N) * float64(N)
	n := 1
	for math.Pow(2, float64(n)) < threshold {
		n++
	}
	return n
}
