package subqg

import "math"

// Diffusion coefficients (§4.4).
const (
	diffEnergy      = 0.10
	diffPressure    = 0.08
	diffGravity     = 0.02
	diffMagnetism   = 0.03
	diffTemperature = 0.05
	diffPotential   = 0.04

	// Cross-coupling coefficients. The spec names the couplings
	// (E->P, E->T, V->G, (P+G)->V, |drift|->M) without giving exact
	// constants ("the coefficients in the source"); this driver uses one
	// small shared coupling gain, matching the source's intent of a gentle
	// secondary influence relative to each field's own diffusion term.
	couplingGain = 0.05

	driftRetain = 0.95
	driftGain   = 0.05

	phaseNoiseGain = 0.2

	// interference = 0.5E + 0.3P + 0.2T vs thresholds at 33%/66% of the
	// [-1,1] headroom.
	interferenceLow  = -1 + 0.33*2
	interferenceHigh = -1 + 0.66*2
)

// Step runs one tick of the SubQG field engine directly on the host slices,
// per the algorithmic contract in §4.4. It requires external or internal RNG
// to already be populated in RNGEnergy/RNGPhase/RNGSpin (Step populates them
// itself when s.Deterministic and no external arrays are supplied).
//
// Returns an error only when external RNG is required but absent and the
// engine is not in deterministic mode (§4.4: "otherwise refuse").
func (s *State) Step(externalRNGE, externalRNGP, externalRNGS []float32) error {
	if externalRNGE != nil {
		copy(s.RNGEnergy, externalRNGE)
		copy(s.RNGPhase, externalRNGP)
		copy(s.RNGSpin, externalRNGS)
	} else if s.Deterministic {
		s.fillDeterministic()
	} else {
		return errNoRNG
	}

	nextEnergy := make([]float32, s.C)
	nextPressure := make([]float32, s.C)
	nextGravity := make([]float32, s.C)
	nextMagnetism := make([]float32, s.C)
	nextTemperature := make([]float32, s.C)
	nextPotential := make([]float32, s.C)
	nextDriftX := make([]float32, s.C)
	nextDriftY := make([]float32, s.C)
	nextPhase := make([]float32, s.C)

	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			i := y*s.W + x

			lapE := s.laplacian(s.Energy, x, y)
			lapP := s.laplacian(s.Pressure, x, y)
			lapG := s.laplacian(s.Gravity, x, y)
			lapM := s.laplacian(s.Magnetism, x, y)
			lapT := s.laplacian(s.Temperature, x, y)
			lapV := s.laplacian(s.Potential, x, y)

			e := s.Energy[i] + diffEnergy*lapE + s.NoiseLevel*s.NoiseFactor*s.RNGEnergy[i]
			p := s.Pressure[i] + diffPressure*lapP + couplingGain*s.Energy[i]
			t := s.Temperature[i] + diffTemperature*lapT + couplingGain*s.Energy[i]
			g := s.Gravity[i] + diffGravity*lapG + couplingGain*s.Potential[i]
			v := s.Potential[i] + diffPotential*lapV + couplingGain*(s.Pressure[i]+s.Gravity[i])

			dx := driftRetain*s.DriftX[i] + driftGain*s.gradX(s.Energy, x, y)
			dy := driftRetain*s.DriftY[i] + driftGain*s.gradY(s.Energy, x, y)
			driftMag := float32(math.Hypot(float64(dx), float64(dy)))
			m := s.Magnetism[i] + diffMagnetism*lapM + couplingGain*driftMag

			nextEnergy[i] = clamp1(e)
			nextPressure[i] = clamp1(p)
			nextGravity[i] = clamp1(g)
			nextMagnetism[i] = clamp1(m)
			nextTemperature[i] = clamp1(t)
			nextPotential[i] = clamp1(v)
			nextDriftX[i] = dx
			nextDriftY[i] = dy

			phi := clamp1(s.Phase[i])
			nextPhase[i] = float32(math.Sin(math.Asin(float64(phi)) + float64(s.NoiseLevel*s.NoiseFactor*s.RNGPhase[i])*phaseNoiseGain))
		}
	}

	s.Energy, s.Pressure, s.Gravity, s.Magnetism, s.Temperature, s.Potential = nextEnergy, nextPressure, nextGravity, nextMagnetism, nextTemperature, nextPotential
	s.DriftX, s.DriftY, s.Phase = nextDriftX, nextDriftY, nextPhase

	for i := 0; i < s.C; i++ {
		interference := 0.5*s.Energy[i] + 0.3*s.Pressure[i] + 0.2*s.Temperature[i]
		s.Interference[i] = interference

		if interference > s.Threshold {
			s.NodeFlag[i] = 1
		} else {
			s.NodeFlag[i] = 0
		}

		switch {
		case interference < interferenceLow:
			s.Topology[i] = -1
		case interference > interferenceHigh:
			s.Topology[i] = 1
		default:
			s.Topology[i] = 0
		}

		if interference >= 0 {
			s.Spin[i] = 1
		} else {
			s.Spin[i] = -1
		}

		s.FieldMap[i] = clamp01((0.4*s.Energy[i] + 0.2*s.Pressure[i] + 0.2*s.Temperature[i] + 0.2*s.Potential[i] + 1) / 2)
	}

	return nil
}

// laplacian is the 5-point Laplacian with clamped (edge-repeat) boundary
// sampling (§4.4).
func (s *State) laplacian(field []float32, x, y int) float32 {
	c := field[y*s.W+x]
	l := field[y*s.W+clampInt(x-1, 0, s.W-1)]
	r := field[y*s.W+clampInt(x+1, 0, s.W-1)]
	u := field[clampInt(y-1, 0, s.H-1)*s.W+x]
	d := field[clampInt(y+1, 0, s.H-1)*s.W+x]
	return l + r + u + d - 4*c
}

func (s *State) gradX(field []float32, x, y int) float32 {
	r := field[y*s.W+clampInt(x+1, 0, s.W-1)]
	l := field[y*s.W+clampInt(x-1, 0, s.W-1)]
	return (r - l) / 2
}

func (s *State) gradY(field []float32, x, y int) float32 {
	d := field[clampInt(y+1, 0, s.H-1)*s.W+x]
	u := field[clampInt(y-1, 0, s.H-1)*s.W+x]
	return (d - u) / 2
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp1(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
