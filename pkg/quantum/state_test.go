package quantum

import (
	"math"
	"testing"
)

func TestNewZeroStartsAtGroundState(t *testing.T) {
	s, err := NewZero(3)
	if err != nil {
		t.Fatal(err)
	}
	if s.Dim() != 8 {
		t.Fatalf("dim = %d, want 8", s.Dim())
	}
	if !s.CheckNorm1(1e-9) {
		t.Fatalf("ground state should be normalized")
	}
	if real(s.Amps[0]) != 1 {
		t.Fatalf("amps[0] = %v, want 1", s.Amps[0])
	}
}

func TestNewZeroRejectsInvalidQubitCount(t *testing.T) {
	if _, err := NewZero(0); err == nil {
		t.Fatal("expected error for 0 qubits")
	}
	if _, err := NewZero(31); err == nil {
		t.Fatal("expected error for too many qubits")
	}
}

// TestQuantumNormPreservedUnderGateSequence is §8's "Quantum norm" property:
// |1-||psi||^2| < 1e-3 for any sequence of unitary gates.
func TestQuantumNormPreservedUnderGateSequence(t *testing.T) {
	s, err := NewZero(3)
	if err != nil {
		t.Fatal(err)
	}
	seq := []Gate{
		{Axis: AxisY, Theta: 0.3, Target: 0, Control: -1},
		{Axis: AxisZ, Theta: 1.1, Target: 1, Control: -1},
		{Axis: AxisX, Theta: math.Pi, Target: 1, Control: 0},
		{Axis: AxisX, Theta: 0.7, Target: 2, Control: -1},
	}
	s.ApplySequence(seq)
	if !s.CheckNorm1(1e-3) {
		t.Fatalf("norm not preserved: norm2=%v", s.Norm2())
	}
}

func TestHadamardProducesEqualSuperposition(t *testing.T) {
	s, _ := NewZero(2)
	s.ApplyHadamardAll()
	probs := s.Probabilities()
	for i, p := range probs {
		if math.Abs(p-0.25) > 1e-9 {
			t.Fatalf("probs[%d] = %v, want 0.25", i, p)
		}
	}
}

func TestCNOTFlipsTargetWhenControlSet(t *testing.T) {
	s, _ := NewZero(2)
	s.ApplyGate(Gate{Axis: AxisX, Theta: math.Pi}.Matrix(), 0) // |01> in little-endian qubit0
	s.ApplyCNOT(0, 1)
	probs := s.Probabilities()
	if probs[3] < 1-1e-9 {
		t.Fatalf("expected |11> with prob ~1, got probs=%v", probs)
	}
}

// TestAdjointLaw is §8's "Adjoint law": applying seq then its dagger returns
// the original state.
func TestAdjointLaw(t *testing.T) {
	s, _ := NewZero(3)
	orig := s.Clone()
	seq := []Gate{
		{Axis: AxisY, Theta: 0.4, Target: 0, Control: -1},
		{Axis: AxisZ, Theta: 0.9, Target: 2, Control: -1},
		{Axis: AxisX, Theta: math.Pi, Target: 1, Control: 0},
	}
	s.ApplySequence(seq)
	s.ApplySequenceDagger(seq)
	for i := range s.Amps {
		d := s.Amps[i] - orig.Amps[i]
		if real(d)*real(d)+imag(d)*imag(d) > 1e-12 {
			t.Fatalf("adjoint law violated at idx %d: got %v want %v", i, s.Amps[i], orig.Amps[i])
		}
	}
}

// TestGateFusionLaw is §8's "Gate fusion law": two adjacent same-axis
// rotations by theta1, theta2 on the same target fuse to one rotation by
// theta1+theta2, and a pair of identical Paulis cancels.
func TestGateFusionLaw(t *testing.T) {
	seq := []Gate{
		{Axis: AxisZ, Theta: 0.3, Target: 0, Control: -1},
		{Axis: AxisZ, Theta: 0.5, Target: 0, Control: -1},
	}
	fused := fuseSequence(seq)
	if len(fused) != 1 {
		t.Fatalf("expected fusion to one gate, got %d", len(fused))
	}
	if math.Abs(fused[0].Theta-0.8) > 1e-12 {
		t.Fatalf("fused theta = %v, want 0.8", fused[0].Theta)
	}

	cancel := []Gate{
		{Axis: AxisX, Theta: math.Pi, Target: 1, Control: -1},
		{Axis: AxisX, Theta: math.Pi, Target: 1, Control: -1},
	}
	fusedCancel := fuseSequence(cancel)
	if len(fusedCancel) != 0 {
		t.Fatalf("expected cancellation to identity, got %d gates", len(fusedCancel))
	}
}

func TestSwapExchangesAmplitudes(t *testing.T) {
	s, _ := NewZero(2)
	s.ApplyGate(Gate{Axis: AxisX, Theta: math.Pi}.Matrix(), 0)
	s.ApplySwap(0, 1)
	probs := s.Probabilities()
	if probs[2] < 1-1e-9 {
		t.Fatalf("expected |10> after swap, probs=%v", probs)
	}
}

func TestModExp(t *testing.T) {
	s, _ := NewZero(5) // 2 exponent qubits [0,2), 3 result qubits [2,5)
	s.Amps[0] = 0
	// prepare uniform superposition over exponent register x in {0,1,2,3},
	// result register at 0.
	for x := 0; x < 4; x++ {
		s.Amps[x] = complex(0.5, 0)
	}
	s.ModExp(2, 5, 0, 2, 2, 5)
	if !s.CheckNorm1(1e-6) {
		t.Fatalf("modexp should preserve norm: %v", s.Norm2())
	}
	// 2^0 mod 5=1, 2^1 mod5=2, 2^2 mod5=4, 2^3 mod5=3
	want := []int{1, 2, 4, 3}
	for x, r := range want {
		idx := x | (r << 2)
		if real(s.Amps[idx]) < 0.49 {
			t.Fatalf("amp at x=%d r=%d too small: %v", x, r, s.Amps[idx])
		}
	}
}

func TestInverseQFTOnGroundStatePreservesNorm(t *testing.T) {
	s, _ := NewZero(3)
	s.InverseQFT(0, 3)
	if !s.CheckNorm1(1e-9) {
		t.Fatalf("norm not preserved by iQFT")
	}
}

func TestGroverFindsMarkedState(t *testing.T) {
	s, err := GroverSearch(5, 4, 0x1F, 0b10110)
	if err != nil {
		t.Fatal(err)
	}
	idx, p := s.MostProbable()
	if idx != 0b10110 {
		t.Fatalf("most probable index = %b, want %b", idx, 0b10110)
	}
	if p <= 0.95 {
		t.Fatalf("probability = %v, want > 0.95", p)
	}
}

// TestVQEParameterShiftMatchesCentralDifference is §8's "VQE
// parameter-shift" property, checked against the scenario in §8 #5:
// num_qubits=2, layers=1, H = -Z0 - Z1 + 0.5*Z0Z1.
func TestVQEParameterShiftMatchesCentralDifference(t *testing.T) {
	h := Hamiltonian{
		{Weight: -1, Mask: 0b01},
		{Weight: -1, Mask: 0b10},
		{Weight: 0.5, Mask: 0b11},
	}
	params := []float64{0.1, 0.2, 0.3, 0.4}
	grads, err := VQEParameterShiftGradients(2, 1, params, h)
	if err != nil {
		t.Fatal(err)
	}

	const eps = 1e-4
	for i := range params {
		shifted := make([]float64, len(params))
		copy(shifted, params)
		shifted[i] = params[i] + eps
		ePlus, err := VQEEnergy(2, 1, shifted, h)
		if err != nil {
			t.Fatal(err)
		}
		shifted[i] = params[i] - eps
		eMinus, err := VQEEnergy(2, 1, shifted, h)
		if err != nil {
			t.Fatal(err)
		}
		centralDiff := (ePlus - eMinus) / (2 * eps)
		if math.Abs(grads[i]-centralDiff) > 1e-3 {
			t.Fatalf("grad[%d] = %v, central diff = %v", i, grads[i], centralDiff)
		}
	}
}

func TestQAOARunPreservesNorm(t *testing.T) {
	h := Hamiltonian{{Weight: 1, Mask: 0b11}}
	s, err := QAOARun(2, h, []float64{0.3, 0.4}, []float64{0.2, 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if !s.CheckNorm1(1e-9) {
		t.Fatalf("QAOA state not normalized: %v", s.Norm2())
	}
}

func TestHHLPrepareBNormalizes(t *testing.T) {
	s, _ := NewZero(4)
	if err := s.PrepareB([]float64{3, 4}, 0); err != nil {
		t.Fatal(err)
	}
	if math.Abs(real(s.Amps[0])-0.6) > 1e-9 {
		t.Fatalf("amps[0] = %v, want 0.6", s.Amps[0])
	}
	if math.Abs(real(s.Amps[1])-0.8) > 1e-9 {
		t.Fatalf("amps[1] = %v, want 0.8", s.Amps[1])
	}
}

func TestHHLPrepareBRejectsZeroVector(t *testing.T) {
	s, _ := NewZero(2)
	if err := s.PrepareB([]float64{0, 0}, 0); err == nil {
		t.Fatal("expected error for zero vector")
	}
}

func TestSteaneZeroStateIsNormalized(t *testing.T) {
	s, err := SteaneZeroState()
	if err != nil {
		t.Fatal(err)
	}
	if !s.CheckNorm1(1e-9) {
		t.Fatalf("Steane zero state not normalized: %v", s.Norm2())
	}
}

func TestQMLFeatureMapNormalized(t *testing.T) {
	s, err := QMLFeatureMap([]float64{0.1, 0.2, 0.3})
	if err != nil {
		t.Fatal(err)
	}
	if !s.CheckNorm1(1e-9) {
		t.Fatalf("feature map state not normalized: %v", s.Norm2())
	}
}

func TestApplySequenceProfiledCountsGatesAndBytes(t *testing.T) {
	s, _ := NewZero(3)
	seq := []Gate{
		{Axis: AxisY, Theta: 0.1, Target: 0, Control: -1},
		{Axis: AxisY, Theta: 0.2, Target: 0, Control: -1}, // fuses with the above
		{Axis: AxisX, Theta: math.Pi, Target: 1, Control: 0},
	}
	p := s.ApplySequenceProfiled(seq)
	if p.FusedGroups != 1 {
		t.Fatalf("FusedGroups = %d, want 1", p.FusedGroups)
	}
	if p.SingleQubitGates != 1 || p.TwoQubitGates != 1 {
		t.Fatalf("gate counts = %+v, want 1 single, 1 two-qubit", p)
	}
	if p.BytesTouched != int64(s.Dim())*bytesPerAmp*int64(p.Enqueues) {
		t.Fatalf("bytes touched mismatch: %+v", p)
	}
}

func TestRunEchoOTOCReadsAmplitudeZero(t *testing.T) {
	s, _ := NewZero(2)
	u := []Gate{{Axis: AxisY, Theta: 0.3, Target: 0, Control: -1}}
	w := []Gate{{Axis: AxisX, Theta: 0.2, Target: 1, Control: -1}}
	v := []Gate{{Axis: AxisZ, Theta: 0.1, Target: 0, Control: -1}}

	res := RunEchoOTOC(s, u, w, v, true)
	if res.L < 0 || res.L > 1 {
		t.Fatalf("L out of [0,1] range: %v", res.L)
	}
	if !res.OTOCEnable {
		t.Fatalf("expected OTOC enabled result")
	}
}

func TestSyndromeExtractionDetectsNoErrorOnCodeword(t *testing.T) {
	s, err := SteaneZeroState()
	if err != nil {
		t.Fatal(err)
	}
	// The encoder's Z-type checks (Z0Z1Z3, Z0Z2Z4, Z1Z2Z5) read +1 (no
	// trigger) on an unperturbed codeword.
	stabilizers := []int{0b0001011, 0b0010101, 0b0100110}
	triggered := s.SyndromeExtraction(stabilizers)
	for i, tr := range triggered {
		if tr {
			t.Fatalf("stabilizer %d (mask %07b) triggered on the unperturbed codeword", i, stabilizers[i])
		}
	}
}
