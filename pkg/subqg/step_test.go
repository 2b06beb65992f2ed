package subqg

import (
	"math"
	"testing"
)

// TestSubQGInvariants4x4 is the §8 concrete scenario 1: 4x4 grid, 10
// deterministic steps, expect no NaNs, field_map in [0,1], energy in [-1,1].
func TestSubQGInvariants4x4(t *testing.T) {
	s := New(4, 4, 0.01, 0.5, true, 42)
	for i := 0; i < 10; i++ {
		if err := s.Step(nil, nil, nil); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	for i := 0; i < s.C; i++ {
		if math.IsNaN(float64(s.Energy[i])) {
			t.Fatalf("energy[%d] is NaN", i)
		}
		if s.Energy[i] < -1 || s.Energy[i] > 1 {
			t.Fatalf("energy[%d] = %v out of [-1,1]", i, s.Energy[i])
		}
		if s.FieldMap[i] < 0 || s.FieldMap[i] > 1 {
			t.Fatalf("field_map[%d] = %v out of [0,1]", i, s.FieldMap[i])
		}
	}
}

// TestFieldBoundsAfterStep is the §8 "SubQG field bounds" property: after
// step, each of E,P,G,M,T,V is within [-1,1] per cell.
func TestFieldBoundsAfterStep(t *testing.T) {
	s := New(8, 8, 0.05, 0.4, true, 7)
	for i := 0; i < 5; i++ {
		if err := s.Step(nil, nil, nil); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	fields := map[string][]float32{
		"energy": s.Energy, "pressure": s.Pressure, "gravity": s.Gravity,
		"magnetism": s.Magnetism, "temperature": s.Temperature, "potential": s.Potential,
	}
	for name, f := range fields {
		for i, v := range f {
			if v < -1 || v > 1 {
				t.Fatalf("%s[%d] = %v out of [-1,1]", name, i, v)
			}
		}
	}
}

func TestStepRequiresRNGWhenNonDeterministic(t *testing.T) {
	s := New(4, 4, 0.01, 0.5, false, 1)
	if err := s.Step(nil, nil, nil); err == nil {
		t.Fatal("expected error when non-deterministic engine has no external RNG")
	}
}

func TestStepAcceptsExternalRNG(t *testing.T) {
	s := New(2, 2, 0.01, 0.5, false, 1)
	ext := make([]float32, s.C)
	if err := s.Step(ext, ext, ext); err != nil {
		t.Fatalf("unexpected error with external RNG supplied: %v", err)
	}
}

func TestDeterministicStepsAreReproducible(t *testing.T) {
	a := New(4, 4, 0.02, 0.5, true, 99)
	b := New(4, 4, 0.02, 0.5, true, 99)
	for i := 0; i < 3; i++ {
		a.Step(nil, nil, nil)
		b.Step(nil, nil, nil)
	}
	for i := 0; i < a.C; i++ {
		if a.Energy[i] != b.Energy[i] {
			t.Fatalf("deterministic engines diverged at cell %d: %v vs %v", i, a.Energy[i], b.Energy[i])
		}
	}
}
