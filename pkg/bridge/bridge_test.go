package bridge

import "testing"

func TestCycleRun(t *testing.T) {
	c := &Cycle{SensoryGain: 2, MotorGain: 0.5}
	energy := []float32{0.5, -0.5}
	phase := []float32{0, 0}
	spikes := []uint8{1, 0}
	current := make([]float32, 2)
	nutrient := []float32{0, 1}
	activity := []float32{0, 1}

	c.Run(energy, phase, spikes, current, nutrient, activity)

	if current[0] != 1 || current[1] != 1 {
		t.Fatalf("neuron current = %v, want [1,1]", current)
	}
	if nutrient[0] != 0.05 {
		t.Fatalf("nutrient[0] = %v, want max(0, 0.1*0.5)=0.05", nutrient[0])
	}
	if nutrient[1] != 1 {
		t.Fatalf("nutrient[1] should stay at 1 (floor -0.05 < 1): got %v", nutrient[1])
	}
	if activity[0] != 0.5 {
		t.Fatalf("activity[0] should increment by motor_gain: got %v", activity[0])
	}
	if activity[1] != 0.95 {
		t.Fatalf("activity[1] should decay by x0.95: got %v", activity[1])
	}
}

func TestIzhikevichStepEmitsSpike(t *testing.T) {
	v := []float32{35}
	u := []float32{0}
	current := []float32{10}
	params := IzhikevichParams{A: []float32{0.02}, B: []float32{0.2}, C: []float32{-65}, D: []float32{8}}
	spikes := make([]uint8, 1)

	IzhikevichStep(v, u, current, params, spikes, 1.0, 30)

	if spikes[0] != 1 {
		t.Fatalf("expected a spike, got none; v=%v", v[0])
	}
	if v[0] != -65 {
		t.Fatalf("v should reset to c=-65, got %v", v[0])
	}
}

func TestIzhikevichStepNoSpikeBelowThreshold(t *testing.T) {
	v := []float32{-65}
	u := []float32{-13}
	current := []float32{0}
	params := IzhikevichParams{A: []float32{0.02}, B: []float32{0.2}, C: []float32{-65}, D: []float32{8}}
	spikes := make([]uint8, 1)

	IzhikevichStep(v, u, current, params, spikes, 1.0, 30)

	if spikes[0] != 0 {
		t.Fatalf("expected no spike at resting potential, got one; v=%v", v[0])
	}
}

func TestSocialHebbianUpdate(t *testing.T) {
	h := NewSocialHebbian()
	h.RowsPerChunk = 1
	n := 3
	weights := make([]float32, n*n)
	spikes := []float32{1, 0, 1}

	if err := h.Update(weights, spikes, 0.1, nil); err != nil {
		t.Fatal(err)
	}
	if weights[0*n+0] != 0.1 {
		t.Fatalf("weights[0,0] = %v, want 0.1", weights[0*n+0])
	}
	if weights[0*n+2] != 0.1 {
		t.Fatalf("weights[0,2] = %v, want 0.1", weights[0*n+2])
	}
	if weights[1*n+0] != 0 {
		t.Fatalf("weights[1,0] should stay 0 (spike[1]=0), got %v", weights[1*n+0])
	}
}

func TestSocialHebbianAbortsBetweenChunks(t *testing.T) {
	h := NewSocialHebbian()
	h.RowsPerChunk = 1
	n := 4
	weights := make([]float32, n*n)
	spikes := []float32{1, 1, 1, 1}

	calls := 0
	aborted := func() bool {
		calls++
		return calls > 1
	}
	if err := h.Update(weights, spikes, 1.0, aborted); err != nil {
		t.Fatal(err)
	}
	// Only the first chunk (row 0) should have been processed.
	for j := 0; j < n; j++ {
		if weights[0*n+j] == 0 {
			t.Fatalf("row 0 should have been updated before abort")
		}
	}
	for j := 0; j < n; j++ {
		if weights[1*n+j] != 0 {
			t.Fatalf("row 1 should not have been updated after abort")
		}
	}
}

func TestSocialHebbianRejectsOversizedMatrix(t *testing.T) {
	h := NewSocialHebbian()
	h.MaxBytes = 16 // tiny cap to force rejection
	n := 100
	weights := make([]float32, n*n)
	spikes := make([]float32, n)
	if err := h.Update(weights, spikes, 0.1, nil); err == nil {
		t.Fatal("expected error when matrix exceeds byte cap")
	}
}
