package orchestrator

import (
	"testing"

	"github.com/mycelia-sim/ccdriver/pkg/agent"
	"github.com/mycelia-sim/ccdriver/pkg/bridge"
	"github.com/mycelia-sim/ccdriver/pkg/kernel"
	"github.com/mycelia-sim/ccdriver/pkg/mycel"
	"github.com/mycelia-sim/ccdriver/pkg/subqg"
	"github.com/mycelia-sim/ccdriver/pkg/core"
)

func buildOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	sq := subqg.NewEngine(4, 4, 0.01, 0.5, true, 42)
	my := mycel.New(16, 2, 4, 3)
	my.Init(16, 0.02, 0.05, 0.01)
	ag, err := agent.New(16, agent.Stride)
	if err != nil {
		t.Fatal(err)
	}
	n := 16
	neurons := &NeuronState{
		V: make([]float32, n), U: make([]float32, n), Current: make([]float32, n),
		Spikes: make([]uint8, n), LastSpikes: make([]uint8, n),
		Params: bridge.IzhikevichParams{
			A: fill(n, 0.02), B: fill(n, 0.2), C: fill(n, -65), D: fill(n, 8),
		},
		SocialWeights: make([]float32, n*n),
	}
	for i := range neurons.V {
		neurons.V[i] = -65
		neurons.U[i] = -13
	}
	en := kernel.NewEnqueuer(core.KernelConfig{})
	return New(sq, my, ag, neurons, en, true, 1)
}

func fill(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestRunCyclesCompletesAndReturnsToIdle(t *testing.T) {
	o := buildOrchestrator(t)
	completed, err := o.RunCycles(6, 1.0, 0.01, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed != 6 {
		t.Fatalf("completed = %d, want 6", completed)
	}
	if o.Phase() != PhaseIdle {
		t.Fatalf("orchestrator should return to Idle after RunCycles")
	}
}

func TestRunCyclesStopsOnAbort(t *testing.T) {
	o := buildOrchestrator(t)
	o.Enqueuer.RequestAbort()
	completed, err := o.RunCycles(10, 1.0, 0.01, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed != 0 {
		t.Fatalf("completed = %d, want 0 when aborted before first cycle", completed)
	}
}
