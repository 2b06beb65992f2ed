package agent

import (
	"math/rand"
	"testing"

	"github.com/mycelia-sim/ccdriver/pkg/subqg"
)

func TestNewRejectsSmallStride(t *testing.T) {
	if _, err := New(4, 128); err == nil {
		t.Fatal("expected error for stride < 256")
	}
}

func TestSwapAlternatesBuffers(t *testing.T) {
	p, err := New(2, Stride)
	if err != nil {
		t.Fatal(err)
	}
	in0 := p.In()
	out0 := p.Out()
	p.Swap()
	if p.In() == nil || &p.In()[0] == &in0[0] {
		t.Fatal("In() should change identity after Swap")
	}
	if &p.Out()[0] != &in0[0] {
		t.Fatal("old In buffer should become new Out buffer after Swap")
	}
	_ = out0
}

func TestSoftmaxSumsToOne(t *testing.T) {
	probs := softmax([]float32{1, 2, 3, 0.5})
	var sum float32
	for _, p := range probs {
		sum += p
		if p < 0 {
			t.Fatalf("negative probability %v", p)
		}
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("softmax sum = %v, want ~1", sum)
	}
}

func TestStepProducesBoundedPosition(t *testing.T) {
	p, err := New(4, Stride)
	if err != nil {
		t.Fatal(err)
	}
	field := subqg.New(8, 8, 0.01, 0.5, true, 5)
	field.Step(nil, nil, nil)

	in := p.In()
	for a := 0; a < p.Count; a++ {
		agent := p.Agent(in, a)
		agent[OffPosX], agent[OffPosY] = 0.5, 0.5
		agent[OffSpeed] = 0.1
	}

	rng := rand.New(rand.NewSource(1))
	p.Step(field, nil, 0.1, rng)

	out := p.Out()
	for a := 0; a < p.Count; a++ {
		agent := p.Agent(out, a)
		if agent[OffPosX] < 0 || agent[OffPosX] > 1 {
			t.Fatalf("agent %d posX out of [0,1]: %v", a, agent[OffPosX])
		}
		if agent[OffPosY] < 0 || agent[OffPosY] > 1 {
			t.Fatalf("agent %d posY out of [0,1]: %v", a, agent[OffPosY])
		}
	}
}

func TestAdamUpdateReducesLoss(t *testing.T) {
	params := []float32{1.0}
	grads := []float32{1.0} // gradient points toward increasing loss at params[0]=1
	m := []float32{0}
	v := []float32{0}
	before := params[0]
	AdamUpdate(params, grads, m, v, 1, 0.1, 0.9, 0.999, 1e-8, 0)
	if params[0] >= before {
		t.Fatalf("Adam step should move params against the gradient: before=%v after=%v", before, params[0])
	}
}

func TestAdamUpdatePopulationIncrementsStep(t *testing.T) {
	p, err := New(2, Stride)
	if err != nil {
		t.Fatal(err)
	}
	for i := range p.Grad {
		p.Grad[i] = 0.01
	}
	p.AdamUpdatePopulation(1e-3, 0.9, 0.999, 1e-8)
	if p.AdamStep != 1 {
		t.Fatalf("AdamStep = %d, want 1", p.AdamStep)
	}
}
