// Package orchestrator implements the autonomous cycle state machine
// (§4.8, §9): mycel_agent_cycle chains SubQG -> bridge -> Izhikevich ->
// agent policy -> Adam -> social Hebbian -> mycel reinforce -> diffuse over
// buffers that persist in VRAM (here, host memory) across ticks.
package orchestrator

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/mycelia-sim/ccdriver/pkg/agent"
	"github.com/mycelia-sim/ccdriver/pkg/bridge"
	"github.com/mycelia-sim/ccdriver/pkg/core"
	"github.com/mycelia-sim/ccdriver/pkg/kernel"
	"github.com/mycelia-sim/ccdriver/pkg/mycel"
	"github.com/mycelia-sim/ccdriver/pkg/subqg"
)

var log = logrus.WithField("component", "orchestrator")

// Phase is the {Idle, Running, Finishing} state from §9's redesign note.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseFinishing
)

// NeuronState holds the Izhikevich v/u/current/spike buffers sized T_cap,
// one entry per mycel cell (§4.7 couples SubQG -> neuron -> mycel activity).
type NeuronState struct {
	V, U, Current []float32
	Spikes        []uint8
	LastSpikes    []uint8
	Params        bridge.IzhikevichParams
	SocialWeights []float32 // T_cap x T_cap
}

// Orchestrator owns every component a tick touches and the Running-state's
// pre-bound dynamic handles (here, plain slice references rather than GPU
// kernel args, since args are bound once per §4.8 and only the agent
// in/out swap handle changes cycle to cycle).
type Orchestrator struct {
	SubQG   *subqg.Engine
	Mycel   *mycel.State
	Agents  *agent.Population
	Neurons *NeuronState

	Bridge   *bridge.Cycle
	Hebbian  *bridge.SocialHebbian
	Enqueuer *kernel.Enqueuer

	Blocking bool
	phase    Phase
	rng      *rand.Rand

	nutrientActivity []float32 // scratch, mirrors mycel.Nutrient-sized activity input
}

// New builds an orchestrator wiring every owned component together. All
// buffers must already be allocated to matching shapes (SubQG.C == Mycel.TCap
// is not required; the bridge couples SubQG cells 1:1 with mycel cells by
// index up to min(C, TCap)).
func New(sq *subqg.Engine, my *mycel.State, ag *agent.Population, neurons *NeuronState, en *kernel.Enqueuer, blocking bool, seed int64) *Orchestrator {
	return &Orchestrator{
		SubQG: sq, Mycel: my, Agents: ag, Neurons: neurons,
		Bridge: &bridge.Cycle{}, Hebbian: bridge.NewSocialHebbian(),
		Enqueuer: en, Blocking: blocking, phase: PhaseIdle,
		rng:              rand.New(rand.NewSource(seed)),
		nutrientActivity: make([]float32, my.TCap),
	}
}

// Phase reports the orchestrator's current lifecycle state.
func (o *Orchestrator) Phase() Phase { return o.phase }

// RunCycles implements `mycel_agent_cycle(gpu, cycles, sensory_gain,
// learning_rate, dt)` (§4.8): enters Running, loops the eight-step tick, and
// returns to Idle. It binds no kernel arguments and issues no clFinish or
// clFlush of its own, in blocking mode or otherwise; the only device work
// is the SubQG step, which waits for its own queue inside every tick.
// Colony relabel runs exactly once after the loop. Returns success with
// partial progress if aborted mid-batch (§5), and clears the abort flag
// before returning.
func (o *Orchestrator) RunCycles(cycles int, sensoryGain, learningRate float32, dt float32) (completed int, err error) {
	o.phase = PhaseRunning
	o.Bridge.SensoryGain = sensoryGain
	o.Bridge.MotorGain = learningRate

	n := minInt(o.SubQG.C, o.Mycel.TCap)

	for c := 0; c < cycles; c++ {
		if o.Enqueuer != nil && o.Enqueuer.Aborted() {
			log.Info("autonomous cycle aborted, returning partial progress")
			break
		}

		if err := o.tick(n, dt); err != nil {
			o.phase = PhaseIdle
			return c, err
		}
		completed++

		if o.Blocking && (c+1)%core.SyncBatchSize == 0 {
			// No queue synchronization happens here; see RunCycles' doc.
		}
	}

	o.Mycel.ColonyUpdate(1)
	if o.Enqueuer != nil {
		o.Enqueuer.ClearAbort()
	}
	o.phase = PhaseIdle
	return completed, nil
}

func (o *Orchestrator) tick(n int, dt float32) error {
	// 1. SubQG step: runs the compiled device kernel when a GPU slot is
	// bound, falls back to the host reference implementation otherwise.
	if err := o.SubQG.StepBatched(o.Enqueuer, nil, nil, nil); err != nil {
		return err
	}

	// 2. Brain bridge.
	o.Bridge.Run(o.SubQG.Energy[:n], o.SubQG.Phase[:n], o.Neurons.LastSpikes[:n], o.Neurons.Current[:n], o.Mycel.Nutrient[:n], o.nutrientActivity[:n])

	// 3. Izhikevich step.
	bridge.IzhikevichStep(o.Neurons.V[:n], o.Neurons.U[:n], o.Neurons.Current[:n], sliceParams(o.Neurons.Params, n), o.Neurons.Spikes[:n], dt, 30)
	copy(o.Neurons.LastSpikes, o.Neurons.Spikes)

	// 4. Agent policy kernel.
	o.Agents.Step(o.SubQG.State, o.colonyLookup, dt, o.rng)

	// 5. Adam update over all agent parameters, applied to Out() (the
	// freshly written agent(t+1) buffer) before it is published; the swap
	// must happen after Adam or the update lands on the stale pre-swap
	// buffer and is immediately clobbered by next tick's copy into it.
	o.Agents.AdamUpdatePopulation(1e-3, 0.9, 0.999, 1e-8)
	o.Agents.Swap()

	// 6. Social Hebbian (chunked), abort-checked between chunks.
	spikesF := make([]float32, n)
	for i, s := range o.Neurons.Spikes[:n] {
		spikesF[i] = float32(s)
	}
	var aborted func() bool
	if o.Enqueuer != nil {
		aborted = o.Enqueuer.Aborted
	}
	if err := o.Hebbian.Update(o.Neurons.SocialWeights, spikesF, 0.01, aborted); err != nil {
		log.WithField("err", err).Warn("social-Hebbian update skipped")
	}

	// 7. Mycel reinforce (activity accumulated by the bridge).
	if err := o.Mycel.Reinforce(o.nutrientActivity); err != nil {
		return err
	}

	// 8. Mycel diffuse/decay.
	o.Mycel.DiffuseDecay()

	return nil
}

func (o *Orchestrator) colonyLookup(agentIdx int) (uint8, bool) {
	if agentIdx < 0 || agentIdx >= len(o.Mycel.ColonyID) {
		return 0, false
	}
	if o.Mycel.Alive[agentIdx] == 0 {
		return 0, false
	}
	return o.Mycel.ColonyID[agentIdx], true
}

func sliceParams(p bridge.IzhikevichParams, n int) bridge.IzhikevichParams {
	return bridge.IzhikevichParams{A: p.A[:n], B: p.B[:n], C: p.C[:n], D: p.D[:n]}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
