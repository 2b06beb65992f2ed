package driver

import (
	"math/rand"

	"github.com/mycelia-sim/ccdriver/pkg/agent"
	"github.com/mycelia-sim/ccdriver/pkg/core"
	"github.com/mycelia-sim/ccdriver/pkg/mycel"
	"github.com/mycelia-sim/ccdriver/pkg/persist"
	"github.com/mycelia-sim/ccdriver/pkg/subqg"
)

// MycelSnapshotSummary implements mcpctl's mycel_snapshot_summary tool: a
// msgpack-encoded aggregate view of gpu_index's pheromone graph, distinct
// from save_state/load_state's fixed-layout full dump (§4.11).
func (d *Driver) MycelSnapshotSummary(gpuIndex int) ([]byte, error) {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return nil, err
	}
	b, err := persist.EncodeSummary(sim.Mycel)
	if err != nil {
		return nil, d.fail(err)
	}
	return b, nil
}

// InitializeSubQGState implements subqg_initialize_state(_batched): replaces
// gpu_index's field with a freshly-seeded one using the configured
// dimensions, re-arming it without tearing down the rest of the simulation
// stack (§4.4).
func (d *Driver) InitializeSubQGState(gpuIndex int) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	sq := subqg.NewEngine(d.cfg.SubQG.Width, d.cfg.SubQG.Height, d.cfg.SubQG.NoiseLevel, d.cfg.SubQG.Threshold, d.cfg.SubQG.Deterministic, d.cfg.SubQG.RNGSeed)
	if slot := d.Registry.GetSlot(gpuIndex); slot != nil {
		if err := sq.BindDevice(d.Registry, d.cfg.Device.CacheDir, slot); err != nil {
			return d.fail(err)
		}
	}
	sim.SubQG = sq
	sim.Orchestrator.SubQG = sq
	return nil
}

// InitMycel implements subqg_init_mycel: rebuilds gpu_index's pheromone
// graph from the configured capacity/channel/neighbor shape (§4.5).
func (d *Driver) InitMycel(gpuIndex int) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	my := mycel.New(d.cfg.Mycel.Capacity, d.cfg.Mycel.Channels, d.cfg.Mycel.Neighbors, 0)
	my.Init(d.cfg.Mycel.ActivePrefix, d.cfg.Mycel.DefaultDecay, d.cfg.Mycel.DefaultDiffusion, d.cfg.Mycel.NutrientRecovery)
	my.SetReproParams(d.cfg.Mycel.ReproThresholdNu, d.cfg.Mycel.ReproThresholdAct, d.cfg.Mycel.ReproMutationSig)
	sim.Mycel = my
	sim.Orchestrator.Mycel = my

	// §4.5/§3: mycel init also reseeds the agent population's policy
	// weights from a small Gaussian.
	if sim.Agents != nil {
		sim.Agents.SeedPolicyGaussian(rand.New(rand.NewSource(int64(d.cfg.SubQG.RNGSeed))))
	}
	return nil
}

// InjectAgents implements subqg_inject_agents: replaces gpu_index's agent
// population with a freshly-initialized one of the given count (§4.7).
func (d *Driver) InjectAgents(gpuIndex, count int) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	ag, err := agent.New(count, agent.Stride)
	if err != nil {
		return d.fail(err)
	}
	// §4.5: "seeds the agent population input buffer with small Gaussian
	// policy weights."
	ag.SeedPolicyGaussian(rand.New(rand.NewSource(int64(d.cfg.SubQG.RNGSeed))))
	sim.Agents = ag
	sim.Orchestrator.Agents = ag
	return nil
}

// SubQGStep implements subqg_simulation_step(_batched): advances gpu_index's
// reaction-diffusion field by one tick, optionally injecting externally
// supplied energy/pressure/spin perturbations (§4.4).
func (d *Driver) SubQGStep(gpuIndex int, extE, extP, extS []float32) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	if err := sim.SubQG.StepBatched(sim.Enqueuer, extE, extP, extS); err != nil {
		return d.fail(err)
	}
	return nil
}

// SetNeighborsSparse implements set_neighbors_sparse (§4.5).
func (d *Driver) SetNeighborsSparse(gpuIndex int, idx []int32) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	if err := sim.Mycel.SetNeighborsSparse(idx); err != nil {
		return d.fail(err)
	}
	return nil
}

// SetDiffusionParams implements set_diffusion_params (§4.5).
func (d *Driver) SetDiffusionParams(gpuIndex int, decay, diffu float32) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	sim.Mycel.SetDiffusionParams(decay, diffu)
	return nil
}

// SetPheromoneGains implements set_pheromone_gains (§4.5).
func (d *Driver) SetPheromoneGains(gpuIndex int, gains []float32) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	if err := sim.Mycel.SetPheromoneGains(gains); err != nil {
		return d.fail(err)
	}
	return nil
}

// StepPheromoneReinforce implements step_pheromone_reinforce (§4.5).
func (d *Driver) StepPheromoneReinforce(gpuIndex int, activity []float32) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	if err := sim.Mycel.Reinforce(activity); err != nil {
		return d.fail(err)
	}
	return nil
}

// StepPheromoneDiffuseDecay implements step_pheromone_diffuse_decay (§4.5).
func (d *Driver) StepPheromoneDiffuseDecay(gpuIndex int) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	sim.Mycel.DiffuseDecay()
	return nil
}

// StepMycelUpdate implements step_mycel_update: nutrient recovery driven by
// activity, matching the teacher's "one struct, one step method" shape
// (§4.5).
func (d *Driver) StepMycelUpdate(gpuIndex int, activity []float32) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	if err := sim.Mycel.Nutrient(activity); err != nil {
		return d.fail(err)
	}
	return nil
}

// StepColonyUpdate implements step_colony_update (§4.5).
func (d *Driver) StepColonyUpdate(gpuIndex, iterations int) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	sim.Mycel.ColonyUpdate(iterations)
	return nil
}

// StepReproduction implements step_reproduction (§4.6).
func (d *Driver) StepReproduction(gpuIndex int, activity []float32, prototypes [][]float32, protoDim int) (int, error) {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return 0, err
	}
	return sim.Mycel.Reproduce(activity, prototypes, protoDim), nil
}

// StepSubQGFeedback implements step_subqg_feedback (§4.5).
func (d *Driver) StepSubQGFeedback(gpuIndex int, kappaNutrient float32, kappaMood []float32) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	if err := sim.Mycel.SubQGFeedback(kappaNutrient, kappaMood); err != nil {
		return d.fail(err)
	}
	return nil
}

// StepPotentialForHPIO implements step_potential_for_hpio (§4.5).
func (d *Driver) StepPotentialForHPIO(gpuIndex int, weights []float32) error {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return err
	}
	if err := sim.Mycel.PotentialForHPIO(weights); err != nil {
		return d.fail(err)
	}
	return nil
}

// ReadPheromoneSlice implements read_pheromone_slice: copies out the element
// window [lo,hi) of gpu_index's flat pheromone buffer (§4.11).
func (d *Driver) ReadPheromoneSlice(gpuIndex, lo, hi int) ([]float32, error) {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return nil, err
	}
	if lo < 0 || hi > len(sim.Mycel.Pheromone) || lo > hi {
		return nil, d.fail(core.NewError(core.KindValidation, "pheromone slice out of range", core.ErrInvalidArgument, 0))
	}
	out := make([]float32, hi-lo)
	copy(out, sim.Mycel.Pheromone[lo:hi])
	return out, nil
}

// ReadFullPheromoneBuffer implements read_full_pheromone_buffer: returns the
// element count of the full buffer. When out==nil (the size-probe call a C
// caller makes before allocating its own receiving buffer) nothing is
// copied; otherwise min(len(out), count) elements are copied into out
// (§4.11).
func (d *Driver) ReadFullPheromoneBuffer(gpuIndex int, out []float32) (int, error) {
	sim, err := d.sim(gpuIndex)
	if err != nil {
		return 0, err
	}
	n := len(sim.Mycel.Pheromone)
	if out == nil {
		return n, nil
	}
	copy(out, sim.Mycel.Pheromone)
	return n, nil
}

// CycleVRAMOrganism implements cycle_vram_organism: the convenience wrapper
// around mycel_agent_cycle with a fixed dt=0.1 (§4.8, §6).
func (d *Driver) CycleVRAMOrganism(gpuIndex, cycles int, sensoryGain, learningRate float32) (int, error) {
	return d.RunCycles(gpuIndex, cycles, sensoryGain, learningRate, 0.1)
}
