package main

import "C"

import (
	"unsafe"
)

func floatsFromC(p *C.float, n C.int) []float32 {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(p)), int(n))
}

func int32sFromC(p *C.int, n C.int) []int32 {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(p)), int(n))
}

//export subqg_initialize_state
func subqg_initialize_state(gpuIndex C.int) C.int {
	if _, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.InitializeSubQGState(int(gpuIndex)) }); err != nil {
		return 0
	}
	return 1
}

//export subqg_init_mycel
func subqg_init_mycel(gpuIndex C.int) C.int {
	if _, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.InitMycel(int(gpuIndex)) }); err != nil {
		return 0
	}
	return 1
}

//export subqg_inject_agents
func subqg_inject_agents(gpuIndex, count C.int) C.int {
	if _, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.InjectAgents(int(gpuIndex), int(count)) }); err != nil {
		return 0
	}
	return 1
}

//export subqg_simulation_step_batched
func subqg_simulation_step_batched(gpuIndex C.int, extE, extP, extS *C.float, n C.int) C.int {
	e, p, s := floatsFromC(extE, n), floatsFromC(extP, n), floatsFromC(extS, n)
	_, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.SubQGStep(int(gpuIndex), e, p, s) })
	if err != nil {
		return 0
	}
	return 1
}

//export set_neighbors_sparse
func set_neighbors_sparse(gpuIndex C.int, idx *C.int, n C.int) C.int {
	v := int32sFromC(idx, n)
	_, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.SetNeighborsSparse(int(gpuIndex), v) })
	if err != nil {
		return 0
	}
	return 1
}

//export set_diffusion_params
func set_diffusion_params(gpuIndex C.int, decay, diffu C.float) C.int {
	_, err := drv.Call(int(gpuIndex), func() (any, error) {
		return nil, drv.SetDiffusionParams(int(gpuIndex), float32(decay), float32(diffu))
	})
	if err != nil {
		return 0
	}
	return 1
}

//export set_pheromone_gains
func set_pheromone_gains(gpuIndex C.int, gains *C.float, n C.int) C.int {
	v := floatsFromC(gains, n)
	_, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.SetPheromoneGains(int(gpuIndex), v) })
	if err != nil {
		return 0
	}
	return 1
}

//export step_pheromone_reinforce
func step_pheromone_reinforce(gpuIndex C.int, activity *C.float, n C.int) C.int {
	v := floatsFromC(activity, n)
	_, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.StepPheromoneReinforce(int(gpuIndex), v) })
	if err != nil {
		return 0
	}
	return 1
}

//export step_pheromone_diffuse_decay
func step_pheromone_diffuse_decay(gpuIndex C.int) C.int {
	_, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.StepPheromoneDiffuseDecay(int(gpuIndex)) })
	if err != nil {
		return 0
	}
	return 1
}

//export step_mycel_update
func step_mycel_update(gpuIndex C.int, activity *C.float, n C.int) C.int {
	v := floatsFromC(activity, n)
	_, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.StepMycelUpdate(int(gpuIndex), v) })
	if err != nil {
		return 0
	}
	return 1
}

//export step_colony_update
func step_colony_update(gpuIndex, iterations C.int) C.int {
	_, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.StepColonyUpdate(int(gpuIndex), int(iterations)) })
	if err != nil {
		return 0
	}
	return 1
}

//export step_reproduction
func step_reproduction(gpuIndex C.int, activity *C.float, n C.int) C.int {
	v := floatsFromC(activity, n)
	spawned, err := drv.Call(int(gpuIndex), func() (any, error) {
		return drv.StepReproduction(int(gpuIndex), v, nil, 0)
	})
	if err != nil {
		return -1
	}
	return C.int(spawned.(int))
}

//export step_subqg_feedback
func step_subqg_feedback(gpuIndex C.int, kappaNutrient C.float, kappaMood *C.float, n C.int) C.int {
	km := floatsFromC(kappaMood, n)
	_, err := drv.Call(int(gpuIndex), func() (any, error) {
		return nil, drv.StepSubQGFeedback(int(gpuIndex), float32(kappaNutrient), km)
	})
	if err != nil {
		return 0
	}
	return 1
}

//export step_potential_for_hpio
func step_potential_for_hpio(gpuIndex C.int, weights *C.float, n C.int) C.int {
	v := floatsFromC(weights, n)
	_, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.StepPotentialForHPIO(int(gpuIndex), v) })
	if err != nil {
		return 0
	}
	return 1
}

//export read_pheromone_slice
func read_pheromone_slice(gpuIndex, lo, hi C.int, out *C.float) C.int {
	v, err := drv.Call(int(gpuIndex), func() (any, error) { return drv.ReadPheromoneSlice(int(gpuIndex), int(lo), int(hi)) })
	if err != nil {
		return 0
	}
	slice := v.([]float32)
	if out != nil {
		dst := unsafe.Slice((*float32)(unsafe.Pointer(out)), len(slice))
		copy(dst, slice)
	}
	return C.int(len(slice))
}

// read_full_pheromone_buffer is a size-probe (§4.11): pass out=NULL to
// learn the required element count, then call again with a buffer of that
// size.
//
//export read_full_pheromone_buffer
func read_full_pheromone_buffer(gpuIndex C.int, out *C.float, bufCap C.int) C.int {
	var dst []float32
	if out != nil && bufCap > 0 {
		dst = unsafe.Slice((*float32)(unsafe.Pointer(out)), int(bufCap))
	}
	v, err := drv.Call(int(gpuIndex), func() (any, error) { return drv.ReadFullPheromoneBuffer(int(gpuIndex), dst) })
	if err != nil {
		return -1
	}
	return C.int(v.(int))
}

//export mycel_agent_cycle
func mycel_agent_cycle(gpuIndex, cycles C.int, sensoryGain, learningRate, dt C.float) C.int {
	v, err := drv.Call(int(gpuIndex), func() (any, error) {
		return drv.RunCycles(int(gpuIndex), int(cycles), float32(sensoryGain), float32(learningRate), float32(dt))
	})
	if err != nil {
		return -1
	}
	return C.int(v.(int))
}

//export cycle_vram_organism
func cycle_vram_organism(gpuIndex, cycles C.int, gain, lr C.float) C.int {
	v, err := drv.Call(int(gpuIndex), func() (any, error) {
		return drv.CycleVRAMOrganism(int(gpuIndex), int(cycles), float32(gain), float32(lr))
	})
	if err != nil {
		return -1
	}
	return C.int(v.(int))
}

//export save_mycel_state
func save_mycel_state(gpuIndex C.int, path *C.char) C.int {
	p := C.GoString(path)
	_, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.SaveState(int(gpuIndex), p) })
	if err != nil {
		return 0
	}
	return 1
}

//export load_mycel_state
func load_mycel_state(gpuIndex C.int, path *C.char) C.int {
	p := C.GoString(path)
	_, err := drv.Call(int(gpuIndex), func() (any, error) { return nil, drv.LoadState(int(gpuIndex), p) })
	if err != nil {
		return 0
	}
	return 1
}

