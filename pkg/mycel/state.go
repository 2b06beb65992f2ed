// Package mycel implements the sparse pheromone/mycelium graph engine
// (§4.5): host+device state over T_cap cells with K-neighbor edges and C
// pheromone channels, colony dynamics, and reproduction from a free-list.
package mycel

import (
	"math/rand"

	"github.com/mycelia-sim/ccdriver/pkg/core"
)

// State holds every array from §3's MycelState entity.
type State struct {
	TCap int
	C    int
	K    int
	TAct int

	Pheromone []float32 // T*K*C
	NeighIdx  []int32   // T*K, -1 = no edge
	Decay     []float32 // T*K
	Diffu     []float32 // T*K
	Nutrient  []float32 // T
	Mood      []float32 // T*C
	ColonyID  []uint8   // T
	Alive     []uint8   // T, 0/1
	Potential []float32 // T
	SubQGField []float32 // T

	FreeList []int32 // stack, length TCap
	FreeHead int

	ReinforceGain []float32 // per channel
	KappaMood     []float32 // per channel
	KappaNutrient float32

	ReproThresholdNu  float32
	ReproThresholdAct float32
	ReproMutationSig  float32

	DefaultDecay     float32
	DefaultDiffusion float32
	NutrientRecovery float32

	rng *rand.Rand
}

// New allocates and zeroes a MycelState for the given shape.
func New(tCap, c, k int, rngSeed int64) *State {
	return &State{
		TCap: tCap, C: c, K: k,
		Pheromone:     make([]float32, tCap*k*c),
		NeighIdx:      fillInt32(tCap*k, -1),
		Decay:         make([]float32, tCap*k),
		Diffu:         make([]float32, tCap*k),
		Nutrient:      make([]float32, tCap),
		Mood:          make([]float32, tCap*c),
		ColonyID:      make([]uint8, tCap),
		Alive:         make([]uint8, tCap),
		Potential:     make([]float32, tCap),
		SubQGField:    make([]float32, tCap),
		FreeList:      make([]int32, tCap),
		ReinforceGain: fillFloat32(c, 1),
		KappaMood:     make([]float32, c),
		rng:           rand.New(rand.NewSource(rngSeed)),
	}
}

func fillInt32(n int, v int32) []int32 {
	s := make([]int32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func fillFloat32(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// Init seeds the mycel graph per §4.5 `init_mycel`: pheromone ~ U[0,0.1],
// default decay/diffu broadcast to all edges, the first activePrefix cells
// marked alive with a colony id in [1,255], and the remainder pushed to the
// free list.
func (s *State) Init(activePrefix int, defaultDecay, defaultDiffu, nutrientRecovery float32) {
	s.DefaultDecay, s.DefaultDiffusion, s.NutrientRecovery = defaultDecay, defaultDiffu, nutrientRecovery
	for i := range s.Pheromone {
		s.Pheromone[i] = s.rng.Float32() * 0.1
	}
	for i := range s.Decay {
		s.Decay[i] = defaultDecay
		s.Diffu[i] = defaultDiffu
	}

	if activePrefix > s.TCap {
		activePrefix = s.TCap
	}
	for i := 0; i < activePrefix; i++ {
		s.Alive[i] = 1
		s.ColonyID[i] = uint8(1 + i%255)
	}
	s.TAct = activePrefix

	s.FreeHead = 0
	for i := s.TCap - 1; i >= activePrefix; i-- {
		s.FreeList[s.FreeHead] = int32(i)
		s.FreeHead++
	}
}

// PopFree pops one index off the free-list stack, or (-1, false) if empty.
func (s *State) PopFree() (int32, bool) {
	if s.FreeHead == 0 {
		return -1, false
	}
	s.FreeHead--
	return s.FreeList[s.FreeHead], true
}

// PushFree pushes idx back onto the free-list stack.
func (s *State) PushFree(idx int32) {
	s.FreeList[s.FreeHead] = idx
	s.FreeHead++
}

// AliveCount reports |{i: alive[i]=1}|, used by the §8 free-list bijection
// invariant check: AliveCount() + FreeHead == TCap.
func (s *State) AliveCount() int {
	n := 0
	for _, a := range s.Alive {
		if a == 1 {
			n++
		}
	}
	return n
}

// SetNeighborsSparse uploads the T*K neighbor-index table.
func (s *State) SetNeighborsSparse(idx []int32) error {
	if len(idx) != s.TCap*s.K {
		return core.NewError(core.KindValidation, "neighbor index table size mismatch", core.ErrDimMismatch, 0)
	}
	copy(s.NeighIdx, idx)
	return nil
}

// SetDiffusionParams broadcasts default decay/diffusion to all edges.
func (s *State) SetDiffusionParams(decay, diffu float32) {
	s.DefaultDecay, s.DefaultDiffusion = decay, diffu
	for i := range s.Decay {
		s.Decay[i] = decay
		s.Diffu[i] = diffu
	}
}

// SetPheromoneGains sets the per-channel reinforce gains.
func (s *State) SetPheromoneGains(gains []float32) error {
	if len(gains) != s.C {
		return core.NewError(core.KindValidation, "reinforce gain length mismatch", core.ErrDimMismatch, 0)
	}
	copy(s.ReinforceGain, gains)
	return nil
}

// SetMoodState uploads the T*C mood array.
func (s *State) SetMoodState(mood []float32) error {
	if len(mood) != s.TCap*s.C {
		return core.NewError(core.KindValidation, "mood array size mismatch", core.ErrDimMismatch, 0)
	}
	copy(s.Mood, mood)
	return nil
}

// SetNutrientState uploads the T-length nutrient array.
func (s *State) SetNutrientState(nutrient []float32) error {
	if len(nutrient) != s.TCap {
		return core.NewError(core.KindValidation, "nutrient array size mismatch", core.ErrDimMismatch, 0)
	}
	copy(s.Nutrient, nutrient)
	return nil
}

// SetReproParams sets the reproduction thresholds and mutation sigma.
func (s *State) SetReproParams(thrNu, thrAct, sigma float32) {
	s.ReproThresholdNu, s.ReproThresholdAct, s.ReproMutationSig = thrNu, thrAct, sigma
}

// SetNutrientRecovery sets the nutrient-recovery rate.
func (s *State) SetNutrientRecovery(rate float32) { s.NutrientRecovery = rate }
