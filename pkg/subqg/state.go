// Package subqg implements the multi-field 2-D reaction-diffusion substrate
// (§4.4). State lives as host-mirrored float32 slices; when a GPU device is
// available the same layout is mirrored into device buffers and the compiled
// stepKernelSource runs the update, otherwise Step runs the identical
// reference semantics directly on the host slices.
package subqg

import (
	"github.com/mycelia-sim/ccdriver/pkg/core"
)

// errNoRNG is returned by Step when external RNG arrays are absent and the
// engine is not in deterministic mode (§4.4: "otherwise refuse").
var errNoRNG = core.NewError(core.KindValidation, "subqg step requires external RNG or deterministic mode", core.ErrInvalidArgument, 0)

// State holds the 13 field buffers, 3 RNG buffers, and one field-map for the
// W*H grid (§3 SubQGState).
type State struct {
	W, H int
	C    int

	NoiseLevel float32
	Threshold  float32

	Deterministic bool
	rng           *splitMix64

	Energy       []float32
	Phase        []float32
	Interference []float32
	NodeFlag     []int32
	Spin         []int32
	Topology     []int32
	Pressure     []float32
	Gravity      []float32
	Magnetism    []float32
	Temperature  []float32
	Potential    []float32
	DriftX       []float32
	DriftY       []float32

	RNGEnergy []float32
	RNGPhase  []float32
	RNGSpin   []float32

	FieldMap []float32

	NoiseFactor float32

	// GPU mirror slot. BindDevice does not set it; the engine keeps its
	// bound slot in a separate unexported field.
	Device *core.DeviceSlot
}

// New allocates a zeroed SubQG engine for a W*H grid with the given seed
// parameters (§4.4 `init_state_batched`).
func New(w, h int, noiseLevel, threshold float32, deterministic bool, seed uint64) *State {
	c := w * h
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15 // non-zero fallback, matches splitmix64 convention
	}
	s := &State{
		W: w, H: h, C: c,
		NoiseLevel: noiseLevel, Threshold: threshold,
		Deterministic: deterministic,
		NoiseFactor:   1.0,
		Energy:        make([]float32, c),
		Phase:         make([]float32, c),
		Interference:  make([]float32, c),
		NodeFlag:      make([]int32, c),
		Spin:          make([]int32, c),
		Topology:      make([]int32, c),
		Pressure:      make([]float32, c),
		Gravity:       make([]float32, c),
		Magnetism:     make([]float32, c),
		Temperature:   make([]float32, c),
		Potential:     make([]float32, c),
		DriftX:        make([]float32, c),
		DriftY:        make([]float32, c),
		RNGEnergy:     make([]float32, c),
		RNGPhase:      make([]float32, c),
		RNGSpin:       make([]float32, c),
		FieldMap:      make([]float32, c),
	}
	if deterministic {
		s.rng = newSplitMix64(seed)
	}
	return s
}

// Len reports the cell count C=W*H.
func (s *State) Len() int { return s.C }
