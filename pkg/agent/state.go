// Package agent implements the agent population and Adam-trained policy
// update (§4.6): stride=256 floats/agent, a 25-action x 5-feature + bias
// softmax policy at offset 64, and a fused gradient/Adam step per tick.
package agent

import (
	"math/rand"

	"github.com/mycelia-sim/ccdriver/pkg/core"
)

// PolicySeedStdDev is the standard deviation of the small Gaussian used to
// seed each agent's policy weights/biases (§4.5 "seeds the agent population
// input buffer with small Gaussian policy weights"; §3 "reseeded from
// Gaussian on mycel init").
const PolicySeedStdDev = 0.1

const (
	// Stride is the per-agent float count (§3: "stride >= 256").
	Stride = 256

	// Semantic field offsets within one agent's record (§4.6).
	OffPosX         = 0
	OffPosY         = 1
	OffEnergy       = 2
	OffHeading      = 3
	OffSpeed        = 4
	OffTempPref     = 5
	OffPotentialPref = 6
	OffDriftBias    = 7
	OffAge          = 8
	OffHealth       = 9
	OffFatigue      = 10
	OffStress       = 11
	OffEmotion      = 12
	OffNeedFood     = 13
	OffNeedSocial   = 14
	OffNeedSafety   = 15
	OffSelectedAction = 16
	OffReward       = 17
	OffColonyID     = 18
	OffGoalsStart   = 19 // goals 19..24
	OffFearOfDeath  = 25
	OffGrief        = 26
	OffBoredom      = 27
	OffMicroNeuronStart = 32 // 32..37

	// PolicyOffset is where the 25x5 weight matrix + 25 biases begin.
	PolicyOffset = 64
	NumActions   = 25
	NumFeatures  = 5
	PolicyWeightsLen = NumActions * NumFeatures
	PolicyBiasesLen  = NumActions
)

// Population holds the in/out swap buffers, gradient buffer, and Adam
// moment buffers for Count agents (§3 AgentPopulation).
type Population struct {
	Count  int
	Stride int

	bufA []float32
	bufB []float32
	inIsA bool

	Grad []float32
	M    []float32
	V    []float32

	AdamStep int
}

// New allocates a population of count agents with the given stride (must be
// >= 256, §4.6 "stride < 256 is a hard error").
func New(count, stride int) (*Population, error) {
	if stride < Stride {
		return nil, core.NewError(core.KindValidation, "agent stride too small", core.ErrStrideTooSmall, 0)
	}
	n := count * stride
	return &Population{
		Count: count, Stride: stride,
		bufA: make([]float32, n), bufB: make([]float32, n), inIsA: true,
		Grad: make([]float32, n), M: make([]float32, n), V: make([]float32, n),
	}, nil
}

// In returns the current "in" (read) buffer.
func (p *Population) In() []float32 {
	if p.inIsA {
		return p.bufA
	}
	return p.bufB
}

// Out returns the current "out" (write) buffer.
func (p *Population) Out() []float32 {
	if p.inIsA {
		return p.bufB
	}
	return p.bufA
}

// Swap publishes the out buffer as the new in buffer, matching "swap
// pointers at end of each tick" (§3) — the orchestrator must read the
// handle returned after Swap, not retain the pre-swap one.
func (p *Population) Swap() { p.inIsA = !p.inIsA }

// Agent returns the stride-length slice for agent i within buf.
func (p *Population) Agent(buf []float32, i int) []float32 {
	return buf[i*p.Stride : (i+1)*p.Stride]
}

// SeedPolicyGaussian fills every agent's policy block (offset 64, 25x5
// weights + 25 biases) in both swap buffers with small N(0, PolicySeedStdDev)
// values, per §4.5/§3's Gaussian-reseed requirement. Called on agent
// injection and again whenever the mycel graph is (re)initialized.
func (p *Population) SeedPolicyGaussian(rng *rand.Rand) {
	policyLen := PolicyWeightsLen + PolicyBiasesLen
	for _, buf := range [][]float32{p.bufA, p.bufB} {
		for i := 0; i < p.Count; i++ {
			a := p.Agent(buf, i)
			for k := 0; k < policyLen; k++ {
				a[PolicyOffset+k] = float32(rng.NormFloat64()) * PolicySeedStdDev
			}
		}
	}
}
