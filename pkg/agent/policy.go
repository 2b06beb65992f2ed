package agent

import (
	"math"
	"math/rand"

	"github.com/mycelia-sim/ccdriver/pkg/subqg"
)

// FieldSample is the SubQG readout at an agent's grid cell (§4.6: "reads
// energy/temperature/potential/drift_x/drift_y at the agent's normalized
// position, nearest-cell rounding").
type FieldSample struct {
	Energy, Temperature, Potential, DriftX, DriftY float32
}

// SampleField reads field at agent position (x,y) in [0,1]x[0,1] normalized
// coordinates, rounding to the nearest cell of field.
func SampleField(field *subqg.State, normX, normY float32) FieldSample {
	cx := clampInt(int(normX*float32(field.W)+0.5), 0, field.W-1)
	cy := clampInt(int(normY*float32(field.H)+0.5), 0, field.H-1)
	i := cy*field.W + cx
	return FieldSample{
		Energy: field.Energy[i], Temperature: field.Temperature[i],
		Potential: field.Potential[i], DriftX: field.DriftX[i], DriftY: field.DriftY[i],
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Step runs one forward-policy tick for every agent (§4.6
// `update_genetic_agents`): reads field samples, integrates motion and
// needs, samples an action by softmax, applies its effect, computes the
// logit gradient, and writes agent(t+1) + gradients into out/grad.
func (p *Population) Step(field *subqg.State, colonyOf func(agentIdx int) (uint8, bool), dt float32, rng *rand.Rand) {
	in, out := p.In(), p.Out()
	for i := 0; i < p.Count; i++ {
		a := p.Agent(in, i)
		o := p.Agent(out, i)
		copy(o, a)
		g := p.Agent(p.Grad, i)
		for k := range g {
			g[k] = 0
		}

		fs := SampleField(field, a[OffPosX], a[OffPosY])

		driftBias := a[OffDriftBias]
		heading := a[OffHeading] + driftBias*0.01
		speed := a[OffSpeed]
		newX := clamp01(a[OffPosX] + speed*float32(math.Cos(float64(heading)))*dt)
		newY := clamp01(a[OffPosY] + speed*float32(math.Sin(float64(heading)))*dt)
		o[OffPosX], o[OffPosY], o[OffHeading] = newX, newY, heading

		o[OffNeedFood] = clamp01(a[OffNeedFood] + 0.01*dt)
		o[OffNeedSocial] = clamp01(a[OffNeedSocial] + 0.005*dt)
		o[OffNeedSafety] = clamp01(a[OffNeedSafety] + 0.002*dt)
		o[OffStress] = clamp01(a[OffStress] + (fs.Temperature)*0.01*dt)
		o[OffEmotion] = a[OffEmotion]*0.99 + fs.Energy*0.01
		o[OffFearOfDeath] = clamp01(a[OffFearOfDeath] + (1-a[OffHealth])*0.001*dt)
		o[OffGrief] = a[OffGrief] * 0.995
		o[OffBoredom] = clamp01(a[OffBoredom] + 0.001*dt)

		features := [NumFeatures]float32{fs.Energy, fs.Temperature, fs.Potential, fs.DriftX, fs.DriftY}
		logits := make([]float32, NumActions)
		weights := a[PolicyOffset : PolicyOffset+PolicyWeightsLen]
		biases := a[PolicyOffset+PolicyWeightsLen : PolicyOffset+PolicyWeightsLen+PolicyBiasesLen]
		for act := 0; act < NumActions; act++ {
			var logit float32
			for f := 0; f < NumFeatures; f++ {
				logit += weights[act*NumFeatures+f] * features[f]
			}
			logit += biases[act]
			if act >= OffGoalsStart && act < OffGoalsStart+6 {
				logit += a[act]
			}
			logits[act] = logit
		}
		probs := softmax(logits)

		action := sampleAction(probs, rng)
		o[OffSelectedAction] = float32(action)
		applyActionEffect(o, action, fs, heading)

		reward := fieldGainScore(fs)
		o[OffReward] = reward

		if colonyOf != nil {
			if id, ok := colonyOf(i); ok {
				o[OffColonyID] = float32(id)
			} else {
				o[OffColonyID] = a[OffColonyID]
			}
		} else {
			o[OffColonyID] = a[OffColonyID]
		}

		for act := 0; act < NumActions; act++ {
			target := float32(0)
			if act == action {
				target = 1
			}
			delta := (probs[act] - target) * reward
			for f := 0; f < NumFeatures; f++ {
				g[PolicyOffset+act*NumFeatures+f] = delta * features[f]
			}
			g[PolicyOffset+PolicyWeightsLen+act] = delta
		}
	}
}

func softmax(logits []float32) []float32 {
	maxV := logits[0]
	for _, v := range logits {
		if v > maxV {
			maxV = v
		}
	}
	probs := make([]float32, len(logits))
	var sum float32
	for i, v := range logits {
		e := float32(math.Exp(float64(v - maxV)))
		probs[i] = e
		sum += e
	}
	if sum > 0 {
		for i := range probs {
			probs[i] /= sum
		}
	}
	return probs
}

func sampleAction(probs []float32, rng *rand.Rand) int {
	if rng == nil {
		best := 0
		for i, p := range probs {
			if p > probs[best] {
				best = i
			}
		}
		return best
	}
	r := rng.Float32()
	var acc float32
	for i, p := range probs {
		acc += p
		if r <= acc {
			return i
		}
	}
	return len(probs) - 1
}

// applyActionEffect applies the action index's deterministic effect on the
// agent's state: action 1 = feed lowers need_food, action 5 = explore
// rotates heading toward the local drift heading (§4.6).
func applyActionEffect(o []float32, action int, fs FieldSample, heading float32) {
	switch action {
	case 1:
		o[OffNeedFood] = clamp01(o[OffNeedFood] - 0.2)
	case 5:
		driftHeading := float32(math.Atan2(float64(fs.DriftY), float64(fs.DriftX)))
		o[OffHeading] = driftHeading
	}
}

// fieldGainScore is the per-tick reward signal: the agent's cell energy,
// used as the "field-gain-score" named in §4.6.
func fieldGainScore(fs FieldSample) float32 { return fs.Energy }
