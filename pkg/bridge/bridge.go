// Package bridge implements the SubQG<->spiking-neuron coupling (§4.7):
// brain_bridge_cycle, an Izhikevich Heun step, and the tiled social-Hebbian
// update.
package bridge

import "math"

// Cycle couples SubQG energy/phase into neuron input current and mycel
// nutrient/activity, reading one tick's spikes to decay or raise activity.
type Cycle struct {
	SensoryGain float32
	MotorGain   float32
}

// Run implements §4.7 `brain_bridge_cycle`: for each cell i, reads
// energy[i], phase[i]; sensory = |E|*(1+0.5*sin(phase)); writes
// neuron_current[i] = sensory*sensory_gain; raises nutrient[i] to
// max(nutrient[i], 0.1*energy); if last-tick spike>0, increments
// activity[i] by motor_gain, else decays by x0.95.
func (c *Cycle) Run(energy, phase []float32, lastSpikes []uint8, neuronCurrent, nutrient, activity []float32) {
	n := len(energy)
	for i := 0; i < n; i++ {
		e := energy[i]
		absE := e
		if absE < 0 {
			absE = -absE
		}
		sensory := absE * (1 + 0.5*float32(math.Sin(float64(phase[i]))))
		neuronCurrent[i] = sensory * c.SensoryGain

		floor := 0.1 * e
		if nutrient[i] < floor {
			nutrient[i] = floor
		}

		if lastSpikes[i] > 0 {
			activity[i] += c.MotorGain
		} else {
			activity[i] *= 0.95
		}
	}
}
