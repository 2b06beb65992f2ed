package agent

import "math"

// AdamUpdate implements §4.6 `adam_update(out, grads, m, v, n, t, lr, beta1,
// beta2, eps, wd)`: the standard bias-corrected Adam step applied in place
// over the flat [count*stride] parameter buffer.
func AdamUpdate(params, grads, m, v []float32, step int, lr, beta1, beta2, eps, weightDecay float32) {
	t := float64(step)
	bc1 := float32(1 - math.Pow(float64(beta1), t))
	bc2 := float32(1 - math.Pow(float64(beta2), t))
	for i := range params {
		g := grads[i]
		if weightDecay != 0 {
			g += weightDecay * params[i]
		}
		m[i] = beta1*m[i] + (1-beta1)*g
		v[i] = beta2*v[i] + (1-beta2)*g*g

		mHat := m[i] / bc1
		vHat := v[i] / bc2

		params[i] -= lr * mHat / (float32(math.Sqrt(float64(vHat))) + eps)
	}
}

// AdamUpdatePopulation runs AdamUpdate over the population's current "out"
// buffer (the one the orchestrator just wrote agent(t+1) into) with its own
// gradient/moment buffers, per §4.8 step 5.
func (p *Population) AdamUpdatePopulation(lr, beta1, beta2, eps float32) {
	p.AdamStep++
	AdamUpdate(p.Out(), p.Grad, p.M, p.V, p.AdamStep, lr, beta1, beta2, eps, 0)
}
