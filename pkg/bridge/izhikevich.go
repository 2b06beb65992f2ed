package bridge

// IzhikevichParams holds the per-neuron a/b/c/d shape parameters (§3).
type IzhikevichParams struct {
	A, B, C, D []float32
}

// IzhikevichStep implements §4.7 `izhikevich_step`: Heun's method with two
// half-dt Euler sub-steps of dv = 0.04v^2 + 5v + 140 - u + I,
// du = a(bv - u); on v >= threshold, emit a spike and reset v=c, u+=d.
func IzhikevichStep(v, u, current []float32, params IzhikevichParams, spikes []uint8, dt, threshold float32) {
	n := len(v)
	halfDt := dt / 2
	for i := 0; i < n; i++ {
		a, b, c, d := params.A[i], params.B[i], params.C[i], params.D[i]
		I := current[i]

		dv1 := 0.04*v[i]*v[i] + 5*v[i] + 140 - u[i] + I
		du1 := a * (b*v[i] - u[i])
		vMid := v[i] + halfDt*dv1
		uMid := u[i] + halfDt*du1

		dv2 := 0.04*vMid*vMid + 5*vMid + 140 - uMid + I
		du2 := a * (b*vMid - uMid)
		vNext := v[i] + halfDt*(dv1+dv2)
		uNext := u[i] + halfDt*(du1+du2)

		if vNext >= threshold {
			spikes[i] = 1
			vNext = c
			uNext += d
		} else {
			spikes[i] = 0
		}

		v[i], u[i] = vNext, uNext
	}
}
