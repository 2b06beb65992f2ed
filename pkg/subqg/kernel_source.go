package subqg

// stepKernelSource is the OpenCL C source for subqg_simulation_step_batched
// (§4.4): one work-item per cell, 5-point Laplacian with clamped (edge
// repeat) boundary sampling, the six diffusion coefficients, the named
// cross-couplings (E->P, E->T, V->G, (P+G)->V, |drift|->M), drift update,
// [-1,1] clamping, wrapped-phase update via asin/sin, and the field-map
// formula. It must compute the identical values step.go computes on the
// host; step.go is the oracle these kernel constants are taken from.
//
// Every diffusing field needs its neighbors' PREVIOUS values, so the six
// coupled fields plus drift and phase are double-buffered (a "_in"/"_out"
// pair each) rather than updated in place — a work-item racing to read a
// neighbor cell that another work-item already overwrote would silently
// corrupt the Laplacian. node_flag/spin/topology/interference/field_map
// have no neighbor dependency (they're pure functions of this cell's own
// freshly computed fields) so they write directly into single buffers.
//
// DO NOT insert memory barriers between the RNG read and the field write in
// the real device kernel: the race between concurrent work-items reading
// and writing the RNG buffers is the entropy source for the non-deterministic
// path (§9). That property cannot be expressed in the Go reference step, so
// the Go path only ever runs the deterministic branch.
const stepKernelSource = `
__kernel void subqg_simulation_step_batched(
    __global const float *energy_in, __global float *energy_out,
    __global const float *phase_in, __global float *phase_out,
    __global float *interference,
    __global int *node_flag, __global int *spin, __global int *topology,
    __global const float *pressure_in, __global float *pressure_out,
    __global const float *gravity_in, __global float *gravity_out,
    __global const float *magnetism_in, __global float *magnetism_out,
    __global const float *temperature_in, __global float *temperature_out,
    __global const float *potential_in, __global float *potential_out,
    __global const float *drift_x_in, __global float *drift_x_out,
    __global const float *drift_y_in, __global float *drift_y_out,
    __global float *rng_e, __global float *rng_p, __global float *rng_s,
    float noise_level, float threshold, float noise_factor,
    int W, int H, int C,
    __global float *field_map, int write_field_map)
{
    int i = get_global_id(0);
    if (i >= C) return;

    int x = i % W;
    int y = i / W;
    int xl = (x > 0) ? x - 1 : 0;
    int xr = (x < W - 1) ? x + 1 : W - 1;
    int yu = (y > 0) ? y - 1 : 0;
    int yd = (y < H - 1) ? y + 1 : H - 1;
    int il = y * W + xl, ir = y * W + xr;
    int iu = yu * W + x, id = yd * W + x;

    float lapE = energy_in[il] + energy_in[ir] + energy_in[iu] + energy_in[id] - 4.0f * energy_in[i];
    float lapP = pressure_in[il] + pressure_in[ir] + pressure_in[iu] + pressure_in[id] - 4.0f * pressure_in[i];
    float lapG = gravity_in[il] + gravity_in[ir] + gravity_in[iu] + gravity_in[id] - 4.0f * gravity_in[i];
    float lapM = magnetism_in[il] + magnetism_in[ir] + magnetism_in[iu] + magnetism_in[id] - 4.0f * magnetism_in[i];
    float lapT = temperature_in[il] + temperature_in[ir] + temperature_in[iu] + temperature_in[id] - 4.0f * temperature_in[i];
    float lapV = potential_in[il] + potential_in[ir] + potential_in[iu] + potential_in[id] - 4.0f * potential_in[i];

    const float diffEnergy = 0.10f;
    const float diffPressure = 0.08f;
    const float diffGravity = 0.02f;
    const float diffMagnetism = 0.03f;
    const float diffTemperature = 0.05f;
    const float diffPotential = 0.04f;
    const float couplingGain = 0.05f;
    const float driftRetain = 0.95f;
    const float driftGain = 0.05f;
    const float phaseNoiseGain = 0.2f;

    float e = energy_in[i] + diffEnergy * lapE + noise_level * noise_factor * rng_e[i];
    float p = pressure_in[i] + diffPressure * lapP + couplingGain * energy_in[i];
    float t = temperature_in[i] + diffTemperature * lapT + couplingGain * energy_in[i];
    float g = gravity_in[i] + diffGravity * lapG + couplingGain * potential_in[i];
    float v = potential_in[i] + diffPotential * lapV + couplingGain * (pressure_in[i] + gravity_in[i]);

    float gradXE = (energy_in[ir] - energy_in[il]) / 2.0f;
    float gradYE = (energy_in[id] - energy_in[iu]) / 2.0f;
    float dx = driftRetain * drift_x_in[i] + driftGain * gradXE;
    float dy = driftRetain * drift_y_in[i] + driftGain * gradYE;
    float driftMag = sqrt(dx * dx + dy * dy);
    float m = magnetism_in[i] + diffMagnetism * lapM + couplingGain * driftMag;

    e = clamp(e, -1.0f, 1.0f);
    p = clamp(p, -1.0f, 1.0f);
    g = clamp(g, -1.0f, 1.0f);
    m = clamp(m, -1.0f, 1.0f);
    t = clamp(t, -1.0f, 1.0f);
    v = clamp(v, -1.0f, 1.0f);

    energy_out[i] = e;
    pressure_out[i] = p;
    gravity_out[i] = g;
    magnetism_out[i] = m;
    temperature_out[i] = t;
    potential_out[i] = v;
    drift_x_out[i] = dx;
    drift_y_out[i] = dy;

    float phi = clamp(phase_in[i], -1.0f, 1.0f);
    float newPhase = sin(asin(phi) + (noise_level * noise_factor * rng_p[i]) * phaseNoiseGain);
    phase_out[i] = newPhase;

    float interf = 0.5f * e + 0.3f * p + 0.2f * t;
    interference[i] = interf;
    node_flag[i] = (interf > threshold) ? 1 : 0;

    const float interferenceLow = -1.0f + 0.33f * 2.0f;
    const float interferenceHigh = -1.0f + 0.66f * 2.0f;
    if (interf < interferenceLow) {
        topology[i] = -1;
    } else if (interf > interferenceHigh) {
        topology[i] = 1;
    } else {
        topology[i] = 0;
    }

    spin[i] = (interf >= 0.0f) ? 1 : -1;

    if (write_field_map) {
        float fm = (0.4f * e + 0.2f * p + 0.2f * t + 0.2f * v + 1.0f) / 2.0f;
        field_map[i] = clamp(fm, 0.0f, 1.0f);
    }
}
`
