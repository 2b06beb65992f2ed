package main

import "C"

import (
	"unsafe"

	"github.com/mycelia-sim/ccdriver/pkg/render"
)

// render_frame_to_buffer implements §6's CPU-fallback render entry point.
// Agents are passed as three parallel arrays (x, y, hue); trails are not
// threaded through the C ABI in this cut — polyline trails render as empty
// for every agent, matching the renderer's "trail optional" contract.
//
//export render_frame_to_buffer
func render_frame_to_buffer(gpuIndex C.int, w, h C.int, outRGBA8 *C.uchar, agentX, agentY, agentHue *C.float, nAgents C.int, exposure, agentRadius, trailThickness, clipPercentile C.float) C.int {
	var agents []render.Agent
	if nAgents > 0 {
		xs := unsafe.Slice((*float32)(unsafe.Pointer(agentX)), int(nAgents))
		ys := unsafe.Slice((*float32)(unsafe.Pointer(agentY)), int(nAgents))
		hues := unsafe.Slice((*float32)(unsafe.Pointer(agentHue)), int(nAgents))
		agents = make([]render.Agent, nAgents)
		for i := range agents {
			agents[i] = render.Agent{X: xs[i], Y: ys[i], Hue: hues[i]}
		}
	}

	opt := render.Options{
		Width: int(w), Height: int(h),
		Agents:         agents,
		Exposure:       float32(exposure),
		AgentRadius:    float32(agentRadius),
		TrailThickness: float32(trailThickness),
		ClipPercentile: float32(clipPercentile),
	}

	v, err := drv.Call(int(gpuIndex), func() (any, error) { return drv.RenderFrame(int(gpuIndex), opt) })
	if err != nil {
		return 0
	}
	buf := v.([]byte)
	if outRGBA8 != nil {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(outRGBA8)), len(buf))
		copy(dst, buf)
	}
	return 1
}
