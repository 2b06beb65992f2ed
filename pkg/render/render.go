// Package render implements the host-side fallback path of the frame
// renderer (§4.10): the same RGBA8 shading formula the GPU kernels compute,
// used when OpenCL is unavailable or MYCEL_SAFE_RENDER=1, and tiled via
// MYCEL_TILE_H to bound per-dispatch working-set size.
package render

import (
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/mycelia-sim/ccdriver/pkg/core"
)

// Agent is one renderable agent: position in [0,1]^2, hue in [0,1], and an
// optional polyline trail of prior positions.
type Agent struct {
	X, Y  float32
	Hue   float32
	Trail []Point
}

// Point is one trail vertex in [0,1]^2.
type Point struct{ X, Y float32 }

// Options controls a single render_frame_to_buffer call (§6).
type Options struct {
	Width, Height  int
	SubQGField     []float32 // W*H, height channel
	Pheromone      []float32 // W*H*3, first 3 channels averaged over K neighbors, pre-reduced by the caller
	Agents         []Agent
	Exposure       float32
	AgentRadius    float32
	TrailThickness float32
	ClipPercentile float32 // e.g. 0.99
}

const defaultTileH = 32

// FrameToBuffer renders into a pre-sized W*H*4 RGBA8 buffer (§4.10: "every
// call writes exactly W*H*4 bytes; alpha channel is 255"). Tiled dispatch
// runs when MYCEL_SAFE_RENDER=1 or MYCEL_TILE_H is set; the output is
// identical to a non-tiled pass since each tile is row-contiguous and
// independent.
func FrameToBuffer(opt Options) ([]byte, error) {
	if opt.Width <= 0 || opt.Height <= 0 {
		return nil, core.NewError(core.KindValidation, "non-positive render dimensions", core.ErrInvalidArgument, 0)
	}
	out := make([]byte, opt.Width*opt.Height*4)

	tileH := tileHeight(opt.Height)
	for y0 := 0; y0 < opt.Height; y0 += tileH {
		y1 := y0 + tileH
		if y1 > opt.Height {
			y1 = opt.Height
		}
		shadeTile(opt, out, y0, y1)
	}

	blendTrails(opt, out)
	blendAgentBodies(opt, out)
	clipPercentile(out, opt.ClipPercentile)
	return out, nil
}

func tileHeight(h int) int {
	if v := os.Getenv("MYCEL_TILE_H"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if os.Getenv("MYCEL_SAFE_RENDER") == "1" {
		return defaultTileH
	}
	return h
}

// shadeTile computes the base diffuse+specular+foam+water-gradient palette
// plus pheromone color for rows [y0,y1).
func shadeTile(opt Options, out []byte, y0, y1 int) {
	w := opt.Width
	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			height := float32(0)
			if idx < len(opt.SubQGField) {
				height = opt.SubQGField[idx]
			}
			r, g, b := shadeHeight(height)

			if len(opt.Pheromone) >= (idx+1)*3 {
				pr, pg, pb := opt.Pheromone[idx*3], opt.Pheromone[idx*3+1], opt.Pheromone[idx*3+2]
				r += pr * opt.Exposure
				g += pg * opt.Exposure
				b += pb * opt.Exposure
			}

			o := idx * 4
			out[o+0] = toByte(r)
			out[o+1] = toByte(g)
			out[o+2] = toByte(b)
			out[o+3] = 255
		}
	}
}

// shadeHeight implements the diffuse+specular+foam+water-gradient palette:
// a blue-to-white gradient by height, with a specular highlight near the
// top of the range and foam whitening above a threshold.
func shadeHeight(h float32) (r, g, b float32) {
	t := (h + 1) / 2 // [-1,1] -> [0,1]
	deepR, deepG, deepB := float32(0.05), float32(0.15), float32(0.45)
	shallowR, shallowG, shallowB := float32(0.2), float32(0.55), float32(0.75)
	r = deepR + (shallowR-deepR)*t
	g = deepG + (shallowG-deepG)*t
	b = deepB + (shallowB-deepB)*t

	specular := float32(math.Pow(float64(t), 16)) * 0.6
	r += specular
	g += specular
	b += specular

	if t > 0.85 {
		foam := (t - 0.85) / 0.15
		r += foam * 0.3
		g += foam * 0.3
		b += foam * 0.3
	}
	return
}

func blendTrails(opt Options, out []byte) {
	w, h := opt.Width, opt.Height
	thickness := opt.TrailThickness
	if thickness <= 0 {
		return
	}
	for _, a := range opt.Agents {
		for i := 1; i < len(a.Trail); i++ {
			p0, p1 := a.Trail[i-1], a.Trail[i]
			alpha := float32(i) / float32(len(a.Trail)) // fade toward the tail
			drawSegment(out, w, h, p0, p1, thickness, a.Hue, alpha)
		}
	}
}

func blendAgentBodies(opt Options, out []byte) {
	w, h := opt.Width, opt.Height
	radius := opt.AgentRadius
	if radius <= 0 {
		return
	}
	for _, a := range opt.Agents {
		drawDisc(out, w, h, a.X, a.Y, radius, a.Hue, 1.0)
	}
}

func drawSegment(out []byte, w, h int, p0, p1 Point, thickness, hue, alpha float32) {
	steps := 16
	for i := 0; i <= steps; i++ {
		t := float32(i) / float32(steps)
		x := p0.X + (p1.X-p0.X)*t
		y := p0.Y + (p1.Y-p0.Y)*t
		drawDisc(out, w, h, x, y, thickness/2, hue, alpha)
	}
}

func drawDisc(out []byte, w, h int, cx, cy, radius, hue, alpha float32) {
	px, py := int(cx*float32(w)), int(cy*float32(h))
	r := int(radius*float32(w)) + 1
	if r < 1 {
		r = 1
	}
	cr, cg, cb := hueToRGB(hue)
	for dy := -r; dy <= r; dy++ {
		y := py + dy
		if y < 0 || y >= h {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			x := px + dx
			if x < 0 || x >= w {
				continue
			}
			dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
			if dist > float32(r) {
				continue
			}
			// anti-alias the disc edge over the last pixel of radius
			edge := float32(1)
			if float32(r) > 0 {
				edge = clamp01(float32(r) - dist)
			}
			a := alpha * edge
			idx := (y*w + x) * 4
			out[idx+0] = blendByte(out[idx+0], cr, a)
			out[idx+1] = blendByte(out[idx+1], cg, a)
			out[idx+2] = blendByte(out[idx+2], cb, a)
			out[idx+3] = 255
		}
	}
}

func hueToRGB(hue float32) (r, g, b float32) {
	h := hue - float32(math.Floor(float64(hue)))
	i := int(h * 6)
	f := h*6 - float32(i)
	switch i % 6 {
	case 0:
		return 1, f, 0
	case 1:
		return 1 - f, 1, 0
	case 2:
		return 0, 1, f
	case 3:
		return 0, 1 - f, 1
	case 4:
		return f, 0, 1
	default:
		return 1, 0, 1 - f
	}
}

func blendByte(dst byte, srcComponent, alpha float32) byte {
	src := toByte(srcComponent)
	return byte(float32(dst)*(1-alpha) + float32(src)*alpha)
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

func toByte(v float32) byte {
	v = clamp01(v)
	return byte(v*255 + 0.5)
}

// clipPercentile clips each RGB channel to its percentile value across the
// buffer (§4.10: "Clip final channels to a percentile value"); alpha is
// left untouched.
func clipPercentile(out []byte, percentile float32) {
	if percentile <= 0 || percentile >= 1 {
		return
	}
	n := len(out) / 4
	if n == 0 {
		return
	}
	for ch := 0; ch < 3; ch++ {
		vals := make([]byte, n)
		for i := 0; i < n; i++ {
			vals[i] = out[i*4+ch]
		}
		sort.Slice(vals, func(a, b int) bool { return vals[a] < vals[b] })
		idx := int(float32(n-1) * percentile)
		cap := vals[idx]
		for i := 0; i < n; i++ {
			if out[i*4+ch] > cap {
				out[i*4+ch] = cap
			}
		}
	}
}

// DebugGradientFrame writes a pure diagonal gradient (§4.10). Nothing in the
// driver renders it at startup; DebugRenderEnabled reports the
// MYCEL_DEBUG_RENDER setting for callers that do.
func DebugGradientFrame(w, h int) []byte {
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := (y*w + x) * 4
			out[idx+0] = byte(255 * x / max1(w-1))
			out[idx+1] = byte(255 * y / max1(h-1))
			out[idx+2] = 128
			out[idx+3] = 255
		}
	}
	return out
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// DebugRenderEnabled reports whether the startup debug-gradient frame
// should run: on by default, off only when MYCEL_DEBUG_RENDER=0.
func DebugRenderEnabled() bool {
	return os.Getenv("MYCEL_DEBUG_RENDER") != "0"
}
