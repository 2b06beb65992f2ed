package render

import (
	"os"
	"testing"
)

// TestFrameToBufferOutputShape is §8's "Renderer output shape" property:
// every call writes exactly W*H*4 bytes, alpha channel is 255.
func TestFrameToBufferOutputShape(t *testing.T) {
	opt := Options{Width: 8, Height: 6, Exposure: 1, AgentRadius: 0.05, ClipPercentile: 0.99}
	out, err := FrameToBuffer(opt)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 8*6*4 {
		t.Fatalf("len(out) = %d, want %d", len(out), 8*6*4)
	}
	for i := 3; i < len(out); i += 4 {
		if out[i] != 255 {
			t.Fatalf("alpha at pixel %d = %d, want 255", i/4, out[i])
		}
	}
}

func TestFrameToBufferRejectsNonPositiveDims(t *testing.T) {
	if _, err := FrameToBuffer(Options{Width: 0, Height: 4}); err == nil {
		t.Fatal("expected error for zero width")
	}
}

// TestTiledDispatchMatchesUntiled checks the "CPU fallback output equals
// the GPU output under a tile-invariant tolerance" property on the host
// path itself: tiling must not change the shading result.
func TestTiledDispatchMatchesUntiled(t *testing.T) {
	opt := Options{
		Width: 16, Height: 16, Exposure: 0.5,
		SubQGField: makeField(16 * 16),
		Agents:     []Agent{{X: 0.5, Y: 0.5, Hue: 0.25}},
		AgentRadius: 0.02,
	}

	os.Unsetenv("MYCEL_TILE_H")
	os.Unsetenv("MYCEL_SAFE_RENDER")
	untiled, err := FrameToBuffer(opt)
	if err != nil {
		t.Fatal(err)
	}

	os.Setenv("MYCEL_TILE_H", "4")
	defer os.Unsetenv("MYCEL_TILE_H")
	tiled, err := FrameToBuffer(opt)
	if err != nil {
		t.Fatal(err)
	}

	if len(untiled) != len(tiled) {
		t.Fatalf("length mismatch: %d vs %d", len(untiled), len(tiled))
	}
	mismatches := 0
	for i := range untiled {
		if untiled[i] != tiled[i] {
			mismatches++
		}
	}
	if mismatches != 0 {
		t.Fatalf("tiled/untiled output diverged at %d of %d bytes", mismatches, len(untiled))
	}
}

func makeField(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i%11) / 11
	}
	return out
}

func TestDebugGradientFrameShape(t *testing.T) {
	out := DebugGradientFrame(4, 4)
	if len(out) != 4*4*4 {
		t.Fatalf("len = %d, want %d", len(out), 4*4*4)
	}
}
