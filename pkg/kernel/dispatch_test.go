package kernel

import (
	"testing"

	"github.com/mycelia-sim/ccdriver/pkg/core"
)

func TestDispatcherUnknownCommand(t *testing.T) {
	d := NewDispatcher()
	e := NewEnqueuer(core.KernelConfig{})
	if err := d.Dispatch(e, core.CmdSubQGStep, nil); err == nil {
		t.Fatal("expected error dispatching an unregistered command")
	}
}

func TestDispatcherRegisterAndDispatch(t *testing.T) {
	d := NewDispatcher()
	called := false
	d.Register(core.CmdMycelNutrient, func(e *Enqueuer, cmd interface{}) error {
		called = true
		return nil
	})
	e := NewEnqueuer(core.KernelConfig{})
	if err := d.Dispatch(e, core.CmdMycelNutrient, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler was not invoked")
	}
}

func TestRequireAtomics32(t *testing.T) {
	if err := RequireAtomics32(core.BuildCaps{Atomics32: false}); err == nil {
		t.Fatal("expected capability error when atomics32 missing")
	}
	if err := RequireAtomics32(core.BuildCaps{Atomics32: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestArithmeticOpNeedsAtomics32(t *testing.T) {
	if !core.OpProtoSegmentedSum.NeedsAtomics32() {
		t.Error("proto_segmented_sum should require atomics32")
	}
	if core.OpMatmul.NeedsAtomics32() {
		t.Error("matmul should not require atomics32")
	}
}

func TestArithmeticCommandZeroSized(t *testing.T) {
	c := &core.ArithmeticCommand{Op: core.OpMatmul, Shape: [4]int32{0, 4, 4, 0}}
	if !c.IsZeroSized() {
		t.Fatal("shape with leading zero dimension should be zero-sized")
	}
	c2 := &core.ArithmeticCommand{Op: core.OpMatmul, Shape: [4]int32{4, 4, 0, 0}}
	if c2.IsZeroSized() {
		t.Fatal("shape with non-zero leading dimension should not be zero-sized")
	}
}

func TestArithmeticGlobalSize(t *testing.T) {
	got := arithmeticGlobalSize([4]int32{4, 8, 0, 0})
	if got != 32 {
		t.Fatalf("arithmeticGlobalSize = %d, want 32", got)
	}
}

func TestComputeReductionParams(t *testing.T) {
	p, err := ComputeReductionParams(1024, 65536, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.LWS != 256 {
		t.Fatalf("LWS = %d, want 256", p.LWS)
	}
	if p.LocalMemBytes != 256*4 {
		t.Fatalf("LocalMemBytes = %d, want %d", p.LocalMemBytes, 256*4)
	}

	// Clamp to a small max work-group size.
	p2, err := ComputeReductionParams(64, 65536, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p2.LWS != 64 {
		t.Fatalf("LWS = %d, want 64", p2.LWS)
	}
	if p2.LocalMemBytes != 64*8 {
		t.Fatalf("LocalMemBytes = %d, want %d (fp64 accumulator)", p2.LocalMemBytes, 64*8)
	}

	// Local memory budget exceeded.
	if _, err := ComputeReductionParams(1<<20, 16, true); err == nil {
		t.Fatal("expected error when local memory exceeds device budget")
	}
}
