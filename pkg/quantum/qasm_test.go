package quantum

import (
	"math"
	"testing"
)

func TestQASMRoundTrip(t *testing.T) {
	seq := []Gate{
		{Axis: AxisX, Theta: math.Pi, Target: 0, Control: -1},
		{Axis: AxisX, Theta: math.Pi, Target: 1, Control: 0},
		{Axis: AxisZ, Theta: math.Pi / 4, Target: 2, Control: -1},
	}
	src := ExportQASM(seq)
	parsed, err := ImportQASM(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != len(seq) {
		t.Fatalf("len(parsed) = %d, want %d", len(parsed), len(seq))
	}
	for i, g := range parsed {
		want := seq[i]
		if g.Axis != want.Axis || g.Target != want.Target || g.Control != want.Control {
			t.Fatalf("gate %d: got %+v, want %+v", i, g, want)
		}
		if math.Abs(g.Theta-want.Theta) > 1e-9 {
			t.Fatalf("gate %d theta: got %v, want %v", i, g.Theta, want.Theta)
		}
	}
}

func TestImportQASMSkipsHeaderLines(t *testing.T) {
	parsed, err := ImportQASM("OPENQASM 2.0;\ninclude \"qelib1.inc\";\n\nrx(1.5) q[3];\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 1 || parsed[0].Target != 3 {
		t.Fatalf("got %+v", parsed)
	}
}
