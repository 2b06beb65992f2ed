package quantum

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ExportQASM renders seq as a minimal OpenQASM-2.0-style program: one
// rx/ry/rz line per uncontrolled gate and one crx/cry/crz line per
// controlled gate (gates with no axis are skipped), decimal qubit indices,
// theta in radians.
func ExportQASM(seq []Gate) string {
	var b strings.Builder
	b.WriteString("OPENQASM 2.0;\n")
	b.WriteString("include \"qelib1.inc\";\n")
	for _, g := range seq {
		if g.Axis == AxisNone {
			continue
		}
		name := axisGateName(g.Axis)
		if isControlled(g) {
			fmt.Fprintf(&b, "c%s(%s) q[%d],q[%d];\n", name, formatTheta(g.Theta), g.Control, g.Target)
			continue
		}
		fmt.Fprintf(&b, "%s(%s) q[%d];\n", name, formatTheta(g.Theta), g.Target)
	}
	return b.String()
}

// isControlled reports whether g carries a control qubit (-1 is the
// uncontrolled sentinel, matching ApplySequence's dispatch).
func isControlled(g Gate) bool {
	return g.Control >= 0
}

func axisGateName(a GateAxis) string {
	switch a {
	case AxisX:
		return "rx"
	case AxisY:
		return "ry"
	case AxisZ:
		return "rz"
	default:
		return "id"
	}
}

func formatTheta(theta float64) string {
	return strconv.FormatFloat(theta, 'g', -1, 64)
}

// ImportQASM parses the subset ExportQASM emits back into a gate sequence.
// Unrecognized lines (headers, includes, blanks) are skipped.
func ImportQASM(src string) ([]Gate, error) {
	var seq []Gate
	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimSuffix(scanner.Text(), ";"))
		if line == "" || strings.HasPrefix(line, "OPENQASM") || strings.HasPrefix(line, "include") {
			continue
		}
		g, ok, err := parseGateLine(line)
		if err != nil {
			return nil, fmt.Errorf("quantum: qasm parse error on %q: %w", line, err)
		}
		if ok {
			seq = append(seq, g)
		}
	}
	return seq, scanner.Err()
}

func parseGateLine(line string) (Gate, bool, error) {
	paren := strings.Index(line, "(")
	if paren < 0 {
		return Gate{}, false, nil
	}
	name := line[:paren]
	rest := line[paren+1:]
	close := strings.Index(rest, ")")
	if close < 0 {
		return Gate{}, false, fmt.Errorf("missing closing paren")
	}
	theta, err := strconv.ParseFloat(strings.TrimSpace(rest[:close]), 64)
	if err != nil {
		return Gate{}, false, err
	}
	qubits := rest[close+1:]
	controlled := strings.HasPrefix(name, "c")
	axisName := name
	if controlled {
		axisName = name[1:]
	}
	axis, ok := gateAxisFromName(axisName)
	if !ok {
		return Gate{}, false, fmt.Errorf("unknown gate %q", name)
	}
	idx := extractQubitIndices(qubits)
	g := Gate{Axis: axis, Theta: theta, Control: -1}
	switch {
	case controlled && len(idx) >= 2:
		g.Control, g.Target = idx[0], idx[1]
	case len(idx) >= 1:
		g.Target = idx[0]
	default:
		return Gate{}, false, fmt.Errorf("no qubit indices in %q", qubits)
	}
	return g, true, nil
}

func gateAxisFromName(name string) (GateAxis, bool) {
	switch name {
	case "rx":
		return AxisX, true
	case "ry":
		return AxisY, true
	case "rz":
		return AxisZ, true
	default:
		return AxisNone, false
	}
}

func extractQubitIndices(s string) []int {
	var out []int
	cur := -1
	for _, r := range s {
		if r >= '0' && r <= '9' {
			if cur < 0 {
				cur = 0
			}
			cur = cur*10 + int(r-'0')
			continue
		}
		if cur >= 0 {
			out = append(out, cur)
			cur = -1
		}
	}
	if cur >= 0 {
		out = append(out, cur)
	}
	return out
}
