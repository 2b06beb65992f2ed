package persist

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mycelia-sim/ccdriver/pkg/core"
	"github.com/mycelia-sim/ccdriver/pkg/mycel"
)

// SnapshotSummary is a lightweight, cross-language view of a mycel state:
// counts and aggregate stats rather than the full fixed-layout dump Save
// writes (§4.11). MCP clients want a typed, self-describing payload here,
// not the raw binary format the C ABI's save/load pair uses.
type SnapshotSummary struct {
	TCap         int       `msgpack:"t_cap"`
	Channels     int       `msgpack:"channels"`
	Neighbors    int       `msgpack:"neighbors"`
	ActiveCount  int       `msgpack:"active_count"`
	MeanNutrient float32   `msgpack:"mean_nutrient"`
	MeanMood     []float32 `msgpack:"mean_mood"`
}

// Summarize computes a SnapshotSummary over s's current state.
func Summarize(s *mycel.State) SnapshotSummary {
	sum := SnapshotSummary{
		TCap:      s.TCap,
		Channels:  s.C,
		Neighbors: s.K,
	}
	sum.ActiveCount = s.AliveCount()

	var nutrientTotal float32
	aliveN := 0
	for i, alive := range s.Alive {
		if alive == 0 {
			continue
		}
		nutrientTotal += s.Nutrient[i]
		aliveN++
	}
	if aliveN > 0 {
		sum.MeanNutrient = nutrientTotal / float32(aliveN)
	}

	sum.MeanMood = make([]float32, s.C)
	if aliveN > 0 {
		for i, alive := range s.Alive {
			if alive == 0 {
				continue
			}
			for c := 0; c < s.C; c++ {
				sum.MeanMood[c] += s.Mood[i*s.C+c]
			}
		}
		for c := range sum.MeanMood {
			sum.MeanMood[c] /= float32(aliveN)
		}
	}
	return sum
}

// EncodeSummary msgpack-encodes a snapshot summary for transport over MCP.
func EncodeSummary(s *mycel.State) ([]byte, error) {
	b, err := msgpack.Marshal(Summarize(s))
	if err != nil {
		return nil, core.NewError(core.KindValidation, "encode snapshot summary", err, 0)
	}
	return b, nil
}

// DecodeSummary reverses EncodeSummary.
func DecodeSummary(b []byte) (SnapshotSummary, error) {
	var sum SnapshotSummary
	if err := msgpack.Unmarshal(b, &sum); err != nil {
		return SnapshotSummary{}, core.NewError(core.KindValidation, "decode snapshot summary", err, 0)
	}
	return sum, nil
}
