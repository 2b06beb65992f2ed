package bridge

import (
	"time"

	"github.com/mycelia-sim/ccdriver/pkg/core"
)

// DefaultRowsPerChunk is the default tile height for the Hebbian update (§4.7).
const DefaultRowsPerChunk = 256

// DefaultMaxBytes is the 64 MiB cap from §4.7/§9: the path refuses (with a
// warning) to allocate the N*N weights matrix beyond this size.
const DefaultMaxBytes = 64 * 1024 * 1024

// SocialHebbian computes an N*N outer-product Hebbian update of the spike
// vector on itself, tiled by rows with an abort check and optional sleep
// between chunks, grounded on the teacher's tiled-matrix-update style
// (pkg/synapse's hebbian.go in the source corpus).
type SocialHebbian struct {
	RowsPerChunk int
	MaxBytes     int
	SleepPerChunk time.Duration
}

// NewSocialHebbian returns a SocialHebbian configured with the §4.7 defaults.
func NewSocialHebbian() *SocialHebbian {
	return &SocialHebbian{RowsPerChunk: DefaultRowsPerChunk, MaxBytes: DefaultMaxBytes}
}

// Update runs the tiled Hebbian pass: weights[i*n+j] += lr*spikes[i]*spikes[j].
// aborted is polled between row chunks; if it reports true the update stops
// with the rows processed so far left in place (§5: "returns success with
// partial progress").
func (h *SocialHebbian) Update(weights, spikes []float32, lr float32, aborted func() bool) error {
	n := len(spikes)
	needed := n * n * 4
	if needed > h.MaxBytes {
		return core.NewError(core.KindAllocation, "social-Hebbian matrix exceeds byte cap, skipping", core.ErrAllocFailed, 0)
	}
	if len(weights) != n*n {
		return core.NewError(core.KindValidation, "weights matrix size mismatch", core.ErrDimMismatch, 0)
	}

	rows := h.RowsPerChunk
	if rows <= 0 {
		rows = DefaultRowsPerChunk
	}

	for start := 0; start < n; start += rows {
		if aborted != nil && aborted() {
			return nil
		}
		end := start + rows
		if end > n {
			end = n
		}
		for i := start; i < end; i++ {
			si := spikes[i]
			if si == 0 {
				continue
			}
			base := i * n
			for j := 0; j < n; j++ {
				weights[base+j] += lr * si * spikes[j]
			}
		}
		if h.SleepPerChunk > 0 {
			time.Sleep(h.SleepPerChunk)
		}
	}
	return nil
}
