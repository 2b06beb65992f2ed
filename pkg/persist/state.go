// Package persist implements save_mycel_state/load_mycel_state (§4.11): a
// fixed binary layout with a magic+version header, written atomically.
package persist

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/mycelia-sim/ccdriver/pkg/core"
	"github.com/mycelia-sim/ccdriver/pkg/mycel"
)

const (
	magic   uint32 = 0x4D59434C
	version uint32 = 1
)

var order = binary.LittleEndian

// Save writes the full mycel state to path using the exact field order of
// §4.11: header, then alive, colony_id, free_list, nutrient, mood,
// reinforce_gain, kappa_mood, neigh_idx, decay, diffu, pheromone,
// potential, subqg_field, repro thresholds, decay/diffu defaults,
// nutrient_recovery, kappa_nutrient.
func Save(s *mycel.State, path string) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return core.NewError(core.KindValidation, "create state file", err, 0)
	}
	w := bufio.NewWriter(f)

	writeErr := writeAll(w, s)
	if writeErr == nil {
		writeErr = w.Flush()
	}
	if writeErr == nil {
		writeErr = f.Sync()
	}
	f.Close()
	if writeErr != nil {
		os.Remove(tmp)
		return core.NewError(core.KindValidation, "write state file", writeErr, 0)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return core.NewError(core.KindValidation, "rename state file", err, 0)
	}
	return nil
}

func writeAll(w *bufio.Writer, s *mycel.State) error {
	header := []uint32{magic, version, uint32(s.TCap), uint32(s.C), uint32(s.K), uint32(s.TAct), uint32(s.FreeHead)}
	for _, v := range header {
		if err := binary.Write(w, order, v); err != nil {
			return err
		}
	}

	writers := []func() error{
		func() error { return binary.Write(w, order, s.Alive) },
		func() error { return binary.Write(w, order, s.ColonyID) },
		func() error { return binary.Write(w, order, s.FreeList) },
		func() error { return binary.Write(w, order, s.Nutrient) },
		func() error { return binary.Write(w, order, s.Mood) },
		func() error { return binary.Write(w, order, s.ReinforceGain) },
		func() error { return binary.Write(w, order, s.KappaMood) },
		func() error { return binary.Write(w, order, s.NeighIdx) },
		func() error { return binary.Write(w, order, s.Decay) },
		func() error { return binary.Write(w, order, s.Diffu) },
		func() error { return binary.Write(w, order, s.Pheromone) },
		func() error { return binary.Write(w, order, s.Potential) },
		func() error { return binary.Write(w, order, s.SubQGField) },
		func() error { return binary.Write(w, order, s.ReproThresholdNu) },
		func() error { return binary.Write(w, order, s.ReproThresholdAct) },
		func() error { return binary.Write(w, order, s.ReproMutationSig) },
		func() error { return binary.Write(w, order, s.DefaultDecay) },
		func() error { return binary.Write(w, order, s.DefaultDiffusion) },
		func() error { return binary.Write(w, order, s.NutrientRecovery) },
		func() error { return binary.Write(w, order, s.KappaNutrient) },
	}
	for _, wr := range writers {
		if err := wr(); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a state file, verifying magic/version (§7: "magic/version
// mismatch -> refuse load"), and reconstructs a state sized to the recorded
// T_cap/C/K. The caller is responsible for re-uploading the result to the
// device.
func Load(path string) (*mycel.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewError(core.KindValidation, "open state file", err, 0)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var gotMagic, gotVersion, tCap, c, k, tAct, freeHead uint32
	for _, dst := range []*uint32{&gotMagic, &gotVersion, &tCap, &c, &k, &tAct, &freeHead} {
		if err := binary.Read(r, order, dst); err != nil {
			return nil, core.NewError(core.KindValidation, "read state header", err, 0)
		}
	}
	if gotMagic != magic {
		return nil, core.NewError(core.KindValidation, fmt.Sprintf("bad magic 0x%X", gotMagic), core.ErrInvalidArgument, 0)
	}
	if gotVersion != version {
		return nil, core.NewError(core.KindValidation, fmt.Sprintf("unsupported version %d", gotVersion), core.ErrInvalidArgument, 0)
	}

	s := mycel.New(int(tCap), int(c), int(k), 0)
	s.TAct = int(tAct)
	s.FreeHead = int(freeHead)

	readers := []func() error{
		func() error { return binary.Read(r, order, s.Alive) },
		func() error { return binary.Read(r, order, s.ColonyID) },
		func() error { return binary.Read(r, order, s.FreeList) },
		func() error { return binary.Read(r, order, s.Nutrient) },
		func() error { return binary.Read(r, order, s.Mood) },
		func() error { return binary.Read(r, order, s.ReinforceGain) },
		func() error { return binary.Read(r, order, s.KappaMood) },
		func() error { return binary.Read(r, order, s.NeighIdx) },
		func() error { return binary.Read(r, order, s.Decay) },
		func() error { return binary.Read(r, order, s.Diffu) },
		func() error { return binary.Read(r, order, s.Pheromone) },
		func() error { return binary.Read(r, order, s.Potential) },
		func() error { return binary.Read(r, order, s.SubQGField) },
		func() error { return binary.Read(r, order, &s.ReproThresholdNu) },
		func() error { return binary.Read(r, order, &s.ReproThresholdAct) },
		func() error { return binary.Read(r, order, &s.ReproMutationSig) },
		func() error { return binary.Read(r, order, &s.DefaultDecay) },
		func() error { return binary.Read(r, order, &s.DefaultDiffusion) },
		func() error { return binary.Read(r, order, &s.NutrientRecovery) },
		func() error { return binary.Read(r, order, &s.KappaNutrient) },
	}
	for _, rd := range readers {
		if err := rd(); err != nil {
			return nil, core.NewError(core.KindValidation, "read state body", err, 0)
		}
	}
	return s, nil
}
