package persist

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mycelia-sim/ccdriver/pkg/mycel"
)

func buildState(t *testing.T) *mycel.State {
	t.Helper()
	s := mycel.New(6, 2, 2, 7)
	s.Init(4, 0.02, 0.05, 0.01)
	if err := s.SetNeighborsSparse([]int32{1, 2, 0, 3, 0, 3, 1, 2, -1, -1, -1, -1}); err != nil {
		t.Fatal(err)
	}
	s.SetReproParams(0.2, 0.5, 0.01)
	s.Pheromone[0] = 0.75
	s.Mood[1] = -0.3
	s.Potential[2] = 0.9
	s.SubQGField[3] = 0.1
	s.KappaNutrient = 0.4
	s.KappaMood[0] = 0.2
	return s
}

// TestPersistenceRoundTrip is §8's "Persistence round-trip" property:
// load(save(M)) == M byte-for-byte on numeric arrays, exactly on integers.
func TestPersistenceRoundTrip(t *testing.T) {
	s := buildState(t)
	path := filepath.Join(t.TempDir(), "mycel_state.bin")

	if err := Save(s, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.TCap != s.TCap || loaded.C != s.C || loaded.K != s.K || loaded.TAct != s.TAct || loaded.FreeHead != s.FreeHead {
		t.Fatalf("header mismatch: got %+v want TCap=%d C=%d K=%d TAct=%d FreeHead=%d", loaded, s.TCap, s.C, s.K, s.TAct, s.FreeHead)
	}
	if !reflect.DeepEqual(loaded.Alive, s.Alive) {
		t.Fatalf("alive mismatch: got %v want %v", loaded.Alive, s.Alive)
	}
	if !reflect.DeepEqual(loaded.ColonyID, s.ColonyID) {
		t.Fatalf("colony_id mismatch")
	}
	if !reflect.DeepEqual(loaded.FreeList, s.FreeList) {
		t.Fatalf("free_list mismatch")
	}
	if !reflect.DeepEqual(loaded.NeighIdx, s.NeighIdx) {
		t.Fatalf("neigh_idx mismatch")
	}
	if !reflect.DeepEqual(loaded.Pheromone, s.Pheromone) {
		t.Fatalf("pheromone mismatch")
	}
	if !reflect.DeepEqual(loaded.Mood, s.Mood) {
		t.Fatalf("mood mismatch")
	}
	if !reflect.DeepEqual(loaded.Potential, s.Potential) {
		t.Fatalf("potential mismatch")
	}
	if !reflect.DeepEqual(loaded.SubQGField, s.SubQGField) {
		t.Fatalf("subqg_field mismatch")
	}
	if loaded.ReproThresholdNu != s.ReproThresholdNu || loaded.ReproThresholdAct != s.ReproThresholdAct || loaded.ReproMutationSig != s.ReproMutationSig {
		t.Fatalf("repro params mismatch")
	}
	if loaded.KappaNutrient != s.KappaNutrient {
		t.Fatalf("kappa_nutrient mismatch: got %v want %v", loaded.KappaNutrient, s.KappaNutrient)
	}
	if !reflect.DeepEqual(loaded.KappaMood, s.KappaMood) {
		t.Fatalf("kappa_mood mismatch")
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	if err := os.WriteFile(path, []byte{0, 0, 0, 0, 1, 0, 0, 0}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestLoadRejectsVersionMismatch(t *testing.T) {
	s := buildState(t)
	path := filepath.Join(t.TempDir(), "v.bin")
	if err := Save(s, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Byte 4 begins the version field (magic is the first 4 bytes).
	data[4] = 99
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for version mismatch")
	}
}
