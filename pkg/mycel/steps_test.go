package mycel

import "testing"

// TestMycelReinforceMinimal is the §8 concrete scenario 2.
func TestMycelReinforceMinimal(t *testing.T) {
	s := New(4, 3, 2, 1)
	for i := range s.Alive {
		s.Alive[i] = 1
	}
	neigh := []int32{1, 2, 0, 3, 0, 3, 1, 2}
	if err := s.SetNeighborsSparse(neigh); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPheromoneGains([]float32{1, 1, 1}); err != nil {
		t.Fatal(err)
	}
	for i := range s.Mood {
		s.Mood[i] = 0
	}
	for i := range s.Pheromone {
		s.Pheromone[i] = 0
	}
	activity := []float32{1, 0, 0, 0}
	if err := s.Reinforce(activity); err != nil {
		t.Fatal(err)
	}
	for k := 0; k < s.K; k++ {
		for c := 0; c < s.C; c++ {
			got := s.Pheromone[(0*s.K+k)*s.C+c]
			if got != 1 {
				t.Errorf("cell 0 edge %d channel %d = %v, want 1", k, c, got)
			}
		}
	}
	for t2 := 1; t2 < s.TCap; t2++ {
		for k := 0; k < s.K; k++ {
			for c := 0; c < s.C; c++ {
				got := s.Pheromone[(t2*s.K+k)*s.C+c]
				if got != 0 {
					t.Errorf("cell %d edge %d channel %d = %v, want 0 (unchanged)", t2, k, c, got)
				}
			}
		}
	}
}

// TestColonyRelabelConvergence is the §8 concrete scenario 3: unique colony
// ids converge to a shared majority label within a connected component.
func TestColonyRelabelConvergence(t *testing.T) {
	// 4x4 dense grid, K=4 (von Neumann neighbors, clamped at edges to self
	// i.e. -1 skipped), fully connected.
	w, h := 4, 4
	tCap := w * h
	s := New(tCap, 2, 4, 2)
	for i := 0; i < tCap; i++ {
		s.Alive[i] = 1
		s.ColonyID[i] = uint8(i + 1)
	}
	neigh := make([]int32, tCap*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t0 := y*w + x
			dirs := [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
			for k, d := range dirs {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					neigh[t0*4+k] = -1
				} else {
					neigh[t0*4+k] = int32(ny*w + nx)
				}
			}
		}
	}
	if err := s.SetNeighborsSparse(neigh); err != nil {
		t.Fatal(err)
	}
	for i := range s.Pheromone {
		s.Pheromone[i] = 1 // uniform weight so majority vote is deterministic by adjacency
	}

	s.ColonyUpdate(20)

	first := s.ColonyID[0]
	for i := 1; i < tCap; i++ {
		if s.ColonyID[i] != first {
			t.Fatalf("cell %d has label %d, want shared label %d after convergence", i, s.ColonyID[i], first)
		}
	}
}

// TestPheromonePositivity is the §8 "pheromone positivity" property: after
// reinforce and after diffuse_decay, pheromone >= 0 for all edges/channels.
func TestPheromonePositivity(t *testing.T) {
	s := New(6, 2, 3, 3)
	for i := range s.Alive {
		s.Alive[i] = 1
	}
	neigh := make([]int32, s.TCap*s.K)
	for i := range neigh {
		neigh[i] = int32((i + 1) % s.TCap)
	}
	s.SetNeighborsSparse(neigh)
	s.SetPheromoneGains([]float32{1, 1})
	s.SetDiffusionParams(0.5, 0.3)
	for i := range s.Pheromone {
		s.Pheromone[i] = s.rng.Float32()*2 - 1 // start with some negative seeds
	}
	activity := fillFloat32(s.TCap, 1)
	s.Reinforce(activity)
	for _, p := range s.Pheromone {
		if p < 0 {
			t.Fatalf("pheromone went negative after reinforce: %v", p)
		}
	}
	s.DiffuseDecay()
	for _, p := range s.Pheromone {
		if p < 0 {
			t.Fatalf("pheromone went negative after diffuse_decay: %v", p)
		}
	}
}

func TestAliveFreeListBijection(t *testing.T) {
	s := New(16, 2, 3, 5)
	s.Init(6, 0.02, 0.05, 0.01)
	if got, want := s.AliveCount()+s.FreeHead, s.TCap; got != want {
		t.Fatalf("alive+free_head = %d, want T_cap = %d", got, want)
	}
	for i := 0; i < s.FreeHead; i++ {
		idx := s.FreeList[i]
		if s.Alive[idx] == 1 {
			t.Fatalf("free_list[%d]=%d is marked alive", i, idx)
		}
	}
}

func TestReproduceMaintainsBijection(t *testing.T) {
	s := New(8, 2, 2, 11)
	s.Init(2, 0.02, 0.05, 0.01)
	s.SetReproParams(0.1, 0.1, 0.05)
	for i := 0; i < s.TAct; i++ {
		s.Nutrient[i] = 1
	}
	activity := fillFloat32(s.TCap, 1)
	spawned := s.Reproduce(activity, nil, 0)
	if spawned == 0 {
		t.Fatal("expected at least one reproduction event")
	}
	if got, want := s.AliveCount()+s.FreeHead, s.TCap; got != want {
		t.Fatalf("alive+free_head = %d, want T_cap = %d after reproduction", got, want)
	}
}
