package mycel

// Reproduce implements §4.5 `reproduction(activity, prototypes, E)`: host
// side. For each alive cell with nutrient >= threshold and activity >=
// threshold, pop a free slot, split nutrient, mutate mood by sigma*N(0,1)
// per channel, copy colony id, zero the child's edges, and mutate the
// parent's prototype vector into the child's slot. Recomputes TAct if
// anything spawned.
//
// prototypes is a [TCap][protoDim] slice of slices mutated in place, and
// protoDim is the per-cell prototype length. The field-gain argument E of
// the ABI call is not taken.
func (s *State) Reproduce(activity []float32, prototypes [][]float32, protoDim int) int {
	spawned := 0
	// Snapshot which cells are eligible before any mutation, so a spawn
	// this pass does not itself become eligible within the same pass.
	eligible := make([]int, 0)
	for t := 0; t < s.TCap; t++ {
		if s.Alive[t] == 1 && s.Nutrient[t] >= s.ReproThresholdNu && t < len(activity) && activity[t] >= s.ReproThresholdAct {
			eligible = append(eligible, t)
		}
	}

	for _, parent := range eligible {
		child, ok := s.PopFree()
		if !ok {
			break
		}
		childIdx := int(child)

		half := s.Nutrient[parent] / 2
		s.Nutrient[parent] = half
		s.Nutrient[childIdx] = half

		for c := 0; c < s.C; c++ {
			s.Mood[childIdx*s.C+c] = s.Mood[parent*s.C+c] + s.ReproMutationSig*float32(s.rng.NormFloat64())
		}
		s.ColonyID[childIdx] = s.ColonyID[parent]
		s.Alive[childIdx] = 1

		for k := 0; k < s.K; k++ {
			for c := 0; c < s.C; c++ {
				s.Pheromone[(childIdx*s.K+k)*s.C+c] = 0
			}
		}

		if prototypes != nil && protoDim > 0 && parent < len(prototypes) && childIdx < len(prototypes) {
			if len(prototypes[childIdx]) != protoDim {
				prototypes[childIdx] = make([]float32, protoDim)
			}
			for d := 0; d < protoDim; d++ {
				prototypes[childIdx][d] = prototypes[parent][d] + s.ReproMutationSig*float32(s.rng.NormFloat64())
			}
		}

		spawned++
	}

	if spawned > 0 {
		s.recomputeTAct()
	}
	return spawned
}

func (s *State) recomputeTAct() {
	maxAlive := -1
	for i := 0; i < s.TCap; i++ {
		if s.Alive[i] == 1 {
			maxAlive = i
		}
	}
	s.TAct = maxAlive + 1
}
