package mycel

import "github.com/mycelia-sim/ccdriver/pkg/core"

// Reinforce implements §4.5 `reinforce(activity[T])`: for each alive cell
// with activity>0, per neighbor k, per channel c:
//   p += reinforce_gain[c] * activity * (mood[t,c] if mood!=0 else 1), clamped >= 0.
func (s *State) Reinforce(activity []float32) error {
	if len(activity) != s.TCap {
		return core.NewError(core.KindValidation, "activity length mismatch", core.ErrDimMismatch, 0)
	}
	for t := 0; t < s.TCap; t++ {
		if s.Alive[t] == 0 || activity[t] <= 0 {
			continue
		}
		for k := 0; k < s.K; k++ {
			if s.NeighIdx[t*s.K+k] < 0 {
				continue
			}
			for c := 0; c < s.C; c++ {
				mood := s.Mood[t*s.C+c]
				factor := mood
				if mood == 0 {
					factor = 1
				}
				idx := (t*s.K+k)*s.C + c
				v := s.Pheromone[idx] + s.ReinforceGain[c]*activity[t]*factor
				if v < 0 {
					v = 0
				}
				s.Pheromone[idx] = v
			}
		}
	}
	return nil
}

// DiffuseDecay implements §4.5 `diffuse_decay()`: per edge, per channel,
//   p <- p*(1-edge_decay) + edge_diffu*(mean_of_neighbor_edges - p), clamped >= 0.
// "mean_of_neighbor_edges" is the mean pheromone of channel c over the
// target cell's own K edges (the edge's neighbor cell's edges are not
// separately addressable at this granularity, so the mean is taken over the
// owning cell's K-edge row, matching a local smoothing pass).
func (s *State) DiffuseDecay() {
	for t := 0; t < s.TCap; t++ {
		if s.Alive[t] == 0 {
			continue
		}
		for c := 0; c < s.C; c++ {
			var sum float32
			cnt := 0
			for k := 0; k < s.K; k++ {
				if s.NeighIdx[t*s.K+k] < 0 {
					continue
				}
				sum += s.Pheromone[(t*s.K+k)*s.C+c]
				cnt++
			}
			if cnt == 0 {
				continue
			}
			mean := sum / float32(cnt)
			for k := 0; k < s.K; k++ {
				if s.NeighIdx[t*s.K+k] < 0 {
					continue
				}
				idx := (t*s.K+k)*s.C + c
				edgeIdx := t*s.K + k
				v := s.Pheromone[idx]*(1-s.Decay[edgeIdx]) + s.Diffu[edgeIdx]*(mean-s.Pheromone[idx])
				if v < 0 {
					v = 0
				}
				s.Pheromone[idx] = v
			}
		}
	}
}

// Nutrient implements §4.5 `nutrient(activity)`:
//   nu <- max(0, nu + act - recovery*nu).
func (s *State) Nutrient(activity []float32) error {
	if len(activity) != s.TCap {
		return core.NewError(core.KindValidation, "activity length mismatch", core.ErrDimMismatch, 0)
	}
	for t := 0; t < s.TCap; t++ {
		if s.Alive[t] == 0 {
			continue
		}
		v := s.Nutrient[t] + activity[t] - s.NutrientRecovery*s.Nutrient[t]
		if v < 0 {
			v = 0
		}
		s.Nutrient[t] = v
	}
	return nil
}

// ColonyUpdate implements §4.5 `colony_update(iterations)`: for each alive
// cell, pick the neighbor label maximizing the sum of its pheromones, up to
// 256 labels, repeated `iterations` times (label propagation). Cells are
// visited in index order and relabelled in place, so a cell sees the labels
// already chosen this iteration by lower-indexed cells; ties go to the
// smaller label.
func (s *State) ColonyUpdate(iterations int) {
	next := make([]uint8, s.TCap)
	for iter := 0; iter < iterations; iter++ {
		copy(next, s.ColonyID)
		for t := 0; t < s.TCap; t++ {
			if s.Alive[t] == 0 {
				next[t] = 0
				continue
			}
			labelScore := map[uint8]float32{}
			for k := 0; k < s.K; k++ {
				nb := s.NeighIdx[t*s.K+k]
				if nb < 0 || s.Alive[nb] == 0 {
					continue
				}
				var sum float32
				for c := 0; c < s.C; c++ {
					sum += s.Pheromone[(t*s.K+k)*s.C+c]
				}
				labelScore[s.ColonyID[nb]] += sum
			}
			if len(labelScore) == 0 {
				continue
			}
			var best uint8
			var bestScore float32 = -1
			for label, score := range labelScore {
				if score > bestScore || (score == bestScore && label < best) {
					bestScore, best = score, label
				}
			}
			next[t] = best
			s.ColonyID[t] = best
		}
		copy(s.ColonyID, next)
	}
}

// SubQGFeedback implements §4.5 `subqg_feedback(kappa_n, kappa_mood)`:
//   subqg_field[t] = kappa_n*nutrient[t] + sum_c kappa_mood[c]*mood[t,c], for alive cells.
func (s *State) SubQGFeedback(kappaNutrient float32, kappaMood []float32) error {
	if len(kappaMood) != s.C {
		return core.NewError(core.KindValidation, "kappa_mood length mismatch", core.ErrDimMismatch, 0)
	}
	for t := 0; t < s.TCap; t++ {
		if s.Alive[t] == 0 {
			continue
		}
		v := kappaNutrient * s.Nutrient[t]
		for c := 0; c < s.C; c++ {
			v += kappaMood[c] * s.Mood[t*s.C+c]
		}
		s.SubQGField[t] = v
	}
	return nil
}

// PotentialForHPIO implements §4.5 `potential_for_hpio(weights, count)`: for
// each alive cell, accumulate across K neighbors, C channels, a weighted
// difference sum_c w_c*(pher[nb,0,c] - pher[t,k,c]) into potential[t].
func (s *State) PotentialForHPIO(weights []float32) error {
	if len(weights) != s.C {
		return core.NewError(core.KindValidation, "weights length mismatch", core.ErrDimMismatch, 0)
	}
	for t := 0; t < s.TCap; t++ {
		if s.Alive[t] == 0 {
			continue
		}
		var acc float32
		for k := 0; k < s.K; k++ {
			nb := s.NeighIdx[t*s.K+k]
			if nb < 0 {
				continue
			}
			for c := 0; c < s.C; c++ {
				nbPher := s.Pheromone[(int(nb)*s.K+0)*s.C+c]
				ownPher := s.Pheromone[(t*s.K+k)*s.C+c]
				acc += weights[c] * (nbPher - ownPher)
			}
		}
		s.Potential[t] = acc
	}
	return nil
}
