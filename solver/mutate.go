package solver

import (
	"cmp"
	"math/rand"
	"slices"
)

// searchState is everything a round's search reads. The weight matrix is
// not written while a round is in progress.
type searchState struct {
	groups   int
	ofSize   int
	leaders  bool
	weights  *Weights
	pairCost PairCost
	params   Params
	rng      *rand.Rand
}

func (s *searchState) random() Candidate {
	return score(generate(s.groups, s.ofSize, s.leaders, s.rng), s.weights, s.pairCost)
}

// mutate builds the next pool from the elite set: each candidate itself,
// every swap that moves a member out of its costliest group, and a few
// fresh random partitions to escape local minima.
func (s *searchState) mutate(elite []Candidate) []Candidate {
	total := s.groups * s.ofSize
	first := 0
	if s.leaders {
		first = 1
	}
	pool := make([]Candidate, 0, len(elite)*(1+s.ofSize*(total-s.ofSize)+s.params.RandomMutations))
	for _, c := range elite {
		sorted := worstFirst(c)
		pool = append(pool, c)
		for i := first; i < s.ofSize; i++ {
			for j := s.ofSize; j < total; j++ {
				if s.leaders && j%s.ofSize == 0 {
					continue
				}
				pool = append(pool, score(s.swap(sorted, i, j), s.weights, s.pairCost))
			}
		}
		for range s.params.RandomMutations {
			pool = append(pool, s.random())
		}
	}
	return pool
}

// worstFirst orders a candidate's groups by descending cost.
func worstFirst(c Candidate) Partition {
	idx := make([]int, len(c.Groups))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(c.GroupCosts[b], c.GroupCosts[a])
	})
	p := make(Partition, len(idx))
	for i, gi := range idx {
		p[i] = c.Groups[gi]
	}
	return p
}

// swap exchanges the occupants of two seats, where seat k is slot
// k%ofSize of group k/ofSize. The input is left untouched.
func (s *searchState) swap(p Partition, i, j int) Partition {
	c := p.Clone()
	gi, si := i/s.ofSize, i%s.ofSize
	gj, sj := j/s.ofSize, j%s.ofSize
	c[gi][si], c[gj][sj] = p[gj][sj], p[gi][si]
	return c
}
