package solver

import (
	"cmp"
	"slices"
)

func byTotal(a, b Candidate) int {
	return cmp.Compare(a.Total, b.Total)
}

// solveRound searches for one round's partition against the current
// weights. It returns the winner and the number of generations it took.
func (s *searchState) solveRound() (Candidate, int) {
	elite := make([]Candidate, s.params.InitialCandidates)
	for i := range elite {
		elite[i] = s.random()
	}
	slices.SortStableFunc(elite, byTotal)

	gen := 0
	for gen < s.params.Generations && elite[0].Total != 0 {
		pool := s.mutate(elite)
		best := slices.MinFunc(pool, byTotal).Total

		// Keep the whole plateau of tied candidates, not one arbitrary winner.
		next := make([]Candidate, 0, s.params.MaxElite)
		for _, c := range pool {
			if c.Total == best {
				next = append(next, c)
			}
		}
		s.rng.Shuffle(len(next), func(i, j int) { next[i], next[j] = next[j], next[i] })
		if len(next) > s.params.MaxElite {
			next = next[:s.params.MaxElite]
		}
		elite = next
		gen++
	}

	winner := elite[0]
	if s.leaders {
		winner = byLeader(winner)
	}
	return winner, gen
}

// byLeader orders a winner's groups by their pinned leader for display.
func byLeader(c Candidate) Candidate {
	idx := make([]int, len(c.Groups))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		return cmp.Compare(c.Groups[a][0], c.Groups[b][0])
	})
	out := Candidate{
		Groups:     make(Partition, len(idx)),
		GroupCosts: make([]Cost, len(idx)),
		Total:      c.Total,
	}
	for i, gi := range idx {
		out.Groups[i] = c.Groups[gi]
		out.GroupCosts[i] = c.GroupCosts[gi]
	}
	return out
}
