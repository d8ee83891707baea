package solver

import (
	"math/rand"
	"slices"
)

// Partition is one round: an ordered list of groups that together hold
// every participant exactly once.
type Partition [][]int

func (p Partition) Clone() Partition {
	c := make(Partition, len(p))
	for i, g := range p {
		c[i] = slices.Clone(g)
	}
	return c
}

// Candidate is a partition scored against a weight matrix.
type Candidate struct {
	Groups     Partition
	GroupCosts []Cost
	Total      Cost
}

// generate deals out a random partition. With leaders, participant i is
// pinned as the first member of group i and only the rest are shuffled.
func generate(groups, ofSize int, leaders bool, rng *rand.Rand) Partition {
	p := make(Partition, groups)
	if leaders {
		rest := ofSize - 1
		people := rng.Perm(groups * rest)
		for i := range groups {
			g := make([]int, 0, ofSize)
			g = append(g, i)
			for _, x := range people[i*rest : (i+1)*rest] {
				g = append(g, x+groups)
			}
			p[i] = g
		}
		return p
	}
	people := rng.Perm(groups * ofSize)
	for i := range groups {
		p[i] = slices.Clone(people[i*ofSize : (i+1)*ofSize])
	}
	return p
}

func score(p Partition, w *Weights, pairCost PairCost) Candidate {
	c := Candidate{Groups: p, GroupCosts: make([]Cost, len(p))}
	for i, g := range p {
		var gc Cost
		forEachPair(g, func(a, b int) {
			gc = gc.Add(pairCost(a, b, w.At(a, b)))
		})
		c.GroupCosts[i] = gc
		c.Total = c.Total.Add(gc)
	}
	return c
}
