package solver

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newState(groups, ofSize int, leaders bool, w *Weights, seed int64) *searchState {
	return &searchState{
		groups:   groups,
		ofSize:   ofSize,
		leaders:  leaders,
		weights:  w,
		pairCost: SquaredWeight,
		params:   DefaultParams,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func TestMutate_PoolShape(t *testing.T) {
	st := newState(3, 3, false, NewWeights(9), 1)
	elite := []Candidate{st.random(), st.random()}
	pool := st.mutate(elite)

	perCandidate := 1 + 3*(9-3) + DefaultParams.RandomMutations
	require.Len(t, pool, 2*perCandidate)
	require.Equal(t, elite[0], pool[0])
	require.Equal(t, elite[1], pool[perCandidate])
	for _, c := range pool {
		requirePartition(t, c.Groups, 3, 3)
	}
}

func TestMutate_LeaderSeatsStayPut(t *testing.T) {
	st := newState(3, 3, true, SeedWeights(9, 3, nil, nil), 2)
	pool := st.mutate([]Candidate{st.random()})

	// Seat 0 of the worst group and the two other leader seats are skipped.
	require.Len(t, pool, 1+2*(9-3-2)+DefaultParams.RandomMutations)
	for _, c := range pool {
		requirePartition(t, c.Groups, 3, 3)
		require.NotEqual(t, Forbidden, c.Total)
		for _, g := range c.Groups {
			require.Less(t, g[0], 3)
			for _, m := range g[1:] {
				require.GreaterOrEqual(t, m, 3)
			}
		}
	}
}

func TestMutate_WorstGroupFirst(t *testing.T) {
	w := NewWeights(6)
	w.Record(Partition{{3, 4, 5}})
	st := newState(2, 3, false, w, 3)
	c := score(Partition{{0, 1, 2}, {3, 4, 5}}, w, SquaredWeight)

	require.Equal(t, Partition{{3, 4, 5}, {0, 1, 2}}, worstFirst(c))

	pool := st.mutate([]Candidate{c})
	// The first swap moves 3 out of the costly group.
	require.Equal(t, Partition{{0, 4, 5}, {3, 1, 2}}, pool[1].Groups)
	require.Equal(t, Cost(1), pool[1].Total)
	// The source candidate is untouched.
	require.Equal(t, Partition{{0, 1, 2}, {3, 4, 5}}, c.Groups)
}

func TestSwap_Copies(t *testing.T) {
	st := newState(2, 2, false, NewWeights(4), 4)
	p := Partition{{0, 1}, {2, 3}}
	q := st.swap(p, 1, 2)
	require.Equal(t, Partition{{0, 2}, {1, 3}}, q)
	require.Equal(t, Partition{{0, 1}, {2, 3}}, p)
}
