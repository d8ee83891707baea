package solver

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// requirePartition checks the disjoint-cover invariant.
func requirePartition(t *testing.T, p Partition, groups, ofSize int) {
	t.Helper()
	require.Len(t, p, groups)
	seen := make([]bool, groups*ofSize)
	for _, g := range p {
		require.Len(t, g, ofSize)
		for _, m := range g {
			require.GreaterOrEqual(t, m, 0)
			require.Less(t, m, groups*ofSize)
			require.False(t, seen[m], "participant %d placed twice in %v", m, p)
			seen[m] = true
		}
	}
}

func TestGenerate_PartitionInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	shapes := []struct{ groups, ofSize int }{{1, 1}, {2, 2}, {3, 1}, {1, 5}, {4, 3}, {5, 6}}
	for _, sh := range shapes {
		for _, leaders := range []bool{false, true} {
			for range 20 {
				p := generate(sh.groups, sh.ofSize, leaders, rng)
				requirePartition(t, p, sh.groups, sh.ofSize)
				if leaders {
					for i, g := range p {
						require.Equal(t, i, g[0])
						for _, m := range g[1:] {
							require.GreaterOrEqual(t, m, sh.groups)
						}
					}
				}
			}
		}
	}
}

func TestGenerate_LeadersOfSizeOne(t *testing.T) {
	p := generate(3, 1, true, rand.New(rand.NewSource(2)))
	require.Equal(t, Partition{{0}, {1}, {2}}, p)
}

func TestScore_SquaresWeights(t *testing.T) {
	w := NewWeights(6)
	w.Record(Partition{{0, 1, 2}})
	w.Record(Partition{{0, 1}})
	c := score(Partition{{0, 1, 2}, {3, 4, 5}}, w, SquaredWeight)
	// (0,1) met twice, (0,2) and (1,2) once.
	require.Equal(t, []Cost{4 + 1 + 1, 0}, c.GroupCosts)
	require.Equal(t, Cost(6), c.Total)

	c = score(Partition{{0, 3, 4}, {1, 5, 2}}, w, SquaredWeight)
	require.Equal(t, Cost(1), c.Total)
}

func TestScore_ForbiddenAbsorbs(t *testing.T) {
	w := SeedWeights(6, 0, [][]int{{0, 1}}, nil)
	w.Record(Partition{{2, 3, 4}})
	w.Record(Partition{{2, 3, 4}})
	c := score(Partition{{0, 1, 5}, {2, 3, 4}}, w, SquaredWeight)
	require.Equal(t, Forbidden, c.GroupCosts[0])
	require.Equal(t, Cost(12), c.GroupCosts[1])
	require.Equal(t, Forbidden, c.Total)

	c = score(Partition{{0, 1, 5}, {2, 3, 4}}, w, FacilitatorBias(6, 100))
	require.Equal(t, Forbidden, c.Total)
}
