package solver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireSymmetric(t *testing.T, w *Weights) {
	t.Helper()
	for a := range w.Size() {
		for b := range w.Size() {
			require.Equal(t, w.At(a, b), w.At(b, a), "weight(%d,%d)", a, b)
		}
	}
}

func TestSeedWeights_Leaders(t *testing.T) {
	w := SeedWeights(9, 3, nil, nil)
	requireSymmetric(t, w)
	for a := range 3 {
		for b := range 3 {
			if a != b {
				require.Equal(t, Forbidden, w.At(a, b))
			}
		}
	}
	require.Equal(t, Cost(0), w.At(0, 3))
	require.Equal(t, Cost(0), w.At(4, 8))
}

func TestSeedWeights_Constraints(t *testing.T) {
	w := SeedWeights(6,
		0,
		[][]int{{0, 1, 2}, {0, 1}, {4, 9}},
		[][]int{{3, 4}, {3, 4, 5}, {0, 1}, {5, 12, 40}},
	)
	requireSymmetric(t, w)

	// Forbidden is idempotent and survives discouragement.
	require.Equal(t, Forbidden, w.At(0, 1))
	require.Equal(t, Forbidden, w.At(0, 2))
	require.Equal(t, Forbidden, w.At(1, 2))

	// Discouraged cliques add up.
	require.Equal(t, Cost(2), w.At(3, 4))
	require.Equal(t, Cost(1), w.At(3, 5))
	require.Equal(t, Cost(1), w.At(4, 5))

	// Out-of-range members are ignored.
	require.Equal(t, Cost(0), w.At(4, 0))
	require.Equal(t, Cost(0), w.At(5, 0))
}

func TestWeights_RecordIsMonotone(t *testing.T) {
	w := SeedWeights(4, 0, [][]int{{0, 1}}, nil)
	before := w.Clone()
	w.Record(Partition{{0, 1}, {2, 3}})
	w.Record(Partition{{0, 2}, {1, 3}})
	requireSymmetric(t, w)

	for a := range 4 {
		for b := range 4 {
			require.GreaterOrEqual(t, w.At(a, b), before.At(a, b))
		}
	}
	require.Equal(t, Forbidden, w.At(0, 1))
	require.Equal(t, Cost(1), w.At(2, 3))
	require.Equal(t, Cost(1), w.At(0, 2))
	require.Equal(t, Cost(1), w.At(1, 3))
	require.Equal(t, Cost(0), w.At(0, 3))
	require.Equal(t, Cost(0), before.At(2, 3))
}

func TestWeights_JSON(t *testing.T) {
	w := SeedWeights(3, 0, [][]int{{0, 2}}, [][]int{{0, 1}})
	b, err := json.Marshal(w)
	require.NoError(t, err)
	require.JSONEq(t, `[[0,1,null],[1,0,0],[null,0,0]]`, string(b))

	var back Weights
	require.NoError(t, json.Unmarshal(b, &back))
	require.Equal(t, w.Rows(), back.Rows())
}
