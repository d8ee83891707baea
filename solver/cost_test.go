package solver

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCost_Saturates(t *testing.T) {
	require.Equal(t, Forbidden, Forbidden.Add(1))
	require.Equal(t, Forbidden, Cost(7).Add(Forbidden))
	require.Equal(t, Forbidden, Forbidden.Add(-5))
	require.Equal(t, Forbidden, Forbidden.Square())
	require.Equal(t, Forbidden, Cost(math.MaxInt64-1).Add(10))
	require.Equal(t, Forbidden, Cost(math.MaxInt32*4).Square())
	require.Equal(t, Cost(9), Cost(3).Square())
	require.Equal(t, Cost(9), Cost(-3).Square())
	require.Equal(t, Cost(12), Cost(5).Add(7))
	require.Greater(t, Forbidden, Cost(math.MaxInt64-1))
	require.True(t, Forbidden.IsForbidden())
	require.False(t, Cost(0).IsForbidden())
}

func TestCost_JSON(t *testing.T) {
	b, err := json.Marshal([]Cost{0, 3, Forbidden})
	require.NoError(t, err)
	require.JSONEq(t, `[0, 3, null]`, string(b))

	var back []Cost
	require.NoError(t, json.Unmarshal(b, &back))
	require.Equal(t, []Cost{0, 3, Forbidden}, back)

	var c Cost
	require.Error(t, json.Unmarshal([]byte(`"x"`), &c))
}

func TestPairCost_Strategies(t *testing.T) {
	require.Equal(t, Cost(4), SquaredWeight(5, 6, 2))
	require.Equal(t, Forbidden, SquaredWeight(5, 6, Forbidden))

	bias := FacilitatorBias(2, 3)
	require.Equal(t, Cost(-3), bias(1, 6, 0))
	require.Equal(t, Cost(-3), bias(6, 0, 0))
	require.Equal(t, Cost(0), bias(5, 6, 0))
	require.Equal(t, Cost(1), bias(1, 6, 1))
	require.Equal(t, Forbidden, bias(0, 1, Forbidden))
}
