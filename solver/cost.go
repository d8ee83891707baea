package solver

import (
	"bytes"
	"encoding/json"
	"math"
)

// Cost is a weight or a score. Forbidden is absorbing: it survives any
// addition or squaring and compares above every finite value.
type Cost int64

const Forbidden Cost = math.MaxInt64

func (c Cost) IsForbidden() bool {
	return c == Forbidden
}

// Add saturates at Forbidden.
func (c Cost) Add(d Cost) Cost {
	if c == Forbidden || d == Forbidden {
		return Forbidden
	}
	s := c + d
	if d > 0 && s < c {
		return Forbidden
	}
	if d < 0 && s > c {
		return math.MinInt64
	}
	return s
}

func (c Cost) Square() Cost {
	if c == Forbidden {
		return Forbidden
	}
	a := c
	if a < 0 {
		a = -a
	}
	if a > 0 && a > Forbidden/a {
		return Forbidden
	}
	return a * a
}

var nullJSON = []byte("null")

func (c Cost) MarshalJSON() ([]byte, error) {
	if c == Forbidden {
		return nullJSON, nil
	}
	return json.Marshal(int64(c))
}

func (c *Cost) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), nullJSON) {
		*c = Forbidden
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Cost(v)
	return nil
}

// PairCost prices placing a and b in the same group given their weight.
type PairCost func(a, b int, w Cost) Cost

// SquaredWeight makes a third meeting cost far more than a second.
func SquaredWeight(_, _ int, w Cost) Cost {
	return w.Square()
}

// FacilitatorBias rewards pairing a participant with one of the first n
// participants they have never met, and otherwise prices like SquaredWeight.
func FacilitatorBias(n int, bonus Cost) PairCost {
	return func(a, b int, w Cost) Cost {
		if w == 0 && (a < n || b < n) {
			return -bonus
		}
		return w.Square()
	}
}
