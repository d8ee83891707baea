package solver

import "encoding/json"

// Weights is the symmetric pairwise ledger of how often two participants
// have shared a group. Entries only ever grow.
type Weights struct {
	n int
	w []Cost
}

func NewWeights(n int) *Weights {
	return &Weights{n: n, w: make([]Cost, n*n)}
}

// SeedWeights builds the matrix for a run. The first leaderCount
// participants may never meet each other, every pair inside a forbidden
// clique is set to Forbidden, and every pair inside a discouraged clique
// counts as one prior meeting. Indices outside [0, n) are ignored.
func SeedWeights(n, leaderCount int, forbidden, discouraged [][]int) *Weights {
	w := NewWeights(n)
	for i := 0; i < leaderCount-1; i++ {
		for j := i + 1; j < leaderCount; j++ {
			w.set(i, j, Forbidden)
		}
	}
	for _, clique := range forbidden {
		forEachPair(clique, func(a, b int) {
			if w.inRange(a, b) {
				w.set(a, b, Forbidden)
			}
		})
	}
	for _, clique := range discouraged {
		forEachPair(clique, func(a, b int) {
			if w.inRange(a, b) {
				w.inc(a, b)
			}
		})
	}
	return w
}

func (w *Weights) Size() int {
	return w.n
}

func (w *Weights) At(a, b int) Cost {
	return w.w[a*w.n+b]
}

// Record counts one more meeting for every pair that shares a group in p.
func (w *Weights) Record(p Partition) {
	for _, g := range p {
		forEachPair(g, w.inc)
	}
}

func (w *Weights) Clone() *Weights {
	return &Weights{n: w.n, w: append([]Cost(nil), w.w...)}
}

// Rows returns the matrix as a fresh row-major table.
func (w *Weights) Rows() [][]Cost {
	rows := make([][]Cost, w.n)
	for i := range rows {
		rows[i] = append([]Cost(nil), w.w[i*w.n:(i+1)*w.n]...)
	}
	return rows
}

func (w *Weights) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Rows())
}

func (w *Weights) UnmarshalJSON(data []byte) error {
	var rows [][]Cost
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	*w = *NewWeights(len(rows))
	for i, row := range rows {
		copy(w.w[i*w.n:(i+1)*w.n], row)
	}
	return nil
}

func (w *Weights) inRange(a, b int) bool {
	return a >= 0 && b >= 0 && a < w.n && b < w.n && a != b
}

func (w *Weights) set(a, b int, c Cost) {
	w.w[a*w.n+b] = c
	w.w[b*w.n+a] = c
}

func (w *Weights) inc(a, b int) {
	w.set(a, b, w.At(a, b).Add(1))
}

func forEachPair(members []int, fn func(a, b int)) {
	for i := 0; i < len(members)-1; i++ {
		for j := i + 1; j < len(members); j++ {
			fn(members[i], members[j])
		}
	}
}
