package solver

import (
	"math/rand"
	"slices"
	"strconv"
	"strings"
)

// Problem describes a multi-round grouping. Participants are the indices
// [0, Groups*OfSize). With Leaders set, the first Groups participants each
// anchor their own group and never meet one another.
type Problem struct {
	Groups      int
	OfSize      int
	Rounds      int
	Leaders     bool
	Forbidden   [][]int
	Discouraged [][]int
}

func (p Problem) TotalSize() int {
	return p.Groups * p.OfSize
}

type Params struct {
	InitialCandidates int
	Generations       int
	RandomMutations   int
	MaxElite          int
	PairCost          PairCost
}

var DefaultParams = Params{
	InitialCandidates: 5,
	Generations:       30,
	RandomMutations:   2,
	MaxElite:          100,
	PairCost:          SquaredWeight,
}

func (p Params) withDefaults() Params {
	if p.InitialCandidates <= 0 {
		p.InitialCandidates = DefaultParams.InitialCandidates
	}
	if p.Generations <= 0 {
		p.Generations = DefaultParams.Generations
	}
	if p.RandomMutations < 0 {
		p.RandomMutations = DefaultParams.RandomMutations
	}
	if p.MaxElite <= 0 {
		p.MaxElite = DefaultParams.MaxElite
	}
	if p.PairCost == nil {
		p.PairCost = DefaultParams.PairCost
	}
	return p
}

// Progress is the state after a completed round. Every snapshot owns its
// data; observers may keep it.
type Progress struct {
	Rounds      []Partition `json:"rounds"`
	RoundScores []Cost      `json:"roundScores"`
	Weights     *Weights    `json:"weights"`
	Done        bool        `json:"done"`
}

// Run plans every round in order, calling onProgress synchronously once
// per round. The input is not validated.
func Run(p Problem, params Params, rng *rand.Rand, onProgress func(Progress)) {
	params = params.withDefaults()
	leaderCount := 0
	if p.Leaders {
		leaderCount = p.Groups
	}
	weights := SeedWeights(p.TotalSize(), leaderCount, p.Forbidden, p.Discouraged)

	var rounds []Partition
	var scores []Cost
	for round := range p.Rounds {
		st := &searchState{
			groups:   p.Groups,
			ofSize:   p.OfSize,
			leaders:  p.Leaders,
			weights:  weights,
			pairCost: params.PairCost,
			params:   params,
			rng:      rng,
		}
		best, _ := st.solveRound()
		weights.Record(best.Groups)
		rounds = append(rounds, best.Groups)
		scores = append(scores, best.Total)

		if onProgress != nil {
			onProgress(snapshot(rounds, scores, weights, round+1 >= p.Rounds))
		}
	}
}

// Solve runs to completion and returns the final snapshot.
func Solve(p Problem, params Params, rng *rand.Rand) Progress {
	var last Progress
	Run(p, params, rng, func(pr Progress) { last = pr })
	return last
}

func snapshot(rounds []Partition, scores []Cost, w *Weights, done bool) Progress {
	pr := Progress{
		Rounds:      make([]Partition, len(rounds)),
		RoundScores: slices.Clone(scores),
		Weights:     w.Clone(),
		Done:        done,
	}
	for i, r := range rounds {
		pr.Rounds[i] = r.Clone()
	}
	return pr
}

// Key is a canonical form of a partition that ignores group order and
// member order, so equal groupings compare equal.
func Key(p Partition) string {
	gs := make([][]int, 0, len(p))
	for _, g := range p {
		members := slices.Clone(g)
		slices.Sort(members)
		gs = append(gs, members)
	}
	slices.SortFunc(gs, func(a, b []int) int { return slices.Compare(a, b) })
	var buf strings.Builder
	for _, g := range gs {
		for i, m := range g {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Itoa(m))
		}
		buf.WriteByte(';')
	}
	return buf.String()
}
