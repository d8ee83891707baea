package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"groupmix/roster"
	"groupmix/solver"
)

var (
	runs        int
	parallel    int
	generations string
	elite       string
	random      string
	initial     int
)

type runResult struct {
	scores  []solver.Cost
	rounds  []solver.Partition
	elapsed time.Duration
}

var rootCmd = &cobra.Command{
	Use:   "solver-tune <problem-file>",
	Short: "Compare solver parameter sets on a problem file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTune,
}

func runTune(cmd *cobra.Command, args []string) error {
	p, err := roster.Load(args[0])
	if err != nil {
		return err
	}
	problem := p.Solver()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Participants: %d, Groups: %d x %d, Rounds: %d, Leaders: %v\n",
		problem.TotalSize(), problem.Groups, problem.OfSize, problem.Rounds, problem.Leaders)
	fmt.Fprintf(out, "Forbidden: %d, Discouraged: %d\n", len(problem.Forbidden), len(problem.Discouraged))
	fmt.Fprintf(out, "Runs per config: %d\n\n", runs)

	for _, g := range parseIntList(generations) {
		for _, e := range parseIntList(elite) {
			for _, nr := range parseIntList(random) {
				params := solver.Params{
					InitialCandidates: initial,
					Generations:       g,
					RandomMutations:   nr,
					MaxElite:          e,
				}
				results, err := runAll(problem, params)
				if err != nil {
					return err
				}
				printStats(out, fmt.Sprintf("generations=%d elite=%d random=%d", g, e, nr), results)
			}
		}
	}
	return nil
}

// runAll solves the problem once per seed. Seeds are fixed so parameter sets
// are compared on the same random streams.
func runAll(problem solver.Problem, params solver.Params) ([]runResult, error) {
	results := make([]runResult, runs)
	var eg errgroup.Group
	eg.SetLimit(max(parallel, 1))
	for run := range runs {
		eg.Go(func() error {
			rng := rand.New(rand.NewSource(int64(run * 31337)))
			start := time.Now()
			pr := solver.Solve(problem, params, rng)
			results[run] = runResult{pr.RoundScores, pr.Rounds, time.Since(start)}
			return nil
		})
	}
	return results, eg.Wait()
}

func printStats(out io.Writer, label string, results []runResult) {
	n := len(results)
	if n == 0 {
		return
	}
	totals := map[solver.Cost]int{}
	solutionSets := map[string]int{}
	var totalTime time.Duration
	var perfectRounds, allRounds int

	for _, r := range results {
		totalTime += r.elapsed
		var total solver.Cost
		for _, s := range r.scores {
			total = total.Add(s)
			allRounds++
			if s == 0 {
				perfectRounds++
			}
		}
		totals[total]++
		var key strings.Builder
		for _, round := range r.rounds {
			key.WriteString(solver.Key(round))
			key.WriteByte('|')
		}
		solutionSets[key.String()]++
	}

	fmt.Fprintf(out, "--- %s ---\n", label)
	fmt.Fprintf(out, "  avg time: %v\n", totalTime/time.Duration(n))
	if allRounds > 0 {
		fmt.Fprintf(out, "  perfect rounds: %d/%d (%.0f%%)\n", perfectRounds, allRounds, float64(perfectRounds)/float64(allRounds)*100)
	}

	type scoreCount struct {
		score solver.Cost
		count int
	}
	var scoreList []scoreCount
	for s, c := range totals {
		scoreList = append(scoreList, scoreCount{s, c})
	}
	sort.Slice(scoreList, func(i, j int) bool { return scoreList[i].score < scoreList[j].score })

	fmt.Fprintf(out, "  total score distribution:\n")
	for _, sc := range scoreList {
		score := strconv.FormatInt(int64(sc.score), 10)
		if sc.score.IsForbidden() {
			score = "forbidden"
		}
		fmt.Fprintf(out, "    score %s: %d/%d runs (%.0f%%)\n", score, sc.count, n, float64(sc.count)/float64(n)*100)
	}
	fmt.Fprintf(out, "  unique schedules seen: %d\n", len(solutionSets))
	fmt.Fprintln(out)
}

func parseIntList(s string) []int {
	parts := strings.Split(s, ",")
	var result []int
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err == nil {
			result = append(result, v)
		}
	}
	return result
}

func init() {
	rootCmd.Flags().IntVar(&runs, "runs", 20, "number of solver runs per parameter set")
	rootCmd.Flags().IntVar(&parallel, "parallel", runtime.GOMAXPROCS(0), "runs solved at once")
	rootCmd.Flags().StringVar(&generations, "generations", "30", "comma-separated generation caps per round")
	rootCmd.Flags().StringVar(&elite, "elite", "100", "comma-separated elite set caps")
	rootCmd.Flags().StringVar(&random, "random", "2", "comma-separated fresh random candidates per generation")
	rootCmd.Flags().IntVar(&initial, "initial", 5, "initial random candidates per round")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
