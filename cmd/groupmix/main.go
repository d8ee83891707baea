package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"groupmix/roster"
	"groupmix/solver"
)

var (
	verbose bool
	seed    int64
	outPath string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "groupmix",
	Short: "Plan rounds of groups that keep people from meeting twice",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var solveCmd = &cobra.Command{
	Use:   "solve <problem-file>",
	Short: "Solve a YAML or JSON problem file and print the rounds as CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runSolve,
}

func runSolve(cmd *cobra.Command, args []string) error {
	p, err := roster.Load(args[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		p.Seed = seed
	}
	if p.Seed == 0 {
		p.Seed = time.Now().UnixNano()
	}
	logger.Info("solving",
		zap.String("file", args[0]),
		zap.Int("groups", p.Groups),
		zap.Int("of_size", p.OfSize),
		zap.Int("rounds", p.Rounds),
		zap.Int64("seed", p.Seed))

	start := time.Now()
	var final solver.Progress
	solver.Run(p.Solver(), solver.DefaultParams, rand.New(rand.NewSource(p.Seed)), func(pr solver.Progress) {
		round := len(pr.RoundScores)
		score := pr.RoundScores[round-1]
		if score.IsForbidden() {
			logger.Warn("round has a forbidden pairing", zap.Int("round", round))
		} else {
			logger.Info("round planned", zap.Int("round", round), zap.Int64("score", int64(score)))
		}
		final = pr
	})
	logger.Info("done", zap.Duration("elapsed", time.Since(start)))

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return roster.WriteCSV(w, p.Names, final)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	solveCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed, overriding the file (0 for time-based)")
	solveCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write CSV here instead of stdout")
	rootCmd.AddCommand(solveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
