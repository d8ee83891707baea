// Package roster turns named participants and constraint lines into the
// index-based problems the solver understands, and back into labelled output.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"groupmix/solver"
)

var (
	ErrUnknownFormat  = errors.New("unknown problem file format")
	ErrDuplicateName  = errors.New("duplicate participant name")
	validate          = validator.New(validator.WithRequiredStructEnabled())
	csvHeader         = []string{"round", "group", "participant", "conflict_score"}
	problemExtensions = []string{".yaml", ".yml", ".json"}
)

// Problem is a problem file. Constraint lines hold comma-separated names.
type Problem struct {
	Names       []string `yaml:"names" json:"names"`
	Groups      int      `yaml:"groups" json:"groups" validate:"min=1"`
	OfSize      int      `yaml:"of_size" json:"of_size" validate:"min=1"`
	Rounds      int      `yaml:"rounds" json:"rounds" validate:"min=1"`
	Leaders     bool     `yaml:"leaders" json:"leaders"`
	Forbidden   []string `yaml:"forbidden" json:"forbidden" validate:"dive,required"`
	Discouraged []string `yaml:"discouraged" json:"discouraged" validate:"dive,required"`
	Seed        int64    `yaml:"seed" json:"seed"`
}

// Load reads a YAML or JSON problem file.
func Load(path string) (*Problem, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(problemExtensions, ext) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading problem: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, which includes JSON, and validates the result.
func Parse(data []byte) (*Problem, error) {
	var p Problem
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding problem: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Problem) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid problem: %w", err)
	}
	return CheckNames(p.Names)
}

// Solver resolves names and returns the index-based problem.
func (p *Problem) Solver() solver.Problem {
	return solver.Problem{
		Groups:      p.Groups,
		OfSize:      p.OfSize,
		Rounds:      p.Rounds,
		Leaders:     p.Leaders,
		Forbidden:   Resolve(p.Names, p.Forbidden),
		Discouraged: Resolve(p.Names, p.Discouraged),
	}
}

// Resolve maps each comma-separated line of names to participant indices.
// Unknown names are dropped, as are lines left with fewer than two people.
func Resolve(names []string, lines []string) [][]int {
	cliques := make([][]string, len(lines))
	for i, line := range lines {
		cliques[i] = strings.Split(line, ",")
	}
	return ResolveCliques(names, cliques)
}

// ResolveCliques is Resolve for constraints already split into names.
func ResolveCliques(names []string, cliques [][]string) [][]int {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		if _, dup := idx[n]; !dup && n != "" {
			idx[n] = i
		}
	}
	var out [][]int
	for _, members := range cliques {
		var clique []int
		for _, name := range members {
			if i, ok := idx[strings.TrimSpace(name)]; ok && !slices.Contains(clique, i) {
				clique = append(clique, i)
			}
		}
		if len(clique) >= 2 {
			out = append(out, clique)
		}
	}
	return out
}

// CheckNames rejects a roster in which two participants share a name.
func CheckNames(names []string) error {
	seen := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" && seen[n] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, n)
		}
		seen[n] = true
	}
	return nil
}

// Label names participant i, falling back to "Player N".
func Label(names []string, i int) string {
	if i < len(names) {
		if n := strings.TrimSpace(names[i]); n != "" {
			return n
		}
	}
	return "Player " + strconv.Itoa(i+1)
}

// WriteCSV writes one row per participant per completed round. Rounds and
// groups are numbered from 1; members are listed in index order.
func WriteCSV(w io.Writer, names []string, pr solver.Progress) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for r, round := range pr.Rounds {
		score := "infinite"
		if r < len(pr.RoundScores) && !pr.RoundScores[r].IsForbidden() {
			score = strconv.FormatInt(int64(pr.RoundScores[r]), 10)
		}
		for g, group := range round {
			members := slices.Clone(group)
			slices.Sort(members)
			for _, m := range members {
				row := []string{strconv.Itoa(r + 1), strconv.Itoa(g + 1), Label(names, m), score}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
