package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"groupmix/jobs"
	"groupmix/roster"
	"groupmix/solver"
)

// storeProgress saves each snapshot over the previous one so readers see
// rounds appear as they complete.
func storeProgress(db *sql.DB) jobs.Sink {
	return func(ctx context.Context, id uuid.UUID, pr solver.Progress) error {
		data, err := json.Marshal(pr)
		if err != nil {
			return fmt.Errorf("encoding progress: %w", err)
		}
		_, err = db.ExecContext(ctx,
			"UPDATE runs SET progress = $1, done = $2, updated_at = NOW() WHERE id = $3",
			data, pr.Done, id)
		return err
	}
}

// labelRounds replaces participant indices with their names.
func labelRounds(names []string, rounds []solver.Partition) [][][]string {
	out := make([][][]string, len(rounds))
	for r, round := range rounds {
		out[r] = make([][]string, len(round))
		for g, group := range round {
			out[r][g] = make([]string, len(group))
			for i, m := range group {
				out[r][g][i] = roster.Label(names, m)
			}
		}
	}
	return out
}

func handleStartRun(db *sql.DB, runner *jobs.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := requireAdmin(w, r)
		if !ok {
			return
		}
		planID, ok := idParam(w, r, "planID")
		if !ok {
			return
		}
		var body struct {
			Seed int64 `json:"seed"`
		}
		if r.ContentLength != 0 && !decodeBody(w, r, &body) {
			return
		}
		if body.Seed == 0 {
			body.Seed = rand.Int63()
		}

		p, err := loadPlan(r.Context(), db, planID)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		constraints, err := loadConstraints(r.Context(), db, planID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		id := uuid.New()
		_, err = db.ExecContext(r.Context(), `
			INSERT INTO runs (id, plan_id, seed, names, started_by)
			VALUES ($1, $2, $3, $4, $5)`, id, planID, body.Seed, pq.Array(p.Participants), email)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		_, err = runner.Start(jobs.Job{
			ID:      id,
			Problem: problemFor(p, constraints),
			Params:  solver.DefaultParams,
			Seed:    body.Seed,
			Sink:    storeProgress(db),
		})
		if errors.Is(err, jobs.ErrClosed) {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		logger.Info("run queued", zap.Stringer("run", id), zap.Int64("plan", planID), zap.String("by", email))
		writeJSON(w, http.StatusAccepted, map[string]any{"id": id, "seed": body.Seed})
	}
}

func handleListRuns(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		planID, ok := idParam(w, r, "planID")
		if !ok {
			return
		}
		rows, err := db.QueryContext(r.Context(), `
			SELECT id, seed, done, started_by, created_at,
				COALESCE(jsonb_array_length(progress->'roundScores'), 0)
			FROM runs
			WHERE plan_id = $1
			ORDER BY created_at DESC`, planID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		type runSummary struct {
			ID        uuid.UUID `json:"id"`
			Seed      int64     `json:"seed"`
			Done      bool      `json:"done"`
			StartedBy string    `json:"started_by"`
			CreatedAt time.Time `json:"created_at"`
			Rounds    int       `json:"rounds_done"`
		}
		runs := []runSummary{}
		for rows.Next() {
			var s runSummary
			if err := rows.Scan(&s.ID, &s.Seed, &s.Done, &s.StartedBy, &s.CreatedAt, &s.Rounds); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			runs = append(runs, s)
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

type storedRun struct {
	names    []string
	progress solver.Progress
	done     bool
}

// loadRun answers the error itself when the run cannot be read.
func loadRun(w http.ResponseWriter, r *http.Request, db *sql.DB) (*storedRun, bool) {
	planID, ok := idParam(w, r, "planID")
	if !ok {
		return nil, false
	}
	runID, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		http.Error(w, "invalid runID", http.StatusBadRequest)
		return nil, false
	}
	var run storedRun
	var data []byte
	err = db.QueryRowContext(r.Context(),
		"SELECT names, progress, done FROM runs WHERE id = $1 AND plan_id = $2", runID, planID).
		Scan(pq.Array(&run.names), &data, &run.done)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "run not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if data != nil {
		if err := json.Unmarshal(data, &run.progress); err != nil {
			http.Error(w, "decoding progress: "+err.Error(), http.StatusInternalServerError)
			return nil, false
		}
	}
	return &run, true
}

func handleGetRun(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		run, ok := loadRun(w, r, db)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"done":     run.done,
			"progress": run.progress,
			"groups":   labelRounds(run.names, run.progress.Rounds),
		})
	}
}

func handleRunCSV(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		run, ok := loadRun(w, r, db)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", chi.URLParam(r, "runID")+".csv"))
		if err := roster.WriteCSV(w, run.names, run.progress); err != nil {
			logger.Error("writing csv", zap.Error(err))
		}
	}
}
