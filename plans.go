package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"groupmix/roster"
	"groupmix/solver"
)

type plan struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Groups       int      `json:"groups"`
	OfSize       int      `json:"of_size"`
	Rounds       int      `json:"rounds"`
	Leaders      bool     `json:"leaders"`
	Participants []string `json:"participants,omitempty"`
}

type groupingConstraint struct {
	ID      int64    `json:"id"`
	Kind    string   `json:"kind"`
	Members []string `json:"members"`
}

func handleListPlans(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		rows, err := db.QueryContext(r.Context(), `
			SELECT id, name, group_count, group_size, rounds, leaders
			FROM plans
			ORDER BY id`)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		plans := []plan{}
		for rows.Next() {
			var p plan
			if err := rows.Scan(&p.ID, &p.Name, &p.Groups, &p.OfSize, &p.Rounds, &p.Leaders); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			plans = append(plans, p)
		}
		writeJSON(w, http.StatusOK, plans)
	}
}

func handleCreatePlan(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := requireAdmin(w, r)
		if !ok {
			return
		}
		var body struct {
			Name    string `json:"name" validate:"required"`
			Groups  int    `json:"groups" validate:"min=1"`
			OfSize  int    `json:"of_size" validate:"min=1"`
			Rounds  int    `json:"rounds" validate:"min=1"`
			Leaders bool   `json:"leaders"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		var id int64
		err := db.QueryRowContext(r.Context(), `
			INSERT INTO plans (name, group_count, group_size, rounds, leaders, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`, body.Name, body.Groups, body.OfSize, body.Rounds, body.Leaders, email).Scan(&id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		logger.Info("plan created", zap.Int64("plan", id), zap.String("by", email))
		writeJSON(w, http.StatusCreated, plan{
			ID:      id,
			Name:    body.Name,
			Groups:  body.Groups,
			OfSize:  body.OfSize,
			Rounds:  body.Rounds,
			Leaders: body.Leaders,
		})
	}
}

func loadPlan(ctx context.Context, db *sql.DB, planID int64) (*plan, error) {
	p := &plan{ID: planID}
	err := db.QueryRowContext(ctx, `
		SELECT name, group_count, group_size, rounds, leaders FROM plans WHERE id = $1`, planID).
		Scan(&p.Name, &p.Groups, &p.OfSize, &p.Rounds, &p.Leaders)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT name FROM participants WHERE plan_id = $1 ORDER BY position", planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	p.Participants = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		p.Participants = append(p.Participants, name)
	}
	return p, rows.Err()
}

func loadConstraints(ctx context.Context, db *sql.DB, planID int64) ([]groupingConstraint, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, kind::text, members FROM grouping_constraints WHERE plan_id = $1 ORDER BY id`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	constraints := []groupingConstraint{}
	for rows.Next() {
		var c groupingConstraint
		if err := rows.Scan(&c.ID, &c.Kind, pq.Array(&c.Members)); err != nil {
			return nil, err
		}
		constraints = append(constraints, c)
	}
	return constraints, rows.Err()
}

// problemFor builds the problem a run solves. Constraint members are stored
// by name, so members renamed or removed since are silently dropped.
func problemFor(p *plan, constraints []groupingConstraint) solver.Problem {
	var forbidden, discouraged [][]string
	for _, c := range constraints {
		switch c.Kind {
		case "forbidden":
			forbidden = append(forbidden, c.Members)
		case "discouraged":
			discouraged = append(discouraged, c.Members)
		}
	}
	return solver.Problem{
		Groups:      p.Groups,
		OfSize:      p.OfSize,
		Rounds:      p.Rounds,
		Leaders:     p.Leaders,
		Forbidden:   roster.ResolveCliques(p.Participants, forbidden),
		Discouraged: roster.ResolveCliques(p.Participants, discouraged),
	}
}

func handleGetPlan(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		planID, ok := idParam(w, r, "planID")
		if !ok {
			return
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
		writeJSON(w, http.StatusOK, p)
	}
}

func handleUpdatePlan(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		planID, ok := idParam(w, r, "planID")
		if !ok {
			return
		}
		var body struct {
			Name    *string `json:"name" validate:"omitnil,min=1"`
			Groups  *int    `json:"groups" validate:"omitnil,min=1"`
			OfSize  *int    `json:"of_size" validate:"omitnil,min=1"`
			Rounds  *int    `json:"rounds" validate:"omitnil,min=1"`
			Leaders *bool   `json:"leaders"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		result, err := db.ExecContext(r.Context(), `
			UPDATE plans SET
				name = COALESCE($1, name),
				group_count = COALESCE($2, group_count),
				group_size = COALESCE($3, group_size),
				rounds = COALESCE($4, rounds),
				leaders = COALESCE($5, leaders)
			WHERE id = $6`, body.Name, body.Groups, body.OfSize, body.Rounds, body.Leaders, planID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDeletePlan(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		planID, ok := idParam(w, r, "planID")
		if !ok {
			return
		}
		result, err := db.ExecContext(r.Context(), "DELETE FROM plans WHERE id = $1", planID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSetParticipants(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		planID, ok := idParam(w, r, "planID")
		if !ok {
			return
		}
		var body struct {
			Names []string `json:"names" validate:"dive,required"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if err := roster.CheckNames(body.Names); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		tx, err := db.BeginTx(r.Context(), nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		var locked int64
		err = tx.QueryRowContext(r.Context(), "SELECT id FROM plans WHERE id = $1 FOR UPDATE", planID).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := tx.ExecContext(r.Context(), "DELETE FROM participants WHERE plan_id = $1", planID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO participants (plan_id, position, name)
			SELECT $1, ord - 1, name FROM unnest($2::text[]) WITH ORDINALITY AS t(name, ord)`,
			planID, pq.Array(body.Names))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := tx.Commit(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleListConstraints(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		planID, ok := idParam(w, r, "planID")
		if !ok {
			return
		}
		constraints, err := loadConstraints(r.Context(), db, planID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, constraints)
	}
}

func handleCreateConstraint(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		planID, ok := idParam(w, r, "planID")
		if !ok {
			return
		}
		var body struct {
			Kind    string   `json:"kind" validate:"oneof=forbidden discouraged"`
			Members []string `json:"members" validate:"min=2,dive,required"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		var id int64
		err := db.QueryRowContext(r.Context(), `
			INSERT INTO grouping_constraints (plan_id, kind, members)
			SELECT id, $2::grouping_constraint_kind, $3 FROM plans WHERE id = $1
			RETURNING id`, planID, body.Kind, pq.Array(body.Members)).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "plan not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, groupingConstraint{ID: id, Kind: body.Kind, Members: body.Members})
	}
}

func handleDeleteConstraint(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		planID, ok := idParam(w, r, "planID")
		if !ok {
			return
		}
		constraintID, ok := idParam(w, r, "constraintID")
		if !ok {
			return
		}
		result, err := db.ExecContext(r.Context(),
			"DELETE FROM grouping_constraints WHERE id = $1 AND plan_id = $2", constraintID, planID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			http.Error(w, "constraint not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
