// Package store persists debate reports in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/postgres"
)

// Schema creates the reports table. Speaker lists are kept as text arrays
// so listings can filter by speaker without decoding the report body.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS debate_reports (
	    id         TEXT PRIMARY KEY,
	    title      TEXT NOT NULL DEFAULT '',
	    speakers   TEXT[] NOT NULL,
	    missing    TEXT[] NOT NULL DEFAULT '{}',
	    data       JSONB NOT NULL,
	    created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS debate_reports_created_at_idx ON debate_reports (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS debate_reports_speakers_idx ON debate_reports USING GIN (speakers)`,
}

type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "report-store"),
	}
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.Migrate(ctx, Schema...)
}

func (s *Store) Save(ctx context.Context, r *report.DebateReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report %s: %w", r.ID, err)
	}
	sum := r.Summary()
	missing := sum.Missing
	if missing == nil {
		missing = []string{}
	}
	res, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO debate_reports (id, title, speakers, missing, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		r.ID, r.Title, pq.Array(sum.Speakers), pq.Array(missing), data, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving report %s: %w", r.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.logger.Debug("report already stored", "report_id", r.ID)
		return nil
	}
	s.logger.Info("report saved", "report_id", r.ID, "speakers", len(sum.Speakers), "bytes", len(data))
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*report.DebateReport, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM debate_reports WHERE id = $1`, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", id, err)
	}
	var r report.DebateReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", id, err)
	}
	return &r, nil
}

func (s *Store) List(ctx context.Context, filter report.ListFilter) ([]report.Summary, error) {
	filter = filter.Normalize()
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, title, speakers, missing, created_at
		   FROM debate_reports
		  WHERE $1 = '' OR $1 = ANY(speakers)
		  ORDER BY created_at DESC, id
		  LIMIT $2 OFFSET $3`,
		filter.Speaker, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	out := make([]report.Summary, 0)
	for rows.Next() {
		var sum report.Summary
		if err := rows.Scan(&sum.ID, &sum.Title, pq.Array(&sum.Speakers), pq.Array(&sum.Missing), &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
