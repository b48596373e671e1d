package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pyq-analyzer/internal/domain"
)

// ReportStore archives one PatternReport per run as JSONB. The JSON file on
// disk stays the canonical artifact; the archive backs the serve surface and
// keeps run history queryable.
type ReportStore struct {
	pool *pgxpool.Pool
}

func NewReportStore(pool *pgxpool.Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

func (s *ReportStore) Save(ctx context.Context, report domain.PatternReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (subject_code, generated_at, data) VALUES ($1, $2, $3)`,
		report.SubjectCode, report.GeneratedAt, raw)
	if err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	return nil
}

// LoadLatest returns the most recently archived report for a subject.
func (s *ReportStore) LoadLatest(ctx context.Context, subjectCode string) (domain.PatternReport, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM reports WHERE subject_code=$1 ORDER BY generated_at DESC, id DESC LIMIT 1`,
		subjectCode).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PatternReport{}, domain.ErrReportNotFound
	}
	if err != nil {
		return domain.PatternReport{}, fmt.Errorf("load report: %w", err)
	}
	var report domain.PatternReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return domain.PatternReport{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return report, nil
}
