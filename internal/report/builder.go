package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pyq-analyzer/internal/analyze"
	"pyq-analyzer/internal/domain"
)

// Build assembles the final PatternReport from the per-year summaries and the
// cross-year comparison. Comparator notes come first, then pipeline notes
// (fetch failures, ambiguous marks) in year order.
func Build(code, name string, years []int, summaries []domain.YearSummary, cmp analyze.Comparison, pipelineNotes []string, now time.Time) domain.PatternReport {
	perYear := make(map[int]domain.YearSummary, len(summaries))
	for _, summary := range summaries {
		perYear[summary.Year] = summary
	}

	notes := make([]string, 0, len(cmp.Notes)+len(pipelineNotes))
	notes = append(notes, cmp.Notes...)
	notes = append(notes, pipelineNotes...)

	return domain.PatternReport{
		SubjectCode:     code,
		SubjectName:     name,
		GeneratedAt:     now,
		Years:           years,
		PerYear:         perYear,
		DifficultyTrend: cmp.DifficultyTrend,
		TopicDrift:      cmp.TopicDrift,
		Notes:           notes,
	}
}

// WriteFile serializes the report as indented JSON at path, creating parent
// directories as needed.
func WriteFile(path string, report domain.PatternReport) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// ReadFile loads a previously written report.
func ReadFile(path string) (domain.PatternReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.PatternReport{}, fmt.Errorf("read report: %w", err)
	}
	var report domain.PatternReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return domain.PatternReport{}, fmt.Errorf("parse report: %w", err)
	}
	return report, nil
}
