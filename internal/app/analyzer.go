package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"pyq-analyzer/internal/analyze"
	"pyq-analyzer/internal/config"
	"pyq-analyzer/internal/domain"
	"pyq-analyzer/internal/extract"
	"pyq-analyzer/internal/report"
)

// PaperSource yields one year's raw paper bytes (cached or fetched).
type PaperSource interface {
	Paper(ctx context.Context, year int) ([]byte, error)
}

// ReportArchive persists finished reports (e.g. to Postgres).
type ReportArchive interface {
	Save(ctx context.Context, report domain.PatternReport) error
}

// Analyzer runs the full pipeline: fetch, extract, classify and summarize
// each requested year concurrently, then compare across years and write the
// report. Per-year failures degrade to zero-valued anomaly summaries; only
// cancellation aborts a run, and an aborted run writes nothing.
type Analyzer struct {
	cfg        config.Config
	papers     PaperSource
	classifier *extract.Classifier
	archive    ReportArchive
}

// NewAnalyzer wires the pipeline. archive may be nil when no database is
// configured; the JSON file on disk is the canonical artifact either way.
func NewAnalyzer(cfg config.Config, papers PaperSource, archive ReportArchive) *Analyzer {
	return &Analyzer{
		cfg:        cfg,
		papers:     papers,
		classifier: extract.NewClassifier(cfg.Topics),
		archive:    archive,
	}
}

// Analyze processes every configured year and writes the report to the
// configured output path. progress may be nil. The comparator is a strict
// barrier: it only runs once every year has produced a summary, successful
// or anomalous.
func (a *Analyzer) Analyze(ctx context.Context, progress *Run) (domain.PatternReport, error) {
	years := append([]int(nil), a.cfg.Years...)
	sort.Ints(years)

	summaries := make([]domain.YearSummary, len(years))
	yearNotes := make([][]string, len(years))

	g, gctx := errgroup.WithContext(ctx)
	for i, year := range years {
		i, year := i, year
		g.Go(func() error {
			return a.processYear(gctx, progress, year, &summaries[i], &yearNotes[i])
		})
	}
	if err := g.Wait(); err != nil {
		// Cancellation mid-flight: no partial report is ever written.
		return domain.PatternReport{}, err
	}

	cmp, err := analyze.Compare(summaries)
	if err != nil {
		return domain.PatternReport{}, err
	}

	var pipelineNotes []string
	for _, notes := range yearNotes {
		pipelineNotes = append(pipelineNotes, notes...)
	}

	rep := report.Build(a.cfg.Subject.Code, a.cfg.SubjectName(), years, summaries, cmp, pipelineNotes, time.Now())

	if err := report.WriteFile(a.cfg.OutputPath(), rep); err != nil {
		return domain.PatternReport{}, err
	}
	log.Printf("[report] written to %s (%d years, %d notes)", a.cfg.OutputPath(), len(years), len(rep.Notes))

	if a.archive != nil {
		if err := a.archive.Save(ctx, rep); err != nil {
			// Archive failure must not invalidate an already-written report.
			log.Printf("[archive] save failed: %v", err)
		}
	}

	progress.finish()
	return rep, nil
}

func (a *Analyzer) processYear(ctx context.Context, progress *Run, year int, summary *domain.YearSummary, notes *[]string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	progress.update(year, StatusFetching, 0, "")

	raw, err := a.papers.Paper(ctx, year)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// A failed fetch degrades the year to an anomaly summary; the run
		// continues and the report still covers the year.
		log.Printf("[fetch] %d: %v", year, err)
		*summary = analyze.Summarize(year, nil)
		*notes = append(*notes, fmt.Sprintf("%d: fetch failed: %v", year, err))
		progress.update(year, StatusFailed, 0, "fetch failed")
		return nil
	}

	progress.update(year, StatusExtracting, 0, "")
	records, stats := extract.Extract(raw)
	for i := range records {
		records[i] = a.classifier.Classify(records[i])
	}

	*summary = analyze.Summarize(year, records)
	if stats.AmbiguousMarks > 0 {
		*notes = append(*notes, fmt.Sprintf("%d: %d questions had ambiguous mark annotations, first match used", year, stats.AmbiguousMarks))
	}
	log.Printf("[extract] %d: %d questions (%s layout)", year, len(records), stats.Strategy)
	progress.update(year, StatusDone, len(records), "")
	return nil
}
