package app_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pyq-analyzer/internal/app"
	"pyq-analyzer/internal/config"
	"pyq-analyzer/internal/domain"
	"pyq-analyzer/internal/infra/memory"
)

// samplePaper classifies to 3 Easy, 4 Medium, 3 Hard.
const samplePaper = `1. Define a rational number with one example. [1 mark]
2. State the fundamental theorem of arithmetic. [1 mark]
3. Write the HCF of 12 and 18. [1 mark]
4. Calculate the median of the given frequency distribution. [3 marks]
5. Find the zeros of the polynomial x^2 - 3x + 2. [2 marks]
6. Solve the pair of linear equations by elimination. [3 marks]
7. Explain why 7 x 11 x 13 + 13 is a composite number. [2 marks]
8. Prove that the tangent at any point of a circle is perpendicular to the radius. [5 marks]
9. Prove that root 5 is irrational. [4 marks]
10. Derive the formula for the area of a frustum of a cone. [5 marks]
`

func testConfig(t *testing.T, years []int) config.Config {
	t.Helper()
	cfg := config.Config{}
	cfg.Subject.Code = "maths10"
	cfg.Subject.Name = "Mathematics"
	cfg.Subject.URLTemplate = "https://papers.example.org/{year}.txt"
	cfg.Years = years
	cfg.Output.Path = filepath.Join(t.TempDir(), "report.json")
	return cfg
}

func newPaperSource(papers map[int][]byte) app.PaperSource {
	return memory.NewPaperCache(memory.NewStaticPaperLoader(papers), time.Minute)
}

func TestAnalyzeThreeYearsWithFailedFetch(t *testing.T) {
	cfg := testConfig(t, []int{2019, 2020, 2021})
	papers := newPaperSource(map[int][]byte{
		2019: []byte(samplePaper),
		2020: []byte(samplePaper),
		// 2021 deliberately missing: fetch fails, year degrades to anomaly.
	})
	analyzer := app.NewAnalyzer(cfg, papers, nil)

	rep, err := analyzer.Analyze(context.Background(), nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if len(rep.Years) != 3 || rep.Years[0] != 2019 || rep.Years[2] != 2021 {
		t.Fatalf("unexpected years: %v", rep.Years)
	}
	hard := rep.DifficultyTrend[domain.DifficultyHard]
	if len(hard) != 3 || hard[0] != 3 || hard[1] != 3 || hard[2] != 0 {
		t.Fatalf("unexpected hard trend: %v", hard)
	}
	if rep.PerYear[2019].TotalQuestions != 10 {
		t.Fatalf("expected 10 questions in 2019, got %d", rep.PerYear[2019].TotalQuestions)
	}
	if rep.PerYear[2021].TotalQuestions != 0 {
		t.Fatalf("expected zero summary for 2021, got %+v", rep.PerYear[2021])
	}

	anomalySeen := false
	for _, note := range rep.Notes {
		if strings.Contains(note, "2021") {
			anomalySeen = true
		}
	}
	if !anomalySeen {
		t.Fatalf("expected an anomaly note for 2021, got %v", rep.Notes)
	}

	if _, err := os.Stat(cfg.Output.Path); err != nil {
		t.Fatalf("report file not written: %v", err)
	}
}

func TestAnalyzeHistogramInvariant(t *testing.T) {
	cfg := testConfig(t, []int{2022})
	analyzer := app.NewAnalyzer(cfg, newPaperSource(map[int][]byte{2022: []byte(samplePaper)}), nil)

	rep, err := analyzer.Analyze(context.Background(), nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	summary := rep.PerYear[2022]
	sum := 0
	for _, tier := range domain.Difficulties {
		sum += summary.DifficultyHistogram[tier]
	}
	if sum != summary.TotalQuestions {
		t.Fatalf("histogram sum %d != total %d", sum, summary.TotalQuestions)
	}
}

func TestAnalyzeCanceledRunWritesNothing(t *testing.T) {
	cfg := testConfig(t, []int{2019, 2020})
	analyzer := app.NewAnalyzer(cfg, newPaperSource(map[int][]byte{
		2019: []byte(samplePaper),
		2020: []byte(samplePaper),
	}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := analyzer.Analyze(ctx, nil); err == nil {
		t.Fatalf("expected error from canceled run")
	}
	if _, err := os.Stat(cfg.Output.Path); !os.IsNotExist(err) {
		t.Fatalf("canceled run must not write a report, stat err=%v", err)
	}
}

func TestAnalyzeReportsProgress(t *testing.T) {
	cfg := testConfig(t, []int{2019, 2021})
	analyzer := app.NewAnalyzer(cfg, newPaperSource(map[int][]byte{2019: []byte(samplePaper)}), nil)

	run := app.NewRun(cfg.Subject.Code, cfg.Years)
	updates, cancel := run.Subscribe()
	defer cancel()
	go func() {
		for range updates {
		}
	}()

	if _, err := analyzer.Analyze(context.Background(), run); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	snap := run.Snapshot()
	if !snap.Done {
		t.Fatalf("expected run to be marked done")
	}
	statuses := map[int]string{}
	for _, yp := range snap.Years {
		statuses[yp.Year] = yp.Status
	}
	if statuses[2019] != app.StatusDone {
		t.Fatalf("expected 2019 done, got %s", statuses[2019])
	}
	if statuses[2021] != app.StatusFailed {
		t.Fatalf("expected 2021 failed, got %s", statuses[2021])
	}
	for _, yp := range snap.Years {
		if yp.Year == 2019 && yp.Questions != 10 {
			t.Fatalf("expected 10 questions reported for 2019, got %d", yp.Questions)
		}
	}
}
