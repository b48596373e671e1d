package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"pyq-analyzer/internal/domain"
)

// WriteTrendChart renders the difficulty trend as an HTML line chart, one
// series per tier over the report's years.
func WriteTrendChart(path string, report domain.PatternReport) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    report.SubjectName + " difficulty trend",
			Subtitle: "questions per tier per year",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Year"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Questions"}),
	)

	labels := make([]string, len(report.Years))
	for i, year := range report.Years {
		labels[i] = strconv.Itoa(year)
	}
	line.SetXAxis(labels)

	for _, tier := range domain.Difficulties {
		counts := report.DifficultyTrend[tier]
		data := make([]opts.LineData, len(counts))
		for i, count := range counts {
			data[i] = opts.LineData{Value: count}
		}
		line.AddSeries(string(tier), data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
