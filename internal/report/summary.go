package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"pyq-analyzer/internal/domain"
)

const topTopicCount = 5

// Summary renders the report as a console digest: per-year table, most
// frequent topics, and the anomaly notes.
func Summary(report domain.PatternReport) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%s (%s): %d years analyzed", report.SubjectName, report.SubjectCode, len(report.Years)))
	parts = append(parts, yearTable(report))

	if topics := topTopics(report); topics != "" {
		parts = append(parts, topics)
	}
	if len(report.Notes) > 0 {
		lines := make([]string, 0, len(report.Notes)+1)
		lines = append(lines, "Notes:")
		for _, note := range report.Notes {
			lines = append(lines, "  - "+note)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

func yearTable(report domain.PatternReport) string {
	tw := table.NewWriter()
	// Tier names render as written, not auto-uppercased.
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	header := table.Row{"Year", "Questions", "Marks"}
	for _, tier := range domain.Difficulties {
		header = append(header, string(tier))
	}
	tw.AppendHeader(header)

	totals := domain.YearSummary{DifficultyHistogram: make(map[domain.Difficulty]int)}
	for _, year := range report.Years {
		summary := report.PerYear[year]
		row := table.Row{year, summary.TotalQuestions, summary.TotalMarks}
		for _, tier := range domain.Difficulties {
			row = append(row, summary.DifficultyHistogram[tier])
		}
		tw.AppendRow(row)

		totals.TotalQuestions += summary.TotalQuestions
		totals.TotalMarks += summary.TotalMarks
		for _, tier := range domain.Difficulties {
			totals.DifficultyHistogram[tier] += summary.DifficultyHistogram[tier]
		}
	}

	footer := table.Row{"Total", totals.TotalQuestions, totals.TotalMarks}
	for _, tier := range domain.Difficulties {
		footer = append(footer, totals.DifficultyHistogram[tier])
	}
	tw.AppendFooter(footer)
	return tw.Render()
}

// topTopics lists the most frequent topics across all years, with the number
// of distinct years each appeared in.
func topTopics(report domain.PatternReport) string {
	type topicTotal struct {
		name  string
		count int
		years int
	}
	totals := make([]topicTotal, 0, len(report.TopicDrift))
	for topic, counts := range report.TopicDrift {
		t := topicTotal{name: topic}
		for _, count := range counts {
			t.count += count
			if count > 0 {
				t.years++
			}
		}
		totals = append(totals, t)
	}
	if len(totals) == 0 {
		return ""
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].count != totals[j].count {
			return totals[i].count > totals[j].count
		}
		return totals[i].name < totals[j].name
	})
	if len(totals) > topTopicCount {
		totals = totals[:topTopicCount]
	}

	tw := table.NewWriter()
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{"Topic", "Questions", "Years seen"})
	for _, t := range totals {
		tw.AppendRow(table.Row{t.name, t.count, t.years})
	}
	return tw.Render()
}
