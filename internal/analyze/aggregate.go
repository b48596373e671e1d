package analyze

import "pyq-analyzer/internal/domain"

// Summarize reduces one year's classified records into a YearSummary in a
// single pass. The difficulty histogram always carries all four tiers;
// records with no inferred topic are left out of the topic histogram rather
// than bucketed under a placeholder. An empty record sequence yields a
// zero-valued summary: a year with no data is an anomaly, not a failure.
func Summarize(year int, records []domain.QuestionRecord) domain.YearSummary {
	summary := domain.YearSummary{
		Year:                year,
		TotalQuestions:      len(records),
		DifficultyHistogram: make(map[domain.Difficulty]int, len(domain.Difficulties)),
		TopicHistogram:      make(map[string]int),
	}
	for _, tier := range domain.Difficulties {
		summary.DifficultyHistogram[tier] = 0
	}
	for _, rec := range records {
		summary.TotalMarks += rec.Marks
		summary.DifficultyHistogram[rec.Difficulty]++
		if rec.Topic != "" {
			summary.TopicHistogram[rec.Topic]++
		}
	}
	return summary
}
