package analyze

import (
	"testing"

	"pyq-analyzer/internal/domain"
)

func TestSummarizeHistogramSumsToTotal(t *testing.T) {
	records := []domain.QuestionRecord{
		{Ordinal: 1, Marks: 1, Topic: "Algebra", Difficulty: domain.DifficultyEasy},
		{Ordinal: 2, Marks: 3, Topic: "Algebra", Difficulty: domain.DifficultyMedium},
		{Ordinal: 3, Marks: 5, Topic: "Geometry", Difficulty: domain.DifficultyHard},
		{Ordinal: 4, Marks: 0, Difficulty: domain.DifficultyUnknown},
	}
	summary := Summarize(2020, records)

	if summary.Year != 2020 || summary.TotalQuestions != 4 {
		t.Fatalf("unexpected summary header: %+v", summary)
	}
	if summary.TotalMarks != 9 {
		t.Fatalf("expected 9 total marks, got %d", summary.TotalMarks)
	}

	sum := 0
	for _, tier := range domain.Difficulties {
		count, ok := summary.DifficultyHistogram[tier]
		if !ok {
			t.Fatalf("histogram missing tier %s", tier)
		}
		sum += count
	}
	if sum != summary.TotalQuestions {
		t.Fatalf("histogram sum %d != total questions %d", sum, summary.TotalQuestions)
	}
	if summary.DifficultyHistogram[domain.DifficultyUnknown] != 1 {
		t.Fatalf("Unknown difficulty must be counted, got %d", summary.DifficultyHistogram[domain.DifficultyUnknown])
	}
}

func TestSummarizeExcludesUnknownTopics(t *testing.T) {
	records := []domain.QuestionRecord{
		{Ordinal: 1, Topic: "Algebra", Difficulty: domain.DifficultyEasy},
		{Ordinal: 2, Topic: "", Difficulty: domain.DifficultyMedium},
	}
	summary := Summarize(2021, records)
	if len(summary.TopicHistogram) != 1 || summary.TopicHistogram["Algebra"] != 1 {
		t.Fatalf("unexpected topic histogram: %+v", summary.TopicHistogram)
	}
	if _, ok := summary.TopicHistogram[""]; ok {
		t.Fatalf("empty topic must not appear as a bucket")
	}
}

func TestSummarizeEmptyRecords(t *testing.T) {
	summary := Summarize(2021, nil)
	if summary.TotalQuestions != 0 || summary.TotalMarks != 0 {
		t.Fatalf("expected zero-valued summary, got %+v", summary)
	}
	if len(summary.DifficultyHistogram) != len(domain.Difficulties) {
		t.Fatalf("expected all tiers present, got %+v", summary.DifficultyHistogram)
	}
	for tier, count := range summary.DifficultyHistogram {
		if count != 0 {
			t.Fatalf("expected 0 for %s, got %d", tier, count)
		}
	}
	if len(summary.TopicHistogram) != 0 {
		t.Fatalf("expected empty topic histogram, got %+v", summary.TopicHistogram)
	}
}
