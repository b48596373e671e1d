package analyze

import (
	"fmt"
	"sort"

	"pyq-analyzer/internal/domain"
)

// shareShiftThreshold is the tier-share movement between consecutive years
// that gets flagged as a possible pattern shift: 15 percentage points.
const shareShiftThreshold = 0.15

// Comparison is the cross-year reduction of per-year summaries.
type Comparison struct {
	// DifficultyTrend holds one count per year for each of the four tiers,
	// index-aligned with the years the summaries were built from.
	DifficultyTrend map[domain.Difficulty][]int
	// TopicDrift is dense over the union of topics observed in any year;
	// a topic absent in a year contributes 0 at that index.
	TopicDrift map[string][]int
	Notes      []string
}

// Compare folds N per-year summaries into cross-year trends. Summaries must
// be sorted ascending by year; every downstream index alignment depends on
// it, so violation returns domain.ErrUnsortedYears rather than a silently
// misaligned report.
func Compare(summaries []domain.YearSummary) (Comparison, error) {
	for i := 1; i < len(summaries); i++ {
		if summaries[i].Year <= summaries[i-1].Year {
			return Comparison{}, domain.ErrUnsortedYears
		}
	}

	cmp := Comparison{
		DifficultyTrend: make(map[domain.Difficulty][]int, len(domain.Difficulties)),
		TopicDrift:      make(map[string][]int),
	}

	for _, tier := range domain.Difficulties {
		counts := make([]int, len(summaries))
		for i, summary := range summaries {
			counts[i] = summary.DifficultyHistogram[tier]
		}
		cmp.DifficultyTrend[tier] = counts
	}

	for _, topic := range topicUniverse(summaries) {
		counts := make([]int, len(summaries))
		for i, summary := range summaries {
			counts[i] = summary.TopicHistogram[topic]
		}
		cmp.TopicDrift[topic] = counts
	}

	cmp.Notes = buildNotes(summaries, cmp.DifficultyTrend)
	return cmp, nil
}

func topicUniverse(summaries []domain.YearSummary) []string {
	seen := make(map[string]struct{})
	for _, summary := range summaries {
		for topic := range summary.TopicHistogram {
			seen[topic] = struct{}{}
		}
	}
	topics := make([]string, 0, len(seen))
	for topic := range seen {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

func buildNotes(summaries []domain.YearSummary, trend map[domain.Difficulty][]int) []string {
	var notes []string
	for _, summary := range summaries {
		if summary.TotalQuestions == 0 {
			notes = append(notes, fmt.Sprintf("%d: no questions extracted", summary.Year))
		}
	}

	// Flag tier-share swings between consecutive data-bearing years. Years
	// with no questions already carry their own anomaly note and have no
	// meaningful share.
	for _, tier := range domain.Difficulties {
		counts := trend[tier]
		for i := 1; i < len(summaries); i++ {
			prev, cur := summaries[i-1], summaries[i]
			if prev.TotalQuestions == 0 || cur.TotalQuestions == 0 {
				continue
			}
			prevShare := float64(counts[i-1]) / float64(prev.TotalQuestions)
			curShare := float64(counts[i]) / float64(cur.TotalQuestions)
			delta := curShare - prevShare
			if delta >= shareShiftThreshold {
				notes = append(notes, fmt.Sprintf("%s share rose from %.0f%% to %.0f%% between %d and %d",
					tier, prevShare*100, curShare*100, prev.Year, cur.Year))
			} else if -delta >= shareShiftThreshold {
				notes = append(notes, fmt.Sprintf("%s share fell from %.0f%% to %.0f%% between %d and %d",
					tier, prevShare*100, curShare*100, prev.Year, cur.Year))
			}
		}
	}
	return notes
}
