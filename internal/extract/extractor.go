package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"pyq-analyzer/internal/domain"
)

// Stats carries extraction metadata the pipeline surfaces as notes.
type Stats struct {
	// Strategy names the layout variant that segmented the paper.
	Strategy string
	// AmbiguousMarks counts blocks with more than one mark annotation; the
	// first annotation wins and the caller flags the year.
	AmbiguousMarks int
}

// Papers changed layout across years, so segmentation is a strategy picked
// per document: each known era has a marker pattern for question starts, and
// anything unrecognized falls back to blank-line blocks.
type strategy struct {
	name   string
	marker *regexp.Regexp
}

var strategies = []strategy{
	{"prefixed", regexp.MustCompile(`(?mi)^[ \t]*Q\.?[ \t]*\d+[ \t]*[.):]`)},
	{"worded", regexp.MustCompile(`(?mi)^[ \t]*Question[ \t]+\d+[ \t]*[.):]`)},
	{"numbered", regexp.MustCompile(`(?m)^[ \t]*\d{1,2}[.)][ \t]+`)},
}

const (
	// A structured marker must repeat before we trust it; stray "1." lines in
	// body text should not hijack segmentation.
	minStructuredBlocks = 3
	// Blocks shorter than this are header/footer debris, not questions.
	minBlockLen = 10
)

var (
	blockSepRe = regexp.MustCompile(`\n[ \t]*\n`)
	// Standalone page numbers and "Page N of M" lines left behind by text
	// extraction from the source documents.
	pageNoiseRe = regexp.MustCompile(`(?mi)^[ \t]*(?:page[ \t]+\d+(?:[ \t]+of[ \t]+\d+)?|-?[ \t]*\d+[ \t]*-|\d+)[ \t]*$`)
)

// Extract segments one paper into ordered question records. Ordinals follow
// segmentation order so missing or garbled printed numbering cannot shift
// positions. A paper that yields no blocks returns an empty slice, not an
// error; the caller records that as a data-quality anomaly. Difficulty is
// Unknown until the classifier runs.
func Extract(raw []byte) ([]domain.QuestionRecord, Stats) {
	text := normalize(string(raw))
	if strings.TrimSpace(text) == "" {
		return nil, Stats{Strategy: "none"}
	}

	blocks, name := segment(text)
	records := make([]domain.QuestionRecord, 0, len(blocks))
	stats := Stats{Strategy: name}
	for _, block := range blocks {
		marks, ambiguous := parseMarks(block)
		if ambiguous {
			stats.AmbiguousMarks++
		}
		records = append(records, domain.QuestionRecord{
			Ordinal:    len(records) + 1,
			RawText:    block,
			Marks:      marks,
			Difficulty: domain.DifficultyUnknown,
		})
	}
	return records, stats
}

func segment(text string) ([]string, string) {
	for _, s := range strategies {
		locs := s.marker.FindAllStringIndex(text, -1)
		if len(locs) < minStructuredBlocks {
			continue
		}
		blocks := make([]string, 0, len(locs))
		for i, loc := range locs {
			end := len(text)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			block := strings.TrimSpace(text[loc[1]:end])
			if len(block) < minBlockLen {
				continue
			}
			blocks = append(blocks, block)
		}
		if len(blocks) > 0 {
			return blocks, s.name
		}
	}

	// Generic fallback: blank-line separated blocks.
	var blocks []string
	for _, block := range blockSepRe.Split(text, -1) {
		block = strings.TrimSpace(block)
		if len(block) < minBlockLen {
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks, "generic"
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\f", "\n\n")
	return pageNoiseRe.ReplaceAllString(text, "")
}

// Mark annotation variants seen across years, most explicit first. The first
// matching pattern's first occurrence supplies the value; a second annotation
// in any style makes the block ambiguous rather than guessed at.
var markPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[(\d+)\s*marks?\]`),
	regexp.MustCompile(`(?i)\((\d+)\s*marks?\)`),
	regexp.MustCompile(`(?i)\b(\d+)\s*marks?\b`),
	regexp.MustCompile(`(?i)\[(\d+)m\]`),
	regexp.MustCompile(`(?i)\((\d+)m\)`),
}

func parseMarks(block string) (int, bool) {
	marks := -1
	var spans [][2]int
	for _, re := range markPatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(block, -1) {
			if marks < 0 {
				if v, err := strconv.Atoi(block[loc[2]:loc[3]]); err == nil && v >= 0 {
					marks = v
				}
			}
			spans = append(spans, [2]int{loc[0], loc[1]})
		}
	}
	if marks < 0 {
		return 0, false
	}
	return marks, countAnnotations(spans) > 1
}

// countAnnotations counts distinct annotations across all mark patterns.
// Overlapping matches collapse into one: a bracketed annotation also matches
// the bare "N marks" form and must not count twice.
func countAnnotations(spans [][2]int) int {
	if len(spans) == 0 {
		return 0
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
	count := 1
	end := spans[0][1]
	for _, span := range spans[1:] {
		if span[0] >= end {
			count++
		}
		if span[1] > end {
			end = span[1]
		}
	}
	return count
}
