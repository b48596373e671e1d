package extract

import (
	"sort"
	"strings"

	"pyq-analyzer/internal/domain"
)

// Lexical cues that bias the difficulty score. Recall verbs suggest short
// factual questions; derivation verbs suggest multi-step work.
var (
	easyCues   = []string{"state", "define", "list", "name", "identify", "write"}
	mediumCues = []string{"explain", "describe", "calculate", "find", "solve"}
	hardCues   = []string{"prove", "derive", "analyze", "justify", "show that"}
)

const (
	maxMarkWeight   = 3
	easyThreshold   = 2
	mediumThreshold = 5
)

// Classifier assigns a difficulty tier and an inferred topic to extracted
// records. It is a pure function of the record's text and marks: no state is
// read or written, so identical input always classifies identically.
type Classifier struct {
	topics []topicEntry
}

type topicEntry struct {
	name     string
	keywords []string
}

// NewClassifier builds a classifier with the given topic keyword table, or
// the built-in one when topics is nil.
func NewClassifier(topics map[string][]string) *Classifier {
	if topics == nil {
		topics = DefaultTopics()
	}
	entries := make([]topicEntry, 0, len(topics))
	for name, keywords := range topics {
		entries = append(entries, topicEntry{name: name, keywords: keywords})
	}
	// Fixed iteration order keeps topic assignment deterministic.
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return &Classifier{topics: entries}
}

// Classify returns a copy of rec with Difficulty and Topic set. This is the
// single mutation a record sees between extraction and aggregation.
func (c *Classifier) Classify(rec domain.QuestionRecord) domain.QuestionRecord {
	lower := strings.ToLower(rec.RawText)
	rec.Difficulty = classifyDifficulty(lower, rec.Marks)
	rec.Topic = c.topicFor(lower)
	return rec
}

func classifyDifficulty(lower string, marks int) domain.Difficulty {
	score := 0
	if containsAny(lower, easyCues) {
		score++
	}
	if containsAny(lower, mediumCues) {
		score += 2
	}
	if containsAny(lower, hardCues) {
		score += 3
	}
	if marks > maxMarkWeight {
		score += maxMarkWeight
	} else {
		score += marks
	}

	// No lexical cues and no mark annotation: the neutral default is Medium.
	// Unknown is reserved for extraction failure.
	if score == 0 {
		return domain.DifficultyMedium
	}
	switch {
	case score <= easyThreshold:
		return domain.DifficultyEasy
	case score <= mediumThreshold:
		return domain.DifficultyMedium
	default:
		return domain.DifficultyHard
	}
}

func (c *Classifier) topicFor(lower string) string {
	for _, entry := range c.topics {
		if containsAny(lower, entry.keywords) {
			return entry.name
		}
	}
	return ""
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

// DefaultTopics is the keyword table for the default subject (class-10
// mathematics). Subjects with different syllabi override it in config.
func DefaultTopics() map[string][]string {
	return map[string][]string{
		"Number Systems":      {"hcf", "lcm", "euclid", "irrational", "rational", "prime", "composite"},
		"Algebra":             {"polynomial", "quadratic", "equation", "linear", "zeros", "coefficient"},
		"Coordinate Geometry": {"distance", "section formula", "midpoint", "coordinates", "slope"},
		"Geometry":            {"triangle", "circle", "tangent", "chord", "radius", "similar", "congruent"},
		"Trigonometry":        {"sin", "cos", "tan", "elevation", "depression", "height and distance"},
		"Mensuration":         {"volume", "surface area", "cone", "cylinder", "sphere", "frustum"},
		"Statistics":          {"mean", "median", "mode", "frequency", "distribution"},
		"Probability":         {"probability", "random", "event", "outcome"},
	}
}
