package domain

import "time"

// Difficulty is the tier assigned to a question by the classifier.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
	// DifficultyUnknown marks extraction failure, never classifier uncertainty.
	DifficultyUnknown Difficulty = "Unknown"
)

// Difficulties lists all tiers in report order. Histograms and trends always
// carry every tier, including Unknown.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyUnknown}

// QuestionRecord is the structured extraction of a single question from a
// paper. Ordinal follows segmentation order, not the printed question number,
// so garbled numbering does not shift positions. Marks 0 means the annotation
// was absent or unparseable. Records are immutable once classified.
type QuestionRecord struct {
	Ordinal    int        `json:"ordinal"`
	RawText    string     `json:"rawText"`
	Marks      int        `json:"marks"`
	Topic      string     `json:"topic,omitempty"`
	Difficulty Difficulty `json:"difficulty"`
}

// YearSummary is the per-year reduction of a question record sequence.
// Invariant: the difficulty histogram counts sum to TotalQuestions.
type YearSummary struct {
	Year                int                `json:"year"`
	TotalQuestions      int                `json:"totalQuestions"`
	TotalMarks          int                `json:"totalMarks"`
	DifficultyHistogram map[Difficulty]int `json:"difficultyHistogram"`
	TopicHistogram      map[string]int     `json:"topicHistogram"`
}

// PatternReport is the final analytics artifact for one run. Trend and drift
// sequences are index-aligned with Years. PerYear marshals with stringified
// year keys.
type PatternReport struct {
	SubjectCode     string               `json:"subjectCode"`
	SubjectName     string               `json:"subjectName"`
	GeneratedAt     time.Time            `json:"generatedAt"`
	Years           []int                `json:"years"`
	PerYear         map[int]YearSummary  `json:"perYear"`
	DifficultyTrend map[Difficulty][]int `json:"difficultyTrend"`
	TopicDrift      map[string][]int     `json:"topicDrift"`
	Notes           []string             `json:"notes"`
}
