package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Scores are rendered as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalises user input. Unknown values are kept as-is so the
// scoring fallback applies to them.
func ParseDifficulty(s string) Difficulty {
	return Difficulty(strings.ToLower(strings.TrimSpace(s)))
}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is a multiple-choice question as returned by the provider. Text and
// answers keep the provider's HTML entities.
type Question struct {
	Text             string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
	Category         string   `json:"category,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`
}

// Answers returns the incorrect answers followed by the correct one.
func (q Question) Answers() []string {
	answers := make([]string, 0, len(q.IncorrectAnswers)+1)
	answers = append(answers, q.IncorrectAnswers...)
	return append(answers, q.CorrectAnswer)
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QuestionFilter selects questions from a provider. An empty CategoryID means
// any category.
type QuestionFilter struct {
	Amount     int
	Difficulty Difficulty
	CategoryID string
}

// Settings are chosen by the player before a quiz starts.
type Settings struct {
	Amount          int        `json:"amount"`
	Difficulty      Difficulty `json:"difficulty"`
	Category        string     `json:"category,omitempty"`
	TimePerQuestion int        `json:"time"`
}

func (s Settings) Filter() QuestionFilter {
	return QuestionFilter{
		Amount:     s.Amount,
		Difficulty: s.Difficulty,
		CategoryID: s.Category,
	}
}

type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierAverage   Tier = "average"
	TierPoor      Tier = "poor"
)

// Result summarises a finished session.
type Result struct {
	PlayerName string          `json:"player_name"`
	Difficulty Difficulty      `json:"difficulty"`
	Score      decimal.Decimal `json:"score"`
	MaxScore   decimal.Decimal `json:"max_score"`
	Percentage float64         `json:"percentage"`
	Tier       Tier            `json:"tier"`
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	Correct    int             `json:"correct"`
	Incorrect  int             `json:"incorrect"`
	Total      int             `json:"total"`
}

// LeaderboardEntry is the persisted form of a finished session.
type LeaderboardEntry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Date  string  `json:"date"`
}

// TimestampLayout is ISO-8601 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func NewLeaderboardEntry(name string, score decimal.Decimal, at time.Time) LeaderboardEntry {
	return LeaderboardEntry{
		Name:  name,
		Score: score.InexactFloat64(),
		Date:  at.UTC().Format(TimestampLayout),
	}
}
