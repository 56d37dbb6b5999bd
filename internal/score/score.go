// Package score maps difficulties to points and turns a finished session into
// a tiered result.
package score

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/victornm/etrivia/internal/domain"
)

var (
	pointsEasy   = decimal.RequireFromString("0.5")
	pointsMedium = decimal.NewFromInt(1)
	pointsHard   = decimal.RequireFromString("1.5")

	hundred = decimal.NewFromInt(100)
)

// PointsForDifficulty returns the points a correct answer is worth. Unknown
// difficulties fall back to the easy value.
func PointsForDifficulty(d domain.Difficulty) decimal.Decimal {
	switch d {
	case domain.DifficultyEasy:
		return pointsEasy
	case domain.DifficultyMedium:
		return pointsMedium
	case domain.DifficultyHard:
		return pointsHard
	default:
		return pointsEasy
	}
}

// MaxScore is the score of a session with every answer correct.
func MaxScore(questions int, d domain.Difficulty) decimal.Decimal {
	return PointsForDifficulty(d).Mul(decimal.NewFromInt(int64(questions)))
}

// Percentage returns 100*score/max, or 0 when max is zero.
func Percentage(score decimal.Decimal, questions int, d domain.Difficulty) float64 {
	total := MaxScore(questions, d)
	if total.IsZero() {
		return 0
	}
	return score.Mul(hundred).Div(total).InexactFloat64()
}

// TierFor buckets a percentage using inclusive lower bounds.
func TierFor(percentage float64) domain.Tier {
	switch {
	case percentage >= 80:
		return domain.TierExcellent
	case percentage >= 60:
		return domain.TierGood
	case percentage >= 40:
		return domain.TierAverage
	default:
		return domain.TierPoor
	}
}

type copyText struct {
	title   string
	message string
}

var tierCopy = map[domain.Tier]copyText{
	domain.TierExcellent: {"Excellent!", "%s, you are a true trivia master! Keep it up!"},
	domain.TierGood:      {"Good job!", "%s, nice result! A little more practice and you'll be perfect!"},
	domain.TierAverage:   {"Not bad!", "%s, keep going! Practice will improve your score!"},
	domain.TierPoor:      {"Keep studying!", "%s, don't worry! Build up your knowledge and try again!"},
}

// Copy returns the display title and message for a tier.
func Copy(t domain.Tier, playerName string) (title, message string) {
	c, ok := tierCopy[t]
	if !ok {
		c = tierCopy[domain.TierPoor]
	}
	return c.title, fmt.Sprintf(c.message, playerName)
}

type SummarizeRequest struct {
	PlayerName string
	Difficulty domain.Difficulty
	Score      decimal.Decimal
	Correct    int
	Total      int
}

func Summarize(req SummarizeRequest) domain.Result {
	pct := Percentage(req.Score, req.Total, req.Difficulty)
	tier := TierFor(pct)
	title, msg := Copy(tier, req.PlayerName)

	return domain.Result{
		PlayerName: req.PlayerName,
		Difficulty: req.Difficulty,
		Score:      req.Score,
		MaxScore:   MaxScore(req.Total, req.Difficulty),
		Percentage: pct,
		Tier:       tier,
		Title:      title,
		Message:    msg,
		Correct:    req.Correct,
		Incorrect:  req.Total - req.Correct,
		Total:      req.Total,
	}
}
