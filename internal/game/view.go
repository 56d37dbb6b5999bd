package game

import (
	"html"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/session"
)

type Screen string

const (
	ScreenHome   Screen = "home"
	ScreenQuiz   Screen = "quiz"
	ScreenResult Screen = "result"
)

type OptionState string

const (
	OptionOpen     OptionState = "open"
	OptionCorrect  OptionState = "correct"
	OptionWrong    OptionState = "wrong"
	OptionDisabled OptionState = "disabled"
)

var optionLetters = []string{"A", "B", "C", "D"}

// View is what a presentation adapter renders.
type View struct {
	Screen      Screen                    `json:"screen"`
	Loading     bool                      `json:"loading"`
	Notice      string                    `json:"notice,omitempty"`
	PlayerName  string                    `json:"player_name,omitempty"`
	Score       float64                   `json:"score"`
	Progress    float64                   `json:"progress"`
	Question    *QuestionView             `json:"question,omitempty"`
	Result      *ResultView               `json:"result,omitempty"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

type QuestionView struct {
	Number   int          `json:"number"`
	Total    int          `json:"total"`
	Text     string       `json:"text"`
	Category string       `json:"category,omitempty"`
	Options  []OptionView `json:"options"`
	TimeLeft int          `json:"time_left"`
	Warning  bool         `json:"warning"`
	Answered bool         `json:"answered"`
	TimedOut bool         `json:"timed_out"`
}

// OptionView is one answer button. Value is the raw answer to submit back,
// Attr is Value escaped for embedding in markup and Text is Value decoded for
// display.
type OptionView struct {
	Letter string      `json:"letter"`
	Value  string      `json:"value"`
	Attr   string      `json:"attr"`
	Text   string      `json:"text"`
	State  OptionState `json:"state"`
}

type ResultView struct {
	Difficulty domain.Difficulty `json:"difficulty"`
	Score      float64           `json:"score"`
	MaxScore   float64           `json:"max_score"`
	Percentage float64           `json:"percentage"`
	Tier       domain.Tier       `json:"tier"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Correct    int               `json:"correct"`
	Incorrect  int               `json:"incorrect"`
	Total      int               `json:"total"`
}

func (c *Controller) viewLocked() View {
	v := View{
		Screen:      c.screen,
		Loading:     c.loading,
		Notice:      c.notice,
		PlayerName:  c.sess.PlayerName(),
		Score:       c.sess.Score().InexactFloat64(),
		Leaderboard: append([]domain.LeaderboardEntry{}, c.leaderboard...),
	}

	switch c.sess.Status() {
	case session.StatusInProgress:
		v.Progress = float64(c.sess.CurrentIndex()) / float64(c.sess.Total())
		v.Question = c.questionViewLocked()
	case session.StatusTerminal:
		v.Progress = 1
		if res, ok := c.sess.Result(); ok {
			v.Result = resultView(res)
		}
	}

	return v
}

func (c *Controller) questionViewLocked() *QuestionView {
	q, ok := c.sess.Current()
	if !ok {
		return nil
	}

	qv := &QuestionView{
		Number:   c.sess.CurrentIndex() + 1,
		Total:    c.sess.Total(),
		Text:     html.UnescapeString(q.Text),
		Category: html.UnescapeString(q.Category),
		Options:  make([]OptionView, 0, len(c.answers)),
		TimeLeft: c.sess.TimeLeft(),
		Warning:  c.sess.TimeLeft() <= warningThreshold,
		Answered: c.sess.Answered(),
	}

	o, answered := c.sess.Outcome()
	qv.TimedOut = answered && o.TimedOut

	for i, a := range c.answers {
		ov := OptionView{
			Value: a,
			Attr:  html.EscapeString(a),
			Text:  html.UnescapeString(a),
			State: OptionOpen,
		}
		if i < len(optionLetters) {
			ov.Letter = optionLetters[i]
		}

		if answered {
			switch {
			case a == o.CorrectAnswer:
				ov.State = OptionCorrect
			case a == o.Selected:
				ov.State = OptionWrong
			default:
				ov.State = OptionDisabled
			}
		}

		qv.Options = append(qv.Options, ov)
	}

	return qv
}

func resultView(res domain.Result) *ResultView {
	return &ResultView{
		Difficulty: res.Difficulty,
		Score:      res.Score.InexactFloat64(),
		MaxScore:   res.MaxScore.InexactFloat64(),
		Percentage: res.Percentage,
		Tier:       res.Tier,
		Title:      res.Title,
		Message:    res.Message,
		Correct:    res.Correct,
		Incorrect:  res.Incorrect,
		Total:      res.Total,
	}
}
