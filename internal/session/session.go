// Package session implements the quiz state machine. Transitions are pure:
// timers, rendering and persistence live with the caller.
package session

import (
	"github.com/shopspring/decimal"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/score"
)

type Status int

const (
	StatusIdle Status = iota
	StatusInProgress
	StatusTerminal
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusTerminal:
		return "terminal"
	default:
		return "idle"
	}
}

// Outcome describes how the current question was resolved.
type Outcome struct {
	Index         int
	Selected      string
	CorrectAnswer string
	Correct       bool
	TimedOut      bool
	Points        decimal.Decimal
}

func (o Outcome) Kind() domain.AnswerOutcome {
	switch {
	case o.TimedOut:
		return domain.OutcomeTimeout
	case o.Correct:
		return domain.OutcomeCorrect
	default:
		return domain.OutcomeWrong
	}
}

// Session is one quiz attempt. The zero value is an idle session.
type Session struct {
	playerName   string
	settings     domain.Settings
	questions    []domain.Question
	currentIndex int
	score        decimal.Decimal
	correctCount int
	answered     bool
	timeLeft     int
	status       Status

	outcome *Outcome
	result  *domain.Result
}

// Start begins a new attempt. An empty question list leaves the session as it was.
func (s *Session) Start(playerName string, settings domain.Settings, questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.ErrEmptyQuestionSet
	}

	*s = Session{
		playerName: playerName,
		settings:   settings,
		questions:  questions,
		score:      decimal.Zero,
		status:     StatusInProgress,
	}
	s.display()

	return nil
}

func (s *Session) display() {
	s.answered = false
	s.outcome = nil
	s.timeLeft = s.settings.TimePerQuestion
}

// SubmitAnswer resolves the current question with the player's choice. It
// reports false when the answer was ignored: the question is already answered
// or no question is active.
func (s *Session) SubmitAnswer(selected string) (Outcome, bool) {
	if s.status != StatusInProgress || s.answered {
		return Outcome{}, false
	}

	return s.resolve(selected, false), true
}

// Tick consumes one second of the current question's time. When the time runs
// out on an unanswered question it is resolved as a wrong answer with no
// selection, and Tick reports true.
func (s *Session) Tick() (Outcome, bool) {
	if s.status != StatusInProgress || s.answered {
		return Outcome{}, false
	}

	s.timeLeft--
	if s.timeLeft > 0 {
		return Outcome{}, false
	}
	s.timeLeft = 0

	return s.resolve("", true), true
}

func (s *Session) resolve(selected string, timedOut bool) Outcome {
	q := s.questions[s.currentIndex]
	o := Outcome{
		Index:         s.currentIndex,
		Selected:      selected,
		CorrectAnswer: q.CorrectAnswer,
		TimedOut:      timedOut,
		Points:        decimal.Zero,
	}

	s.answered = true
	if !timedOut && selected == q.CorrectAnswer {
		o.Correct = true
		o.Points = score.PointsForDifficulty(s.settings.Difficulty)
		s.score = s.score.Add(o.Points)
		s.correctCount++
	}
	s.outcome = &o

	return o
}

// Advance moves past an answered question. Past the last question the session
// becomes terminal and its result is computed.
func (s *Session) Advance() error {
	if s.status != StatusInProgress || !s.answered {
		return domain.ErrNoActiveQuestion
	}

	s.currentIndex++
	if s.currentIndex < len(s.questions) {
		s.display()
		return nil
	}

	s.status = StatusTerminal
	s.answered = false
	s.outcome = nil
	res := score.Summarize(score.SummarizeRequest{
		PlayerName: s.playerName,
		Difficulty: s.settings.Difficulty,
		Score:      s.score,
		Correct:    s.correctCount,
		Total:      len(s.questions),
	})
	s.result = &res

	return nil
}

// Reset returns the session to idle.
func (s *Session) Reset() {
	*s = Session{}
}

func (s *Session) Status() Status { return s.status }

func (s *Session) PlayerName() string { return s.playerName }

func (s *Session) Settings() domain.Settings { return s.settings }

func (s *Session) CurrentIndex() int { return s.currentIndex }

func (s *Session) Total() int { return len(s.questions) }

func (s *Session) Score() decimal.Decimal {
	if s.status == StatusIdle {
		return decimal.Zero
	}
	return s.score
}

func (s *Session) CorrectCount() int { return s.correctCount }

func (s *Session) Answered() bool { return s.answered }

func (s *Session) TimeLeft() int { return s.timeLeft }

// Current returns the question being displayed.
func (s *Session) Current() (domain.Question, bool) {
	if s.status != StatusInProgress {
		return domain.Question{}, false
	}
	return s.questions[s.currentIndex], true
}

// Outcome returns how the current question was resolved, once it has been.
func (s *Session) Outcome() (Outcome, bool) {
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

func (s *Session) Result() (domain.Result, bool) {
	if s.result == nil {
		return domain.Result{}, false
	}
	return *s.result, true
}
