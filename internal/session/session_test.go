package session_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/session"
)

func TestSession_AnswerAndAdvance(t *testing.T) {
	type outputs struct {
		score   decimal.Decimal
		correct int
		result  domain.Result
	}

	tests := map[string]struct {
		answer string
		assert func(t *testing.T, out outputs)
	}{
		"correct answer should finish with 100 percent and excellent tier": {
			answer: "Paris",
			assert: func(t *testing.T, out outputs) {
				assert.True(t, decimal.NewFromInt(1).Equal(out.score), "score %s", out.score)
				assert.Equal(t, 1, out.correct)
				assert.Equal(t, 100.0, out.result.Percentage)
				assert.Equal(t, domain.TierExcellent, out.result.Tier)
			},
		},

		"wrong answer should finish with 0 percent and poor tier": {
			answer: "London",
			assert: func(t *testing.T, out outputs) {
				assert.True(t, out.score.IsZero(), "score %s", out.score)
				assert.Equal(t, 0, out.correct)
				assert.Equal(t, 0.0, out.result.Percentage)
				assert.Equal(t, domain.TierPoor, out.result.Tier)
				assert.Equal(t, 1, out.result.Incorrect)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var s session.Session
			require.NoError(t, s.Start("Ada", settings(1, domain.DifficultyMedium), []domain.Question{capital()}))

			o, ok := s.SubmitAnswer(tt.answer)
			require.True(t, ok)
			assert.Equal(t, "Paris", o.CorrectAnswer, "correct answer should always be revealed")

			out := outputs{score: s.Score(), correct: s.CorrectCount()}

			require.NoError(t, s.Advance())
			require.Equal(t, session.StatusTerminal, s.Status())

			res, ok := s.Result()
			require.True(t, ok)
			out.result = res

			tt.assert(t, out)
		})
	}
}

func TestSession_Start(t *testing.T) {
	var s session.Session
	st := settings(2, domain.DifficultyHard)
	st.TimePerQuestion = 15
	require.NoError(t, s.Start("Ada", st, []domain.Question{capital(), capital()}))

	assert.Equal(t, session.StatusInProgress, s.Status())
	assert.Equal(t, 0, s.CurrentIndex())
	assert.Equal(t, 15, s.TimeLeft())
	assert.False(t, s.Answered())
	assert.True(t, s.Score().IsZero())

	q, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "Paris", q.CorrectAnswer)
}

func TestSession_StartEmptyKeepsPriorState(t *testing.T) {
	var s session.Session
	require.NoError(t, s.Start("Ada", settings(2, domain.DifficultyHard), []domain.Question{capital(), capital()}))
	_, ok := s.SubmitAnswer("Paris")
	require.True(t, ok)

	err := s.Start("Bob", settings(1, domain.DifficultyEasy), nil)
	require.ErrorIs(t, err, domain.ErrEmptyQuestionSet)

	assert.Equal(t, "Ada", s.PlayerName())
	assert.Equal(t, session.StatusInProgress, s.Status())
	assert.True(t, s.Answered())
	assert.True(t, decimal.RequireFromString("1.5").Equal(s.Score()))
	assert.Equal(t, 1, s.CorrectCount())
}

func TestSession_SubmitAnswerTwice(t *testing.T) {
	var s session.Session
	require.NoError(t, s.Start("Ada", settings(1, domain.DifficultyEasy), []domain.Question{capital()}))

	_, ok := s.SubmitAnswer("Paris")
	require.True(t, ok)
	first := s.Score()

	_, ok = s.SubmitAnswer("Paris")
	assert.False(t, ok, "second answer should be ignored")
	_, ok = s.SubmitAnswer("London")
	assert.False(t, ok)

	assert.True(t, first.Equal(s.Score()))
	assert.Equal(t, 1, s.CorrectCount())
}

func TestSession_TickTimeout(t *testing.T) {
	var s session.Session
	require.NoError(t, s.Start("Ada", settings(1, domain.DifficultyMedium), []domain.Question{capital()}))

	for i := 0; i < 2; i++ {
		_, done := s.Tick()
		require.False(t, done)
	}
	assert.Equal(t, 1, s.TimeLeft())

	o, done := s.Tick()
	require.True(t, done)
	assert.True(t, o.TimedOut)
	assert.False(t, o.Correct)
	assert.Equal(t, "Paris", o.CorrectAnswer)
	assert.Equal(t, domain.OutcomeTimeout, o.Kind())

	assert.Equal(t, 0, s.TimeLeft())
	assert.True(t, s.Answered())
	assert.True(t, s.Score().IsZero())
	assert.Equal(t, 0, s.CorrectCount())

	_, done = s.Tick()
	assert.False(t, done, "ticks after the timeout should be ignored")
	_, ok := s.SubmitAnswer("Paris")
	assert.False(t, ok, "answers after the timeout should be ignored")
	assert.True(t, s.Score().IsZero())
}

func TestSession_Advance(t *testing.T) {
	var s session.Session
	require.ErrorIs(t, s.Advance(), domain.ErrNoActiveQuestion, "idle session has no question")

	require.NoError(t, s.Start("Ada", settings(2, domain.DifficultyEasy), []domain.Question{capital(), capital()}))
	require.ErrorIs(t, s.Advance(), domain.ErrNoActiveQuestion, "unanswered question cannot be skipped")

	_, ok := s.SubmitAnswer("Paris")
	require.True(t, ok)
	for i := 0; i < 3; i++ {
		s.Tick()
	}
	require.NoError(t, s.Advance())

	assert.Equal(t, 1, s.CurrentIndex())
	assert.False(t, s.Answered())
	assert.Equal(t, 3, s.TimeLeft(), "time should reset for the next question")
	_, ok = s.Outcome()
	assert.False(t, ok)

	_, ok = s.SubmitAnswer("Berlin")
	require.True(t, ok)
	require.NoError(t, s.Advance())
	require.Equal(t, session.StatusTerminal, s.Status())
	assert.Equal(t, 2, s.CurrentIndex())

	res, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, 50.0, res.Percentage)
	assert.Equal(t, domain.TierAverage, res.Tier)

	require.ErrorIs(t, s.Advance(), domain.ErrNoActiveQuestion)
	_, ok = s.SubmitAnswer("Paris")
	assert.False(t, ok, "answers after the end should be ignored")
}

func TestSession_Reset(t *testing.T) {
	var s session.Session
	require.NoError(t, s.Start("Ada", settings(1, domain.DifficultyEasy), []domain.Question{capital()}))
	s.Reset()

	assert.Equal(t, session.StatusIdle, s.Status())
	assert.Equal(t, 0, s.Total())
	_, ok := s.Current()
	assert.False(t, ok)
}

func settings(amount int, d domain.Difficulty) domain.Settings {
	return domain.Settings{
		Amount:          amount,
		Difficulty:      d,
		TimePerQuestion: 3,
	}
}

func capital() domain.Question {
	return domain.Question{
		Text:             "What is the capital of France?",
		CorrectAnswer:    "Paris",
		IncorrectAnswers: []string{"London", "Berlin", "Madrid"},
	}
}
