package domain

import "github.com/victornm/etrivia/internal/errors"

var (
	ErrEmptyQuestionSet    = errors.New(errors.CodeNotFound, errors.WithMessagef("no questions found, adjust the quiz settings"))
	ErrNoActiveQuestion    = errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("current question has not been answered yet"))
	ErrEmptyPlayerName     = errors.New(errors.CodeInvalidArgument, errors.WithMessagef("player name is required"))
	ErrProviderUnavailable = errors.New(errors.CodeUnavailable, errors.WithMessagef("trivia provider is unavailable, try again"))
	ErrFetchSuperseded     = errors.New(errors.CodeAborted, errors.WithMessagef("question fetch was superseded by a newer request"))
	ErrGameNotFound        = errors.New(errors.CodeNotFound, errors.WithMessagef("game not found"))
)

// InvalidSettings reports a settings field the player has to change.
func InvalidSettings(format string, args ...any) *errors.Error {
	return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid settings: "+format, args...))
}
