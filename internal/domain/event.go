package domain

import "time"

const (
	EventNameSessionStarted     = "session.started"
	EventNameAnswerRecorded     = "answer.recorded"
	EventNameSessionFinished    = "session.finished"
	EventNameLeaderboardUpdated = "leaderboard.updated"
)

type EventSessionStarted struct {
	PlayerName string
	Settings   Settings
	Questions  int
}

func (EventSessionStarted) Name() string { return EventNameSessionStarted }

type AnswerOutcome string

const (
	OutcomeCorrect AnswerOutcome = "correct"
	OutcomeWrong   AnswerOutcome = "wrong"
	OutcomeTimeout AnswerOutcome = "timeout"
)

type EventAnswerRecorded struct {
	PlayerName string
	Index      int
	Outcome    AnswerOutcome
}

func (EventAnswerRecorded) Name() string { return EventNameAnswerRecorded }

type EventSessionFinished struct {
	Result     Result
	Settings   Settings
	FinishedAt time.Time
}

func (EventSessionFinished) Name() string { return EventNameSessionFinished }

type EventLeaderboardUpdated struct {
	Entries []LeaderboardEntry
}

func (EventLeaderboardUpdated) Name() string { return EventNameLeaderboardUpdated }
