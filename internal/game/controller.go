// Package game drives a quiz session for one player: it fetches questions,
// runs the per-question countdown, records finished sessions and publishes
// views to observers.
package game

import (
	"context"
	stderrors "errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/errors"
	"github.com/victornm/etrivia/internal/event"
	"github.com/victornm/etrivia/internal/session"
)

const (
	// maxAmount is the largest batch the provider serves.
	maxAmount = 50

	warningThreshold = 3
)

// DefaultSettings apply to any field the player leaves empty.
var DefaultSettings = domain.Settings{
	Amount:          10,
	Difficulty:      domain.DifficultyEasy,
	TimePerQuestion: 10,
}

type QuestionProvider interface {
	Questions(ctx context.Context, f domain.QuestionFilter) ([]domain.Question, error)
}

type Leaderboard interface {
	Load(ctx context.Context) ([]domain.LeaderboardEntry, error)
	Record(ctx context.Context, entry domain.LeaderboardEntry) ([]domain.LeaderboardEntry, error)
}

type Config struct {
	Provider      QuestionProvider
	Leaderboard   Leaderboard
	EventBus      *event.Bus
	NewTickerFunc func(d time.Duration) Ticker
	Now           func() time.Time
	Shuffle       func(n int, swap func(i, j int))
	Defaults      domain.Settings
}

// Controller owns one session. Every event it handles (ticks, answers,
// navigation and fetch completion) is serialised by mu.
type Controller struct {
	provider  QuestionProvider
	lb        Leaderboard
	eb        *event.Bus
	newTicker func(d time.Duration) Ticker
	now       func() time.Time
	shuffle   func(n int, swap func(i, j int))
	defaults  domain.Settings

	mu          sync.Mutex
	sess        session.Session
	screen      Screen
	answers     []string
	loading     bool
	notice      string
	leaderboard []domain.LeaderboardEntry
	closed      bool
	lastActive  time.Time

	gen   uint64
	timer *timer

	fetchSeq    uint64
	cancelFetch context.CancelFunc

	subs map[chan View]struct{}
}

func NewController(c Config) *Controller {
	ctrl := &Controller{
		provider:    c.Provider,
		lb:          c.Leaderboard,
		eb:          c.EventBus,
		newTicker:   c.NewTickerFunc,
		now:         c.Now,
		shuffle:     c.Shuffle,
		defaults:    c.Defaults,
		screen:      ScreenHome,
		leaderboard: []domain.LeaderboardEntry{},
		subs:        make(map[chan View]struct{}),
	}

	if ctrl.newTicker == nil {
		ctrl.newTicker = newTimeTicker
	}
	if ctrl.now == nil {
		ctrl.now = time.Now
	}
	if ctrl.shuffle == nil {
		ctrl.shuffle = rand.Shuffle
	}
	if ctrl.defaults.Amount <= 0 {
		ctrl.defaults.Amount = DefaultSettings.Amount
	}
	if !ctrl.defaults.Difficulty.Valid() {
		ctrl.defaults.Difficulty = DefaultSettings.Difficulty
	}
	if ctrl.defaults.TimePerQuestion <= 0 {
		ctrl.defaults.TimePerQuestion = DefaultSettings.TimePerQuestion
	}
	ctrl.lastActive = ctrl.now()

	return ctrl
}

// Defaults returns the settings used for fields left empty.
func (c *Controller) Defaults() domain.Settings {
	return c.defaults
}

// Start fetches questions and begins a new session. A start issued while an
// earlier fetch is in flight cancels that fetch, and the earlier call returns
// domain.ErrFetchSuperseded.
func (c *Controller) Start(ctx context.Context, playerName string, settings domain.Settings) (View, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return View{}, domain.ErrEmptyPlayerName
	}

	settings, err := c.normalize(settings)
	if err != nil {
		return View{}, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return View{}, domain.ErrGameNotFound
	}
	c.lastActive = c.now()
	c.cancelFetchLocked()
	c.fetchSeq++
	seq := c.fetchSeq
	fctx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel
	c.loading = true
	c.notice = ""
	c.broadcastLocked()
	c.mu.Unlock()

	questions, err := c.provider.Questions(fctx, settings.Filter())

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.fetchSeq {
		slog.DebugContext(ctx, "game: discarding superseded fetch", "player", playerName)
		return View{}, domain.ErrFetchSuperseded
	}
	c.cancelFetchLocked()
	c.loading = false

	if err != nil {
		err = c.fetchError(ctx, err)
		c.notice = errors.Convert(err).Message
		c.broadcastLocked()
		return View{}, err
	}

	if err := c.sess.Start(playerName, settings, questions); err != nil {
		slog.InfoContext(ctx, "game: no questions for settings",
			"player", playerName,
			"amount", settings.Amount,
			"difficulty", settings.Difficulty,
			"category", settings.Category,
		)
		c.notice = errors.Convert(err).Message
		c.broadcastLocked()
		return View{}, err
	}

	c.screen = ScreenQuiz
	c.displayLocked()

	slog.InfoContext(ctx, "game: session started", "player", playerName, "questions", len(questions))
	c.publish(ctx, domain.EventSessionStarted{
		PlayerName: playerName,
		Settings:   settings,
		Questions:  len(questions),
	})

	c.broadcastLocked()
	return c.viewLocked(), nil
}

func (c *Controller) fetchError(ctx context.Context, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	var e *errors.Error
	if stderrors.As(err, &e) {
		slog.WarnContext(ctx, "game: fetch questions failed", "error", err)
		return err
	}

	slog.ErrorContext(ctx, "game: fetch questions failed", "error", err)
	return domain.ErrProviderUnavailable.Wrap(err)
}

func (c *Controller) normalize(s domain.Settings) (domain.Settings, error) {
	if s.Amount == 0 {
		s.Amount = c.defaults.Amount
	}
	if s.Amount < 0 || s.Amount > maxAmount {
		return s, domain.InvalidSettings("amount must be between 1 and %d", maxAmount)
	}

	s.Difficulty = domain.ParseDifficulty(string(s.Difficulty))
	if s.Difficulty == "" {
		s.Difficulty = c.defaults.Difficulty
	}
	if !s.Difficulty.Valid() {
		return s, domain.InvalidSettings("unknown difficulty %q", s.Difficulty)
	}

	s.Category = strings.TrimSpace(s.Category)
	if s.Category == "" {
		s.Category = c.defaults.Category
	}

	if s.TimePerQuestion == 0 {
		s.TimePerQuestion = c.defaults.TimePerQuestion
	}
	if s.TimePerQuestion < 0 {
		return s, domain.InvalidSettings("time per question must be positive")
	}

	return s, nil
}

// displayLocked shows the current question: answers are shuffled once and a
// fresh countdown starts.
func (c *Controller) displayLocked() {
	q, ok := c.sess.Current()
	if !ok {
		return
	}

	c.answers = q.Answers()
	c.shuffle(len(c.answers), func(i, j int) {
		c.answers[i], c.answers[j] = c.answers[j], c.answers[i]
	})

	c.startTimerLocked()
}

// SubmitAnswer answers the current question with a raw answer value. Answers
// to a resolved question or outside a session are ignored.
func (c *Controller) SubmitAnswer(ctx context.Context, answer string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return View{}, domain.ErrGameNotFound
	}
	c.lastActive = c.now()

	c.submitLocked(ctx, answer)
	return c.viewLocked(), nil
}

// SubmitOption answers with the option shown under letter (A to D).
func (c *Controller) SubmitOption(ctx context.Context, letter string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return View{}, domain.ErrGameNotFound
	}
	c.lastActive = c.now()
	if c.sess.Status() != session.StatusInProgress {
		return c.viewLocked(), nil
	}

	i, ok := letterIndex(letter)
	if !ok || i >= len(c.answers) {
		return View{}, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown option %q", letter))
	}

	c.submitLocked(ctx, c.answers[i])
	return c.viewLocked(), nil
}

func (c *Controller) submitLocked(ctx context.Context, answer string) {
	o, ok := c.sess.SubmitAnswer(answer)
	if !ok {
		return
	}

	c.stopTimerLocked()
	c.answeredLocked(ctx, o)
}

func (c *Controller) answeredLocked(ctx context.Context, o session.Outcome) {
	slog.DebugContext(ctx, "game: question resolved",
		"player", c.sess.PlayerName(),
		"index", o.Index,
		"outcome", o.Kind(),
	)

	c.publish(ctx, domain.EventAnswerRecorded{
		PlayerName: c.sess.PlayerName(),
		Index:      o.Index,
		Outcome:    o.Kind(),
	})

	c.broadcastLocked()
}

// tick handles one second of the countdown started under gen. It reports
// whether the countdown should keep running.
func (c *Controller) tick(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		return false
	}

	o, timedOut := c.sess.Tick()
	if !timedOut {
		c.broadcastLocked()
		return true
	}

	c.stopTimerLocked()
	c.answeredLocked(context.Background(), o)
	return false
}

// Next moves past the resolved question. After the last question the result is
// shown and the session is recorded on the leaderboard.
func (c *Controller) Next(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return View{}, domain.ErrGameNotFound
	}
	c.lastActive = c.now()

	if err := c.sess.Advance(); err != nil {
		return View{}, err
	}

	if c.sess.Status() == session.StatusInProgress {
		c.displayLocked()
		c.broadcastLocked()
		return c.viewLocked(), nil
	}

	c.stopTimerLocked()
	c.answers = nil
	c.screen = ScreenResult
	c.finishLocked(ctx)

	c.broadcastLocked()
	return c.viewLocked(), nil
}

func (c *Controller) finishLocked(ctx context.Context) {
	res, _ := c.sess.Result()
	finishedAt := c.now()

	// The session is already terminal, so the entry cannot be recorded later.
	entries, err := c.lb.Record(context.WithoutCancel(ctx), domain.NewLeaderboardEntry(res.PlayerName, res.Score, finishedAt))
	if err != nil {
		slog.ErrorContext(ctx, "game: record leaderboard failed", "player", res.PlayerName, "error", err)
		c.notice = "your score could not be saved to the leaderboard"
	} else {
		c.leaderboard = entries
	}

	slog.InfoContext(ctx, "game: session finished",
		"player", res.PlayerName,
		"score", res.Score,
		"tier", res.Tier,
	)

	c.publish(ctx, domain.EventSessionFinished{
		Result:     res,
		Settings:   c.sess.Settings(),
		FinishedAt: finishedAt,
	})
}

// Home abandons any session or pending fetch and shows the home screen with a
// freshly loaded leaderboard.
func (c *Controller) Home(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return View{}, domain.ErrGameNotFound
	}
	c.lastActive = c.now()

	c.cancelFetchLocked()
	c.fetchSeq++
	c.stopTimerLocked()
	c.sess.Reset()
	c.screen = ScreenHome
	c.answers = nil
	c.loading = false
	c.notice = ""

	entries, err := c.lb.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "game: load leaderboard failed", "error", err)
		c.notice = "leaderboard is unavailable"
	} else {
		c.leaderboard = entries
	}

	c.broadcastLocked()
	return c.viewLocked(), nil
}

// View returns a snapshot of what the player should see.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastActive = c.now()
	return c.viewLocked()
}

// Subscribe returns a channel of views, starting with the current one. A slow
// reader only misses intermediate views, never the latest. The returned
// function must be called to release the subscription.
func (c *Controller) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}
	c.lastActive = c.now()
	ch <- c.viewLocked()
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
			c.lastActive = c.now()
		}
	}

	return ch, cancel
}

// idleFor reports how long the game has gone without a command or a
// subscriber.
func (c *Controller) idleFor(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.subs) > 0 {
		return 0
	}
	return now.Sub(c.lastActive)
}

func (c *Controller) broadcastLocked() {
	if len(c.subs) == 0 {
		return
	}

	v := c.viewLocked()
	for ch := range c.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

// Close stops the countdown and any pending fetch and ends all subscriptions.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancelFetchLocked()
	c.fetchSeq++
	c.stopTimerLocked()

	for ch := range c.subs {
		delete(c.subs, ch)
		close(ch)
	}
}

func (c *Controller) cancelFetchLocked() {
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

func (c *Controller) publish(ctx context.Context, e event.Event) {
	if c.eb == nil {
		return
	}
	c.eb.Publish(ctx, e)
}

func letterIndex(letter string) (int, bool) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	for i, l := range optionLetters {
		if l == letter {
			return i, true
		}
	}
	return 0, false
}

