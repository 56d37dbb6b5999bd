// Package console plays a quiz in a terminal on top of a game controller.
package console

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/errors"
	"github.com/victornm/etrivia/internal/game"
)

// ErrQuit is returned by Play when the player leaves before the result.
var ErrQuit = stderrors.New("console: player quit")

const quitCommand = "q"

type Config struct {
	In   io.Reader
	Out  io.Writer
	Game *game.Controller
}

type Console struct {
	in  io.Reader
	out io.Writer
	g   *game.Controller
}

func New(c Config) *Console {
	return &Console{
		in:  c.In,
		out: c.Out,
		g:   c.Game,
	}
}

// Play runs one session from start to the result screen.
func (c *Console) Play(ctx context.Context, name string, settings domain.Settings) error {
	lines := c.readLines(ctx)

	c.printf("Loading questions...\n")
	v, err := c.g.Start(ctx, name, settings)
	if err != nil {
		return err
	}

	for {
		switch v.Screen {
		case game.ScreenResult:
			c.renderResult(v)
			return nil
		case game.ScreenHome:
			return ErrQuit
		}

		q := v.Question
		if q == nil {
			return errors.Internal(fmt.Errorf("console: quiz screen without a question"))
		}

		if !q.Answered {
			c.renderQuestion(v)
			c.printf("Answer (A-%s, %s to quit): ", optionRange(q), quitCommand)
		} else {
			c.renderOutcome(q)
			c.printf("Press Enter to continue (%s to quit): ", quitCommand)
		}

		line, ok := <-lines
		if !ok || strings.EqualFold(line, quitCommand) {
			if _, err := c.g.Home(ctx); err != nil {
				slog.WarnContext(ctx, "console: return home failed", "error", err)
			}
			return ErrQuit
		}

		if q.Answered {
			v, err = c.g.Next(ctx)
		} else {
			v, err = c.g.SubmitOption(ctx, line)
		}
		if err != nil {
			e := errors.Convert(err)
			if e.Code != errors.CodeInvalidArgument {
				return err
			}
			c.printf("%s\n", e.Message)
			v = c.g.View()
		}
	}
}

// readLines feeds trimmed input lines until the input ends or ctx is done.
func (c *Console) readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		s := bufio.NewScanner(c.in)
		for s.Scan() {
			select {
			case lines <- strings.TrimSpace(s.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func (c *Console) renderQuestion(v game.View) {
	q := v.Question

	c.printf("\nQuestion %d/%d", q.Number, q.Total)
	if q.Category != "" {
		c.printf(" [%s]", q.Category)
	}
	c.printf("  Score: %s\n", formatScore(v.Score))
	c.printf("%s\n", q.Text)
	for _, o := range q.Options {
		c.printf("  %s) %s\n", o.Letter, o.Text)
	}

	if q.Warning {
		c.printf("Hurry! %ds left\n", q.TimeLeft)
	} else {
		c.printf("%ds left\n", q.TimeLeft)
	}
}

func (c *Console) renderOutcome(q *game.QuestionView) {
	var correct string
	wrong := false
	for _, o := range q.Options {
		switch o.State {
		case game.OptionCorrect:
			correct = o.Text
		case game.OptionWrong:
			wrong = true
		}
	}

	switch {
	case q.TimedOut:
		c.printf("Time's up! The answer was %s.\n", correct)
	case wrong:
		c.printf("Wrong! The answer was %s.\n", correct)
	default:
		c.printf("Correct!\n")
	}
}

func (c *Console) renderResult(v game.View) {
	r := v.Result
	if r == nil {
		return
	}

	c.printf("\n%s\n%s\n", r.Title, r.Message)
	c.printf("Score: %s/%s (%.0f%%)\n", formatScore(r.Score), formatScore(r.MaxScore), r.Percentage)
	c.printf("Correct: %d  Incorrect: %d  Difficulty: %s\n", r.Correct, r.Incorrect, r.Difficulty)
	if v.Notice != "" {
		c.printf("%s\n", v.Notice)
	}

	c.printf("\n")
	RenderLeaderboard(c.out, v.Leaderboard)
}

func (c *Console) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(c.out, format, a...)
}

// RenderLeaderboard writes the entries as a ranked table.
func RenderLeaderboard(w io.Writer, entries []domain.LeaderboardEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No scores yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tNAME\tSCORE\tDATE")
	for i, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, e.Name, formatScore(e.Score), e.Date)
	}
	_ = tw.Flush()
}

// RenderCategories writes one category per line, id first.
func RenderCategories(w io.Writer, cats []domain.Category) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME")
	for _, cat := range cats {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", cat.ID, cat.Name)
	}
	_ = tw.Flush()
}

func formatScore(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", f), "0"), ".")
}

func optionRange(q *game.QuestionView) string {
	if len(q.Options) == 0 {
		return "A"
	}
	return q.Options[len(q.Options)-1].Letter
}
