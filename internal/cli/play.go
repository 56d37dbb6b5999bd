package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/victornm/etrivia/internal/console"
	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/game"
	"github.com/victornm/etrivia/internal/server"
)

type playOptions struct {
	name       string
	amount     int
	difficulty string
	category   string
	time       int
}

func newPlayCmd(configPath *string) *cobra.Command {
	var o playOptions

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runPlay(ctx, *configPath, o)
		},
	}

	cmd.Flags().StringVar(&o.name, "name", "", "player name")
	cmd.Flags().IntVar(&o.amount, "amount", 0, "number of questions, up to 50")
	cmd.Flags().StringVar(&o.difficulty, "difficulty", "", "easy, medium or hard")
	cmd.Flags().StringVar(&o.category, "category", "", "category id, empty for any category")
	cmd.Flags().IntVar(&o.time, "time", 0, "seconds per question")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runPlay(ctx context.Context, configPath string, o playOptions) error {
	c, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	s, err := server.Init(c)
	if err != nil {
		return err
	}
	defer s.Shutdown()

	g := game.NewController(s.GameConfig())
	defer g.Close()

	err = console.New(console.Config{
		In:   os.Stdin,
		Out:  os.Stdout,
		Game: g,
	}).Play(ctx, o.name, domain.Settings{
		Amount:          o.amount,
		Difficulty:      domain.Difficulty(o.difficulty),
		Category:        o.category,
		TimePerQuestion: o.time,
	})
	if errors.Is(err, console.ErrQuit) {
		return nil
	}

	return err
}
