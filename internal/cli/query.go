package cli

import (
	"github.com/spf13/cobra"

	"github.com/victornm/etrivia/internal/console"
	"github.com/victornm/etrivia/internal/server"
)

func newCategoriesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the trivia categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			s, err := server.Init(c)
			if err != nil {
				return err
			}
			defer s.Shutdown()

			cats, err := s.Categories().Categories(cmd.Context())
			if err != nil {
				return err
			}

			console.RenderCategories(cmd.OutOrStdout(), cats)
			return nil
		},
	}
}

func newLeaderboardCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			s, err := server.Init(c)
			if err != nil {
				return err
			}
			defer s.Shutdown()

			entries, err := s.Leaderboard().Load(cmd.Context())
			if err != nil {
				return err
			}

			console.RenderLeaderboard(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}
