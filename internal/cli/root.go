package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/victornm/etrivia/internal/config"
	"github.com/victornm/etrivia/internal/server"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "etrivia",
		Short:        "Timed multiple-choice trivia quiz backed by Open Trivia DB",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to a YAML or JSON config file")
	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newPlayCmd(&configPath))
	cmd.AddCommand(newCategoriesCmd(&configPath))
	cmd.AddCommand(newLeaderboardCmd(&configPath))
	return cmd
}

func loadConfig(path string) (server.Config, error) {
	c := server.DefaultConfig()
	if err := config.Load(path, &c); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}

	return c, nil
}
