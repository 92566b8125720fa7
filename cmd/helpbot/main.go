package main

import (
	"os"

	"github.com/spf13/cobra"

	"helpbot/internal/interfaces/cli/migrate"
	"helpbot/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "helpbot",
		Short: "Community support ticket bot",
		Long:  `Helpbot runs a Telegram support desk: ticket topics, staff claim and close flows, satisfaction ratings, and mini games while users wait.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
