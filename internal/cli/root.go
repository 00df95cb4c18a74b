// Package cli wires the moneydrop subcommands.
package cli

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moneydrop",
		Short: "Money Drop betting quiz: HTTP API and console servers",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if os.Getenv("APP_ENV") != "production" {
				if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
					log.Printf("Warning: could not load .env file: %v", err)
				}
			}
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConsoleCmd())
	return cmd
}
