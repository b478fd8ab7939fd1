package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ticketctl",
		Short: "Operator tool for the activity ticket bot",
		Long: `ticketctl manages the activity ticket bot outside Discord.
Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(weekCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(registerCommandsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
