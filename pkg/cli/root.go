// Package cli implements the insight command-line client.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var host string

	rootCmd := &cobra.Command{
		Use:           "insight",
		Short:         "Analytics and SEO query CLI",
		Long:          "Command-line client for asking natural-language questions against the analytics and SEO query service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Precedence: flag > env > default.
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("INSIGHTD_HOST"); v != "" {
					host = v
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "query service URL")

	client := NewClient(host)
	originalPreRun := rootCmd.PersistentPreRun
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		originalPreRun(cmd, args)
		client.BaseURL = host
	}

	rootCmd.AddCommand(newAskCmd(client))
	rootCmd.AddCommand(newHealthCmd(client))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
