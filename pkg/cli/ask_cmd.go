package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(client *Client) *cobra.Command {
	var (
		propertyID string
		showData   bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a natural-language question",
		Long: `Ask a natural-language question about web analytics or SEO crawl data.

Analytics questions need a property ID (--property). SEO questions run
against the configured crawl spreadsheet and need no identifier.`,
		Example: `  insight ask "pages with missing meta descriptions"
  insight ask --property 123456 "top pages by traffic this month"
  insight ask --property 123456 --data "top pages and their titles"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			result, err := client.Ask(cmd.Context(), question, propertyID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Answer)
			if showData && len(result.Data) > 0 && string(result.Data) != "null" {
				pretty, err := json.MarshalIndent(json.RawMessage(result.Data), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&propertyID, "property", "", "analytics property ID")
	cmd.Flags().BoolVar(&showData, "data", false, "print the structured data payload as JSON")
	return cmd
}

func newHealthCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s (version %s)\n", h.Status, h.Version)
			if h.SnapshotAgeSeconds != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "snapshot age: %.0fs\n", *h.SnapshotAgeSeconds)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "snapshot: not loaded yet")
			}
			return nil
		},
	}
}
