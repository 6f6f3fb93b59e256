package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCmd(app *App) *cobra.Command {
	var (
		endpoint string
		limit    int
		asJSON   bool
		showURL  bool
	)
	cmd := &cobra.Command{
		Use:   "fetch <entity> [query]",
		Short: "Search an entity and print the normalised records",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, q := args[0], ""
			if len(args) > 1 {
				q = args[1]
			}
			if limit <= 0 {
				limit = app.Config.Client.Limit
			}
			service := app.Service()
			if showURL {
				u, err := service.RequestURL(entity, q, limit, endpoint)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render("GET "+u))
			}

			records, err := service.Lookup(cmd.Context(), entity, q, limit, endpoint)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", entity, err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"items": records})
			}
			printRecords(cmd.OutOrStdout(), entity, records)
			return nil
		},
	}
	cmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "explicit endpoint, overrides the module base")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of records (default client.limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	cmd.Flags().BoolVar(&showURL, "url", false, "print the request URL to stderr")
	return cmd
}
