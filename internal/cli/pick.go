package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-lookup/pkg/terminal"
)

func newPickCmd(app *App) *cobra.Command {
	var (
		endpoint string
		limit    int
		field    string
	)
	cmd := &cobra.Command{
		Use:   "pick <entity> [query]",
		Short: "Search interactively and print the chosen record",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := terminal.Request{Entity: args[0], Endpoint: endpoint, Limit: limit}
			if len(args) > 1 {
				req.Q = args[1]
			}
			if req.Limit <= 0 {
				req.Limit = app.Config.Client.Limit
			}

			picker := terminal.NewPicker(app.Service(), terminal.NewSurveyDriver(cmd.ErrOrStderr()),
				terminal.WithLogger(app.Logger.WithName("terminal")))
			rec, err := picker.Pick(cmd.Context(), req)
			if errors.Is(err, terminal.ErrAborted) {
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if field != "" {
				_, err = fmt.Fprintln(out, rec.Field(field))
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
	cmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "explicit endpoint, overrides the module base")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of records (default client.limit)")
	cmd.Flags().StringVarP(&field, "field", "f", "", "print only this field of the chosen record (dotted paths allowed)")
	return cmd
}
