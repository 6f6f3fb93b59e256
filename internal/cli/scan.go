package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/spf13/cobra"

	lookup "github.com/goliatone/go-lookup"
	"github.com/goliatone/go-lookup/pkg/dom"
	"github.com/goliatone/go-lookup/pkg/markup"
	"github.com/goliatone/go-lookup/pkg/query"
)

const markedInputs = `//input[@data-lookup]`

func newScanCmd(app *App) *cobra.Command {
	var render bool
	cmd := &cobra.Command{
		Use:   "scan <file.html|->",
		Short: "List the lookup markers of an HTML page",
		Long: `scan reports every input carrying a data-lookup marker with the request it
would issue. With --render the page is wired as in a browser and printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if render {
				l := lookup.New(doc,
					lookup.WithModuleBase(app.Config.Client.ModuleBase),
					lookup.WithLogger(app.Logger.WithName("lookup")),
				)
				l.Start()
				defer l.Stop()
				return doc.Render(cmd.OutOrStdout())
			}
			return reportMarkers(cmd.OutOrStdout(), doc, app.Service())
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "wire the page and print the resulting HTML")
	return cmd
}

func readDocument(stdin io.Reader, path string) (*dom.Document, error) {
	if path == "-" {
		return dom.Parse(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	defer f.Close()
	return dom.Parse(f)
}

func reportMarkers(w io.Writer, doc *dom.Document, service *query.Service) error {
	inputs, err := htmlquery.QueryAll(doc.Root(), markedInputs)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d lookup inputs", len(inputs))))
	for _, input := range inputs {
		marker, _ := markup.ReadMarker(input)
		name := dom.AttrOr(input, "id", dom.AttrOr(input, "name", "(anonymous)"))

		fmt.Fprintf(w, "  %s %s %s\n", labelStyle.Render(name), codeStyle.Render(marker.Entity), mutedStyle.Render(marker.Mode))
		if u, err := service.RequestURL(marker.Entity, "", marker.Limit, marker.Endpoint); err == nil {
			fmt.Fprintf(w, "    %s\n", mutedStyle.Render("GET "+u))
		} else {
			fmt.Fprintf(w, "    %s\n", err)
		}
		keys := make([]string, 0, len(marker.Targets))
		for key := range marker.Targets {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(w, "    %s -> %s\n", key, marker.Targets[key])
		}
		if len(keys) == 0 && !marker.Inline() {
			fmt.Fprintf(w, "    %s\n", okStyle.Render("name -> input"))
		}
	}

	counts := entityCounts(doc)
	entities := make([]string, 0, len(counts))
	for entity := range counts {
		entities = append(entities, entity)
	}
	sort.Strings(entities)
	for _, entity := range entities {
		fmt.Fprintf(w, "%s %d\n", entity, counts[entity])
	}
	return nil
}

// entityCounts tallies marked inputs per entity.
func entityCounts(doc *dom.Document) map[string]int {
	counts := map[string]int{}
	for _, input := range htmlquery.Find(doc.Root(), markedInputs) {
		if marker, ok := markup.ReadMarker(input); ok {
			counts[strings.ToLower(marker.Entity)]++
		}
	}
	return counts
}
