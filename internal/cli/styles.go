package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-lookup/pkg/query"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(8)
	labelStyle  = lipgloss.NewStyle().Bold(true)
	codeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// printRecords writes one styled line per record.
func printRecords(w io.Writer, entity string, records []query.Record) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d)", entity, len(records))))
	if len(records) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  No matches"))
		return
	}
	for _, rec := range records {
		fmt.Fprintln(w, recordLine(rec))
	}
}

func recordLine(rec query.Record) string {
	parts := []string{" ", idStyle.Render(rec.ID()), labelStyle.Render(rec.Label())}
	if code := rec.Code(); code != "" {
		parts = append(parts, codeStyle.Render("["+code+"]"))
	}
	if price := rec.Price(); price != "" {
		parts = append(parts, price)
	}
	if secondary := rec.Secondary(); secondary != "" {
		parts = append(parts, mutedStyle.Render(secondary))
	}
	return strings.Join(parts, " ")
}
