// Package cmd implements the command-line interface for anilust.
package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anilust-cli/anilust/catalog"
	"github.com/anilust-cli/anilust/color"
	"github.com/anilust-cli/anilust/style"
	"github.com/anilust-cli/anilust/util"
	"github.com/spf13/cobra"
)

// printPage renders one page of catalog results, either as structured JSON or
// as a human-readable list.
func printPage(cmd *cobra.Command, page *catalog.Page, asJson bool) {
	if asJson {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(page))
		return
	}

	for _, m := range page.Results {
		cmd.Println(renderMedia(m))
	}

	if page.HasNextPage {
		cmd.Println(style.Faint(fmt.Sprintf("More results available, use --page %d", page.CurrentPage+1)))
	}
}

// renderMedia formats a single catalog entry as a compact display line.
func renderMedia(m *catalog.Media) string {
	var b strings.Builder

	b.WriteString(style.Bold(m.Name()))
	b.WriteString(" ")
	b.WriteString(style.Faint(fmt.Sprintf("(#%d)", m.ID)))

	var attrs []string
	if m.Status != "" {
		attrs = append(attrs, util.Capitalize(strings.ToLower(strings.ReplaceAll(m.Status, "_", " "))))
	}
	if m.TotalEpisodes > 0 {
		attrs = append(attrs, util.Quantify(m.TotalEpisodes, "episode", "episodes"))
	}
	if m.Rating > 0 {
		attrs = append(attrs, fmt.Sprintf("%d%%", m.Rating))
	}

	if len(attrs) > 0 {
		b.WriteString("\n  ")
		b.WriteString(style.Fg(color.Yellow)(strings.Join(attrs, " | ")))
	}

	return b.String()
}
