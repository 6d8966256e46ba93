// Package cmd implements the command-line interface for anilust.
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/anilust-cli/anilust/catalog"
	"github.com/anilust-cli/anilust/color"
	"github.com/anilust-cli/anilust/icon"
	"github.com/anilust-cli/anilust/media"
	"github.com/anilust-cli/anilust/style"
	"github.com/anilust-cli/anilust/util"
	"github.com/invopop/jsonschema"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().IntP("id", "i", 0, "The canonical catalog id to retrieve metadata for")
	infoCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
}

// infoCmd displays the aggregated metadata and playable episodes for a title.
var infoCmd = &cobra.Command{
	Use:   "info [title]",
	Short: "Display aggregated metadata and playable episodes for a title",
	PreRun: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && !cmd.Flags().Changed("id") {
			handleErr(errors.New("a title or the --id flag is required"))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		asJson := lo.Must(cmd.Flags().GetBool("json"))

		m := resolveMedia(cmd, args)

		if asJson {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(m))
			return
		}

		cmd.Println(style.Title(m.Name()))
		cmd.Println()

		if m.Description != "" {
			width, _, err := util.TerminalSize()
			if err != nil || width <= 0 {
				width = 80
			}
			cmd.Println(style.Truncate(width)(m.Description))
			cmd.Println()
		}

		cmd.Println(renderMedia(m))

		if len(m.Genres) > 0 {
			cmd.Printf("  %s\n", style.Fg(color.Cyan)(strings.Join(m.Genres, ", ")))
		}

		if m.SiteURL != "" {
			cmd.Printf("  %s\n", style.Faint(m.SiteURL))
		}

		cmd.Println()
		if len(m.EpisodeList) == 0 {
			cmd.Println(style.Faint("No playable episodes resolved"))
			return
		}

		cmd.Println(style.Bold(util.Quantify(len(m.EpisodeList), "playable episode", "playable episodes")))
		for _, e := range m.EpisodeList {
			cmd.Println(renderEpisode(e, false))
		}
	},
}

// resolveMedia retrieves full title metadata either by canonical id or by a
// fuzzy name lookup.
func resolveMedia(cmd *cobra.Command, args []string) *catalog.Media {
	client := catalog.New()

	if id := lo.Must(cmd.Flags().GetInt("id")); id != 0 {
		erase := util.PrintErasable(fmt.Sprintf("%s Fetching title #%d...", icon.Get(icon.Progress), id))
		m, err := client.Info(cmd.Context(), id)
		erase()
		handleErr(err)
		return m
	}

	name := strings.Join(args, " ")
	erase := util.PrintErasable(fmt.Sprintf("%s Looking up %s...", icon.Get(icon.Progress), style.Bold(name)))
	closest, err := client.FindClosest(cmd.Context(), name)
	if err != nil {
		erase()
		handleErr(err)
	}

	m, err := client.Info(cmd.Context(), closest.ID)
	erase()
	handleErr(err)
	return m
}

// renderEpisode formats an episode line, optionally with a watched marker.
func renderEpisode(e *media.Episode, watched bool) string {
	var b strings.Builder

	b.WriteString("  ")
	b.WriteString(style.Fg(color.Purple)(fmt.Sprintf("%3d", e.Number)))

	if e.Title != "" {
		b.WriteString(" ")
		b.WriteString(e.Title)
	}

	if watched {
		b.WriteString(" ")
		b.WriteString(style.Fg(color.Green)(icon.Get(icon.Success)))
	}

	return b.String()
}

func init() {
	infoCmd.AddCommand(infoSchemaCmd)
}

// infoSchemaCmd generates the JSON schema for structured info output.
var infoSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate the JSON schema for structured info output",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			name := t.Name()
			switch strings.ToLower(name) {
			case "media", "episode", "date", "page":
				return filepath.Base(t.PkgPath()) + "." + name
			}

			return name
		}

		schema := reflector.Reflect(&catalog.Media{})
		handleErr(json.NewEncoder(os.Stdout).Encode(schema))
	},
}

// matchGenre is used by shell completion to narrow the static genre set.
func matchGenre(toComplete string) []string {
	if toComplete == "" {
		return knownGenres
	}

	return lo.Filter(knownGenres, func(g string, _ int) bool {
		return fuzzy.MatchFold(toComplete, g)
	})
}
