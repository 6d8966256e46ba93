// Package cmd implements the command-line interface for anilust.
package cmd

import (
	"fmt"
	"strings"

	"github.com/anilust-cli/anilust/catalog"
	"github.com/anilust-cli/anilust/color"
	"github.com/anilust-cli/anilust/icon"
	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/query"
	"github.com/anilust-cli/anilust/style"
	"github.com/anilust-cli/anilust/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntP("page", "p", 1, "The result page to retrieve")
	searchCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
}

// searchCmd searches the catalog by title.
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog by title",
	Args:  cobra.MinimumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return query.SuggestMany(toComplete), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		var (
			q      = strings.Join(args, " ")
			page   = lo.Must(cmd.Flags().GetInt("page"))
			asJson = lo.Must(cmd.Flags().GetBool("json"))
		)

		erase := util.PrintErasable(fmt.Sprintf("%s Searching for %s...", icon.Get(icon.Progress), style.Bold(q)))
		result, err := catalog.New().Search(cmd.Context(), q, page)
		erase()
		handleErr(err)

		if viper.GetBool(key.SearchShowQuerySuggestions) {
			_ = query.Remember(q, len(result.Results))
		}

		if len(result.Results) == 0 {
			if suggestion, ok := query.Suggest(q).Get(); ok && suggestion != q {
				cmd.Printf("Nothing found, did you mean %s?\n", style.Fg(color.Yellow)(suggestion))
			}
		}

		printPage(cmd, result, asJson)
	},
}
