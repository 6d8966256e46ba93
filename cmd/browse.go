// Package cmd implements the command-line interface for anilust.
package cmd

import (
	"fmt"

	"github.com/anilust-cli/anilust/catalog"
	"github.com/anilust-cli/anilust/icon"
	"github.com/anilust-cli/anilust/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// knownGenres is the static completion set for the genre command. The relay
// accepts arbitrary genre names; these are the ones the catalog exposes.
var knownGenres = []string{
	"Action", "Adventure", "Comedy", "Drama", "Ecchi", "Fantasy",
	"Horror", "Mahou Shoujo", "Mecha", "Music", "Mystery", "Psychological",
	"Romance", "Sci-Fi", "Slice of Life", "Sports", "Supernatural", "Thriller",
}

func init() {
	rootCmd.AddCommand(trendingCmd)
	trendingCmd.Flags().IntP("page", "p", 1, "The result page to retrieve")
	trendingCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
}

// trendingCmd lists the currently trending titles from the catalog.
var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List the currently trending titles",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			page   = lo.Must(cmd.Flags().GetInt("page"))
			asJson = lo.Must(cmd.Flags().GetBool("json"))
		)

		erase := util.PrintErasable(fmt.Sprintf("%s Fetching trending titles...", icon.Get(icon.Progress)))
		result, err := catalog.New().Trending(cmd.Context(), page)
		erase()
		handleErr(err)

		printPage(cmd, result, asJson)
	},
}

func init() {
	rootCmd.AddCommand(recentCmd)
	recentCmd.Flags().IntP("page", "p", 1, "The result page to retrieve")
	recentCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
}

// recentCmd lists titles with recently released episodes.
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List titles with recently released episodes",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			page   = lo.Must(cmd.Flags().GetInt("page"))
			asJson = lo.Must(cmd.Flags().GetBool("json"))
		)

		erase := util.PrintErasable(fmt.Sprintf("%s Fetching recent episodes...", icon.Get(icon.Progress)))
		result, err := catalog.New().Recent(cmd.Context(), page)
		erase()
		handleErr(err)

		printPage(cmd, result, asJson)
	},
}

func init() {
	rootCmd.AddCommand(genreCmd)
	genreCmd.Flags().IntP("page", "p", 1, "The result page to retrieve")
	genreCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
}

// genreCmd lists titles belonging to a specific genre.
var genreCmd = &cobra.Command{
	Use:   "genre [name]",
	Short: "List titles belonging to a specific genre",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return matchGenre(toComplete), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		var (
			page   = lo.Must(cmd.Flags().GetInt("page"))
			asJson = lo.Must(cmd.Flags().GetBool("json"))
		)

		erase := util.PrintErasable(fmt.Sprintf("%s Fetching %s titles...", icon.Get(icon.Progress), args[0]))
		result, err := catalog.New().Genre(cmd.Context(), args[0], page)
		erase()
		handleErr(err)

		printPage(cmd, result, asJson)
	},
}
