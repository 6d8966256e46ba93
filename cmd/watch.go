// Package cmd implements the command-line interface for anilust.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/anilust-cli/anilust/aniskip"
	"github.com/anilust-cli/anilust/catalog"
	"github.com/anilust-cli/anilust/color"
	"github.com/anilust-cli/anilust/history"
	"github.com/anilust-cli/anilust/icon"
	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/log"
	"github.com/anilust-cli/anilust/media"
	"github.com/anilust-cli/anilust/open"
	"github.com/anilust-cli/anilust/playback"
	"github.com/anilust-cli/anilust/player"
	"github.com/anilust-cli/anilust/style"
	"github.com/anilust-cli/anilust/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().IntP("id", "i", 0, "The canonical catalog id of the title to watch")
	watchCmd.Flags().IntP("episode", "e", 0, "The episode number to play without prompting")
	watchCmd.Flags().StringP("server", "s", "", "The preferred relay server to use when direct playback is unavailable")
}

// watchCmd resolves a title through the provider waterfall and plays it.
var watchCmd = &cobra.Command{
	Use:   "watch [title]",
	Short: "Resolve a title through the delivery providers and play it",
	Long: `Resolve a title through the delivery providers and play it.

Playback first attempts the direct stream manifest with the configured
media player. When no playable manifest arrives within the configured
wait budget, playback falls back to an embedded relay server opened in
the browser.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && !cmd.Flags().Changed("id") {
			handleErr(errors.New("a title or the --id flag is required"))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		client := catalog.New()
		m := resolveMedia(cmd, args)

		if len(m.EpisodeList) == 0 {
			handleErr(fmt.Errorf("no playable episodes resolved for %s", m.Name()))
		}

		episode := pickEpisode(cmd, m)
		watchEpisode(cmd, client, m, episode)
	},
}

// pickEpisode selects the episode to play, either from the --episode flag or
// through an interactive prompt defaulting to the first unwatched episode.
func pickEpisode(cmd *cobra.Command, m *catalog.Media) *media.Episode {
	episodes := m.EpisodeList

	if number := lo.Must(cmd.Flags().GetInt("episode")); number != 0 {
		episode, ok := lo.Find(episodes, func(e *media.Episode) bool {
			return e.Number == number
		})
		if !ok {
			handleErr(fmt.Errorf("no episode %d for %s", number, m.Name()))
		}
		return episode
	}

	watched := history.Watched(m.ID)

	options := lo.Map(episodes, func(e *media.Episode, _ int) string {
		option := fmt.Sprintf("Episode %d", e.Number)
		if e.Title != "" {
			option += ": " + e.Title
		}
		if lo.Contains(watched, e.ID) {
			option += " " + icon.Get(icon.Success)
		}
		return option
	})

	// Default to the episode after the last one watched to completion.
	defaultIndex := 0
	for i, e := range episodes {
		if lo.Contains(watched, e.ID) && i+1 < len(episodes) {
			defaultIndex = i + 1
		}
	}

	var choice string
	prompt := survey.Select{
		Message:  fmt.Sprintf("Watch %s", m.Name()),
		Options:  options,
		Default:  options[defaultIndex],
		PageSize: 15,
	}
	handleErr(survey.AskOne(&prompt, &choice))

	return episodes[lo.IndexOf(options, choice)]
}

// watchEpisode drives a playback session to its end, following the direct or
// relay path the session settles on.
func watchEpisode(cmd *cobra.Command, client *catalog.Client, m *catalog.Media, episode *media.Episode) {
	ctx := cmd.Context()

	mpv := player.New()
	title := fmt.Sprintf("%s - Episode %d", m.Name(), episode.Number)
	session := playback.NewSession(client.Waterfall, mpv, episode.ID, title)

	erase := util.PrintErasable(fmt.Sprintf("%s Resolving stream for %s...", icon.Get(icon.Progress), style.Bold(title)))
	err := session.Start(ctx)
	erase()
	if err != nil {
		if errors.Is(err, playback.ErrNoStream) {
			handleErr(fmt.Errorf("no stream available for %s", title))
		}
		handleErr(err)
	}

	if server := lo.Must(cmd.Flags().GetString("server")); server != "" && session.State() == playback.StateRelayActive {
		if err := session.SwitchServer(ctx, server); err != nil {
			log.Warnf("switch to server %s: %v", server, err)
		}
	}

	switch session.State() {
	case playback.StateRelayActive:
		relayLoop(cmd, session, m, episode)
		return
	case playback.StateFailed:
		retryOrFail(cmd, client, m, episode, session.Err())
		return
	}

	monitorDirect(ctx, cmd, client, session, mpv, m, episode)
}

// retryOrFail offers one more attempt with a fresh session; a failed session
// is terminal and is never reused.
func retryOrFail(cmd *cobra.Command, client *catalog.Client, m *catalog.Media, episode *media.Episode, err error) {
	cmd.Printf("%s %v\n", icon.Get(icon.Fail), err)

	var retry bool
	if askErr := survey.AskOne(&survey.Confirm{
		Message: "Retry with a fresh session?",
		Default: false,
	}, &retry); askErr != nil || !retry {
		handleErr(err)
	}

	watchEpisode(cmd, client, m, episode)
}

// monitorDirect follows a direct playback attempt: it applies skip intervals,
// persists progress and hands over to the relay loop if the session downgrades.
func monitorDirect(ctx context.Context, cmd *cobra.Command, client *catalog.Client, session *playback.Session, mpv *player.MPV, m *catalog.Media, episode *media.Episode) {
	var skipper *player.Skipper
	if viper.GetBool(key.PlaybackSkipIntro) && m.IDMal != 0 {
		times, err := aniskip.GetSkipTimes(ctx, m.IDMal, episode.Number)
		if err != nil {
			log.Debugf("skip times: %v", err)
		}
		skipper = player.NewSkipper(mpv, times)
	}

	var (
		lastPercentage float64
		chaptersSet    bool
	)

	saveProgress := func() {
		if viper.GetBool(key.HistorySaveOnWatch) && lastPercentage > 0 {
			if err := history.Save(m, episode, lastPercentage); err != nil {
				log.Warnf("save history: %v", err)
			}
		}
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-session.Done():
			saveProgress()

			switch session.State() {
			case playback.StateRelayActive:
				relayLoop(cmd, session, m, episode)
			case playback.StateFailed:
				retryOrFail(cmd, client, m, episode, session.Err())
			default:
				cmd.Printf("%s Finished %s - Episode %d\n", icon.Get(icon.Success), style.Bold(m.Name()), episode.Number)
			}
			return

		case <-ticker.C:
			if session.State() != playback.StateDirectPlaying {
				continue
			}

			if skipper != nil {
				if !chaptersSet {
					if err := skipper.ApplyChapters(); err == nil {
						chaptersSet = true
					}
				}
				if pos, err := mpv.GetTimePos(); err == nil {
					_, _ = skipper.Check(pos)
				}
			}

			if percentage, err := mpv.GetPercentWatched(); err == nil {
				lastPercentage = percentage
				saveProgress()
			}
		}
	}
}

// relayLoop opens the active relay server in the browser and offers switching
// between the known servers until the user is done.
func relayLoop(cmd *cobra.Command, session *playback.Session, m *catalog.Media, episode *media.Episode) {
	ctx := cmd.Context()

	for {
		server := session.ActiveServer()
		if server == nil {
			handleErr(errors.New("no relay server is active"))
		}

		cmd.Printf("%s Playing via relay server %s\n", icon.Get(icon.Relay), style.Fg(color.Cyan)(server.Name))
		if err := open.Start(server.URL); err != nil {
			log.Warnf("open relay url: %v", err)
			cmd.Println(style.Faint(server.URL))
		}

		const (
			optionReopen = "Open again"
			optionSwitch = "Switch server"
			optionDone   = "Done"
		)

		var choice string
		prompt := survey.Select{
			Message: "Relay playback",
			Options: []string{optionReopen, optionSwitch, optionDone},
			Default: optionDone,
		}
		handleErr(survey.AskOne(&prompt, &choice))

		switch choice {
		case optionReopen:
			continue
		case optionSwitch:
			names := lo.Map(session.Servers(), func(s *media.Server, _ int) string {
				return s.Name
			})
			if len(names) == 0 {
				cmd.Println(style.Faint("No other servers are known"))
				continue
			}

			var name string
			handleErr(survey.AskOne(&survey.Select{
				Message: "Relay server",
				Options: names,
				Default: server.Name,
			}, &name))

			if err := session.SwitchServer(ctx, name); err != nil {
				log.Warnf("switch server: %v", err)
			}
		case optionDone:
			if viper.GetBool(key.HistorySaveOnWatch) {
				if err := history.Save(m, episode, 0); err != nil {
					log.Warnf("save history: %v", err)
				}
			}
			return
		}
	}
}
