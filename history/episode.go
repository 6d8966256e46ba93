package history

import (
	"fmt"

	"github.com/anilust-cli/anilust/catalog"
	"github.com/anilust-cli/anilust/media"
)

// SavedEpisode represents a single playback entry preserved in the user's history.
type SavedEpisode struct {
	CanonicalID       int     `json:"canonical_id"`
	MediaName         string  `json:"media_name"`
	EpisodeID         string  `json:"episode_id"`
	Number            int     `json:"number"`
	EpisodesTotal     int     `json:"episodes_total"`
	WatchedPercentage float64 `json:"watched_percentage"`
}

func (s *SavedEpisode) encode() string {
	return fmt.Sprintf("%d_%s", s.CanonicalID, s.EpisodeID)
}

func (s *SavedEpisode) String() string {
	return fmt.Sprintf("%s : %d / %d", s.MediaName, s.Number, s.EpisodesTotal)
}

func newSavedEpisode(m *catalog.Media, episode *media.Episode) *SavedEpisode {
	return &SavedEpisode{
		CanonicalID:   m.ID,
		MediaName:     m.Name(),
		EpisodeID:     episode.ID,
		Number:        episode.Number,
		EpisodesTotal: m.TotalEpisodes,
	}
}
