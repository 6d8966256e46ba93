// Package history provides the implementation for tracking and persisting user media consumption state.
package history

import (
	"github.com/anilust-cli/anilust/catalog"
	"github.com/anilust-cli/anilust/filesystem"
	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/log"
	"github.com/anilust-cli/anilust/media"
	"github.com/anilust-cli/anilust/where"
	"github.com/metafates/gache"
	"github.com/spf13/viper"
)

// cacher provides an abstracted, disk-backed registry for playback progress records.
var cacher = gache.New[map[string]*SavedEpisode](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns the complete collection of historical playback records.
// A store that cannot be read or parsed yields an empty history, never an error.
func Get() map[string]*SavedEpisode {
	cached, expired, err := cacher.Get()
	if err != nil {
		log.Warnf("read history: %v", err)
		return make(map[string]*SavedEpisode)
	}
	if expired || cached == nil {
		return make(map[string]*SavedEpisode)
	}
	return cached
}

// Save persists the playback progress of a specific episode to the history registry.
func Save(m *catalog.Media, episode *media.Episode, percentage float64) error {
	saved := Get()

	record := newSavedEpisode(m, episode)

	// Keep the maximum observed percentage to prevent regressions on re-watch.
	if existing, exists := saved[record.encode()]; exists {
		if percentage < existing.WatchedPercentage {
			percentage = existing.WatchedPercentage
		}
	}
	record.WatchedPercentage = percentage

	saved[record.encode()] = record

	return cacher.Set(saved)
}

// Watched returns the episode ids of the given canonical id whose progress
// crossed the configured completion threshold.
func Watched(canonicalID int) []string {
	threshold := float64(viper.GetInt(key.PlaybackCompletionPercentage))

	var ids []string
	for _, record := range Get() {
		if record.CanonicalID == canonicalID && record.WatchedPercentage >= threshold {
			ids = append(ids, record.EpisodeID)
		}
	}
	return ids
}

// Remove permanently deletes a specific playback record from the history registry.
func Remove(episode *SavedEpisode) error {
	saved := Get()
	delete(saved, episode.encode())
	return cacher.Set(saved)
}
