// Package catalog resolves canonical media metadata from the authoritative
// catalog source and enriches it with playable episode lists through the
// provider waterfall.
package catalog

import (
	"github.com/anilust-cli/anilust/media"
	"github.com/anilust-cli/anilust/title"
)

// date represents a calendar date in the catalog GraphQL API.
type date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Media is a canonical catalog record. It is immutable once returned to
// callers; enrichment produces a new value rather than mutating in place.
type Media struct {
	// ID is the canonical identifier, stable across delivery providers.
	ID int `json:"id" jsonschema:"description=Canonical id of the media in the catalog."`
	// IDMal is the identifier of the same media on MyAnimeList.
	IDMal int `json:"idMal" jsonschema:"description=ID of the media on MyAnimeList."`
	// Title is the structured title metadata.
	Title struct {
		// Romaji is the romanized title.
		Romaji string `json:"romaji" jsonschema:"description=Romanized title."`
		// English is the english title.
		English string `json:"english" jsonschema:"description=English title."`
		// Native is the native title, usually in kanji.
		Native string `json:"native" jsonschema:"description=Native title. Usually in kanji."`
	} `json:"title"`
	// Description is the plot summary in plain text.
	Description string `json:"description" jsonschema:"description=Description of the media."`
	// CoverImage contains URLs for different sizes of the cover art.
	CoverImage struct {
		ExtraLarge string `json:"extraLarge"`
		Large      string `json:"large"`
		Medium     string `json:"medium"`
		Color      string `json:"color"`
	} `json:"coverImage" jsonschema:"description=Cover image of the media."`
	// BannerImage is the URL of the large banner image.
	BannerImage string `json:"bannerImage" jsonschema:"description=Banner image of the media."`
	// Genres the media belongs to.
	Genres []string `json:"genres" jsonschema:"description=Genres of the media."`
	// Synonyms are alternative titles.
	Synonyms []string `json:"synonyms" jsonschema:"description=Alternative titles."`
	// Status is one of FINISHED, RELEASING, NOT_YET_RELEASED, CANCELLED, HIATUS.
	Status string `json:"status" jsonschema:"enum=FINISHED,enum=RELEASING,enum=NOT_YET_RELEASED,enum=CANCELLED,enum=HIATUS"`
	// Rating is the average score on the catalog, 0-100.
	Rating int `json:"averageScore" jsonschema:"description=Average score of the media on the catalog."`
	// TotalEpisodes is the episode count reported by the catalog, used for
	// progress tracking. The playable list may be shorter.
	TotalEpisodes int `json:"episodes" jsonschema:"description=Total number of episodes when complete."`
	// SiteURL is the url of the media on the catalog.
	SiteURL string `json:"siteUrl" jsonschema:"description=URL of the media on the catalog."`
	// StartDate is the date the media started releasing.
	StartDate date `json:"startDate"`

	// EpisodeList is the playable episode list resolved through the provider
	// waterfall. Empty when no provider had the title; see Info.
	EpisodeList []*media.Episode `json:"episodeList,omitempty" jsonschema:"description=Playable episodes resolved from delivery providers."`
}

// Name returns the primary display name. English is preferred when available.
func (m *Media) Name() string {
	if m.Title.English == "" {
		return m.Title.Romaji
	}
	return m.Title.English
}

// TitleVariants returns the ordered, de-duplicated list of title variants the
// provider waterfall probes with: romanized first, then native and localized
// forms, then synonyms.
func (m *Media) TitleVariants() []string {
	return title.Variants(m.Title.Romaji, m.Title.Native, m.Title.English, m.Synonyms)
}

// Releasing reports whether the media is still publishing new episodes, which
// selects the shorter metadata staleness tier.
func (m *Media) Releasing() bool {
	return m.Status == "RELEASING"
}
