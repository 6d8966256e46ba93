package provider

import (
	"context"
	"fmt"
	"net/url"

	"github.com/anilust-cli/anilust/log"
	"github.com/anilust-cli/anilust/mapping"
	"github.com/anilust-cli/anilust/media"
	"github.com/anilust-cli/anilust/relay"
	"github.com/anilust-cli/anilust/title"
)

// Resolver walks the provider waterfall: each provider is probed for a usable
// result before the next one is considered, and the learned canonical-to-native
// id matches are persisted so later sessions skip the search step.
type Resolver struct {
	// Providers overrides the configured waterfall order. Mostly for tests.
	Providers []Provider

	Relay   *relay.Client
	Mapping *mapping.Registry
}

// NewResolver returns a resolver backed by the configured relay instances and
// the shared mapping registry.
func NewResolver() *Resolver {
	return &Resolver{
		Relay:   relay.New(),
		Mapping: mapping.Default(),
	}
}

func (r *Resolver) providers() []Provider {
	if len(r.Providers) > 0 {
		return r.Providers
	}
	return List()
}

type searchResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

type infoResponse struct {
	Episodes []*media.Episode `json:"episodes"`
}

// Episodes resolves the playable episode list for a canonical catalog id.
// Each provider is tried in order: a remembered native id first, then the
// title variants as search probes. The first provider that yields a non-empty
// episode list wins; a secondary meta-aggregation lookup is the last resort.
// ErrExhausted is returned when nothing anywhere yields episodes.
func (r *Resolver) Episodes(ctx context.Context, canonicalID string, variants []string) ([]*media.Episode, error) {
	for _, p := range r.providers() {
		// A remembered mapping that no longer resolves stays in the registry:
		// provider downtime is indistinguishable from a dead id, and the next
		// successful search overwrites it anyway.
		if nativeID, ok := r.Mapping.Get(canonicalID, p.Name).Get(); ok {
			episodes := r.fetchEpisodes(ctx, p, nativeID)
			if len(episodes) > 0 {
				return episodes, nil
			}
			log.Debugf("remembered %s id %q yielded no episodes, re-searching", p, nativeID)
		}

		if episodes := r.searchAndFetch(ctx, p, canonicalID, variants); len(episodes) > 0 {
			return episodes, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if episodes := r.metaEpisodes(ctx, canonicalID); len(episodes) > 0 {
		return episodes, nil
	}

	return nil, ErrExhausted
}

// searchAndFetch probes the title variants in order against one provider and
// fetches episodes for the first variant that matches. A match whose episode
// fetch comes back empty ends the probing for this provider: the provider
// knows the title but has nothing playable.
func (r *Resolver) searchAndFetch(ctx context.Context, p Provider, canonicalID string, variants []string) []*media.Episode {
	for _, variant := range variants {
		query := title.Normalize(variant)
		if query == "" {
			continue
		}

		var res searchResponse
		path := fmt.Sprintf("/anime/%s/%s", p, url.PathEscape(query))
		if err := r.Relay.FetchJSON(ctx, path, relay.SearchTimeout(), &res); err != nil {
			log.Debugf("search %s on %s: %v", query, p, err)
			continue
		}

		if len(res.Results) == 0 || res.Results[0].ID == "" {
			continue
		}

		nativeID := res.Results[0].ID
		r.Mapping.Put(canonicalID, p.Name, nativeID)
		return r.fetchEpisodes(ctx, p, nativeID)
	}

	return nil
}

func (r *Resolver) fetchEpisodes(ctx context.Context, p Provider, nativeID string) []*media.Episode {
	var res infoResponse
	path := fmt.Sprintf("/anime/%s/info/%s", p, url.PathEscape(nativeID))
	if err := r.Relay.FetchJSON(ctx, path, relay.StreamTimeout(), &res); err != nil {
		log.Debugf("episodes for %s on %s: %v", nativeID, p, err)
		return nil
	}
	return res.Episodes
}

// metaEpisodes is the final fallback: the meta-aggregation endpoint keyed
// directly by the canonical id, on a shorter budget since the waterfall has
// already spent most of the user's patience.
func (r *Resolver) metaEpisodes(ctx context.Context, canonicalID string) []*media.Episode {
	var res infoResponse
	path := fmt.Sprintf("/meta/anilist/info/%s", url.PathEscape(canonicalID))
	if err := r.Relay.FetchJSON(ctx, path, relay.MetaTimeout(), &res); err != nil {
		log.Debugf("meta episodes for %s: %v", canonicalID, err)
		return nil
	}
	return res.Episodes
}

// Stream resolves the playable manifest for an episode id. Compound ids are
// reduced to their provider-local part before hitting provider routes; the
// meta fallback receives the id untouched since compound ids are its own.
// server optionally pins a specific delivery server.
func (r *Resolver) Stream(ctx context.Context, episodeID, server string) (*media.Manifest, error) {
	clean := media.CleanID(episodeID)

	for _, p := range r.providers() {
		manifest := r.fetchManifest(ctx, fmt.Sprintf("/anime/%s/watch/%s", p, url.PathEscape(clean)), server)
		if manifest != nil && len(manifest.Sources) > 0 {
			return manifest, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	manifest := r.fetchManifest(ctx, "/meta/anilist/watch/"+url.PathEscape(episodeID), server)
	if manifest != nil && len(manifest.Sources) > 0 {
		return manifest, nil
	}

	return nil, ErrExhausted
}

func (r *Resolver) fetchManifest(ctx context.Context, path, server string) *media.Manifest {
	if server != "" {
		path += "?server=" + url.QueryEscape(server)
	}

	var manifest media.Manifest
	if err := r.Relay.FetchJSON(ctx, path, relay.StreamTimeout(), &manifest); err != nil {
		log.Debugf("manifest %s: %v", path, err)
		return nil
	}
	return &manifest
}

// Servers lists the embeddable delivery servers for an episode, trying the
// primary provider first and the meta endpoint second. Absence of servers is
// an empty slice, not an error: the caller falls back to manifest playback.
func (r *Resolver) Servers(ctx context.Context, episodeID string) ([]*media.Server, error) {
	clean := media.CleanID(episodeID)

	for _, p := range r.providers() {
		var servers []*media.Server
		path := fmt.Sprintf("/anime/%s/servers/%s", p, url.PathEscape(clean))
		if err := r.Relay.FetchJSON(ctx, path, relay.SearchTimeout(), &servers); err != nil {
			log.Debugf("servers %s on %s: %v", clean, p, err)
			continue
		}
		if len(servers) > 0 {
			return servers, nil
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var servers []*media.Server
	if err := r.Relay.FetchJSON(ctx, "/meta/anilist/servers/"+url.PathEscape(episodeID), relay.MetaTimeout(), &servers); err != nil {
		log.Debugf("meta servers %s: %v", episodeID, err)
		return []*media.Server{}, nil
	}

	return servers, nil
}
