package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/log"
	"github.com/anilust-cli/anilust/network"
	"github.com/anilust-cli/anilust/provider"
	"github.com/anilust-cli/anilust/relay"
	"github.com/spf13/viper"
)

// Page is one page of catalog results.
type Page struct {
	CurrentPage int      `json:"currentPage"`
	HasNextPage bool     `json:"hasNextPage"`
	Results     []*Media `json:"results"`
}

// Client is the catalog resolver. The zero value is not usable; construct
// with New.
type Client struct {
	// Endpoint overrides the configured GraphQL endpoint. Mostly for tests.
	Endpoint string

	// HTTP overrides the underlying HTTP client. Mostly for tests.
	HTTP *http.Client

	Relay     *relay.Client
	Waterfall *provider.Resolver
}

// New returns a catalog client backed by the configured endpoint, the relay
// network and the provider waterfall.
func New() *Client {
	return &Client{
		Relay:     relay.New(),
		Waterfall: provider.NewResolver(),
	}
}

func (c *Client) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return viper.GetString(key.CatalogEndpoint)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return network.Client
}

// pagedResponse defines the anticipated JSON response structure for paged queries.
type pagedResponse struct {
	Data struct {
		Page struct {
			PageInfo struct {
				CurrentPage int  `json:"currentPage"`
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
			Media []*Media `json:"media"`
		} `json:"page"`
	} `json:"data"`
}

// byIDResponse defines the anticipated JSON response structure for id lookups.
type byIDResponse struct {
	Data struct {
		Media *Media `json:"media"`
	} `json:"data"`
}

// gql posts a GraphQL query to the catalog endpoint and decodes the response.
func (c *Client) gql(ctx context.Context, query string, variables map[string]any, v any) error {
	body := map[string]any{
		"query":     query,
		"variables": variables,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status code %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) paged(ctx context.Context, query string, variables map[string]any) (*Page, error) {
	variables["perPage"] = viper.GetInt(key.SearchResultLimit)

	var response pagedResponse
	if err := c.gql(ctx, query, variables, &response); err != nil {
		return nil, err
	}

	return &Page{
		CurrentPage: response.Data.Page.PageInfo.CurrentPage,
		HasNextPage: response.Data.Page.PageInfo.HasNextPage,
		Results:     response.Data.Page.Media,
	}, nil
}

// Trending returns a page of currently trending media. The direct catalog
// query is preferred; on any failure the meta-aggregation path of the relay
// network answers the same question once.
func (c *Client) Trending(ctx context.Context, page int) (*Page, error) {
	if cached, ok := pages().Get(pageKey("trending", page)).Get(); ok {
		return cached, nil
	}

	result, err := c.paged(ctx, trendingQuery, map[string]any{"page": page})
	if err != nil {
		log.Warnf("direct trending query failed, falling back to relay: %v", err)
		result, err = c.relayPage(ctx, fmt.Sprintf("/meta/anilist/trending?page=%d", page))
	}
	if err != nil {
		return nil, err
	}

	_ = pages().Set(pageKey("trending", page), result)
	return result, nil
}

// Search returns a page of media matching a free-text query, with the same
// direct-then-relay fallback as Trending.
func (c *Client) Search(ctx context.Context, query string, page int) (*Page, error) {
	log.Infof("Searching catalog for %q", query)

	result, err := c.paged(ctx, searchQuery, map[string]any{"query": query, "page": page})
	if err != nil {
		log.Warnf("direct search failed, falling back to relay: %v", err)
		return c.relayPage(ctx, fmt.Sprintf("/meta/anilist/%s?page=%d", url.PathEscape(query), page))
	}

	return result, nil
}

// Genre returns a page of media in the given genre. Only the relay
// meta-aggregation path serves this operation.
func (c *Client) Genre(ctx context.Context, genre string, page int) (*Page, error) {
	genres, err := json.Marshal([]string{genre})
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/meta/anilist/advanced-search?genres=%s&page=%d", url.QueryEscape(string(genres)), page)
	return c.relayPage(ctx, path)
}

// Recent returns a page of recently released episodes' media, relay only.
func (c *Client) Recent(ctx context.Context, page int) (*Page, error) {
	if cached, ok := pages().Get(pageKey("recent", page)).Get(); ok {
		return cached, nil
	}

	result, err := c.relayPage(ctx, fmt.Sprintf("/meta/anilist/recent-episodes?page=%d", page))
	if err != nil {
		return nil, err
	}

	_ = pages().Set(pageKey("recent", page), result)
	return result, nil
}

// Info returns the full canonical record for a media id, with the episode
// list enriched through the provider waterfall. The base metadata call is
// authoritative: its failure fails the whole operation. Waterfall exhaustion
// does not; the record is returned with an empty episode list.
func (c *Client) Info(ctx context.Context, id int) (*Media, error) {
	if cached, ok := cachedInfo(id).Get(); ok {
		return cached, nil
	}

	log.Infof("Fetching catalog info for id %d", id)

	var response byIDResponse
	if err := c.gql(ctx, byIDQuery, map[string]any{"id": id}, &response); err != nil {
		return nil, err
	}

	media := response.Data.Media
	if media == nil {
		return nil, fmt.Errorf("no media with id %d in the catalog", id)
	}

	episodes, err := c.Waterfall.Episodes(ctx, strconv.Itoa(id), media.TitleVariants())
	if err != nil {
		// Partial success is success: the caller still gets the metadata.
		log.Warnf("episode resolution for %d: %v", id, err)
		episodes = nil
	}
	media.EpisodeList = episodes

	if err := storeInfo(media); err != nil {
		log.Warnf("persist catalog info %d: %v", id, err)
	}

	return media, nil
}

// relayMedia is the media shape the relay meta-aggregation path answers with.
type relayMedia struct {
	ID    string `json:"id"`
	MalID int    `json:"malId"`
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
		Native  string `json:"native"`
	} `json:"title"`
	Image         string   `json:"image"`
	Cover         string   `json:"cover"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	Rating        int      `json:"rating"`
	Genres        []string `json:"genres"`
	TotalEpisodes int      `json:"totalEpisodes"`
}

type relayPageResponse struct {
	CurrentPage int           `json:"currentPage"`
	HasNextPage bool          `json:"hasNextPage"`
	Results     []*relayMedia `json:"results"`
}

func (c *Client) relayPage(ctx context.Context, path string) (*Page, error) {
	var response relayPageResponse
	if err := c.Relay.FetchJSON(ctx, path, relay.MetaTimeout(), &response); err != nil {
		return nil, err
	}

	results := make([]*Media, 0, len(response.Results))
	for _, rm := range response.Results {
		results = append(results, rm.toMedia())
	}

	return &Page{
		CurrentPage: response.CurrentPage,
		HasNextPage: response.HasNextPage,
		Results:     results,
	}, nil
}

func (rm *relayMedia) toMedia() *Media {
	m := &Media{
		IDMal:         rm.MalID,
		Description:   rm.Description,
		BannerImage:   rm.Cover,
		Genres:        rm.Genres,
		Rating:        rm.Rating,
		TotalEpisodes: rm.TotalEpisodes,
	}

	// The relay answers with string ids; the canonical space is numeric.
	m.ID, _ = strconv.Atoi(rm.ID)
	m.Title.Romaji = rm.Title.Romaji
	m.Title.English = rm.Title.English
	m.Title.Native = rm.Title.Native
	m.CoverImage.Large = rm.Image

	// Relay status strings differ from the catalog's enum.
	switch rm.Status {
	case "Ongoing":
		m.Status = "RELEASING"
	case "Completed":
		m.Status = "FINISHED"
	default:
		m.Status = rm.Status
	}

	return m
}
