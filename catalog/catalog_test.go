package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anilust-cli/anilust/filesystem"
	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/mapping"
	"github.com/anilust-cli/anilust/provider"
	"github.com/anilust-cli/anilust/relay"
	"github.com/spf13/viper"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
	viper.Set(key.RelaySearchTimeout, 2000)
	viper.Set(key.RelayStreamTimeout, 2000)
	viper.Set(key.RelayMetaTimeout, 2000)
	viper.Set(key.CatalogResyncReleasing, 4)
	viper.Set(key.CatalogResyncCompleted, 168)
	viper.Set(key.SearchResultLimit, 20)
}

func gqlServer(t *testing.T, data any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewEncoder(w).Encode(data)
	}))
}

func newClient(endpoint string, relayInstances ...string) *Client {
	return &Client{
		Endpoint: endpoint,
		Relay:    &relay.Client{Instances: relayInstances},
		Waterfall: &provider.Resolver{
			Providers: []provider.Provider{{Name: "alpha"}},
			Relay:     &relay.Client{Instances: relayInstances},
			Mapping:   mapping.New("/tmp/catalog_test_mappings.json"),
		},
	}
}

func TestInfo(t *testing.T) {
	Convey("Info", t, func() {
		ctx := context.Background()

		Convey("Waterfall exhaustion still returns the base metadata", func() {
			dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer dead.Close()

			gql := gqlServer(t, map[string]any{
				"data": map[string]any{
					"Media": map[string]any{
						"id":     101,
						"status": "FINISHED",
						"title":  map[string]string{"romaji": "Ghost Title"},
						"genres": []string{"Drama"},
					},
				},
			})
			defer gql.Close()

			c := newClient(gql.URL, dead.URL)

			m, err := c.Info(ctx, 101)
			So(err, ShouldBeNil)
			So(m.ID, ShouldEqual, 101)
			So(m.Name(), ShouldEqual, "Ghost Title")
			So(m.EpisodeList, ShouldBeEmpty)
		})

		Convey("A second lookup is served from the staleness-tiered cache", func() {
			dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer dead.Close()

			var gqlHits int
			gql := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gqlHits++
				_ = json.NewEncoder(w).Encode(map[string]any{
					"data": map[string]any{
						"Media": map[string]any{"id": 102, "status": "RELEASING", "title": map[string]string{"romaji": "Airing Show"}},
					},
				})
			}))
			defer gql.Close()

			c := newClient(gql.URL, dead.URL)

			first, err := c.Info(ctx, 102)
			So(err, ShouldBeNil)
			second, err := c.Info(ctx, 102)
			So(err, ShouldBeNil)
			So(second.ID, ShouldEqual, first.ID)
			So(gqlHits, ShouldEqual, 1)
		})

		Convey("A failed authoritative call fails the whole operation", func() {
			gql := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer gql.Close()

			c := newClient(gql.URL)

			_, err := c.Info(ctx, 103)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestTrending(t *testing.T) {
	Convey("Trending", t, func() {
		ctx := context.Background()

		Convey("A failed direct query falls back to the relay meta path once", func() {
			gql := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer gql.Close()

			meta := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/meta/anilist/trending" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_, _ = w.Write([]byte(`{
					"currentPage": 7,
					"hasNextPage": true,
					"results": [{"id": "21", "title": {"romaji": "One Piece"}, "status": "Ongoing", "rating": 88}]
				}`))
			}))
			defer meta.Close()

			c := newClient(gql.URL, meta.URL)

			page, err := c.Trending(ctx, 7)
			So(err, ShouldBeNil)
			So(page.CurrentPage, ShouldEqual, 7)
			So(page.HasNextPage, ShouldBeTrue)
			So(page.Results, ShouldHaveLength, 1)
			So(page.Results[0].ID, ShouldEqual, 21)
			So(page.Results[0].Status, ShouldEqual, "RELEASING")
		})
	})
}

func TestFindClosest(t *testing.T) {
	Convey("FindClosest", t, func() {
		ctx := context.Background()

		gql := gqlServer(t, map[string]any{
			"data": map[string]any{
				"Page": map[string]any{
					"pageInfo": map[string]any{"currentPage": 1, "hasNextPage": false},
					"media": []map[string]any{
						{"id": 1, "title": map[string]string{"romaji": "Cowboy Bebop: The Movie"}},
						{"id": 2, "title": map[string]string{"romaji": "Cowboy Bebop"}},
						{"id": 3, "title": map[string]string{"romaji": "Space Dandy"}},
					},
				},
			},
		})
		defer gql.Close()

		c := newClient(gql.URL)

		Convey("The nearest name wins", func() {
			m, err := c.FindClosest(ctx, "cowboy bebop")
			So(err, ShouldBeNil)
			So(m.ID, ShouldEqual, 2)
		})
	})
}
