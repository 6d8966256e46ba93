package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anilust-cli/anilust/filesystem"
	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/mapping"
	"github.com/anilust-cli/anilust/relay"
	"github.com/spf13/viper"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	viper.Set(key.RelaySearchTimeout, 2000)
	viper.Set(key.RelayStreamTimeout, 2000)
	viper.Set(key.RelayMetaTimeout, 2000)
}

// fakeRelay records every requested path and answers from a canned route table.
type fakeRelay struct {
	srv   *httptest.Server
	paths []string
}

func newFakeRelay(routes map[string]string) *fakeRelay {
	f := &fakeRelay{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}
		f.paths = append(f.paths, path)

		body, ok := routes[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	return f
}

func newResolver(f *fakeRelay) *Resolver {
	filesystem.SetMemMapFs()
	return &Resolver{
		Providers: []Provider{{Name: "alpha"}, {Name: "beta"}},
		Relay:     &relay.Client{Instances: []string{f.srv.URL}},
		Mapping:   mapping.New("/tmp/mappings.json"),
	}
}

func TestEpisodes(t *testing.T) {
	Convey("Episodes resolution waterfall", t, func() {
		ctx := context.Background()

		Convey("A remembered mapping skips the search step", func() {
			f := newFakeRelay(map[string]string{
				"/anime/alpha/info/naruto": `{"episodes":[{"id":"naruto-1","number":1}]}`,
			})
			defer f.srv.Close()

			r := newResolver(f)
			r.Mapping.Put("21", "alpha", "naruto")

			episodes, err := r.Episodes(ctx, "21", []string{"Naruto"})
			So(err, ShouldBeNil)
			So(episodes, ShouldHaveLength, 1)
			So(f.paths, ShouldResemble, []string{"/anime/alpha/info/naruto"})
		})

		Convey("A dead mapping falls through to search but is only overwritten by a fresh match", func() {
			f := newFakeRelay(map[string]string{
				"/anime/alpha/naruto":          `{"results":[{"id":"naruto-tv"}]}`,
				"/anime/alpha/info/naruto-tv":  `{"episodes":[{"id":"naruto-tv-1","number":1}]}`,
				"/anime/alpha/info/stale-slug": `{"episodes":[]}`,
			})
			defer f.srv.Close()

			r := newResolver(f)
			r.Mapping.Put("21", "alpha", "stale-slug")

			episodes, err := r.Episodes(ctx, "21", []string{"Naruto"})
			So(err, ShouldBeNil)
			So(episodes, ShouldHaveLength, 1)

			// Overwritten by the fresh match, and the second provider was
			// never contacted.
			So(r.Mapping.Get("21", "alpha").MustGet(), ShouldEqual, "naruto-tv")
			for _, p := range f.paths {
				So(p, ShouldNotStartWith, "/anime/beta")
			}
		})

		Convey("Title variants are probed in order, stopping at the first match", func() {
			f := newFakeRelay(map[string]string{
				"/anime/alpha/shingeki no kyojin": `{"results":[]}`,
				"/anime/alpha/attack on titan":    `{"results":[{"id":"aot"}]}`,
				"/anime/alpha/info/aot":           `{"episodes":[{"id":"aot-1","number":1}]}`,
			})
			defer f.srv.Close()

			r := newResolver(f)

			episodes, err := r.Episodes(ctx, "16498", []string{"Shingeki no Kyojin", "Attack on Titan", "AoT"})
			So(err, ShouldBeNil)
			So(episodes, ShouldHaveLength, 1)
			So(f.paths, ShouldResemble, []string{
				"/anime/alpha/shingeki no kyojin",
				"/anime/alpha/attack on titan",
				"/anime/alpha/info/aot",
			})
		})

		Convey("An exhausted provider hands over to the next one", func() {
			f := newFakeRelay(map[string]string{
				"/anime/alpha/bleach":     `{"results":[]}`,
				"/anime/beta/bleach":      `{"results":[{"id":"bleach"}]}`,
				"/anime/beta/info/bleach": `{"episodes":[{"id":"bleach-1","number":1}]}`,
			})
			defer f.srv.Close()

			r := newResolver(f)

			episodes, err := r.Episodes(ctx, "269", []string{"Bleach"})
			So(err, ShouldBeNil)
			So(episodes, ShouldHaveLength, 1)
			So(r.Mapping.Get("269", "beta").MustGet(), ShouldEqual, "bleach")
			So(r.Mapping.Get("269", "alpha").IsAbsent(), ShouldBeTrue)
		})

		Convey("The meta endpoint is the last resort", func() {
			f := newFakeRelay(map[string]string{
				"/meta/anilist/info/1": `{"episodes":[{"id":"meta$1$ep-1","number":1}]}`,
			})
			defer f.srv.Close()

			r := newResolver(f)

			episodes, err := r.Episodes(ctx, "1", []string{"Cowboy Bebop"})
			So(err, ShouldBeNil)
			So(episodes, ShouldHaveLength, 1)
			So(episodes[0].ID, ShouldEqual, "meta$1$ep-1")
		})

		Convey("Nothing anywhere is ErrExhausted", func() {
			f := newFakeRelay(map[string]string{})
			defer f.srv.Close()

			r := newResolver(f)

			episodes, err := r.Episodes(ctx, "404", []string{"Unknown Show"})
			So(err, ShouldEqual, ErrExhausted)
			So(episodes, ShouldBeEmpty)
		})
	})
}

func TestStream(t *testing.T) {
	Convey("Stream resolution", t, func() {
		ctx := context.Background()

		Convey("Provider routes receive the provider-local id", func() {
			f := newFakeRelay(map[string]string{
				"/anime/alpha/watch/ep-1": `{"sources":[{"url":"https://cdn/x.m3u8"}],"headers":{"Referer":"https://origin"}}`,
			})
			defer f.srv.Close()

			r := newResolver(f)

			manifest, err := r.Stream(ctx, "zoro$one-piece$ep-1", "")
			So(err, ShouldBeNil)
			So(manifest.Sources, ShouldHaveLength, 1)
			So(manifest.Headers["Referer"], ShouldEqual, "https://origin")
		})

		Convey("The meta fallback receives the compound id untouched", func() {
			f := newFakeRelay(map[string]string{
				"/meta/anilist/watch/meta$1$ep-1": `{"sources":[{"url":"https://cdn/x.m3u8"}]}`,
			})
			defer f.srv.Close()

			r := newResolver(f)

			manifest, err := r.Stream(ctx, "meta$1$ep-1", "")
			So(err, ShouldBeNil)
			So(manifest.Sources, ShouldHaveLength, 1)
		})

		Convey("A pinned server travels as a query parameter", func() {
			f := newFakeRelay(map[string]string{
				"/anime/alpha/watch/ep-1?server=vidstreaming": `{"sources":[{"url":"https://cdn/x.m3u8"}]}`,
			})
			defer f.srv.Close()

			r := newResolver(f)

			manifest, err := r.Stream(ctx, "ep-1", "vidstreaming")
			So(err, ShouldBeNil)
			So(manifest.Sources, ShouldHaveLength, 1)
		})

		Convey("An empty manifest everywhere is ErrExhausted", func() {
			f := newFakeRelay(map[string]string{
				"/anime/alpha/watch/ep-1": `{"sources":[]}`,
			})
			defer f.srv.Close()

			r := newResolver(f)

			_, err := r.Stream(ctx, "ep-1", "")
			So(err, ShouldEqual, ErrExhausted)
		})
	})
}

func TestServers(t *testing.T) {
	Convey("Server listing", t, func() {
		ctx := context.Background()

		Convey("Providers are asked first", func() {
			f := newFakeRelay(map[string]string{
				"/anime/alpha/servers/ep-1": `[{"name":"vidstreaming","url":"https://embed/1"}]`,
			})
			defer f.srv.Close()

			r := newResolver(f)

			servers, err := r.Servers(ctx, "ep-1")
			So(err, ShouldBeNil)
			So(servers, ShouldHaveLength, 1)
			So(servers[0].Name, ShouldEqual, "vidstreaming")
		})

		Convey("No servers anywhere is an empty list, not an error", func() {
			f := newFakeRelay(map[string]string{})
			defer f.srv.Close()

			r := newResolver(f)

			servers, err := r.Servers(ctx, "ep-1")
			So(err, ShouldBeNil)
			So(servers, ShouldBeEmpty)
		})
	})
}
