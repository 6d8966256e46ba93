package media

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCleanID(t *testing.T) {
	Convey("CleanID", t, func() {
		Convey("Plain ids pass through", func() {
			So(CleanID("one-piece-episode-1"), ShouldEqual, "one-piece-episode-1")
		})

		Convey("Namespace prefixes are stripped", func() {
			So(CleanID("zoro$one-piece$ep-1"), ShouldEqual, "ep-1")
			So(CleanID("meta$12345"), ShouldEqual, "12345")
		})
	})
}

func TestManifest(t *testing.T) {
	Convey("Manifest", t, func() {
		Convey("Segmented detection honors both flag and URL", func() {
			So(StreamSource{URL: "https://cdn/x.m3u8"}.Segmented(), ShouldBeTrue)
			So(StreamSource{URL: "https://cdn/x.mp4", IsSegmented: true}.Segmented(), ShouldBeTrue)
			So(StreamSource{URL: "https://cdn/x.mp4"}.Segmented(), ShouldBeFalse)
		})

		Convey("PreferredSource picks the first adaptive playlist", func() {
			m := &Manifest{Sources: []StreamSource{
				{URL: "https://cdn/a.mp4"},
				{URL: "https://cdn/b.m3u8"},
				{URL: "https://cdn/c.m3u8"},
			}}
			src, ok := m.PreferredSource()
			So(ok, ShouldBeTrue)
			So(src.URL, ShouldEqual, "https://cdn/b.m3u8")
			So(m.HasSegmented(), ShouldBeTrue)
		})

		Convey("PreferredSource falls back to the first source", func() {
			m := &Manifest{Sources: []StreamSource{{URL: "https://cdn/a.mp4"}}}
			src, ok := m.PreferredSource()
			So(ok, ShouldBeTrue)
			So(src.URL, ShouldEqual, "https://cdn/a.mp4")
			So(m.HasSegmented(), ShouldBeFalse)
		})

		Convey("Empty manifest has no source", func() {
			m := &Manifest{}
			_, ok := m.PreferredSource()
			So(ok, ShouldBeFalse)
		})
	})
}
