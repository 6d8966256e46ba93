package mapping

import (
	"path/filepath"
	"testing"

	"github.com/anilust-cli/anilust/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestRegistry(t *testing.T) {
	Convey("Given a mapping registry", t, func() {
		path := filepath.Join(t.TempDir(), "mappings.json")
		reg := New(path)

		Convey("Unknown keys are absent", func() {
			So(reg.Get("21", "gogoanime").IsAbsent(), ShouldBeTrue)
		})

		Convey("Put then Get round-trips", func() {
			reg.Put("21", "gogoanime", "one-piece")
			got := reg.Get("21", "gogoanime")
			So(got.IsPresent(), ShouldBeTrue)
			So(got.MustGet(), ShouldEqual, "one-piece")

			Convey("The mapping is scoped per provider", func() {
				So(reg.Get("21", "zoro").IsAbsent(), ShouldBeTrue)
			})

			Convey("A fresh match overwrites the previous one", func() {
				reg.Put("21", "gogoanime", "one-piece-tv")
				So(reg.Get("21", "gogoanime").MustGet(), ShouldEqual, "one-piece-tv")
			})

			Convey("A second registry instance sees the persisted entry", func() {
				other := New(path)
				So(other.Get("21", "gogoanime").MustGet(), ShouldEqual, "one-piece")
			})
		})
	})
}
