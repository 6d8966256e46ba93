package query

import (
	"testing"

	"github.com/anilust-cli/anilust/filesystem"
	"github.com/anilust-cli/anilust/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
	viper.Set(key.SearchShowQuerySuggestions, true)
}

func TestQuery(t *testing.T) {
	Convey("Given query history", t, func() {
		Convey("When remembering queries", func() {
			So(Remember("naruto", 1), ShouldBeNil)
			So(Remember("bleach", 10), ShouldBeNil)

			Convey("Then suggestions are sorted by rank", func() {
				suggestionCache = make(map[string][]*queryRecord)

				s := SuggestMany("ble")
				So(len(s), ShouldBeGreaterThanOrEqualTo, 1)
				So(s[0], ShouldEqual, "bleach")
			})

			Convey("Then disabled suggestions yield nothing", func() {
				viper.Set(key.SearchShowQuerySuggestions, false)
				defer viper.Set(key.SearchShowQuerySuggestions, true)
				So(SuggestMany("ble"), ShouldBeEmpty)
			})

			Convey("It sanitizes input", func() {
				So(sanitize("  NARUTO  "), ShouldEqual, "naruto")
			})
		})
	})
}
