package history

import (
	"testing"

	"github.com/anilust-cli/anilust/catalog"
	"github.com/anilust-cli/anilust/filesystem"
	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/media"
	"github.com/spf13/viper"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
	viper.Set(key.PlaybackCompletionPercentage, 80)
}

func TestHistory(t *testing.T) {
	Convey("Given an episode", t, func() {
		m := &catalog.Media{ID: 21, TotalEpisodes: 1071}
		m.Title.Romaji = "One Piece"
		episode := &media.Episode{ID: "one-piece-episode-1", Number: 1}

		Convey("When saving the episode", func() {
			err := Save(m, episode, 42.0)
			So(err, ShouldBeNil)

			Convey("Then the episode should be saved", func() {
				saved := Get()
				So(len(saved), ShouldBeGreaterThan, 0)
				So(saved["21_one-piece-episode-1"].MediaName, ShouldEqual, "One Piece")
			})

			Convey("Then a lower percentage never regresses the record", func() {
				So(Save(m, episode, 10.0), ShouldBeNil)
				So(Get()["21_one-piece-episode-1"].WatchedPercentage, ShouldEqual, 42.0)
			})

			Convey("Then Watched only reports completed episodes", func() {
				So(Watched(21), ShouldBeEmpty)
				So(Save(m, episode, 95.0), ShouldBeNil)
				So(Watched(21), ShouldResemble, []string{"one-piece-episode-1"})
			})
		})

		Convey("When removing the episode", func() {
			So(Save(m, episode, 42.0), ShouldBeNil)
			record := Get()["21_one-piece-episode-1"]
			So(record, ShouldNotBeNil)
			So(Remove(record), ShouldBeNil)
			_, exists := Get()["21_one-piece-episode-1"]
			So(exists, ShouldBeFalse)
		})
	})
}
