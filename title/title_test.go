package title

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Normalize", t, func() {
		Convey("Should lowercase and strip punctuation", func() {
			So(Normalize("Re:Zero - Starting Life"), ShouldEqual, "re zero starting life")
		})

		Convey("Should remove noise tokens as whole words", func() {
			So(Normalize("Show Season 2"), ShouldEqual, "show 2")
			So(Normalize("My Hero OVA Special"), ShouldEqual, "my hero")
		})

		Convey("Should keep words that merely contain a noise token", func() {
			So(Normalize("Subtle Parting"), ShouldEqual, "subtle parting")
		})

		Convey("Should collapse whitespace and trim", func() {
			So(Normalize("  a   b  "), ShouldEqual, "a b")
		})

		Convey("Should be idempotent", func() {
			inputs := []string{
				"Attack on Titan Season 3 Part 2",
				"K-ON!!",
				"Fate/stay night",
				"",
			}
			for _, in := range inputs {
				once := Normalize(in)
				So(Normalize(once), ShouldEqual, once)
			}
		})

		Convey("Empty input yields empty output", func() {
			So(Normalize(""), ShouldEqual, "")
		})
	})
}

func TestVariants(t *testing.T) {
	Convey("Variants", t, func() {
		Convey("Should keep order: primary, native, english, synonyms", func() {
			v := Variants("Shingeki no Kyojin", "進撃の巨人", "Attack on Titan", []string{"AoT"})
			So(v, ShouldResemble, []string{"Shingeki no Kyojin", "進撃の巨人", "Attack on Titan", "AoT"})
		})

		Convey("Should drop empties and de-duplicate keeping first position", func() {
			v := Variants("Naruto", "", "Naruto", []string{"", "Naruto Shippuden"})
			So(v, ShouldResemble, []string{"Naruto", "Naruto Shippuden"})
		})
	})
}
