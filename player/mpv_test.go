package player

import (
	"testing"

	"github.com/anilust-cli/anilust/playback"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitize(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		Convey("Accepts http(s) URLs", func() {
			url, err := sanitizeMediaTarget("https://cdn/playlist.m3u8")
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "https://cdn/playlist.m3u8")
		})

		Convey("Rejects flag-shaped targets", func() {
			_, err := sanitizeMediaTarget("--script=evil.lua")
			So(err, ShouldNotBeNil)
		})

		Convey("Rejects non-web schemes", func() {
			_, err := sanitizeMediaTarget("ftp://host/file")
			So(err, ShouldNotBeNil)
		})

		Convey("Rejects control characters", func() {
			_, err := sanitizeMediaTarget("https://cdn/a\nb")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("sanitizeTitle flattens whitespace controls", t, func() {
		So(sanitizeTitle("A\nB\tC\x00"), ShouldEqual, "A B C")
	})
}

func TestHeaders(t *testing.T) {
	Convey("encodeHeaders", t, func() {
		Convey("Reserved headers never travel in the generic list", func() {
			encoded := encodeHeaders(map[string]string{
				"Referer":    "https://origin",
				"User-Agent": "Browser/1.0",
				"Cookie":     "session=123",
			})
			So(encoded, ShouldEqual, "Cookie: session=123")
		})

		Convey("Commas in values are escaped", func() {
			encoded := encodeHeaders(map[string]string{"X-List": "a,b"})
			So(encoded, ShouldEqual, "X-List: a%2Cb")
		})
	})

	Convey("headerValue is case-insensitive", t, func() {
		v, ok := headerValue(map[string]string{"referer": "https://origin"}, "Referer")
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, "https://origin")
	})
}

func TestTranslate(t *testing.T) {
	Convey("translate", t, func() {
		Convey("file-loaded becomes manifest-parsed", func() {
			event, ok := translate(`{"event":"file-loaded"}`)
			So(ok, ShouldBeTrue)
			So(event.Kind, ShouldEqual, playback.EventManifestParsed)
		})

		Convey("end-file with eof becomes ended", func() {
			event, ok := translate(`{"event":"end-file","reason":"eof"}`)
			So(ok, ShouldBeTrue)
			So(event.Kind, ShouldEqual, playback.EventEnded)
		})

		Convey("end-file with a loading failure is a fatal network-class error", func() {
			event, ok := translate(`{"event":"end-file","reason":"error","file_error":"loading failed"}`)
			So(ok, ShouldBeTrue)
			So(event.Kind, ShouldEqual, playback.EventError)
			So(event.Fatal, ShouldBeTrue)
			So(event.Class, ShouldEqual, playback.ClassNetwork)
		})

		Convey("end-file with a decoder failure is decode-class", func() {
			event, ok := translate(`{"event":"end-file","reason":"error","file_error":"audio decoding failed"}`)
			So(ok, ShouldBeTrue)
			So(event.Class, ShouldEqual, playback.ClassDecode)
		})

		Convey("pause maps to paused, unpause is not a start signal", func() {
			paused, ok := translate(`{"event":"property-change","name":"pause","data":true}`)
			So(ok, ShouldBeTrue)
			So(paused.Kind, ShouldEqual, playback.EventPaused)

			_, ok = translate(`{"event":"property-change","name":"pause","data":false}`)
			So(ok, ShouldBeFalse)
		})

		Convey("unobserved lines are ignored", func() {
			_, ok := translate(`{"event":"property-change","name":"time-pos","data":12.5}`)
			So(ok, ShouldBeFalse)

			_, ok = translate(`not json`)
			So(ok, ShouldBeFalse)
		})
	})
}
