package playback

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/media"
	"github.com/spf13/viper"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	viper.Set(key.PlaybackDirectWait, 40)
}

type fakeResolver struct {
	manifest *media.Manifest
	servers  []*media.Server

	streamCalls [][2]string
}

func (f *fakeResolver) Stream(_ context.Context, episodeID, server string) (*media.Manifest, error) {
	f.streamCalls = append(f.streamCalls, [2]string{episodeID, server})
	return f.manifest, nil
}

func (f *fakeResolver) Servers(context.Context, string) ([]*media.Server, error) {
	return f.servers, nil
}

type fakePlayer struct {
	events   chan Event
	loads    atomic.Int32
	recovers atomic.Int32
	closes   atomic.Int32
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{events: make(chan Event, 8)}
}

func (f *fakePlayer) Load(context.Context, *media.Manifest, string) error {
	f.loads.Add(1)
	return nil
}

func (f *fakePlayer) Events() <-chan Event { return f.events }

func (f *fakePlayer) Recover() error {
	f.recovers.Add(1)
	return nil
}

func (f *fakePlayer) Close() error {
	f.closes.Add(1)
	return nil
}

func segmentedManifest() *media.Manifest {
	return &media.Manifest{Sources: []media.StreamSource{{URL: "https://cdn/x.m3u8"}}}
}

func plainManifest() *media.Manifest {
	return &media.Manifest{Sources: []media.StreamSource{{URL: "https://cdn/x.mp4"}}}
}

func relayServers() []*media.Server {
	return []*media.Server{
		{Name: "vidstreaming", URL: "https://embed/1"},
		{Name: "streamsb", URL: "https://embed/2"},
	}
}

func waitState(s *Session, want State) bool {
	deadline := time.After(time.Second)
	for {
		if s.State() == want {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSession(t *testing.T) {
	Convey("Given a playback session", t, func() {
		ctx := context.Background()

		Convey("Only non-segmented sources with a relay available go straight to RelayActive", func() {
			resolver := &fakeResolver{manifest: plainManifest(), servers: relayServers()}
			player := newFakePlayer()
			s := NewSession(resolver, player, "ep-1", "Show")

			So(s.Start(ctx), ShouldBeNil)
			So(s.State(), ShouldEqual, StateRelayActive)
			So(s.ActiveServer().Name, ShouldEqual, "vidstreaming")
			// The native player was never involved.
			So(player.loads.Load(), ShouldEqual, 0)
		})

		Convey("Nothing resolved and no relay is a failed session", func() {
			resolver := &fakeResolver{}
			player := newFakePlayer()
			s := NewSession(resolver, player, "ep-1", "Show")

			So(s.Start(ctx), ShouldEqual, ErrNoStream)
			So(s.State(), ShouldEqual, StateFailed)
			So(s.Err(), ShouldEqual, ErrNoStream)
		})

		Convey("A segmented manifest enters DirectAttempt", func() {
			resolver := &fakeResolver{manifest: segmentedManifest(), servers: relayServers()}
			player := newFakePlayer()
			s := NewSession(resolver, player, "ep-1", "Show")

			So(s.Start(ctx), ShouldBeNil)
			So(s.State(), ShouldEqual, StateDirectAttempt)
			So(player.loads.Load(), ShouldEqual, 1)

			Convey("A manifest-parsed event before the timer wins DirectPlaying", func() {
				player.events <- Event{Kind: EventManifestParsed}
				So(waitState(s, StateDirectPlaying), ShouldBeTrue)

				// The timer budget passing afterwards must not downgrade.
				time.Sleep(80 * time.Millisecond)
				So(s.State(), ShouldEqual, StateDirectPlaying)
				So(player.closes.Load(), ShouldEqual, 0)
			})

			Convey("An elapsed timer downgrades to the first relay server", func() {
				So(waitState(s, StateRelayActive), ShouldBeTrue)
				So(s.ActiveServer().Name, ShouldEqual, "vidstreaming")
				So(player.closes.Load(), ShouldEqual, 1)

				// A late parse event must be ignored: the session left
				// DirectAttempt already.
				player.events <- Event{Kind: EventManifestParsed}
				time.Sleep(20 * time.Millisecond)
				So(s.State(), ShouldEqual, StateRelayActive)
			})

			Convey("A fatal network error downgrades without waiting for the timer", func() {
				player.events <- Event{Kind: EventError, Fatal: true, Class: ClassNetwork}
				So(waitState(s, StateRelayActive), ShouldBeTrue)
				So(player.closes.Load(), ShouldEqual, 1)
			})

			Convey("A fatal decode error recovers in place without changing state", func() {
				player.events <- Event{Kind: EventError, Fatal: true, Class: ClassDecode}
				player.events <- Event{Kind: EventStarted}
				So(waitState(s, StateDirectPlaying), ShouldBeTrue)
				So(player.recovers.Load(), ShouldEqual, 1)
				So(player.closes.Load(), ShouldEqual, 0)
			})
		})

		Convey("A timer downgrade with no relay servers fails the session", func() {
			resolver := &fakeResolver{manifest: segmentedManifest()}
			player := newFakePlayer()
			s := NewSession(resolver, player, "ep-1", "Show")

			So(s.Start(ctx), ShouldBeNil)
			So(waitState(s, StateFailed), ShouldBeTrue)
			So(s.Err(), ShouldEqual, ErrPlaybackFatal)
		})

		Convey("Switching relay servers keeps the state and re-scopes the fetch", func() {
			resolver := &fakeResolver{manifest: plainManifest(), servers: relayServers()}
			player := newFakePlayer()
			s := NewSession(resolver, player, "ep-1", "Show")

			So(s.Start(ctx), ShouldBeNil)
			So(s.State(), ShouldEqual, StateRelayActive)

			So(s.SwitchServer(ctx, "streamsb"), ShouldBeNil)
			So(s.State(), ShouldEqual, StateRelayActive)
			So(s.ActiveServer().Name, ShouldEqual, "streamsb")

			last := resolver.streamCalls[len(resolver.streamCalls)-1]
			So(last[1], ShouldEqual, "streamsb")
		})

		Convey("Switching servers outside RelayActive is rejected", func() {
			resolver := &fakeResolver{manifest: segmentedManifest(), servers: relayServers()}
			player := newFakePlayer()
			s := NewSession(resolver, player, "ep-1", "Show")

			So(s.Start(ctx), ShouldBeNil)
			So(s.SwitchServer(ctx, "streamsb"), ShouldNotBeNil)
		})
	})
}
