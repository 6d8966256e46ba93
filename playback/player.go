package playback

import (
	"context"

	"github.com/anilust-cli/anilust/media"
)

// EventKind classifies a native player life-cycle event.
type EventKind int

const (
	// EventManifestParsed fires when the player accepted and parsed the manifest.
	EventManifestParsed EventKind = iota
	// EventStarted fires when playback actually started.
	EventStarted
	// EventPaused fires on pause.
	EventPaused
	// EventEnded fires when playback reached the end.
	EventEnded
	// EventError carries a classified player error.
	EventError
)

// ErrorClass separates errors the session can act on differently.
type ErrorClass int

const (
	// ClassNetwork means the stream could not be reached or kept alive.
	// Fatal network errors downgrade the session to the relay mode.
	ClassNetwork ErrorClass = iota
	// ClassDecode means the player choked on the stream's contents. Fatal
	// decode errors trigger an in-place recovery attempt first.
	ClassDecode
)

// Event is one native player life-cycle notification.
type Event struct {
	Kind  EventKind
	Fatal bool
	Class ErrorClass
	Err   error
}

// Player is the native playback engine, treated as a black box that accepts a
// manifest and emits life-cycle events. Implementations must close the Events
// channel when the player goes away.
type Player interface {
	Load(ctx context.Context, manifest *media.Manifest, title string) error
	Events() <-chan Event
	Recover() error
	Close() error
}
