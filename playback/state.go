// Package playback implements the session controller that decides which
// playback mode is active: a direct manifest handed to a native player, or an
// embedded relay server. The downgrade from direct to relay is automatic,
// one-way and bounded in time.
package playback

import "errors"

// State is the playback session mode.
type State int

const (
	// StateInitializing resolves a manifest and the relay server list.
	StateInitializing State = iota
	// StateDirectAttempt supervises the native player within a bounded window.
	StateDirectAttempt
	// StateDirectPlaying is terminal-successful direct playback.
	StateDirectPlaying
	// StateRelayActive is terminal-successful embedded relay playback.
	StateRelayActive
	// StateFailed is terminal; only a full session restart recovers.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "Initializing"
	case StateDirectAttempt:
		return "DirectAttempt"
	case StateDirectPlaying:
		return "DirectPlaying"
	case StateRelayActive:
		return "RelayActive"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ErrNoStream reports that neither a manifest nor a relay server could be
// resolved for the episode.
var ErrNoStream = errors.New("no stream found")

// ErrPlaybackFatal reports that the native player failed unrecoverably and no
// relay fallback was available. It is the only user-facing playback error;
// retrying constructs a fresh session from scratch.
var ErrPlaybackFatal = errors.New("playback failed with no fallback available")
