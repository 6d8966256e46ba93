package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/log"
	"github.com/anilust-cli/anilust/media"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// StreamResolver is the slice of the provider waterfall the session needs.
type StreamResolver interface {
	Stream(ctx context.Context, episodeID, server string) (*media.Manifest, error)
	Servers(ctx context.Context, episodeID string) ([]*media.Server, error)
}

// Session drives one watch action. It owns the current state exclusively;
// every transition goes through a single expected-state check, so whichever
// of the racing signals (timer, player event) arrives first wins and the
// loser becomes a no-op.
type Session struct {
	resolver StreamResolver
	player   Player

	episodeID string
	title     string

	mu       sync.Mutex
	state    State
	err      error
	manifest *media.Manifest
	servers  []*media.Server
	active   *media.Server
	timer    *time.Timer

	done     chan struct{}
	doneOnce sync.Once
}

// NewSession constructs a session for one episode. Nothing happens until Start.
func NewSession(resolver StreamResolver, player Player, episodeID, title string) *Session {
	return &Session{
		resolver:  resolver,
		player:    player,
		episodeID: episodeID,
		title:     title,
		state:     StateInitializing,
		done:      make(chan struct{}),
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal error, non-nil only in StateFailed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Manifest returns the resolved manifest, if any.
func (s *Session) Manifest() *media.Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest
}

// ActiveServer returns the relay server in use, non-nil only in StateRelayActive.
func (s *Session) ActiveServer() *media.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Servers returns the known relay servers for the episode.
func (s *Session) Servers() []*media.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.servers
}

// Done is closed when the session reaches an end: playback finished, the
// player went away, relay mode was selected without a player, or failure.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start resolves the manifest and the relay server list concurrently, then
// decides the initial mode. Resolution failures are independent: one side
// failing never cancels the other.
func (s *Session) Start(ctx context.Context) error {
	var (
		manifest *media.Manifest
		servers  []*media.Server
		wg       sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		m, err := s.resolver.Stream(ctx, s.episodeID, "")
		if err != nil {
			log.Warnf("manifest resolution for %s: %v", s.episodeID, err)
			return
		}
		manifest = m
	}()
	go func() {
		defer wg.Done()
		sv, err := s.resolver.Servers(ctx, s.episodeID)
		if err != nil {
			log.Warnf("server resolution for %s: %v", s.episodeID, err)
			return
		}
		servers = sv
	}()
	wg.Wait()

	s.mu.Lock()
	s.manifest = manifest
	s.servers = servers
	s.mu.Unlock()

	// Direct playback is only worth attempting on an adaptive playlist; a
	// plain file source is better served through the embedded relay.
	if manifest == nil || !manifest.HasSegmented() {
		if len(servers) > 0 {
			s.toRelay(StateInitializing, servers[0])
			s.finish()
			return nil
		}
		s.fail(ErrNoStream)
		return ErrNoStream
	}

	if !s.transition(StateInitializing, StateDirectAttempt) {
		return fmt.Errorf("session already started")
	}

	if err := s.player.Load(ctx, manifest, s.title); err != nil {
		log.Warnf("player load: %v", err)
		s.downgrade()
		return nil
	}

	wait := time.Duration(viper.GetInt(key.PlaybackDirectWait)) * time.Millisecond
	s.mu.Lock()
	s.timer = time.AfterFunc(wait, s.downgrade)
	s.mu.Unlock()

	go s.watch()
	return nil
}

// watch consumes player events until the player goes away.
func (s *Session) watch() {
	for event := range s.player.Events() {
		switch event.Kind {
		case EventManifestParsed, EventStarted:
			if s.transition(StateDirectAttempt, StateDirectPlaying) {
				s.stopTimer()
				log.Info("direct playback started")
			}
		case EventEnded:
			s.finish()
		case EventError:
			if !event.Fatal {
				log.Debugf("recoverable player error: %v", event.Err)
				continue
			}
			if event.Class == ClassDecode {
				// An in-place retry on the same manifest; if that is not
				// possible the player surfaces a further fatal event which
				// lands in the network branch below.
				log.Warnf("fatal decode error, attempting recovery: %v", event.Err)
				if err := s.player.Recover(); err == nil {
					continue
				}
			}
			log.Warnf("fatal player error: %v", event.Err)
			s.downgrade()
		}
	}
	s.finish()
}

// downgrade performs the one-way DirectAttempt to RelayActive transition. It
// is the shared target of the bounded-wait timer and fatal network errors;
// only the first caller wins.
func (s *Session) downgrade() {
	s.mu.Lock()
	if s.state != StateDirectAttempt {
		s.mu.Unlock()
		return
	}

	if len(s.servers) == 0 {
		s.state = StateFailed
		s.err = ErrPlaybackFatal
		s.mu.Unlock()
		s.teardown()
		s.finish()
		return
	}

	s.state = StateRelayActive
	s.active = s.servers[0]
	s.mu.Unlock()

	log.Infof("downgrading to relay server %s", s.active.Name)
	s.teardown()
}

// SwitchServer selects a different named relay server and re-issues the
// stream/server fetch scoped to it. The state stays RelayActive.
func (s *Session) SwitchServer(ctx context.Context, name string) error {
	s.mu.Lock()
	if s.state != StateRelayActive {
		s.mu.Unlock()
		return fmt.Errorf("no relay is active")
	}
	s.mu.Unlock()

	servers, err := s.resolver.Servers(ctx, s.episodeID)
	if err != nil {
		return err
	}

	server, ok := lo.Find(servers, func(sv *media.Server) bool {
		return sv.Name == name
	})
	if !ok {
		return fmt.Errorf("no relay server named %q", name)
	}

	// Best effort: a scoped manifest is useful but not required for relay mode.
	manifest, err := s.resolver.Stream(ctx, s.episodeID, name)
	if err != nil {
		log.Debugf("scoped manifest for server %s: %v", name, err)
		manifest = nil
	}

	s.mu.Lock()
	s.servers = servers
	s.active = server
	if manifest != nil {
		s.manifest = manifest
	}
	s.mu.Unlock()

	return nil
}

// transition performs the single-assignment state change, succeeding only
// when the session is still in the expected state. Late signals lose.
func (s *Session) transition(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != from {
		return false
	}
	s.state = to
	return true
}

func (s *Session) toRelay(from State, server *media.Server) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != from {
		return false
	}
	s.state = StateRelayActive
	s.active = server
	return true
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()
	s.finish()
}

// teardown releases the direct playback resources: the timer and the native
// player. No two playback backends may be simultaneously live.
func (s *Session) teardown() {
	s.stopTimer()
	if err := s.player.Close(); err != nil {
		log.Debugf("player close: %v", err)
	}
}

func (s *Session) stopTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) finish() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}
