package player

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/anilust-cli/anilust/log"
	"github.com/anilust-cli/anilust/playback"
)

// listener holds the persistent IPC connection that turns mpv property
// changes into session life-cycle events. It is the sole writer of the
// player's event channel and closes it when the read loop ends.
type listener struct {
	mpv     *MPV
	conn    net.Conn
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
}

func newListener(m *MPV) *listener {
	return &listener{
		mpv:    m,
		stopCh: make(chan struct{}),
	}
}

// start subscribes to the observed properties and launches the read loop.
func (l *listener) start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return nil
	}

	properties := []struct {
		id   int
		name string
	}{
		{1, "time-pos"},
		{2, "pause"},
		{3, "eof-reached"},
	}

	for _, prop := range properties {
		if _, err := doSendCommand(l.mpv.socketPath, []any{"observe_property", prop.id, prop.name}); err != nil {
			return fmt.Errorf("observe %s: %w", prop.name, err)
		}
	}

	conn, err := net.Dial("unix", l.mpv.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}
	l.conn = conn
	l.started = true

	go l.readLoop()

	log.Debugf("mpv event listener started on %s", l.mpv.socketPath)
	return nil
}

// stop terminates the read loop. The event channel closes as a consequence.
func (l *listener) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started {
		return
	}

	close(l.stopCh)
	if l.conn != nil {
		l.conn.Close()
	}
	l.started = false
}

// readLoop reads newline-delimited JSON events from the persistent connection.
func (l *listener) readLoop() {
	defer close(l.mpv.events)

	buf := make([]byte, 4096)
	var remainder []byte

	for {
		select {
		case <-l.stopCh:
			return
		default:
		}

		if err := l.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}

		n, err := l.conn.Read(buf)
		if err != nil {
			if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline") {
				continue
			}
			// The socket going away means the player exited.
			log.Debugf("event listener read: %v", err)
			return
		}

		data := append(remainder, buf[:n]...)
		remainder = nil

		lines := strings.Split(string(data), "\n")
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if i == len(lines)-1 && !strings.HasSuffix(string(data), "\n") {
				remainder = []byte(line)
				continue
			}

			if event, ok := translate(line); ok {
				l.emit(event)
			}
		}
	}
}

func (l *listener) emit(event playback.Event) {
	select {
	case l.mpv.events <- event:
	default:
		// A slow consumer drops the oldest semantics are not needed here;
		// losing a non-fatal notification is harmless.
		log.Debugf("dropping player event %d", event.Kind)
	}
}

// translate maps one raw mpv JSON line onto a session life-cycle event.
func translate(line string) (playback.Event, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return playback.Event{}, false
	}

	eventType, _ := raw["event"].(string)
	switch eventType {
	case "file-loaded":
		return playback.Event{Kind: playback.EventManifestParsed}, true

	case "playback-restart":
		return playback.Event{Kind: playback.EventStarted}, true

	case "end-file":
		reason, _ := raw["reason"].(string)
		if reason != "error" {
			return playback.Event{Kind: playback.EventEnded}, true
		}
		return playback.Event{
			Kind:  playback.EventError,
			Fatal: true,
			Class: classify(raw),
			Err:   fmt.Errorf("mpv end-file: %v", raw["file_error"]),
		}, true

	case "property-change":
		name, _ := raw["name"].(string)
		switch name {
		case "pause":
			// mpv replays the current value right after observe_property, so
			// an unpause notification is not evidence that playback started.
			if paused, _ := raw["data"].(bool); paused {
				return playback.Event{Kind: playback.EventPaused}, true
			}
		case "eof-reached":
			if reached, _ := raw["data"].(bool); reached {
				return playback.Event{Kind: playback.EventEnded}, true
			}
		}
	}

	return playback.Event{}, false
}

// classify splits mpv failures into the two classes the session reacts to
// differently. Anything that is not clearly a decoder problem counts as
// network-class, which is the class that triggers the relay downgrade.
func classify(raw map[string]any) playback.ErrorClass {
	fileError, _ := raw["file_error"].(string)
	fileError = strings.ToLower(fileError)

	for _, marker := range []string{"decod", "unsupported", "no video", "no audio"} {
		if strings.Contains(fileError, marker) {
			return playback.ClassDecode
		}
	}
	return playback.ClassNetwork
}
