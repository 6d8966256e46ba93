// Package player implements the native playback backend on top of mpv's
// JSON-IPC protocol, translating mpv notifications into the session
// controller's life-cycle events.
package player

import (
	"context"
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/anilust-cli/anilust/constant"
	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/log"
	"github.com/anilust-cli/anilust/media"
	"github.com/anilust-cli/anilust/playback"
	"github.com/spf13/viper"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// reservedHeaders are managed by the transport itself and must not be
// forwarded through the generic header list.
var reservedHeaders = []string{"referer", "user-agent"}

// MPV drives an external mpv process and satisfies playback.Player.
type MPV struct {
	socketPath string
	cmd        *exec.Cmd
	events     chan playback.Event
	exited     chan struct{}
	listener   *listener

	// mu protects socket writes and the recovery bookkeeping below.
	mu      sync.Mutex
	lastURL string
}

// New creates an mpv player instance. Nothing is spawned until Load.
func New() *MPV {
	return &MPV{
		events: make(chan playback.Event, 16),
		exited: make(chan struct{}),
	}
}

// Load spawns mpv with the manifest's preferred source and starts the event
// listener. Reserved headers are handled by mpv's own transport flags; the
// rest travel in the generic header list.
func (m *MPV) Load(ctx context.Context, manifest *media.Manifest, title string) error {
	source, ok := manifest.PreferredSource()
	if !ok {
		return fmt.Errorf("manifest has no sources")
	}

	safeURL, err := sanitizeMediaTarget(source.URL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	if m.socketPath == "" {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return fmt.Errorf("generate socket name: %w", err)
		}
		m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%x.sock", constant.Anilust, randomBytes))
	}

	safeTitle := sanitizeTitle(title)

	// Pass only the socket, title and URL; the user's mpv.conf stays in charge
	// of video output and decoding choices.
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		fmt.Sprintf("--force-media-title=%s", safeTitle),
		fmt.Sprintf("--title=%s", safeTitle),
		"--force-window=yes",
		"--idle=yes",
	}

	if referer, ok := headerValue(manifest.Headers, "referer"); ok {
		args = append(args, fmt.Sprintf("--referrer=%s", referer))
	}
	if headerString := encodeHeaders(manifest.Headers); headerString != "" {
		args = append(args, fmt.Sprintf("--http-header-fields=%s", headerString))
	}

	args = append(args, safeURL)

	binary := viper.GetString(key.PlaybackPlayer)
	if binary == "" {
		binary = "mpv"
	}

	m.cmd = exec.Command(binary, args...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", binary, err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(ctx); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing %s: socket never became ready", binary)
			_ = killProcess(m.cmd)
		}
		return fmt.Errorf("player socket not ready: %w", err)
	}

	m.mu.Lock()
	m.lastURL = safeURL
	m.mu.Unlock()

	m.listener = newListener(m)
	if err := m.listener.start(); err != nil {
		return fmt.Errorf("event listener: %w", err)
	}

	return nil
}

// Events returns the translated life-cycle event stream. The channel closes
// when the mpv process goes away.
func (m *MPV) Events() <-chan playback.Event {
	return m.events
}

// Recover re-issues playback of the last target at the last known position,
// the in-place answer to a fatal decode error.
func (m *MPV) Recover() error {
	m.mu.Lock()
	target := m.lastURL
	m.mu.Unlock()

	if target == "" {
		return fmt.Errorf("nothing to recover")
	}

	position, posErr := m.GetTimePos()

	if _, err := m.sendCommand([]any{"loadfile", target, "replace"}); err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	if posErr == nil && position > 0 {
		_ = m.Seek(position)
	}

	log.Infof("recovered playback of %s at %.0fs", target, position)
	return nil
}

// Close shuts down the mpv process and cleans up resources.
func (m *MPV) Close() error {
	if m.listener != nil {
		m.listener.stop()
	}

	if m.socketPath == "" || m.cmd == nil {
		return nil
	}

	// Graceful quit first.
	_, _ = m.sendCommand([]any{"quit"})

	select {
	case <-m.exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

// Wait returns a channel closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// waitForSocket polls until the IPC socket accepts connections.
func (m *MPV) waitForSocket(ctx context.Context) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.exited:
			return fmt.Errorf("player exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// GetTimePos returns the current playback position in seconds.
func (m *MPV) GetTimePos() (float64, error) {
	return m.getFloatProperty("time-pos")
}

// GetDuration returns the total duration of the current media in seconds.
func (m *MPV) GetDuration() (float64, error) {
	return m.getFloatProperty("duration")
}

// GetPercentWatched returns the watched percentage, 0-100.
func (m *MPV) GetPercentWatched() (float64, error) {
	pos, err := m.GetTimePos()
	if err != nil {
		return 0, err
	}

	dur, err := m.GetDuration()
	if err != nil || dur <= 0 {
		return 0, err
	}

	return (pos / dur) * 100, nil
}

// Seek moves playback to the given absolute position in seconds.
func (m *MPV) Seek(seconds float64) error {
	_, err := m.sendCommand([]any{"seek", seconds, "absolute"})
	return err
}

// SetChapters sets the chapter markers for the current media.
func (m *MPV) SetChapters(chapters []map[string]any) error {
	_, err := m.sendCommand([]any{"set_property", "chapter-list", chapters})
	return err
}

// getFloatProperty retrieves a float64 mpv property via IPC.
func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand([]any{"get_property", name})
	if err != nil {
		return 0, err
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}

	return val, nil
}

// headerValue looks up a header case-insensitively.
func headerValue(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// encodeHeaders builds mpv's comma-separated header list, skipping reserved
// headers the transport manages itself.
func encodeHeaders(headers map[string]string) string {
	var b strings.Builder
	for k, v := range headers {
		if reserved(k) {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("%s: %s", k, strings.ReplaceAll(v, ",", "%2C")))
	}
	return b.String()
}

func reserved(header string) bool {
	for _, r := range reservedHeaders {
		if strings.EqualFold(header, r) {
			return true
		}
	}
	return false
}

// sanitizeMediaTarget validates that a target is safe to hand to mpv,
// rejecting anything that could be parsed as a flag.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

// sanitizeTitle strips characters that confuse mpv's argument parsing.
func sanitizeTitle(title string) string {
	t := strings.ReplaceAll(title, "\n", " ")
	t = strings.ReplaceAll(t, "\r", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	t = strings.ReplaceAll(t, "\x00", "")
	return strings.TrimSpace(t)
}
