// Package network provides pre-configured HTTP clients for catalog and relay communication.
//
// The spoofed client emulates Chrome's TLS Client Hello signature via uTLS.
// Relay and provider endpoints commonly sit behind anti-bot challenges
// (Cloudflare, DDoS-Guard) that reject the standard Go TLS fingerprint; a
// browser fingerprint is required to get an answer at all.
//
// Protocol negotiation: an HTTP/2 connection is attempted first (preferred by
// modern CDNs). If the handshake or request fails, the request is transparently
// retried over an HTTP/1.1-only transport with forced protocol advertisement.
package network

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const spoofDialTimeout = 30 * time.Second

var (
	spoofed     *http.Client
	spoofedOnce sync.Once
)

// Spoofed returns the shared HTTP client carrying a Chrome TLS fingerprint.
// Only bodyless methods (GET, HEAD) may be retried across transports, which is
// all the relay client ever issues.
func Spoofed() *http.Client {
	spoofedOnce.Do(func() {
		spoofed = &http.Client{
			Timeout:   time.Minute,
			Transport: &spoofTransport{},
		}
	})
	return spoofed
}

// spoofTransport routes requests through the uTLS H2 transport, falling back
// to the H1 transport when the preferred protocol is refused.
type spoofTransport struct {
	h2Once sync.Once
	h2     *http2.Transport
}

func (t *spoofTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.h2Once.Do(func() {
		t.h2 = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialSpoofed(ctx, network, addr, nil)
			},
		}
	})

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	retry := req.Clone(req.Context())
	return h1Transport.RoundTrip(retry)
}

// h1Transport is a shared HTTP/1.1 transport for servers that refuse h2.
var h1Transport = &http.Transport{
	DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialSpoofed(ctx, network, addr, []string{"http/1.1"})
	},
}

// dialSpoofed creates a TLS connection mimicking Chrome 120's fingerprint.
// When nextProtos is nil both h2 and http/1.1 are advertised, matching
// natural Chrome behavior.
func dialSpoofed(ctx context.Context, network, addr string, nextProtos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: spoofDialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	cfg := &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: nextProtos,
	}

	tlsConn := utls.UClient(conn, cfg, utls.HelloChrome_120)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return tlsConn, nil
}
