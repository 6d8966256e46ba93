package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anilust-cli/anilust/constant"
	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/log"
	"github.com/anilust-cli/anilust/network"
	"github.com/spf13/viper"
)

// Client fetches JSON documents from the relay network. Instances are tried
// in order within a single call; the first one that answers with a parseable
// 2xx response wins.
type Client struct {
	// Instances overrides the configured relay instance list. Mostly for tests.
	Instances []string

	// HTTP overrides the underlying HTTP client. Mostly for tests.
	HTTP *http.Client
}

// New returns a client backed by the configured relay instances.
func New() *Client {
	return &Client{}
}

func (c *Client) instances() []string {
	if len(c.Instances) > 0 {
		return c.Instances
	}
	return viper.GetStringSlice(key.RelayInstances)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	if viper.GetBool(key.RelaySpoofTLS) {
		return network.Spoofed()
	}
	return network.Client
}

// FetchJSON issues a GET for path against the relay network and decodes the
// response body into v. Every attempt is bounded by timeout through a
// cancellation context, so a hung request is aborted rather than abandoned.
// Any failure is reported as *Error.
func (c *Client) FetchJSON(ctx context.Context, path string, timeout time.Duration, v any) error {
	instances := c.instances()
	if len(instances) == 0 {
		return &Error{Path: path, Reason: "no relay instances configured"}
	}

	var lastErr error
	for _, instance := range instances {
		if err := c.fetchOne(ctx, instance, path, timeout, v); err != nil {
			log.Debugf("relay instance %s failed for %s: %v", instance, path, err)
			lastErr = err

			// A canceled parent context means the caller moved on; stop probing.
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return nil
	}

	return &Error{Path: path, Reason: "all relay instances unavailable", Err: lastErr}
}

func (c *Client) fetchOne(ctx context.Context, instance, path string, timeout time.Duration, v any) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, instance+path, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("relay node responded with %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, v)
}

// Budget helpers: distinct call sites use distinct timeout budgets.

// SearchTimeout is the short budget for per-title search probes.
func SearchTimeout() time.Duration {
	return time.Duration(viper.GetInt(key.RelaySearchTimeout)) * time.Millisecond
}

// StreamTimeout is the budget for episode list and stream manifest resolution.
func StreamTimeout() time.Duration {
	return time.Duration(viper.GetInt(key.RelayStreamTimeout)) * time.Millisecond
}

// MetaTimeout is the shorter budget for the secondary meta-aggregation fallback.
func MetaTimeout() time.Duration {
	return time.Duration(viper.GetInt(key.RelayMetaTimeout)) * time.Millisecond
}
