// Package client talks to a running agent's HTTP surface.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// StatusError is returned for any non-success response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: %s: %s", http.StatusText(e.Code), strings.TrimSpace(e.Body))
}

// Client registers PIDs and reads the status table. Reads and registrations
// use separate retry policies.
type Client struct {
	base  string
	read  *retryablehttp.Client
	write *retryablehttp.Client
}

func (c *Client) each(fn func(*retryablehttp.Client)) {
	fn(c.read)
	fn(c.write)
}

// Option configures a Client.
type Option func(*Client)

// WithRetries sets the retry budget and the wait bounds between attempts.
func WithRetries(max int, minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.each(func(rc *retryablehttp.Client) {
			rc.RetryMax = max
			rc.RetryWaitMin = minWait
			rc.RetryWaitMax = maxWait
		})
	}
}

// WithLogger routes retry logs to l. By default the client is silent.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.each(func(rc *retryablehttp.Client) { rc.Logger = l })
	}
}

// New returns a client for addr, either "host:port" or a full URL.
func New(addr string, opts ...Option) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	c := &Client{
		base:  strings.TrimRight(addr, "/"),
		read:  newRetryClient(checkRetry),
		write: newRetryClient(registerRetry),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func newRetryClient(policy retryablehttp.CheckRetry) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 3
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.CheckRetry = policy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc
}

// Register asks the agent to track pid. The agent appends every write, so a
// registration is only retried when the agent cannot have seen it: a failed
// dial, or a 503 from a stopped agent. Any other failure is returned as is
// and the caller decides whether to register again.
func (c *Client) Register(ctx context.Context, pid int) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/status", strings.NewReader(strconv.Itoa(pid)+"\n"))
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.write.Do(req)
	if err != nil {
		closeBody(resp)
		return fmt.Errorf("client: register %d: %w", pid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// Status returns the rendered table cut to max bytes, max < 0 for all of it.
func (c *Client) Status(ctx context.Context, max int) ([]byte, error) {
	url := c.base + "/status"
	if max >= 0 {
		url += "?max=" + strconv.Itoa(max)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	resp, err := c.read.Do(req)
	if err != nil {
		closeBody(resp)
		return nil, fmt.Errorf("client: status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: status: %w", err)
	}
	return b, nil
}

func closeBody(resp *http.Response) {
	if resp != nil {
		_ = resp.Body.Close()
	}
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Code: resp.StatusCode, Body: string(b)}
}

// checkRetry retries connection errors and 5xx like the default policy, but
// not a full registry, which only a stop of the agent can clear.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusInsufficientStorage {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// registerRetry retries a registration only when it cannot have been
// applied: the connection was never established, or the agent answered 503.
func registerRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		var op *net.OpError
		return errors.As(err, &op) && op.Op == "dial", nil
	}
	return resp.StatusCode == http.StatusServiceUnavailable, nil
}
