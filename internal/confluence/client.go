package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const (
	DefaultTimeout       = 60 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 500 * time.Millisecond

	contentPath = "/rest/api/content"
	maxBodyLog  = 512
)

var ErrEndpointRequired = errors.New("confluence: endpoint is required")

// Config configures a Client.
type Config struct {
	Endpoint string
	User     string
	Password string
	Timeout  time.Duration
	// RetryAttempts bounds the attempts made for idempotent reads. Writes are
	// sent once.
	RetryAttempts uint
	RetryDelay    time.Duration
	HTTPClient    *http.Client
	Logger        interfaces.Logger
}

// Client talks to one Confluence instance with basic auth. It is safe for
// sequential use; the publisher never issues concurrent calls.
type Client struct {
	base     *url.URL
	user     string
	password string
	http     *http.Client
	attempts uint
	delay    time.Duration
	logger   interfaces.Logger
}

var _ interfaces.ContentStore = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("confluence: invalid endpoint %q: %w", cfg.Endpoint, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("confluence: endpoint %q must be an http(s) URL", cfg.Endpoint)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = DefaultRetryAttempts
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	return &Client{
		base:     base,
		user:     cfg.User,
		password: cfg.Password,
		http:     httpClient,
		attempts: attempts,
		delay:    delay,
		logger:   logger,
	}, nil
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.base.String()
}

// request describes one API call. Body is either nil, a value to encode as
// JSON, or an *upload for multipart requests.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.base
	rawPath, rawQuery, _ := strings.Cut(path, "?")
	u.Path = strings.TrimRight(u.Path, "/") + rawPath
	values, _ := url.ParseQuery(rawQuery)
	for key, vals := range query {
		for _, v := range vals {
			values.Add(key, v)
		}
	}
	u.RawQuery = values.Encode()
	return u.String()
}

// get performs an idempotent read, retrying transport failures, 429 and 5xx
// responses.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return retry.Do(
		func() error {
			err := c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
			if err != nil && !retryable(err) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("confluence.request.retry", "path", path, "attempt", n+1, "error", err)
		}),
	)
}

// send performs a write. Writes are not retried.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.do(ctx, request{method: method, path: path, query: query, body: body}, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	var (
		reader      io.Reader
		contentType string
	)
	switch body := r.body.(type) {
	case nil:
	case *upload:
		buf, ct, err := body.encode()
		if err != nil {
			return err
		}
		reader, contentType = buf, ct
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("confluence: encode request: %w", err)
		}
		reader, contentType = bytes.NewReader(data), "application/json"
	}

	target := c.url(r.path, r.query)
	req, err := http.NewRequestWithContext(ctx, r.method, target, reader)
	if err != nil {
		return fmt.Errorf("confluence: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if _, ok := r.body.(*upload); ok {
		req.Header.Set("X-Atlassian-Token", "nocheck")
	}
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("confluence: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("confluence: read response: %w", err)
	}
	c.logger.Debug("confluence.request.completed",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"duration", time.Since(started),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("confluence: decode response: %w (body: %s)", err, truncate(data))
	}
	return nil
}

func remoteError(status int, body []byte) *interfaces.RemoteError {
	out := &interfaces.RemoteError{StatusCode: status, Body: body}
	var payload errorJSON
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		out.Message = payload.Message
	} else {
		out.Message = strings.TrimSpace(truncate(body))
	}
	return out
}

func retryable(err error) bool {
	var remote *interfaces.RemoteError
	if errors.As(err, &remote) {
		return remote.StatusCode == http.StatusTooManyRequests || remote.StatusCode >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func truncate(data []byte) string {
	if len(data) > maxBodyLog {
		return string(data[:maxBodyLog]) + "..."
	}
	return string(data)
}
