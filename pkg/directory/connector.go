package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/internal/telemetry"
)

// Connector opens authenticated FreeIPA sessions.
type Connector struct {
	cfg     Config
	baseURL string
	host    string
	metrics Metrics
}

// Option configures a Connector.
type Option func(*Connector)

// WithMetrics sets the metrics sink for every client the connector opens.
func WithMetrics(m Metrics) Option {
	return func(c *Connector) {
		c.metrics = m
	}
}

// NewConnector validates cfg and returns a Connector. An empty host is
// accepted here; Authenticate then fails with ErrAuthFailed.
func NewConnector(cfg Config, opts ...Option) (*Connector, error) {
	c := &Connector{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if strings.TrimSpace(cfg.Host) == "" {
		return c, nil
	}

	base, err := cfg.BaseURL()
	if err != nil {
		return nil, err
	}
	u, _ := url.Parse(base)
	c.baseURL = base
	c.host = u.Host

	if _, err := cfg.TLSConfig(); err != nil {
		return nil, err
	}
	return c, nil
}

// Host returns the configured directory host, or "" when unset.
func (c *Connector) Host() string {
	return c.host
}

// Authenticate logs in with a password and returns a Client bound to the
// new FreeIPA session. Any failure, including an unreachable server, wraps
// ErrAuthFailed.
func (c *Connector) Authenticate(ctx context.Context, username, password string) (*Client, error) {
	client, err := c.authenticate(ctx, username, password)
	if c.metrics != nil {
		c.metrics.RecordLogin(err == nil)
	}
	if err != nil {
		logger.WarnCtx(ctx, "Directory login failed", logger.Username(username), logger.Err(err))
		return nil, err
	}
	logger.DebugCtx(ctx, "Directory login succeeded", logger.Username(username), logger.KeyHost, c.host)
	return client, nil
}

// Open is Authenticate returning the Directory interface held by sessions.
func (c *Connector) Open(ctx context.Context, username, password string) (Directory, error) {
	client, err := c.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Connector) authenticate(ctx context.Context, username, password string) (*Client, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: %w", ErrAuthFailed, ErrNoHost)
	}

	ctx, span := telemetry.StartDirectorySpan(ctx, "login_password", c.host, telemetry.Username(username))
	defer span.End()

	tlsCfg, err := c.cfg.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSClientConfig = tlsCfg

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := &Client{
		baseURL:    c.baseURL,
		host:       c.host,
		apiVersion: c.cfg.APIVersion,
		principal:  username,
		transport:  transport,
		metrics:    c.metrics,
		httpClient: &http.Client{
			Transport: transport,
			Jar:       jar,
		},
	}

	form := url.Values{"user": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Referer", c.baseURL+"/ipa")

	start := time.Now()
	resp, err := client.httpClient.Do(req)
	if err != nil {
		transport.CloseIdleConnections()
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	logger.DebugCtx(ctx, "Directory login response",
		logger.KeyStatus, resp.StatusCode, logger.DurationMs(start))

	if resp.StatusCode != http.StatusOK {
		transport.CloseIdleConnections()
		reason := resp.Header.Get("X-IPA-Rejection-Reason")
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		err := fmt.Errorf("%w: %s", ErrAuthFailed, reason)
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	return client, nil
}
