// Package secretlink publishes credentials as one-time links through the
// yopass command-line client.
package secretlink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/internal/telemetry"
)

// Defaults for the yopass invocation.
const (
	DefaultBinary     = "yopass"
	DefaultExpiration = "1w"

	// ProbePayload is published by Probe to check the tool end to end.
	ProbePayload = "test\ntest123"

	maxStderr = 1024
)

var (
	// ErrLinkUnavailable is returned when the tool cannot be started.
	ErrLinkUnavailable = errors.New("secret link tool unavailable")

	// ErrNotConfigured is returned when no service URL is configured.
	ErrNotConfigured = errors.New("secret link service URL is not configured")
)

// GenerationError is returned when the tool ran but produced no link.
type GenerationError struct {
	ExitCode int
	Stderr   string
}

func (e *GenerationError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if e.ExitCode == 0 {
		if msg == "" {
			msg = "empty output"
		}
		return "secret link generation failed: " + msg
	}
	if msg == "" {
		return fmt.Sprintf("secret link generation failed: exit status %d", e.ExitCode)
	}
	return fmt.Sprintf("secret link generation failed (exit status %d): %s", e.ExitCode, msg)
}

// Config holds the yopass client settings.
type Config struct {
	// Binary is the yopass executable name or path.
	Binary string `mapstructure:"binary" yaml:"binary" json:"binary" validate:"required"`

	// URL is the yopass server, used for both --api and --url.
	URL string `mapstructure:"url" yaml:"url" json:"url" validate:"required,url"`

	// Expiration is passed as --expiration (1h, 1d or 1w).
	Expiration string `mapstructure:"expiration" yaml:"expiration" json:"expiration" validate:"omitempty,oneof=1h 1d 1w"`

	// OneTime is passed as --one-time.
	OneTime *bool `mapstructure:"one_time" yaml:"one_time" json:"one_time"`
}

func (c Config) args() []string {
	exp := c.Expiration
	if exp == "" {
		exp = DefaultExpiration
	}
	oneTime := true
	if c.OneTime != nil {
		oneTime = *c.OneTime
	}
	return []string{
		"--api", c.URL,
		"--url", c.URL,
		"--expiration=" + exp,
		"--one-time=" + strconv.FormatBool(oneTime),
	}
}

// Metrics receives publish observations. A nil Metrics is valid.
type Metrics interface {
	ObservePublish(duration time.Duration, err error)
}

// Publisher runs the yopass client. It is safe for concurrent use; every
// call starts its own process.
type Publisher struct {
	cfg     Config
	metrics Metrics
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// NewPublisher returns a Publisher for cfg. An empty binary selects
// DefaultBinary.
func NewPublisher(cfg Config, opts ...Option) *Publisher {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	p := &Publisher{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Credentials formats the payload published for a generated password.
func Credentials(username, password string) string {
	return username + "\n" + password
}

// Publish stores plaintext and returns the one-time link printed by the tool.
func (p *Publisher) Publish(ctx context.Context, plaintext string) (link string, err error) {
	ctx, span := telemetry.StartSecretLinkSpan(ctx, p.cfg.Binary)
	defer span.End()

	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.ObservePublish(time.Since(start), err)
		}
		if err != nil {
			telemetry.RecordError(ctx, err)
			logger.WarnCtx(ctx, "Secret link generation failed", logger.DurationMs(start), logger.Err(err))
			return
		}
		logger.DebugCtx(ctx, "Secret link generated", logger.DurationMs(start))
	}()

	if p.cfg.URL == "" {
		return "", ErrNotConfigured
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.cfg.Binary, p.cfg.args()...)
	cmd.Stdin = strings.NewReader(plaintext)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			telemetry.SetAttributes(ctx, telemetry.LinkExitCode(exitErr.ExitCode()))
			return "", &GenerationError{ExitCode: exitErr.ExitCode(), Stderr: limit(stderr.String())}
		}
		return "", fmt.Errorf("%w: %w", ErrLinkUnavailable, err)
	}

	link = strings.TrimSpace(stdout.String())
	if link == "" {
		return "", &GenerationError{Stderr: limit(stderr.String())}
	}
	return link, nil
}

// Probe publishes a fixed payload to check that links can be generated.
func (p *Publisher) Probe(ctx context.Context) error {
	_, err := p.Publish(ctx, ProbePayload)
	return err
}

// Available checks that the binary can be found and a URL is configured.
// It does not contact the service.
func (p *Publisher) Available() error {
	if p.cfg.URL == "" {
		return ErrNotConfigured
	}
	if _, err := exec.LookPath(p.cfg.Binary); err != nil {
		return fmt.Errorf("%w: %w", ErrLinkUnavailable, err)
	}
	return nil
}

func limit(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		return s[:maxStderr]
	}
	return s
}
