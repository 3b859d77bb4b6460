// Package directory is a typed client for the FreeIPA JSON-RPC API.
//
// A Connector authenticates an operator with username and password and
// returns a Client bound to the resulting FreeIPA session cookie. Each
// Client owns its own cookie jar and connection pool, so one operator's
// session is never shared with another.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/internal/telemetry"
)

const (
	loginPath = "/ipa/session/login_password"
	rpcPath   = "/ipa/session/json"

	// maxErrorBody bounds how much of a non-JSON error body is kept.
	maxErrorBody = 512
)

// Metrics receives directory call observations. A nil Metrics is valid.
type Metrics interface {
	ObserveCall(method string, duration time.Duration, err error)
	RecordLogin(success bool)
}

// Client is an authenticated FreeIPA session. It is safe for concurrent use.
type Client struct {
	baseURL    string
	host       string
	apiVersion string
	principal  string
	httpClient *http.Client
	transport  *http.Transport
	metrics    Metrics
	closed     atomic.Bool
}

var _ Directory = (*Client)(nil)

// Principal returns the identity the client authenticated as.
func (c *Client) Principal() string {
	return c.principal
}

// call issues one JSON-RPC request and returns its result envelope.
func (c *Client) call(ctx context.Context, method string, args []any, options map[string]any) (*rpcResult, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return c.do(ctx, method, args, options)
}

func (c *Client) do(ctx context.Context, method string, args []any, options map[string]any) (res *rpcResult, err error) {
	ctx, span := telemetry.StartDirectorySpan(ctx, method, c.host)
	defer span.End()

	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveCall(method, time.Since(start), err)
		}
		if err != nil {
			telemetry.RecordError(ctx, err)
			logger.DebugCtx(ctx, "Directory call failed",
				logger.KeyMethod, method, logger.DurationMs(start), logger.Err(err))
			return
		}
		logger.DebugCtx(ctx, "Directory call", logger.KeyMethod, method, logger.DurationMs(start))
	}()

	if args == nil {
		args = []any{}
	}
	if options == nil {
		options = map[string]any{}
	}
	if c.apiVersion != "" {
		options["version"] = c.apiVersion
	}

	body, err := json.Marshal(rpcRequest{Method: method, Params: [2]any{args, options}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+rpcPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", c.baseURL+"/ipa")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: directory session is no longer valid", ErrAuthFailed)
	}
	if resp.StatusCode >= 400 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(respBody)}
	}

	var envelope rpcResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}
	if envelope.Result == nil {
		return nil, fmt.Errorf("%s response has no result", method)
	}

	return envelope.Result, nil
}

// Close ends the FreeIPA session. Later calls return ErrClosed. Logout is
// best effort: its error is returned but the client is closed regardless.
func (c *Client) Close(ctx context.Context) error {
	if c.closed.Swap(true) {
		return nil
	}
	defer c.transport.CloseIdleConnections()

	if _, err := c.do(ctx, "session_logout", nil, nil); err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) || errors.Is(err, ErrAuthFailed) {
			return nil
		}
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

func truncate(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
