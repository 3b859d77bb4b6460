// Package provisioning applies account operations to many users at once.
//
// Bulk calls never abort on a single item: every identifier or spreadsheet
// row gets its own outcome. The only global failure is the secret-link
// pre-flight of CreateFromWorkbook, which runs before any directory change.
package provisioning

import (
	"context"
	"sync"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/secretlink"
)

// Publisher turns credentials into one-time links.
type Publisher interface {
	Publish(ctx context.Context, plaintext string) (string, error)
	Probe(ctx context.Context) error
}

// Metrics receives bulk observations. A nil Metrics is valid.
type Metrics interface {
	RecordRun(operation string)
	RecordItem(operation, outcome string)
}

// Operation names used for logging and metrics besides the Actions.
const (
	OpValidate    = "validate_workbook"
	OpCreateSheet = "create_workbook"
	OpCreate      = "create"
)

// Engine runs provisioning operations against the directory connection of
// the calling session. It holds no per-session state.
type Engine struct {
	publisher Publisher
	metrics   Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine returns an Engine publishing links through p.
func NewEngine(p Publisher, opts ...Option) *Engine {
	e := &Engine{publisher: p}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) recordRun(op string) {
	if e.metrics != nil {
		e.metrics.RecordRun(op)
	}
}

func (e *Engine) recordItem(op, outcome string) {
	if e.metrics != nil {
		e.metrics.RecordItem(op, outcome)
	}
}

// publishCredentials returns the link, or the reason no link was made.
// The credential is already committed, so a failure is reported, not
// returned.
func (e *Engine) publishCredentials(ctx context.Context, username, password string) (link, linkErr string) {
	link, err := e.publisher.Publish(ctx, secretlink.Credentials(username, password))
	if err != nil {
		logger.WarnCtx(ctx, "Credentials committed without secret link", logger.Username(username), logger.Err(err))
		return "", err.Error()
	}
	return link, ""
}

// addGroups adds uid to every group independently.
func addGroups(ctx context.Context, dir directory.Directory, uid string, groups []string) *GroupOutcome {
	out := &GroupOutcome{Added: []string{}, Failed: []GroupFailure{}}
	for _, g := range groups {
		if err := dir.AddGroupMember(ctx, g, uid); err != nil {
			logger.WarnCtx(ctx, "Group membership failed", logger.Username(uid), logger.Group(g), logger.Err(err))
			out.Failed = append(out.Failed, GroupFailure{Group: g, Error: err.Error()})
			continue
		}
		out.Added = append(out.Added, g)
	}
	return out
}

// groupCache remembers group probes for the duration of one run.
type groupCache struct {
	dir    directory.Directory
	mu     sync.Mutex
	probes map[string]directory.GroupProbe
}

func newGroupCache(dir directory.Directory) *groupCache {
	return &groupCache{dir: dir, probes: make(map[string]directory.GroupProbe)}
}

func (c *groupCache) probe(ctx context.Context, name string) directory.GroupProbe {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.probes[name]; ok {
		return p
	}
	p := c.dir.ProbeGroup(ctx, name)
	c.probes[name] = p
	return p
}
