package provisioning

import (
	"context"
	"fmt"
	"sync"

	"github.com/marmos91/ipagw/pkg/directory"
)

type fakePublisher struct {
	mu       sync.Mutex
	payloads []string
	probes   int
	err      error
	probeErr error
}

func (p *fakePublisher) Publish(_ context.Context, plaintext string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, plaintext)
	if p.err != nil {
		return "", p.err
	}
	return fmt.Sprintf("https://secrets.example.com/#/s/%d", len(p.payloads)), nil
}

func (p *fakePublisher) Probe(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probes++
	return p.probeErr
}

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.payloads...)
}

type recordingMetrics struct {
	mu    sync.Mutex
	runs  map[string]int
	items map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{runs: make(map[string]int), items: make(map[string]int)}
}

func (m *recordingMetrics) RecordRun(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[op]++
}

func (m *recordingMetrics) RecordItem(op, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[op+"/"+outcome]++
}

func strPtr(s string) *string {
	return &s
}

// cancellingDirectory cancels the caller's context after the first
// delete and fails every later call made on a cancelled context, the way
// the HTTP client does.
type cancellingDirectory struct {
	directory.Directory
	cancel context.CancelFunc
}

func (d *cancellingDirectory) ShowUser(ctx context.Context, uid string, all bool) (*directory.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.Directory.ShowUser(ctx, uid, all)
}

func (d *cancellingDirectory) FindUsers(ctx context.Context, q directory.UserQuery, all bool) ([]directory.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.Directory.FindUsers(ctx, q, all)
}

func (d *cancellingDirectory) AddUser(ctx context.Context, uid string, u directory.NewUser) (*directory.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := d.Directory.AddUser(ctx, uid, u)
	d.cancel()
	return out, err
}

func (d *cancellingDirectory) DeleteUser(ctx context.Context, uid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := d.Directory.DeleteUser(ctx, uid)
	d.cancel()
	return err
}

func (d *cancellingDirectory) AddGroupMember(ctx context.Context, group, uid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.Directory.AddGroupMember(ctx, group, uid)
}
