package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/marmos91/ipagw/internal/gateway/api/middleware"
	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/directory/directorytest"
	"github.com/marmos91/ipagw/pkg/provisioning"
	"github.com/marmos91/ipagw/pkg/session"
)

type fakePublisher struct {
	mu        sync.Mutex
	payloads  []string
	err       error
	probeErr  error
	available error
}

func (p *fakePublisher) Publish(_ context.Context, plaintext string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, plaintext)
	if p.err != nil {
		return "", p.err
	}
	return fmt.Sprintf("https://yopass.example.com/#/s/%d", len(p.payloads)), nil
}

func (p *fakePublisher) Probe(context.Context) error { return p.probeErr }

func (p *fakePublisher) Available() error { return p.available }

// strictDirectory fails mutations issued on a cancelled context.
type strictDirectory struct {
	directory.Directory
}

func (d strictDirectory) DeleteUser(ctx context.Context, uid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.Directory.DeleteUser(ctx, uid)
}

func (d strictDirectory) FindUsers(ctx context.Context, q directory.UserQuery, all bool) ([]directory.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.Directory.FindUsers(ctx, q, all)
}

// fixture is a logged-in operator backed by an in-memory directory.
type fixture struct {
	dir   *directorytest.Fake
	pub   *fakePublisher
	sess  *session.Session
	users *UserHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := directorytest.New()
	pub := &fakePublisher{}
	return &fixture{
		dir:   dir,
		pub:   pub,
		sess:  &session.Session{Token: "tok", Identity: "admin", Conn: dir},
		users: NewUserHandler(provisioning.NewEngine(pub), 1<<20),
	}
}

type call struct {
	method      string
	target      string
	body        io.Reader
	contentType string
	params      map[string]string
	anonymous   bool
	gone        bool // client disconnected before the handler ran
}

// serve runs h as the router would: URL params in the route context and
// the session in the request context.
func (f *fixture) serve(t *testing.T, h http.HandlerFunc, c call) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(c.method, c.target, c.body)
	if c.contentType != "" {
		req.Header.Set("Content-Type", c.contentType)
	}

	rctx := chi.NewRouteContext()
	for k, v := range c.params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if !c.anonymous {
		ctx = middleware.WithSession(ctx, f.sess)
	}

	if c.gone {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		cancel()
	}

	rr := httptest.NewRecorder()
	h(rr, req.WithContext(ctx))
	return rr
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

// workbookUpload builds a multipart body whose "file" field holds an xlsx
// document with a header row followed by rows.
func workbookUpload(t *testing.T, rows ...[]any) (io.Reader, string) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	all := append([][]any{{"Full name", "Email", "Phone", "Title", "Groups"}}, rows...)
	for i, row := range all {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &row))
	}
	data, err := f.WriteToBuffer()
	require.NoError(t, err)

	return multipartFile(t, "file", "users.xlsx", data.Bytes())
}

func multipartFile(t *testing.T, field, name string, content []byte) (io.Reader, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}
