// Package directorytest provides an in-memory directory.Directory for tests.
package directorytest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/marmos91/ipagw/pkg/directory"
)

// Call records one operation made against the fake.
type Call struct {
	Method string
	Arg    string
}

// Fake is an in-memory directory. Users are kept in insertion order so
// FindUsers results are deterministic. Failures are injected per method
// and argument with FailOn.
type Fake struct {
	mu       sync.Mutex
	users    []*directory.User
	groups   map[string]*directory.Group
	failures map[Call]error
	calls    []Call
	closed   bool
	seq      int
}

// New returns an empty fake directory.
func New() *Fake {
	return &Fake{
		groups:   make(map[string]*directory.Group),
		failures: make(map[Call]error),
	}
}

var _ directory.Directory = (*Fake)(nil)

// mutating lists the methods that change directory state.
var mutating = []string{
	"user_add", "user_del", "user_enable", "user_disable", "user_mod", "group_add_member",
}

// SeedUser adds a user without recording a call.
func (f *Fake) SeedUser(u directory.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := u
	f.users = append(f.users, &cp)
}

// SeedGroup adds groups without recording a call.
func (f *Fake) SeedGroup(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		f.groups[n] = &directory.Group{Name: n}
	}
}

// FailOn makes method fail with err. An empty arg matches every argument.
func (f *Fake) FailOn(method, arg string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[Call{Method: method, Arg: arg}] = err
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsTo returns the arguments of every call to method.
func (f *Fake) CallsTo(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c.Arg)
		}
	}
	return out
}

// Mutations counts attempted state-changing calls, failed ones included.
func (f *Fake) Mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if slices.Contains(mutating, c.Method) {
			n++
		}
	}
	return n
}

// User returns a copy of the stored user.
func (f *Fake) User(uid string) (directory.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.find(uid); u != nil {
		return *u, true
	}
	return directory.User{}, false
}

// Members returns the members of a group.
func (f *Fake) Members(group string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.groups[group]; ok {
		return slices.Clone(g.Members)
	}
	return nil
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// record logs the call and returns the injected failure, if any. Callers
// hold f.mu.
func (f *Fake) record(method, arg string) error {
	if f.closed {
		return directory.ErrClosed
	}
	f.calls = append(f.calls, Call{Method: method, Arg: arg})
	if err, ok := f.failures[Call{Method: method, Arg: arg}]; ok {
		return err
	}
	if err, ok := f.failures[Call{Method: method}]; ok {
		return err
	}
	return nil
}

func (f *Fake) find(uid string) *directory.User {
	for _, u := range f.users {
		if u.UID == uid {
			return u
		}
	}
	return nil
}

func userNotFound(uid string) error {
	return &directory.RemoteError{
		Code:    directory.CodeNotFound,
		Name:    "NotFound",
		Message: fmt.Sprintf("%s: user not found", uid),
	}
}

func (f *Fake) nextPassword() string {
	f.seq++
	return fmt.Sprintf("Pw-%04d", f.seq)
}

func (f *Fake) ShowUser(_ context.Context, uid string, _ bool) (*directory.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("user_show", uid); err != nil {
		return nil, err
	}
	u := f.find(uid)
	if u == nil {
		return nil, userNotFound(uid)
	}
	cp := *u
	return &cp, nil
}

func (f *Fake) FindUsers(_ context.Context, q directory.UserQuery, _ bool) ([]directory.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("user_find", q.Mail+q.UID); err != nil {
		return nil, err
	}

	var out []directory.User
	for _, u := range f.users {
		if q.UID != "" && u.UID != q.UID {
			continue
		}
		if q.Mail != "" && !slices.ContainsFunc(u.Mail, func(m string) bool { return strings.EqualFold(m, q.Mail) }) {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (f *Fake) AddUser(_ context.Context, uid string, nu directory.NewUser) (*directory.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("user_add", uid); err != nil {
		return nil, err
	}
	if f.find(uid) != nil {
		return nil, &directory.RemoteError{
			Code:    directory.CodeDuplicateEntry,
			Name:    "DuplicateEntry",
			Message: fmt.Sprintf("user with name %q already exists", uid),
		}
	}

	u := &directory.User{
		UID:        uid,
		GivenName:  nu.GivenName,
		Surname:    nu.Surname,
		CommonName: nu.CommonName,
		Mail:       []string{nu.Mail},
		Groups:     []string{"ipausers"},
	}
	if nu.Title != nil {
		u.Title = *nu.Title
	}
	if nu.Phone != nil {
		u.Phone = []string{*nu.Phone}
	}
	f.users = append(f.users, u)

	cp := *u
	cp.RandomPassword = f.nextPassword()
	return &cp, nil
}

func (f *Fake) DeleteUser(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("user_del", uid); err != nil {
		return err
	}
	idx := slices.IndexFunc(f.users, func(u *directory.User) bool { return u.UID == uid })
	if idx < 0 {
		return userNotFound(uid)
	}
	f.users = slices.Delete(f.users, idx, idx+1)
	for _, g := range f.groups {
		g.Members = slices.DeleteFunc(g.Members, func(m string) bool { return m == uid })
	}
	return nil
}

func (f *Fake) setDisabled(method, uid string, disabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(method, uid); err != nil {
		return err
	}
	u := f.find(uid)
	if u == nil {
		return userNotFound(uid)
	}
	u.Disabled = disabled
	return nil
}

func (f *Fake) EnableUser(_ context.Context, uid string) error {
	return f.setDisabled("user_enable", uid, false)
}

func (f *Fake) DisableUser(_ context.Context, uid string) error {
	return f.setDisabled("user_disable", uid, true)
}

func (f *Fake) ModifyUser(_ context.Context, uid string, ch directory.UserChanges) (*directory.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("user_mod", uid); err != nil {
		return nil, err
	}
	u := f.find(uid)
	if u == nil {
		return nil, userNotFound(uid)
	}
	if ch.Mail != nil {
		u.Mail = []string{*ch.Mail}
	}
	if ch.Title != nil {
		u.Title = *ch.Title
	}
	if ch.Phone != nil {
		u.Phone = []string{*ch.Phone}
	}

	cp := *u
	if ch.RandomPassword {
		cp.RandomPassword = f.nextPassword()
	}
	return &cp, nil
}

func (f *Fake) ResetPassword(ctx context.Context, uid string) (*directory.User, error) {
	return f.ModifyUser(ctx, uid, directory.UserChanges{RandomPassword: true})
}

func (f *Fake) AddGroupMember(_ context.Context, group, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("group_add_member", group); err != nil {
		return err
	}
	g, ok := f.groups[group]
	if !ok {
		return &directory.RemoteError{
			Code:    directory.CodeNotFound,
			Name:    "NotFound",
			Message: fmt.Sprintf("%s: group not found", group),
		}
	}
	u := f.find(uid)
	if u == nil {
		return &directory.MemberError{Group: group, Member: uid, Reason: "no such entry"}
	}
	if slices.Contains(g.Members, uid) {
		return &directory.MemberError{Group: group, Member: uid, Reason: "This entry is already a member"}
	}
	g.Members = append(g.Members, uid)
	u.Groups = append(u.Groups, group)
	return nil
}

func (f *Fake) ShowGroup(_ context.Context, name string) (*directory.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("group_show", name); err != nil {
		return nil, err
	}
	g, ok := f.groups[name]
	if !ok {
		return nil, &directory.RemoteError{
			Code:    directory.CodeNotFound,
			Name:    "NotFound",
			Message: fmt.Sprintf("%s: group not found", name),
		}
	}
	cp := *g
	cp.Members = slices.Clone(g.Members)
	return &cp, nil
}

func (f *Fake) ProbeGroup(ctx context.Context, name string) directory.GroupProbe {
	_, err := f.ShowGroup(ctx, name)
	return directory.ProbeResult(err)
}

func (f *Fake) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
