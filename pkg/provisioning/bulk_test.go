package provisioning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/directory/directorytest"
)

func seededDirectory() *directorytest.Fake {
	dir := directorytest.New()
	dir.SeedUser(directory.User{UID: "a", Mail: []string{"a@x.com"}})
	dir.SeedUser(directory.User{UID: "b", Mail: []string{"b@x.com"}})
	return dir
}

func TestApply_UnresolvedIdentifierDoesNotAbort(t *testing.T) {
	dir := seededDirectory()
	engine := NewEngine(&fakePublisher{})

	res, err := engine.Apply(context.Background(), dir, ActionDisable, []string{"a", "bad@x.com", "b"})
	require.NoError(t, err)

	require.Len(t, res.Success, 2)
	assert.Equal(t, "a", res.Success[0].Username)
	assert.Equal(t, "b", res.Success[1].Username)

	require.Len(t, res.Failed, 1)
	assert.Equal(t, "bad@x.com", res.Failed[0].Identifier)
	assert.Equal(t, KindNotFound, res.Failed[0].Kind)
	assert.Contains(t, res.Failed[0].Error, "bad@x.com")

	for _, uid := range []string{"a", "b"} {
		u, ok := dir.User(uid)
		require.True(t, ok)
		assert.True(t, u.Disabled, "%s should be disabled", uid)
	}
	assert.Equal(t, []string{"a", "b"}, dir.CallsTo("user_disable"))
}

func TestApply_ResolvesEmails(t *testing.T) {
	dir := seededDirectory()
	engine := NewEngine(&fakePublisher{})

	res, err := engine.Apply(context.Background(), dir, ActionDelete, []string{"B@X.com"})
	require.NoError(t, err)

	require.Len(t, res.Success, 1)
	assert.Equal(t, ItemSuccess{Identifier: "B@X.com", Username: "b"}, res.Success[0])
	_, ok := dir.User("b")
	assert.False(t, ok)
}

func TestApply_FailureKinds(t *testing.T) {
	dir := seededDirectory()
	dir.FailOn("user_enable", "b", errors.New("ldap unavailable"))
	engine := NewEngine(&fakePublisher{})

	res, err := engine.Apply(context.Background(), dir, ActionEnable, []string{"ghost", "b", "a"})
	require.NoError(t, err)

	require.Len(t, res.Success, 1)
	assert.Equal(t, "a", res.Success[0].Username)

	require.Len(t, res.Failed, 2)
	assert.Equal(t, "ghost", res.Failed[0].Username)
	assert.Equal(t, KindNotFound, res.Failed[0].Kind)
	assert.Equal(t, "b", res.Failed[1].Username)
	assert.Equal(t, KindDirectory, res.Failed[1].Kind)
	assert.Contains(t, res.Failed[1].Error, "ldap unavailable")
}

func TestApply_ResetPassword(t *testing.T) {
	dir := seededDirectory()
	pub := &fakePublisher{}
	engine := NewEngine(pub)

	res, err := engine.Apply(context.Background(), dir, ActionResetPassword, []string{"a"})
	require.NoError(t, err)
	require.Len(t, res.Success, 1)

	item := res.Success[0]
	assert.Equal(t, "Pw-0001", item.Password)
	assert.Equal(t, "https://secrets.example.com/#/s/1", item.SecretLink)
	assert.Empty(t, item.LinkError)
	assert.Equal(t, []string{"a\nPw-0001"}, pub.published())
}

func TestApply_ResetPasswordLinkFailureIsNotFatal(t *testing.T) {
	dir := seededDirectory()
	engine := NewEngine(&fakePublisher{err: errors.New("yopass exited with status 1")})

	res, err := engine.Apply(context.Background(), dir, ActionResetPassword, []string{"a", "b"})
	require.NoError(t, err)

	assert.Empty(t, res.Failed)
	require.Len(t, res.Success, 2)
	for _, item := range res.Success {
		assert.NotEmpty(t, item.Password)
		assert.Empty(t, item.SecretLink)
		assert.Contains(t, item.LinkError, "status 1")
	}
}

func TestApply_EmptyInput(t *testing.T) {
	engine := NewEngine(&fakePublisher{})

	res, err := engine.Apply(context.Background(), directorytest.New(), ActionDelete, nil)
	require.NoError(t, err)
	assert.NotNil(t, res.Success)
	assert.NotNil(t, res.Failed)
	assert.Empty(t, res.Success)
	assert.Empty(t, res.Failed)
}

func TestApply_UnknownAction(t *testing.T) {
	dir := seededDirectory()
	engine := NewEngine(&fakePublisher{})

	_, err := engine.Apply(context.Background(), dir, Action("purge"), []string{"a"})
	require.Error(t, err)
	assert.Empty(t, dir.Calls())
}

func TestApply_Metrics(t *testing.T) {
	dir := seededDirectory()
	m := newRecordingMetrics()
	engine := NewEngine(&fakePublisher{}, WithMetrics(m))

	_, err := engine.Apply(context.Background(), dir, ActionDelete, []string{"a", "ghost@x.com"})
	require.NoError(t, err)

	assert.Equal(t, 1, m.runs["delete"])
	assert.Equal(t, 1, m.items["delete/success"])
	assert.Equal(t, 1, m.items["delete/not_found"])
}

func TestApply_CallerCancellationDoesNotStopRun(t *testing.T) {
	fake := directorytest.New()
	for _, uid := range []string{"a", "b", "c"} {
		fake.SeedUser(directory.User{UID: uid})
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir := &cancellingDirectory{Directory: fake, cancel: cancel}
	engine := NewEngine(&fakePublisher{})

	res, err := engine.Apply(ctx, dir, ActionDelete, []string{"a", "b", "c"})
	require.NoError(t, err)

	require.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Empty(t, res.Failed)
	require.Len(t, res.Success, 3)
	assert.Equal(t, []string{"a", "b", "c"}, fake.CallsTo("user_del"))
}
