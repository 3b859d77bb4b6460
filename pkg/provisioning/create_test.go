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

func ivan(groups ...string) NewAccount {
	return NewAccount{
		GivenName: "Ivan",
		Surname:   "Ivanov",
		Email:     "ivan@x.com",
		Title:     strPtr("Engineer"),
		Groups:    groups,
	}
}

func TestCreateUser_NoGroups(t *testing.T) {
	dir := directorytest.New()
	pub := &fakePublisher{}
	engine := NewEngine(pub)

	acct, err := engine.CreateUser(context.Background(), dir, ivan())
	require.NoError(t, err)

	assert.Equal(t, "ivan.ivanov", acct.Username)
	assert.Equal(t, "Ivan Ivanov", acct.FullName)
	assert.Equal(t, "ivan@x.com", acct.Email)
	assert.Equal(t, "Pw-0001", acct.Password)
	assert.Equal(t, "https://secrets.example.com/#/s/1", acct.SecretLink)
	assert.Nil(t, acct.Groups)

	u, ok := dir.User("ivan.ivanov")
	require.True(t, ok)
	assert.Equal(t, "Ivan Ivanov", u.CommonName)
	assert.Equal(t, "Engineer", u.Title)
	assert.Nil(t, u.Phone)
	assert.Equal(t, []string{"ivan.ivanov\nPw-0001"}, pub.published())
}

func TestCreateUser_PartialGroups(t *testing.T) {
	dir := directorytest.New()
	dir.SeedGroup("g1")
	engine := NewEngine(&fakePublisher{})

	acct, err := engine.CreateUser(context.Background(), dir, ivan("g1", "g2"))
	require.NoError(t, err)

	require.NotNil(t, acct.Groups)
	assert.Equal(t, []string{"g1"}, acct.Groups.Added)
	require.Len(t, acct.Groups.Failed, 1)
	assert.Equal(t, "g2", acct.Groups.Failed[0].Group)
	assert.Contains(t, acct.Groups.Failed[0].Error, "group not found")

	_, ok := dir.User("ivan.ivanov")
	assert.True(t, ok)
	assert.Empty(t, dir.CallsTo("user_del"))
}

func TestCreateUser_RollsBackWhenNoGroupAccepts(t *testing.T) {
	dir := directorytest.New()
	pub := &fakePublisher{}
	engine := NewEngine(pub)

	acct, err := engine.CreateUser(context.Background(), dir, ivan("g1"))
	require.Error(t, err)
	assert.Nil(t, acct)

	var rb *RollbackError
	require.ErrorAs(t, err, &rb)
	assert.Equal(t, "ivan.ivanov", rb.Username)
	require.Len(t, rb.Failed, 1)
	assert.Equal(t, "g1", rb.Failed[0].Group)
	assert.NoError(t, rb.DeleteErr)
	assert.Contains(t, err.Error(), "the user was removed")

	_, ok := dir.User("ivan.ivanov")
	assert.False(t, ok)
	assert.Equal(t, []string{"ivan.ivanov"}, dir.CallsTo("user_del"))
	assert.Empty(t, pub.published(), "no link is published for a removed user")
}

func TestCreateUser_RollbackDeleteFails(t *testing.T) {
	dir := directorytest.New()
	dir.FailOn("user_del", "", errors.New("permission denied"))
	engine := NewEngine(&fakePublisher{})

	_, err := engine.CreateUser(context.Background(), dir, ivan("g1"))

	var rb *RollbackError
	require.ErrorAs(t, err, &rb)
	require.Error(t, rb.DeleteErr)
	assert.Contains(t, err.Error(), "permission denied")

	_, ok := dir.User("ivan.ivanov")
	assert.True(t, ok)
}

func TestCreateUser_TransliteratesName(t *testing.T) {
	dir := directorytest.New()
	engine := NewEngine(&fakePublisher{})

	acct, err := engine.CreateUser(context.Background(), dir, NewAccount{
		GivenName: "Пётр",
		Surname:   "Щукин",
		Email:     "petr@x.com",
		Phone:     strPtr("+7 900 000 00 00"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Пётр Щукин", acct.FullName)
	u, ok := dir.User(acct.Username)
	require.True(t, ok)
	assert.Equal(t, "Пётр", u.GivenName)
	assert.Equal(t, []string{"+7 900 000 00 00"}, u.Phone)
}

func TestCreateUser_Invalid(t *testing.T) {
	tests := []struct {
		name string
		acct NewAccount
	}{
		{"missing email", NewAccount{GivenName: "Ivan", Surname: "Ivanov"}},
		{"missing names", NewAccount{Email: "ivan@x.com"}},
		{"bad email", NewAccount{GivenName: "Ivan", Surname: "Ivanov", Email: "ivan@"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := directorytest.New()
			engine := NewEngine(&fakePublisher{})

			_, err := engine.CreateUser(context.Background(), dir, tt.acct)
			assert.ErrorIs(t, err, ErrInvalidAccount)
			assert.Empty(t, dir.Calls())
		})
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	dir := directorytest.New()
	dir.SeedUser(directory.User{UID: "ivan.ivanov"})
	engine := NewEngine(&fakePublisher{})

	_, err := engine.CreateUser(context.Background(), dir, ivan())
	require.Error(t, err)

	var remote *directory.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, directory.CodeDuplicateEntry, remote.Code)
}

func TestCreateUser_LinkFailureKeepsUser(t *testing.T) {
	dir := directorytest.New()
	m := newRecordingMetrics()
	engine := NewEngine(&fakePublisher{err: errors.New("yopass: exit status 2")}, WithMetrics(m))

	acct, err := engine.CreateUser(context.Background(), dir, ivan())
	require.NoError(t, err)

	assert.Empty(t, acct.SecretLink)
	assert.Contains(t, acct.LinkError, "exit status 2")
	_, ok := dir.User("ivan.ivanov")
	assert.True(t, ok)
	assert.Equal(t, 1, m.items["create/success"])
}

func TestCreateUser_CallerCancellationAfterAdd(t *testing.T) {
	fake := directorytest.New()
	fake.SeedGroup("g1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub := &fakePublisher{}
	engine := NewEngine(pub)

	acct, err := engine.CreateUser(ctx, &cancellingDirectory{Directory: fake, cancel: cancel}, ivan("g1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"g1"}, acct.Groups.Added)
	assert.NotEmpty(t, acct.SecretLink)
	assert.Equal(t, []string{"ivan.ivanov"}, fake.Members("g1"))
	assert.Empty(t, fake.CallsTo("user_del"))
}
