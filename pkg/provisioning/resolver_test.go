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

func TestResolve_UsernamePassesThrough(t *testing.T) {
	dir := directorytest.New()

	uid, err := Resolve(context.Background(), dir, "ghost.user")
	require.NoError(t, err)
	assert.Equal(t, "ghost.user", uid)
	assert.Empty(t, dir.Calls(), "a username must not be looked up")
}

func TestResolve_Email(t *testing.T) {
	dir := directorytest.New()
	dir.SeedUser(directory.User{UID: "ivan.ivanov", Mail: []string{"ivan@example.com"}})

	uid, err := Resolve(context.Background(), dir, "Ivan@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, "ivan.ivanov", uid)
	assert.Equal(t, []string{"ivan@example.com"}, dir.CallsTo("user_find"))
}

func TestResolve_FirstMatchWins(t *testing.T) {
	dir := directorytest.New()
	dir.SeedUser(directory.User{UID: "first", Mail: []string{"shared@example.com"}})
	dir.SeedUser(directory.User{UID: "second", Mail: []string{"shared@example.com"}})

	uid, err := Resolve(context.Background(), dir, "shared@example.com")
	require.NoError(t, err)
	assert.Equal(t, "first", uid)
}

func TestResolve_NoMatch(t *testing.T) {
	dir := directorytest.New()

	_, err := Resolve(context.Background(), dir, "bad@x.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIdentifierNotFound)
	assert.Contains(t, err.Error(), "bad@x.com")
}

func TestResolve_DirectoryError(t *testing.T) {
	dir := directorytest.New()
	dir.FailOn("user_find", "", errors.New("connection reset"))

	_, err := Resolve(context.Background(), dir, "a@x.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIdentifierNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"ivan@example.com", true},
		{"first.last+tag@sub.example.org", true},
		{"UPPER_CASE%x@Example.IO", true},
		{"", false},
		{"no-at-sign", false},
		{"user@nodot", false},
		{"user@example.c", false},
		{"user name@example.com", false},
		{"@example.com", false},
		{"user@example.123", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidEmail(tt.email))
		})
	}
}
