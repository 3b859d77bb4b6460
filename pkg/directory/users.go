package directory

import (
	"context"
	"fmt"
)

// ShowUser returns one user (user_show). With all set, every attribute the
// server exposes is requested.
func (c *Client) ShowUser(ctx context.Context, uid string, all bool) (*User, error) {
	res, err := c.call(ctx, "user_show", []any{uid}, map[string]any{"all": all})
	if err != nil {
		return nil, err
	}
	return decodeUser(res)
}

// FindUsers lists users matching q (user_find). The server-side size limit
// is disabled so the result is never truncated.
func (c *Client) FindUsers(ctx context.Context, q UserQuery, all bool) ([]User, error) {
	opts := map[string]any{"all": all, "sizelimit": 0}
	if q.Mail != "" {
		opts["mail"] = q.Mail
	}
	if q.UID != "" {
		opts["uid"] = q.UID
	}

	res, err := c.call(ctx, "user_find", nil, opts)
	if err != nil {
		return nil, err
	}

	entries, err := decodeEntries(res.Result)
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(entries))
	for _, e := range entries {
		users = append(users, e.user())
	}
	return users, nil
}

// AddUser creates a user with a server-generated password (user_add). The
// returned user carries the password in RandomPassword.
func (c *Client) AddUser(ctx context.Context, uid string, u NewUser) (*User, error) {
	opts := map[string]any{
		"givenname": u.GivenName,
		"sn":        u.Surname,
		"cn":        u.CommonName,
		"mail":      u.Mail,
		"random":    true,
	}
	if u.Title != nil {
		opts["title"] = *u.Title
	}
	if u.Phone != nil {
		opts["telephonenumber"] = *u.Phone
	}

	res, err := c.call(ctx, "user_add", []any{uid}, opts)
	if err != nil {
		return nil, err
	}
	user, err := decodeUser(res)
	if err != nil {
		return nil, err
	}
	if user.RandomPassword == "" {
		return nil, fmt.Errorf("user_add for %s returned no password", uid)
	}
	return user, nil
}

// DeleteUser removes a user (user_del).
func (c *Client) DeleteUser(ctx context.Context, uid string) error {
	_, err := c.call(ctx, "user_del", []any{uid}, nil)
	return err
}

// EnableUser unlocks a user account (user_enable).
func (c *Client) EnableUser(ctx context.Context, uid string) error {
	_, err := c.call(ctx, "user_enable", []any{uid}, nil)
	return err
}

// DisableUser locks a user account (user_disable).
func (c *Client) DisableUser(ctx context.Context, uid string) error {
	_, err := c.call(ctx, "user_disable", []any{uid}, nil)
	return err
}

// ModifyUser applies ch to a user (user_mod).
func (c *Client) ModifyUser(ctx context.Context, uid string, ch UserChanges) (*User, error) {
	if ch.empty() {
		return nil, fmt.Errorf("no changes requested for %s", uid)
	}

	opts := map[string]any{}
	if ch.RandomPassword {
		opts["random"] = true
	}
	if ch.Mail != nil {
		opts["mail"] = *ch.Mail
	}
	if ch.Title != nil {
		opts["title"] = *ch.Title
	}
	if ch.Phone != nil {
		opts["telephonenumber"] = *ch.Phone
	}

	res, err := c.call(ctx, "user_mod", []any{uid}, opts)
	if err != nil {
		return nil, err
	}
	return decodeUser(res)
}

// ResetPassword replaces the user's password with a generated one. The new
// password is in RandomPassword and is already expired, so the user must
// change it on first login.
func (c *Client) ResetPassword(ctx context.Context, uid string) (*User, error) {
	user, err := c.ModifyUser(ctx, uid, UserChanges{RandomPassword: true})
	if err != nil {
		return nil, err
	}
	if user.RandomPassword == "" {
		return nil, fmt.Errorf("password reset for %s returned no password", uid)
	}
	return user, nil
}

func decodeUser(res *rpcResult) (*User, error) {
	e, err := decodeEntry(res.Result)
	if err != nil {
		return nil, err
	}
	u := e.user()
	return &u, nil
}
