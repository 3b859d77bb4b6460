package directory

import (
	"context"
)

// ShowGroup returns one group (group_show).
func (c *Client) ShowGroup(ctx context.Context, name string) (*Group, error) {
	res, err := c.call(ctx, "group_show", []any{name}, nil)
	if err != nil {
		return nil, err
	}
	e, err := decodeEntry(res.Result)
	if err != nil {
		return nil, err
	}
	g := e.group()
	return &g, nil
}

// ProbeGroup reports whether a group exists. A failure other than NotFound
// is returned as GroupProbeFailed rather than treated as absence.
func (c *Client) ProbeGroup(ctx context.Context, name string) GroupProbe {
	_, err := c.ShowGroup(ctx, name)
	return ProbeResult(err)
}

// AddGroupMember adds a user to a group (group_add_member). FreeIPA reports
// a refused member inside a successful response; that case is returned as
// *MemberError.
func (c *Client) AddGroupMember(ctx context.Context, group, uid string) error {
	res, err := c.call(ctx, "group_add_member", []any{group}, map[string]any{"user": uid})
	if err != nil {
		return err
	}

	if reason, refused := memberFailures(res.Failed, "user")[uid]; refused {
		return &MemberError{Group: group, Member: uid, Reason: reason}
	}
	if res.Completed != nil && *res.Completed == 0 {
		return &MemberError{Group: group, Member: uid, Reason: "no members were added"}
	}
	return nil
}
