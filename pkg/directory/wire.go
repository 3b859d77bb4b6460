package directory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FreeIPA encodes timestamps as {"__datetime__": "20060102150405Z"}.
const ipaTimeLayout = "20060102150405Z"

type rpcRequest struct {
	Method string `json:"method"`
	Params [2]any `json:"params"`
	ID     int    `json:"id"`
}

type rpcResponse struct {
	Result    *rpcResult   `json:"result"`
	Error     *RemoteError `json:"error"`
	Principal string       `json:"principal,omitempty"`
	Version   string       `json:"version,omitempty"`
}

type rpcResult struct {
	Result    json.RawMessage `json:"result"`
	Count     int             `json:"count"`
	Truncated bool            `json:"truncated"`
	Summary   *string         `json:"summary"`
	Completed *int            `json:"completed"`
	Failed    json.RawMessage `json:"failed"`
}

// entry is one raw LDAP-style object. Attribute values arrive as lists
// of strings in most cases, with a few scalar or tagged exceptions.
type entry map[string]json.RawMessage

func (e entry) strings(key string) []string {
	raw, ok := e[key]
	if !ok || len(raw) == 0 {
		return nil
	}

	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		var single any
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil
		}
		list = []any{single}
	}

	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := scalar(v); ok {
			out = append(out, s)
		}
	}
	return out
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func (e entry) first(key string) string {
	if vals := e.strings(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// flag decodes nsaccountlock, which is a bool on recent servers and
// ["TRUE"] on older ones.
func (e entry) flag(key string) bool {
	raw, ok := e[key]
	if !ok {
		return false
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b
	}
	return strings.EqualFold(e.first(key), "true")
}

func (e entry) datetime(key string) *time.Time {
	raw, ok := e[key]
	if !ok {
		return nil
	}

	type tagged struct {
		Value string `json:"__datetime__"`
	}
	var list []tagged
	if err := json.Unmarshal(raw, &list); err != nil {
		var one tagged
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil
		}
		list = []tagged{one}
	}
	if len(list) == 0 {
		return nil
	}

	t, err := time.Parse(ipaTimeLayout, list[0].Value)
	if err != nil {
		return nil
	}
	return &t
}

func (e entry) user() User {
	return User{
		UID:                e.first("uid"),
		GivenName:          e.first("givenname"),
		Surname:            e.first("sn"),
		CommonName:         e.first("cn"),
		DisplayName:        e.first("displayname"),
		Mail:               e.strings("mail"),
		Title:              e.first("title"),
		Phone:              e.strings("telephonenumber"),
		Groups:             e.strings("memberof_group"),
		PasswordExpiration: e.datetime("krbpasswordexpiration"),
		Disabled:           e.flag("nsaccountlock"),
		UIDNumber:          e.first("uidnumber"),
		GIDNumber:          e.first("gidnumber"),
		HomeDirectory:      e.first("homedirectory"),
		LoginShell:         e.first("loginshell"),
		Principal:          e.strings("krbprincipalname"),
		RandomPassword:     e.first("randompassword"),
	}
}

func (e entry) group() Group {
	return Group{
		Name:        e.first("cn"),
		Description: e.first("description"),
		GIDNumber:   e.first("gidnumber"),
		Members:     e.strings("member_user"),
	}
}

func decodeEntry(raw json.RawMessage) (entry, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("failed to decode directory entry: %w", err)
	}
	return e, nil
}

func decodeEntries(raw json.RawMessage) ([]entry, error) {
	var list []entry
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to decode directory entries: %w", err)
	}
	return list, nil
}

// memberFailures extracts the per-member rejections of a *_add_member
// result: {"member": {"user": [["uid", "reason"]], "group": []}}.
func memberFailures(raw json.RawMessage, kind string) map[string]string {
	if len(raw) == 0 {
		return nil
	}

	var failed map[string]map[string][][]string
	if err := json.Unmarshal(raw, &failed); err != nil {
		return nil
	}

	out := make(map[string]string)
	for _, pair := range failed["member"][kind] {
		switch len(pair) {
		case 0:
		case 1:
			out[pair[0]] = ""
		default:
			out[pair[0]] = pair[1]
		}
	}
	return out
}
