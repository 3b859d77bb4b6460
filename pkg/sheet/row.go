// Package sheet reads provisioning rows from spreadsheet workbooks.
//
// A provisioning sheet has a header row followed by one account per row in
// fixed column order:
//
//	A: full name   B: email   C: phone   D: title   E: groups (comma separated)
package sheet

import "strings"

// Column positions within a provisioning row.
const (
	ColFullName = iota
	ColEmail
	ColPhone
	ColTitle
	ColGroups
)

// Record is the fixed-shape content of one provisioning row.
type Record struct {
	FullName string
	Email    string
	Phone    *string // nil when blank
	Title    *string // nil when blank
	Groups   []string
}

// ParseRow extracts a Record from the cells of one row. Missing trailing
// cells are treated as blank. Every value is trimmed.
func ParseRow(cells []string) Record {
	return Record{
		FullName: cell(cells, ColFullName),
		Email:    cell(cells, ColEmail),
		Phone:    optional(cell(cells, ColPhone)),
		Title:    optional(cell(cells, ColTitle)),
		Groups:   ParseGroups(cell(cells, ColGroups)),
	}
}

// ParseGroups splits a comma separated group list, trimming each name and
// dropping empty entries. A blank list yields an empty, non-nil slice.
func ParseGroups(s string) []string {
	groups := make([]string, 0)
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
