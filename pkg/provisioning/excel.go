package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/internal/telemetry"
	"github.com/marmos91/ipagw/internal/translit"
	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/sheet"
)

// ErrPreflightFailed is returned by CreateFromWorkbook when secret links
// cannot be generated. No directory change has been made.
var ErrPreflightFailed = errors.New("secret link pre-flight failed")

// ConflictKind tags why a spreadsheet row was rejected.
type ConflictKind string

const (
	ConflictMissingFullName ConflictKind = "missing_full_name"
	ConflictMissingEmail    ConflictKind = "missing_email"
	ConflictInvalidEmail    ConflictKind = "invalid_email"
	ConflictDuplicateEmail  ConflictKind = "duplicate_email"
	ConflictMalformedName   ConflictKind = "malformed_name"
	ConflictExists          ConflictKind = "already_exists"
	ConflictMissingGroups   ConflictKind = "missing_groups"
	ConflictGroupCheck      ConflictKind = "group_check_failed"
	ConflictDirectory       ConflictKind = "directory"
)

// Conflict is a row that cannot be created.
type Conflict struct {
	Row      int          `json:"row"`
	FullName string       `json:"full_name,omitempty"`
	Username string       `json:"username,omitempty"`
	Email    string       `json:"email,omitempty"`
	Kind     ConflictKind `json:"kind"`
	Error    string       `json:"error"`
}

// Warning flags a row that can be created but is incomplete.
type Warning struct {
	Row      int    `json:"row"`
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ValidationReport is the dry-run result of ValidateWorkbook.
type ValidationReport struct {
	Valid          bool       `json:"valid"`
	TotalRows      int        `json:"total_rows"`
	WouldCreate    int        `json:"would_create"`
	ConflictsCount int        `json:"conflicts_count"`
	WarningsCount  int        `json:"warnings_count"`
	Conflicts      []Conflict `json:"conflicts"`
	Warnings       []Warning  `json:"warnings"`
}

// CreatedRow is a row whose user was created.
type CreatedRow struct {
	Row        int           `json:"row"`
	FullName   string        `json:"full_name"`
	Username   string        `json:"username"`
	Email      string        `json:"email"`
	Password   string        `json:"password"`
	SecretLink string        `json:"secret_link,omitempty"`
	LinkError  string        `json:"link_error,omitempty"`
	Groups     *GroupOutcome `json:"groups,omitempty"`
}

// CreationReport is the result of CreateFromWorkbook.
type CreationReport struct {
	Success []CreatedRow `json:"success"`
	Failed  []Conflict   `json:"failed"`
}

// snapshot is the set of existing usernames and lower-cased emails,
// fetched once per run.
type snapshot struct {
	usernames map[string]struct{}
	emails    map[string]struct{}
}

func loadSnapshot(ctx context.Context, dir directory.Directory) (*snapshot, error) {
	users, err := dir.FindUsers(ctx, directory.UserQuery{}, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing users: %w", err)
	}

	s := &snapshot{
		usernames: make(map[string]struct{}, len(users)),
		emails:    make(map[string]struct{}, len(users)),
	}
	for _, u := range users {
		s.add(u.UID, u.PrimaryMail())
	}
	return s, nil
}

func (s *snapshot) add(username, email string) {
	if username != "" {
		s.usernames[username] = struct{}{}
	}
	if email != "" {
		s.emails[strings.ToLower(email)] = struct{}{}
	}
}

// candidate is a row that passed every check.
type candidate struct {
	row    int
	record sheet.Record
	name   translit.Name
}

// rowChecker applies the per-row checks of one run in row order.
type rowChecker struct {
	dir        directory.Directory
	existing   *snapshot
	groups     *groupCache
	seenEmails map[string]int
}

func newRowChecker(dir directory.Directory, existing *snapshot) *rowChecker {
	return &rowChecker{
		dir:        dir,
		existing:   existing,
		groups:     newGroupCache(dir),
		seenEmails: make(map[string]int),
	}
}

// check runs the checks in order and stops at the first failing one,
// except that the username and email existence checks are reported
// together.
func (c *rowChecker) check(ctx context.Context, row sheet.Row) (*candidate, *Conflict) {
	rec := row.Record()
	conflict := func(kind ConflictKind, msg string) *Conflict {
		return &Conflict{Row: row.Number, FullName: rec.FullName, Kind: kind, Error: msg}
	}

	if rec.FullName == "" {
		return nil, conflict(ConflictMissingFullName, "full name is empty")
	}
	if rec.Email == "" {
		return nil, conflict(ConflictMissingEmail, "email is empty")
	}
	if !ValidEmail(rec.Email) {
		return nil, conflict(ConflictInvalidEmail, fmt.Sprintf("invalid email: %s", rec.Email))
	}

	emailKey := strings.ToLower(rec.Email)
	if first, dup := c.seenEmails[emailKey]; dup {
		return nil, conflict(ConflictDuplicateEmail,
			fmt.Sprintf("duplicate email %s (already in row %d)", rec.Email, first))
	}
	c.seenEmails[emailKey] = row.Number

	name, err := translit.GenerateUsername(rec.FullName)
	if err != nil {
		return nil, conflict(ConflictMalformedName, "full name must contain at least a surname and a given name")
	}

	var exists []string
	if _, ok := c.existing.usernames[name.Username]; ok {
		exists = append(exists, fmt.Sprintf("username '%s' already exists in the directory", name.Username))
	}
	if _, ok := c.existing.emails[emailKey]; ok {
		exists = append(exists, fmt.Sprintf("email '%s' already exists in the directory", rec.Email))
	}
	if len(exists) > 0 {
		cf := conflict(ConflictExists, strings.Join(exists, "; "))
		cf.Username = name.Username
		cf.Email = rec.Email
		return nil, cf
	}

	if cf := c.checkGroups(ctx, rec.Groups); cf != nil {
		cf.Row = row.Number
		cf.FullName = rec.FullName
		cf.Username = name.Username
		return nil, cf
	}

	return &candidate{row: row.Number, record: rec, name: name}, nil
}

func (c *rowChecker) checkGroups(ctx context.Context, groups []string) *Conflict {
	var absent, failed []string
	for _, g := range groups {
		p := c.groups.probe(ctx, g)
		switch p.Status {
		case directory.GroupAbsent:
			absent = append(absent, g)
		case directory.GroupProbeFailed:
			failed = append(failed, fmt.Sprintf("%s (%v)", g, p.Err))
		}
	}

	switch {
	case len(absent) > 0 && len(failed) > 0:
		return &Conflict{Kind: ConflictMissingGroups, Error: fmt.Sprintf(
			"groups do not exist: %s; could not verify groups: %s",
			strings.Join(absent, ", "), strings.Join(failed, ", "))}
	case len(absent) > 0:
		return &Conflict{Kind: ConflictMissingGroups, Error: "groups do not exist: " + strings.Join(absent, ", ")}
	case len(failed) > 0:
		return &Conflict{Kind: ConflictGroupCheck, Error: "could not verify groups: " + strings.Join(failed, ", ")}
	}
	return nil
}

// ValidateWorkbook checks every row against the directory and reports what
// CreateFromWorkbook would do. It never changes the directory.
func (e *Engine) ValidateWorkbook(ctx context.Context, dir directory.Directory, wb *sheet.Workbook) (*ValidationReport, error) {
	ctx, span := telemetry.StartBulkSpan(ctx, OpValidate)
	defer span.End()
	e.recordRun(OpValidate)

	existing, err := loadSnapshot(ctx, dir)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	report := &ValidationReport{
		TotalRows: wb.TotalRows(),
		Conflicts: []Conflict{},
		Warnings:  []Warning{},
	}
	checker := newRowChecker(dir, existing)

	for _, row := range wb.Rows() {
		if row.Blank() {
			continue
		}

		cand, conflict := checker.check(ctx, row)
		if conflict != nil {
			report.Conflicts = append(report.Conflicts, *conflict)
			e.recordItem(OpValidate, string(conflict.Kind))
			logger.DebugCtx(ctx, "Row rejected", logger.Row(row.Number), logger.KeyKind, conflict.Kind)
			continue
		}

		warn := func(msg string) {
			report.Warnings = append(report.Warnings, Warning{
				Row:      cand.row,
				FullName: cand.record.FullName,
				Username: cand.name.Username,
				Message:  msg,
			})
		}
		if cand.record.Phone == nil {
			warn("phone is empty")
		}
		if cand.record.Title == nil {
			warn("title is empty")
		}

		report.WouldCreate++
		e.recordItem(OpValidate, "success")
	}

	report.ConflictsCount = len(report.Conflicts)
	report.WarningsCount = len(report.Warnings)
	report.Valid = report.ConflictsCount == 0

	telemetry.SetAttributes(ctx, telemetry.BulkCounts(report.TotalRows, report.ConflictsCount)...)
	logger.InfoCtx(ctx, "Workbook validated",
		"valid", report.Valid, "would_create", report.WouldCreate,
		"conflicts", report.ConflictsCount, "warnings", report.WarningsCount)
	return report, nil
}

// CreateFromWorkbook creates a user for every row that passes validation.
// Secret-link generation is probed first; if it fails nothing is created
// and the error wraps ErrPreflightFailed.
//
// A created user is kept even when every group assignment fails. Once
// started, the run ignores cancellation of ctx.
func (e *Engine) CreateFromWorkbook(ctx context.Context, dir directory.Directory, wb *sheet.Workbook) (*CreationReport, error) {
	ctx, span := telemetry.StartBulkSpan(context.WithoutCancel(ctx), OpCreateSheet)
	defer span.End()
	e.recordRun(OpCreateSheet)

	if err := e.publisher.Probe(ctx); err != nil {
		err = fmt.Errorf("%w: %w", ErrPreflightFailed, err)
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Bulk create aborted before any change", logger.Err(err))
		return nil, err
	}

	existing, err := loadSnapshot(ctx, dir)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	report := &CreationReport{Success: []CreatedRow{}, Failed: []Conflict{}}
	checker := newRowChecker(dir, existing)

	for _, row := range wb.Rows() {
		if row.Blank() {
			continue
		}

		cand, conflict := checker.check(ctx, row)
		if conflict != nil {
			report.Failed = append(report.Failed, *conflict)
			e.recordItem(OpCreateSheet, string(conflict.Kind))
			logger.DebugCtx(ctx, "Row rejected", logger.Row(row.Number), logger.KeyKind, conflict.Kind)
			continue
		}

		created, err := e.createRow(ctx, dir, cand)
		if err != nil {
			report.Failed = append(report.Failed, Conflict{
				Row:      cand.row,
				FullName: cand.record.FullName,
				Username: cand.name.Username,
				Email:    cand.record.Email,
				Kind:     ConflictDirectory,
				Error:    err.Error(),
			})
			e.recordItem(OpCreateSheet, string(ConflictDirectory))
			logger.WarnCtx(ctx, "Row creation failed",
				logger.Row(cand.row), logger.Username(cand.name.Username), logger.Err(err))
			continue
		}

		existing.add(created.Username, created.Email)
		report.Success = append(report.Success, *created)
		e.recordItem(OpCreateSheet, "success")
		logger.InfoCtx(ctx, "User created from workbook",
			logger.Row(cand.row), logger.Username(created.Username))
	}

	telemetry.SetAttributes(ctx, telemetry.BulkCounts(len(report.Success)+len(report.Failed), len(report.Failed))...)
	logger.InfoCtx(ctx, "Bulk create completed",
		logger.KeySucceeded, len(report.Success), logger.KeyFailed, len(report.Failed))
	return report, nil
}

func (e *Engine) createRow(ctx context.Context, dir directory.Directory, c *candidate) (*CreatedRow, error) {
	u, err := dir.AddUser(ctx, c.name.Username, directory.NewUser{
		GivenName:  c.name.GivenName,
		Surname:    c.name.Surname,
		CommonName: c.record.FullName,
		Mail:       c.record.Email,
		Title:      c.record.Title,
		Phone:      c.record.Phone,
	})
	if err != nil {
		return nil, err
	}

	row := &CreatedRow{
		Row:      c.row,
		FullName: c.record.FullName,
		Username: c.name.Username,
		Email:    c.record.Email,
		Password: u.RandomPassword,
	}
	row.SecretLink, row.LinkError = e.publishCredentials(ctx, row.Username, row.Password)

	if len(c.record.Groups) > 0 {
		row.Groups = addGroups(ctx, dir, row.Username, c.record.Groups)
	}
	return row, nil
}
