package provisioning

import (
	"context"
	"fmt"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/internal/telemetry"
	"github.com/marmos91/ipagw/pkg/directory"
)

// Apply resolves each identifier and applies action to it, in order. One
// item's failure never affects another. Cancelling ctx does not stop the
// run; every identifier is processed to completion.
func (e *Engine) Apply(ctx context.Context, dir directory.Directory, action Action, identifiers []string) (*BulkResult, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("unknown bulk action %q", action)
	}

	op := string(action)
	ctx, span := telemetry.StartBulkSpan(context.WithoutCancel(ctx), op)
	defer span.End()
	e.recordRun(op)

	res := newBulkResult()
	for _, id := range identifiers {
		item, err := e.applyOne(ctx, dir, action, id)
		if err != nil {
			kind := classify(err)
			res.Failed = append(res.Failed, ItemFailure{
				Identifier: id,
				Username:   item.Username,
				Kind:       kind,
				Error:      err.Error(),
			})
			e.recordItem(op, string(kind))
			telemetry.AddEvent(ctx, "item.failed", telemetry.Identifier(id))
			logger.WarnCtx(ctx, "Bulk item failed",
				logger.Operation(op), logger.Identifier(id), logger.KeyKind, kind, logger.Err(err))
			continue
		}

		res.Success = append(res.Success, item)
		e.recordItem(op, "success")
		logger.DebugCtx(ctx, "Bulk item applied",
			logger.Operation(op), logger.Identifier(id), logger.Username(item.Username))
	}

	telemetry.SetAttributes(ctx, telemetry.BulkCounts(len(identifiers), len(res.Failed))...)
	logger.InfoCtx(ctx, "Bulk operation completed",
		logger.Operation(op), logger.KeyCount, len(identifiers),
		logger.KeySucceeded, len(res.Success), logger.KeyFailed, len(res.Failed))
	return res, nil
}

// applyOne returns the resolved username alongside any error.
func (e *Engine) applyOne(ctx context.Context, dir directory.Directory, action Action, id string) (ItemSuccess, error) {
	item := ItemSuccess{Identifier: id}

	uid, err := Resolve(ctx, dir, id)
	if err != nil {
		return item, err
	}
	item.Username = uid

	switch action {
	case ActionDelete:
		err = dir.DeleteUser(ctx, uid)
	case ActionEnable:
		err = dir.EnableUser(ctx, uid)
	case ActionDisable:
		err = dir.DisableUser(ctx, uid)
	case ActionResetPassword:
		var u *directory.User
		if u, err = dir.ResetPassword(ctx, uid); err == nil {
			item.Password = u.RandomPassword
			item.SecretLink, item.LinkError = e.publishCredentials(ctx, uid, u.RandomPassword)
		}
	}
	return item, err
}
