package provisioning

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/pkg/directory"
)

// OpReset names the single-user password reset.
const OpReset = "reset"

// PasswordReset is the outcome of ResetPassword.
type PasswordReset struct {
	Username   string     `json:"username"`
	Password   string     `json:"password"`
	SecretLink string     `json:"secret_link,omitempty"`
	LinkError  string     `json:"link_error,omitempty"`
	Expiration *time.Time `json:"expiration,omitempty"`
}

// ResetPassword generates a new password for uid and publishes it. As with
// the bulk reset, a link failure leaves the new password in place.
func (e *Engine) ResetPassword(ctx context.Context, dir directory.Directory, uid string) (*PasswordReset, error) {
	ctx = context.WithoutCancel(ctx)
	e.recordRun(OpReset)

	u, err := dir.ResetPassword(ctx, uid)
	if err != nil {
		e.recordItem(OpReset, string(classify(err)))
		return nil, fmt.Errorf("failed to reset password of %s: %w", uid, err)
	}

	out := &PasswordReset{
		Username:   uid,
		Password:   u.RandomPassword,
		Expiration: u.PasswordExpiration,
	}
	out.SecretLink, out.LinkError = e.publishCredentials(ctx, uid, u.RandomPassword)
	e.recordItem(OpReset, "success")

	logger.InfoCtx(ctx, "Password reset", logger.Username(uid))
	return out, nil
}
