package logger

import (
	"log/slog"
	"time"
)

// Standard field keys. Use these consistently so logs can be queried by key.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Request
	KeyRequestID = "request_id"
	KeyClientIP  = "client_ip"
	KeyOperator  = "operator" // identity that owns the session
	KeyMethod    = "method"   // HTTP method or directory RPC method
	KeyPath      = "path"
	KeyStatus    = "status"

	// Directory entities
	KeyUsername   = "username"
	KeyIdentifier = "identifier" // username or email as supplied by the caller
	KeyEmail      = "email"
	KeyGroup      = "group"
	KeyGroups     = "groups"
	KeyHost       = "host"

	// Bulk processing
	KeyOperation = "operation" // delete, enable, disable, reset_password, create
	KeyRow       = "row"
	KeyCount     = "count"
	KeySucceeded = "succeeded"
	KeyFailed    = "failed"
	KeyKind      = "kind"

	// Metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyExitCode   = "exit_code"
)

// Username returns a slog.Attr for a directory username.
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// Identifier returns a slog.Attr for a caller-supplied identifier.
func Identifier(id string) slog.Attr {
	return slog.String(KeyIdentifier, id)
}

// Group returns a slog.Attr for a group name.
func Group(name string) slog.Attr {
	return slog.String(KeyGroup, name)
}

// Operation returns a slog.Attr for a bulk operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Row returns a slog.Attr for a 1-based spreadsheet row number.
func Row(n int) slog.Attr {
	return slog.Int(KeyRow, n)
}

// Err returns a slog.Attr for an error. A nil error yields an empty string.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// DurationMs returns a slog.Attr with the milliseconds elapsed since start.
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, Duration(start))
}
