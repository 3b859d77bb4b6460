package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys.
const (
	AttrClientIP    = "client.ip"
	AttrOperator    = "ipagw.operator"
	AttrRPCMethod   = "rpc.method"
	AttrRPCSystem   = "rpc.system"
	AttrDirHost     = "directory.host"
	AttrUsername    = "directory.user"
	AttrGroup       = "directory.group"
	AttrIdentifier  = "bulk.identifier"
	AttrBulkOp      = "bulk.operation"
	AttrBulkItems   = "bulk.items"
	AttrBulkFailed  = "bulk.failed"
	AttrRow         = "sheet.row"
	AttrLinkTool    = "secretlink.tool"
	AttrLinkExitErr = "secretlink.exit_code"
)

// Span name prefixes.
const (
	SpanDirectory  = "directory."
	SpanSecretLink = "secretlink.publish"
	SpanBulk       = "bulk."
)

// ClientIP returns an attribute for the client address.
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// Operator returns an attribute for the session's directory identity.
func Operator(name string) attribute.KeyValue {
	return attribute.String(AttrOperator, name)
}

// Username returns an attribute for a directory user.
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// Group returns an attribute for a directory group.
func Group(name string) attribute.KeyValue {
	return attribute.String(AttrGroup, name)
}

// Identifier returns an attribute for a caller-supplied bulk identifier.
func Identifier(id string) attribute.KeyValue {
	return attribute.String(AttrIdentifier, id)
}

// Row returns an attribute for a spreadsheet row number.
func Row(n int) attribute.KeyValue {
	return attribute.Int(AttrRow, n)
}

// BulkCounts returns attributes summarising a bulk run.
func BulkCounts(items, failed int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrBulkItems, items),
		attribute.Int(AttrBulkFailed, failed),
	}
}

// LinkExitCode returns an attribute for the secret-link tool exit status.
func LinkExitCode(code int) attribute.KeyValue {
	return attribute.Int(AttrLinkExitErr, code)
}

// StartDirectorySpan starts a client span for one FreeIPA JSON-RPC call.
func StartDirectorySpan(ctx context.Context, method, host string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		attribute.String(AttrRPCSystem, "freeipa"),
		attribute.String(AttrRPCMethod, method),
		attribute.String(AttrDirHost, host),
	}, attrs...)
	return StartSpan(ctx, SpanDirectory+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(all...))
}

// StartSecretLinkSpan starts a span around one secret-link tool invocation.
func StartSecretLinkSpan(ctx context.Context, tool string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanSecretLink, trace.WithAttributes(attribute.String(AttrLinkTool, tool)))
}

// StartBulkSpan starts a span for a multi-item operation.
func StartBulkSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{attribute.String(AttrBulkOp, operation)}, attrs...)
	return StartSpan(ctx, SpanBulk+operation, trace.WithAttributes(all...))
}
