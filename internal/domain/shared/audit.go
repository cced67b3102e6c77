package shared

import (
	"context"

	"github.com/google/uuid"
)

// AuditRecorder records a domain-significant action for audit purposes.
// Storage of the audit trail is a boundary concern; the core only emits.
type AuditRecorder interface {
	RecordAudit(ctx context.Context, action string, actor uuid.UUID, details map[string]any) error
}

// NopAuditRecorder discards audit records. Useful for tests.
type NopAuditRecorder struct{}

// RecordAudit implements AuditRecorder
func (NopAuditRecorder) RecordAudit(context.Context, string, uuid.UUID, map[string]any) error {
	return nil
}

var _ AuditRecorder = NopAuditRecorder{}
