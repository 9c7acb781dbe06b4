package auditlog

import (
	"context"
	"time"
)

// GrantEntry is one durable record of a successful grant. The log is
// append-only; it exists for operators, not for authorization checks.
type GrantEntry struct {
	ID        string    `json:"id"`
	GrantedBy int64     `json:"granted_by"`
	GrantedTo int64     `json:"granted_to"`
	GrantedAt time.Time `json:"granted_at"`
	Age       string    `json:"age,omitempty"`
}

type IAuditRepository interface {
	Init(ctx context.Context) error
	RecordGrant(ctx context.Context, entry GrantEntry) error
	RecentGrants(ctx context.Context, limit int) ([]GrantEntry, error)
	Close() error
}
