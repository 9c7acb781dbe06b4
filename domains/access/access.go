package access

import (
	"context"

	"github.com/avelara/instagate/domains/permission"
)

type GrantRequest struct {
	CallerID int64 `json:"caller_id"`
	TargetID int64 `json:"target_id"`
}

type StatusResponse struct {
	ID   int64           `json:"id"`
	Role permission.Role `json:"role"`
}

// IAccessUsecase implements the access workflow state transitions.
// Notifications to third parties (admin, granted target) are sent by
// the service; direct replies to the caller belong to the command
// handlers.
type IAccessUsecase interface {
	// RequestAccess notifies the admin that callerID wants access and
	// acknowledges the caller. It never mutates the permission store;
	// there is no durable pending-request record, only an at-least-once
	// notification the admin acts on manually via Grant.
	RequestAccess(ctx context.Context, callerID int64) error

	// Grant adds the target to the allow-list if the caller resolves to
	// admin. The store is persisted before any notification goes out.
	Grant(ctx context.Context, request GrantRequest) error

	// Status reports the caller's identity and resolved role.
	Status(ctx context.Context, callerID int64) (StatusResponse, error)
}
