package permission

import "context"

// Role is the authorization tier derived for a sender on every request.
// It is never persisted or cached; resolution runs against a fresh
// store snapshot each time.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAllowed    Role = "allowed"
	RoleNotAllowed Role = "not_allowed"
)

// Snapshot is the decoded permission record. AllowedIDs keeps insertion
// order so the persisted file round-trips byte-identically.
type Snapshot struct {
	Version    int     `json:"version"`
	AdminID    int64   `json:"admin_id"`
	AllowedIDs []int64 `json:"allowed_ids"`
}

// Configured reports whether an admin identity has ever been set. A
// defaulted record denies every gated action until it is configured.
func (s Snapshot) Configured() bool {
	return s.AdminID != 0
}

func (s Snapshot) IsAllowed(id int64) bool {
	for _, allowed := range s.AllowedIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

// Allow adds id to the allow-list. Adding an already-present identity
// is a no-op; the return value reports whether the snapshot changed.
func (s *Snapshot) Allow(id int64) bool {
	if s.IsAllowed(id) {
		return false
	}
	s.AllowedIDs = append(s.AllowedIDs, id)
	return true
}

// Resolve maps an identity and a store snapshot to a role. Pure and
// total: the admin check runs last and unconditionally overwrites an
// allow-list hit.
func Resolve(id int64, snapshot Snapshot) Role {
	role := RoleNotAllowed
	if snapshot.IsAllowed(id) {
		role = RoleAllowed
	}
	if snapshot.Configured() && snapshot.AdminID == id {
		role = RoleAdmin
	}
	return role
}

type IPermissionUsecase interface {
	// Resolve loads a fresh snapshot and derives the caller's role.
	Resolve(ctx context.Context, id int64) (Role, error)
	Snapshot(ctx context.Context) (Snapshot, error)
}
