package usecase

import (
	"context"

	domainPermission "github.com/avelara/instagate/domains/permission"
	"github.com/avelara/instagate/pkg/permstore"
)

type servicePermission struct {
	store *permstore.Store
}

func NewPermissionService(store *permstore.Store) domainPermission.IPermissionUsecase {
	return &servicePermission{store: store}
}

// Resolve loads a fresh snapshot on every call. Roles are never cached
// across invocations: the backing record may be mutated by a
// concurrent grant between two messages.
func (service servicePermission) Resolve(ctx context.Context, id int64) (domainPermission.Role, error) {
	snapshot, err := service.store.Load()
	if err != nil {
		return domainPermission.RoleNotAllowed, err
	}
	return domainPermission.Resolve(id, snapshot), nil
}

func (service servicePermission) Snapshot(ctx context.Context) (domainPermission.Snapshot, error) {
	return service.store.Load()
}
