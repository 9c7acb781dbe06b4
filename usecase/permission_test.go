package usecase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainPermission "github.com/avelara/instagate/domains/permission"
	"github.com/avelara/instagate/pkg/permstore"
)

func TestResolve_RoleMatrix(t *testing.T) {
	snapshot := domainPermission.Snapshot{
		Version:    1,
		AdminID:    1,
		AllowedIDs: []int64{2, 3},
	}

	cases := []struct {
		name string
		id   int64
		want domainPermission.Role
	}{
		{"admin", 1, domainPermission.RoleAdmin},
		{"allowed", 2, domainPermission.RoleAllowed},
		{"another allowed", 3, domainPermission.RoleAllowed},
		{"unknown", 99, domainPermission.RoleNotAllowed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domainPermission.Resolve(tc.id, snapshot))
		})
	}
}

func TestResolve_AdminWinsOverAllowListMembership(t *testing.T) {
	// Admin should never end up on the allow-list, but if it does the
	// admin check still wins because it runs last.
	snapshot := domainPermission.Snapshot{
		Version:    1,
		AdminID:    1,
		AllowedIDs: []int64{1},
	}
	assert.Equal(t, domainPermission.RoleAdmin, domainPermission.Resolve(1, snapshot))
}

func TestResolve_UnconfiguredStoreDeniesEveryone(t *testing.T) {
	snapshot := domainPermission.Snapshot{Version: 1}
	assert.Equal(t, domainPermission.RoleNotAllowed, domainPermission.Resolve(0, snapshot))
	assert.Equal(t, domainPermission.RoleNotAllowed, domainPermission.Resolve(5, snapshot))
}

func TestPermissionService_ResolveSeesConcurrentMutation(t *testing.T) {
	store := permstore.New(filepath.Join(t.TempDir(), "permissions.json"), 1)
	svc := NewPermissionService(store)
	ctx := context.Background()

	role, err := svc.Resolve(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, domainPermission.RoleNotAllowed, role)

	_, err = store.Update(func(s *domainPermission.Snapshot) error {
		s.Allow(50)
		return nil
	})
	require.NoError(t, err)

	// No caching: the next resolve must observe the grant.
	role, err = svc.Resolve(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, domainPermission.RoleAllowed, role)
}
