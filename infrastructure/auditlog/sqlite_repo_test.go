package auditlog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "audit.db")
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_journal_mode=WAL")
	require.NoError(t, err)

	repo := NewSQLiteRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepository_RecordAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := int64(0); i < 3; i++ {
		require.NoError(t, repo.RecordGrant(ctx, GrantEntry{
			GrantedBy: 1,
			GrantedTo: 100 + i,
			GrantedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := repo.RecentGrants(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Most recent first.
	assert.Equal(t, int64(102), entries[0].GrantedTo)
	assert.Equal(t, int64(101), entries[1].GrantedTo)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEmpty(t, entries[0].Age)
}

func TestSQLiteRepository_RecentGrantsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	entries, err := repo.RecentGrants(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
