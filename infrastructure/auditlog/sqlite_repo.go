package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS grants (
			id TEXT PRIMARY KEY,
			granted_by INTEGER NOT NULL,
			granted_to INTEGER NOT NULL,
			granted_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_grants_granted_to ON grants(granted_to);`,
		`CREATE INDEX IF NOT EXISTS idx_grants_granted_at ON grants(granted_at);`,
	}

	for _, q := range queries {
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("init audit schema: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) RecordGrant(ctx context.Context, entry GrantEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.GrantedAt.IsZero() {
		entry.GrantedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO grants (id, granted_by, granted_to, granted_at) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.GrantedBy, entry.GrantedTo, entry.GrantedAt,
	)
	if err != nil {
		return fmt.Errorf("record grant: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RecentGrants(ctx context.Context, limit int) ([]GrantEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, granted_by, granted_to, granted_at FROM grants ORDER BY granted_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent grants: %w", err)
	}
	defer rows.Close()

	var entries []GrantEntry
	for rows.Next() {
		var entry GrantEntry
		if err := rows.Scan(&entry.ID, &entry.GrantedBy, &entry.GrantedTo, &entry.GrantedAt); err != nil {
			return nil, fmt.Errorf("scan grant row: %w", err)
		}
		entry.Age = humanize.Time(entry.GrantedAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
