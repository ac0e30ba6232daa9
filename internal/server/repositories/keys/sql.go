package keys

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

type queries struct {
	upsert string
	delete string
	clear  string
	list   string
}

var postgresQueries = queries{
	upsert: `
		INSERT INTO keychain_keys (id, sealed, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET sealed = excluded.sealed, updated_at = now()
	`,
	delete: `DELETE FROM keychain_keys WHERE id = $1`,
	clear:  `DELETE FROM keychain_keys`,
	list:   `SELECT id, sealed FROM keychain_keys`,
}

var sqliteQueries = queries{
	upsert: `
		INSERT INTO keychain_keys (id, sealed, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET sealed = excluded.sealed, updated_at = CURRENT_TIMESTAMP
	`,
	delete: `DELETE FROM keychain_keys WHERE id = ?`,
	clear:  `DELETE FROM keychain_keys`,
	list:   `SELECT id, sealed FROM keychain_keys`,
}

// SQLRepository stores entries in the keychain_keys table. The same code
// serves PostgreSQL and SQLite; only the query dialect differs.
type SQLRepository struct {
	db *sql.DB
	q  queries
}

func NewPostgresRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries}
}

func NewSQLiteRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries}
}

func (r *SQLRepository) Save(ctx context.Context, id string, sealed []byte) error {
	if _, err := r.db.ExecContext(ctx, r.q.upsert, id, sealed); err != nil {
		return fmt.Errorf("failed to save key %q: %w", id, err)
	}
	return nil
}

func (r *SQLRepository) SaveAll(ctx context.Context, entries map[string][]byte) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, r.q.clear); err != nil {
			return fmt.Errorf("failed to clear keys: %w", err)
		}
		for _, id := range slices.Sorted(maps.Keys(entries)) {
			if _, err := tx.ExecContext(ctx, r.q.upsert, id, entries[id]); err != nil {
				return fmt.Errorf("failed to save key %q: %w", id, err)
			}
		}
		return nil
	})
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.q.delete, id); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", id, err)
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, r.q.list)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var id string
		var sealed []byte
		if err := rows.Scan(&id, &sealed); err != nil {
			return nil, fmt.Errorf("failed to scan key row: %w", err)
		}
		result[id] = sealed
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate key rows: %w", err)
	}

	return result, nil
}
