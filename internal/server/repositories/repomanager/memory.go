package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/keys"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out process-local repositories and ignores
// the db arguments. It backs the server when no database is configured.
type MemoryRepositoryManager struct {
	users *users.MemoryRepository
	keys  *keys.MemoryRepository
}

func NewMemoryRepositoryManager() RepositoryManager {
	return &MemoryRepositoryManager{
		users: users.NewMemoryRepository(),
		keys:  keys.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *MemoryRepositoryManager) Keys(*sql.DB) keys.Repository                 { return m.keys }
