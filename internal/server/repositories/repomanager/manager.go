package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillbridge/auth/internal/server/repositories/tokens"
	"github.com/skillbridge/auth/internal/server/repositories/users"
)

// MemoryDSN selects the in-process repositories instead of PostgreSQL.
const MemoryDSN = "memory"

// TxFunc receives repositories bound to a single unit of work.
type TxFunc func(ctx context.Context, users users.Repository, tokens tokens.Repository) error

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Tokens() tokens.Repository
	WithTx(ctx context.Context, fn TxFunc) error
	Close() error
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// New picks the backend from dsn. Any value other than MemoryDSN is handed
// to the pgx driver and pinged before returning.
func New(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == MemoryDSN {
		return NewMemoryRepositoryManager(), nil
	}

	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewPostgresRepositoryManager(db), nil
}
