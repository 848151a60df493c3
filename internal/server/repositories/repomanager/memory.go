package repomanager

import (
	"context"
	"sync"

	"github.com/skillbridge/auth/internal/server/repositories/tokens"
	"github.com/skillbridge/auth/internal/server/repositories/users"
)

// MemoryRepositoryManager serves one shared pair of in-memory repositories.
// WithTx serialises units of work but cannot roll them back.
type MemoryRepositoryManager struct {
	users  *users.MemoryRepository
	tokens *tokens.MemoryRepository
	txMu   sync.Mutex
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:  users.NewMemoryRepository(),
		tokens: tokens.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *MemoryRepositoryManager) Tokens() tokens.Repository { return m.tokens }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn TxFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m.users, m.tokens)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
