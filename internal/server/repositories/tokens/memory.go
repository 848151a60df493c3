package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skillbridge/auth/internal/common"
	"github.com/skillbridge/auth/internal/server/models"
)

// MemoryRepository is a process-local ledger. One RWMutex guards both maps,
// so each operation is atomic with respect to the others.
type MemoryRepository struct {
	mu      sync.RWMutex
	byToken map[string]*models.Token
	byUser  map[string][]*models.Token
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byToken: make(map[string]*models.Token),
		byUser:  make(map[string][]*models.Token),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Store(_ context.Context, userID, token string, typ models.TokenType) (models.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[token]; ok {
		return models.Token{}, common.ErrAlreadyExists
	}
	rec := &models.Token{
		ID:        uuid.NewString(),
		Token:     token,
		Type:      typ,
		UserID:    userID,
		CreatedAt: r.now().UTC(),
	}
	r.byToken[token] = rec
	r.byUser[userID] = append(r.byUser[userID], rec)
	return *rec, nil
}

func (r *MemoryRepository) FindByToken(_ context.Context, token string) (models.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byToken[token]
	if !ok {
		return models.Token{}, common.ErrorNotFound
	}
	return *rec, nil
}

func (r *MemoryRepository) InvalidateAllForUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, rec := range r.byUser[userID] {
		if !rec.Revoked || !rec.Expired {
			rec.Revoked, rec.Expired = true, true
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byToken[token]
	if !ok {
		return common.ErrorNotFound
	}
	rec.Revoked, rec.Expired = true, true
	return nil
}

func (r *MemoryRepository) ListActiveByUser(_ context.Context, userID string) ([]models.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := r.byUser[userID]
	var out []models.Token
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].Usable() {
			out = append(out, *recs[i])
		}
	}
	return out, nil
}
