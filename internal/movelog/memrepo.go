package movelog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/whales/internal/domain"
)

// memrepo keeps move records in process when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	byRequest map[string]*domain.MoveRecord
	ordered   []*domain.MoveRecord
}

func NewMemoryRepository() Repository {
	return &memrepo{
		byRequest: make(map[string]*domain.MoveRecord),
	}
}

func (m *memrepo) InsertMove(_ context.Context, rec *domain.MoveRecord) (int64, error) {
	if rec == nil {
		return 0, ErrDuplicateMove
	}
	key := strings.TrimSpace(rec.RequestUUID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byRequest[key]; exists {
		return 0, ErrDuplicateMove
	}
	m.nextID++
	stored := cloneRecord(rec)
	stored.ID = m.nextID

	m.byRequest[key] = stored
	m.ordered = append(m.ordered, stored)
	return stored.ID, nil
}

func (m *memrepo) RecentMoves(_ context.Context, model string, limit int) ([]*domain.MoveRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*domain.MoveRecord, 0, len(m.ordered))
	for _, rec := range m.ordered {
		if model == "" || rec.Model == model {
			items = append(items, cloneRecord(rec))
		}
	}
	// CreatedAt desc, then ID desc
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func cloneRecord(rec *domain.MoveRecord) *domain.MoveRecord {
	cp := *rec
	cp.MovesUCI = append([]string(nil), rec.MovesUCI...)
	return &cp
}
