// internal/table/store.go
package table

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultMaxTables bounds a store created with a non-positive limit.
const DefaultMaxTables = 10000

// Store keeps one table per session. It holds at most limit tables; when full,
// the least recently used table without connections makes room.
type Store struct {
	mu     sync.Mutex
	tables map[uuid.UUID]*Table
	limit  int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultMaxTables
	}
	return &Store{
		tables: make(map[uuid.UUID]*Table),
		limit:  limit,
	}
}

func (s *Store) GetTable(id uuid.UUID) (*Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.tables[id]
	return t, exists
}

// GetOrCreate returns the table for id, building it with create if it does not exist yet.
// Either way the table is marked as used.
func (s *Store) GetOrCreate(id uuid.UUID, create func(uuid.UUID) *Table) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[id]; ok {
		t.Touch()
		return t
	}
	if len(s.tables) >= s.limit {
		s.evictOldestLocked()
	}
	t := create(id)
	s.tables[id] = t
	return t
}

// evictOldestLocked drops the least recently used table that has no connections.
func (s *Store) evictOldestLocked() {
	var oldest *Table
	var oldestAt time.Time
	for _, t := range s.tables {
		t.mu.Lock()
		used, conns := t.lastUsed, t.conns
		t.mu.Unlock()
		if conns > 0 {
			continue
		}
		if oldest == nil || used.Before(oldestAt) {
			oldest, oldestAt = t, used
		}
	}
	if oldest != nil {
		delete(s.tables, oldest.ID)
	}
}

// Sweep removes tables without connections that have been unused for longer
// than idle, as of now. It returns the number removed.
func (s *Store) Sweep(now time.Time, idle time.Duration) int {
	cutoff := now.Add(-idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, t := range s.tables {
		if t.evictable(cutoff) {
			delete(s.tables, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, every, idle time.Duration, logger *logrus.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now, idle); n > 0 {
				logger.WithFields(logrus.Fields{"removed": n, "tables": s.Len()}).Info("Swept idle tables")
			}
		}
	}
}

// Len returns the number of tables held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables)
}
