// Package events tracks provider webhook deliveries so replays are dropped
// before any side effects run.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by the store.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store records processed provider events.
type Store interface {
	// MarkProcessed claims (provider, eventID). It returns true when this
	// call is the first to claim the pair and false on a replay.
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// PostgresStore persists processed events in the processed_events table.
type PostgresStore struct {
	db Querier
}

func NewPostgresStore(db Querier) *PostgresStore {
	if db == nil {
		panic("events: db is required")
	}
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	if provider == "" || eventID == "" {
		return false, fmt.Errorf("events: provider and event id are required")
	}
	tag, err := s.db.Exec(ctx, `
		INSERT INTO processed_events (provider, event_id)
		VALUES ($1, $2)
		ON CONFLICT (provider, event_id) DO NOTHING`,
		provider, eventID)
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) MarkProcessed(_ context.Context, provider, eventID string) (bool, error) {
	if provider == "" || eventID == "" {
		return false, fmt.Errorf("events: provider and event id are required")
	}
	key := provider + ":" + eventID
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}
