package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMessageNotFound indicates no ledger row matched.
var ErrMessageNotFound = errors.New("messaging: message not found")

// Store is the message ledger.
type Store interface {
	// RecordInbound persists a received message. Returns false without error
	// when the provider message id was already recorded (replay).
	RecordInbound(ctx context.Context, msg *Message) (bool, error)
	RecordOutbound(ctx context.Context, msg *Message) error
	UpdateStatusByProviderID(ctx context.Context, providerID string, status Status, at time.Time) error
	// LastOutboundLeadID returns the lead the most recent outbound message to
	// toNumber was threaded against, or "" when none exists.
	LastOutboundLeadID(ctx context.Context, agentID, toNumber string) (string, error)
	// RecentAutomatedBodies returns up to limit automated outbound bodies for
	// the lead, newest first.
	RecentAutomatedBodies(ctx context.Context, agentID, leadID string, limit int) ([]string, error)
	CountOutboundForLead(ctx context.Context, agentID, leadID string) (int, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists the ledger in Postgres. The partial unique index on
// provider_message_id (only when present) backs webhook replay safety.
type PostgresStore struct {
	db querier
}

// NewPostgresStore initializes the ledger over pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("messaging: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithQuerier is the test constructor.
func NewPostgresStoreWithQuerier(db querier) *PostgresStore {
	if db == nil {
		panic("messaging: querier required")
	}
	return &PostgresStore{db: db}
}

// RecordInbound inserts a received row, replay-safe on provider id.
func (s *PostgresStore) RecordInbound(ctx context.Context, msg *Message) (bool, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.Direction = DirectionInbound
	if msg.Status == "" {
		msg.Status = StatusReceived
	}
	query := `
		INSERT INTO messages (id, agent_id, lead_id, direction, from_number, to_number,
			body, provider_message_id, status, automated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, false)
		ON CONFLICT (provider_message_id) WHERE provider_message_id IS NOT NULL DO NOTHING
	`
	ct, err := s.db.Exec(ctx, query,
		msg.ID, msg.AgentID, msg.LeadID, msg.Direction, msg.FromNumber, msg.ToNumber,
		msg.Body, msg.ProviderMessageID, msg.Status,
	)
	if err != nil {
		return false, fmt.Errorf("messaging: record inbound: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// RecordOutbound inserts a queued outbound row.
func (s *PostgresStore) RecordOutbound(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.Direction = DirectionOutbound
	if msg.Status == "" {
		msg.Status = StatusQueued
	}
	query := `
		INSERT INTO messages (id, agent_id, lead_id, direction, from_number, to_number,
			body, provider_message_id, status, automated, queued_at, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, coalesce($11, now()), $12)
	`
	if _, err := s.db.Exec(ctx, query,
		msg.ID, msg.AgentID, msg.LeadID, msg.Direction, msg.FromNumber, msg.ToNumber,
		msg.Body, msg.ProviderMessageID, msg.Status, msg.Automated, msg.QueuedAt, msg.SentAt,
	); err != nil {
		return fmt.Errorf("messaging: record outbound: %w", err)
	}
	return nil
}

// UpdateStatusByProviderID applies a delivery callback.
func (s *PostgresStore) UpdateStatusByProviderID(ctx context.Context, providerID string, status Status, at time.Time) error {
	if providerID == "" {
		return ErrMessageNotFound
	}
	column := ""
	switch status {
	case StatusSent:
		column = "sent_at"
	case StatusDelivered:
		column = "delivered_at"
	case StatusFailed:
		column = "failed_at"
	}
	query := `UPDATE messages SET status = $2 WHERE provider_message_id = $1`
	args := []any{providerID, status}
	if column != "" {
		query = fmt.Sprintf(`UPDATE messages SET status = $2, %s = $3 WHERE provider_message_id = $1`, column)
		args = append(args, at)
	}
	ct, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("messaging: update status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// LastOutboundLeadID finds the thread anchor for a recipient number.
func (s *PostgresStore) LastOutboundLeadID(ctx context.Context, agentID, toNumber string) (string, error) {
	query := `
		SELECT lead_id
		FROM messages
		WHERE agent_id = $1 AND direction = 'outbound' AND to_number = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var leadID string
	if err := s.db.QueryRow(ctx, query, agentID, toNumber).Scan(&leadID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("messaging: last outbound lead: %w", err)
	}
	return leadID, nil
}

// RecentAutomatedBodies lists recent automated reply texts, newest first.
func (s *PostgresStore) RecentAutomatedBodies(ctx context.Context, agentID, leadID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	query := `
		SELECT body
		FROM messages
		WHERE agent_id = $1 AND lead_id = $2 AND direction = 'outbound' AND automated
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := s.db.Query(ctx, query, agentID, leadID, limit)
	if err != nil {
		return nil, fmt.Errorf("messaging: recent automated bodies: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("messaging: scan body: %w", err)
		}
		out = append(out, body)
	}
	return out, rows.Err()
}

// CountOutboundForLead counts messages ever sent to the lead.
func (s *PostgresStore) CountOutboundForLead(ctx context.Context, agentID, leadID string) (int, error) {
	var count int
	query := `SELECT count(*) FROM messages WHERE agent_id = $1 AND lead_id = $2 AND direction = 'outbound'`
	if err := s.db.QueryRow(ctx, query, agentID, leadID).Scan(&count); err != nil {
		return 0, fmt.Errorf("messaging: count outbound: %w", err)
	}
	return count, nil
}

var _ Store = (*PostgresStore)(nil)

// MemoryStore is the in-memory ledger for tests and dev mode.
type MemoryStore struct {
	mu       sync.Mutex
	messages []*Message
	seen     map[string]bool
}

// NewMemoryStore creates an empty ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]bool)}
}

func (s *MemoryStore) RecordInbound(ctx context.Context, msg *Message) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ProviderMessageID != "" && s.seen[msg.ProviderMessageID] {
		return false, nil
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.Direction = DirectionInbound
	if msg.Status == "" {
		msg.Status = StatusReceived
	}
	msg.CreatedAt = time.Now().UTC()
	cp := *msg
	s.messages = append(s.messages, &cp)
	if msg.ProviderMessageID != "" {
		s.seen[msg.ProviderMessageID] = true
	}
	return true, nil
}

func (s *MemoryStore) RecordOutbound(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.Direction = DirectionOutbound
	if msg.Status == "" {
		msg.Status = StatusQueued
	}
	msg.CreatedAt = time.Now().UTC()
	if msg.QueuedAt == nil {
		now := msg.CreatedAt
		msg.QueuedAt = &now
	}
	cp := *msg
	s.messages = append(s.messages, &cp)
	if msg.ProviderMessageID != "" {
		s.seen[msg.ProviderMessageID] = true
	}
	return nil
}

func (s *MemoryStore) UpdateStatusByProviderID(ctx context.Context, providerID string, status Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ProviderMessageID == providerID && providerID != "" {
			m.Status = status
			switch status {
			case StatusSent:
				m.SentAt = &at
			case StatusDelivered:
				m.DeliveredAt = &at
			case StatusFailed:
				m.FailedAt = &at
			}
			return nil
		}
	}
	return ErrMessageNotFound
}

func (s *MemoryStore) LastOutboundLeadID(ctx context.Context, agentID, toNumber string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.AgentID == agentID && m.Direction == DirectionOutbound && m.ToNumber == toNumber {
			return m.LeadID, nil
		}
	}
	return "", nil
}

func (s *MemoryStore) RecentAutomatedBodies(ctx context.Context, agentID, leadID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := s.messages[i]
		if m.AgentID == agentID && m.LeadID == leadID && m.Direction == DirectionOutbound && m.Automated {
			out = append(out, m.Body)
		}
	}
	return out, nil
}

func (s *MemoryStore) CountOutboundForLead(ctx context.Context, agentID, leadID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, m := range s.messages {
		if m.AgentID == agentID && m.LeadID == leadID && m.Direction == DirectionOutbound {
			count++
		}
	}
	return count, nil
}

// All returns a snapshot of every row, oldest first. Test helper.
func (s *MemoryStore) All() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, len(s.messages))
	for i, m := range s.messages {
		cp := *m
		out[i] = &cp
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
