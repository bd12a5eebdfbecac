package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the narrow pgx surface the repository needs; pgxmock satisfies
// it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithQuerier is the test constructor.
func NewPostgresRepositoryWithQuerier(db Querier) *PostgresRepository {
	if db == nil {
		panic("leads: querier required")
	}
	return &PostgresRepository{db: db}
}

const leadColumns = `id, agent_id, phone, alt_phone, first_name, us_state, source,
	conversation_state, last_asked_topics, pending_at, confirmed_at, last_proposed_at,
	last_ai_response_at, last_confirmation_at, last_draft_text, opted_out, opted_in,
	created_at, updated_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, lead *Lead) error {
	if strings.TrimSpace(lead.AgentID) == "" {
		return ErrMissingAgentID
	}
	if strings.TrimSpace(lead.Phone) == "" {
		return ErrMissingPhone
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.ConversationState == "" {
		lead.ConversationState = StateIdle
	}
	topics, err := json.Marshal(lead.LastAskedTopics)
	if err != nil {
		return fmt.Errorf("leads: marshal topics: %w", err)
	}
	query := `
		INSERT INTO leads (id, agent_id, phone, alt_phone, first_name, us_state, source,
			conversation_state, last_asked_topics, opted_out, opted_in)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		lead.ID, lead.AgentID, lead.Phone, lead.AltPhone, lead.FirstName, lead.USState,
		lead.Source, lead.ConversationState, topics, lead.OptedOut, lead.OptedIn,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt); err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches a lead scoped to the agent.
func (r *PostgresRepository) GetByID(ctx context.Context, agentID, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND agent_id = $2`
	return r.scanOne(r.db.QueryRow(ctx, query, id, agentID))
}

// Update persists the full conversation-memory snapshot.
func (r *PostgresRepository) Update(ctx context.Context, lead *Lead) error {
	topics, err := json.Marshal(lead.LastAskedTopics)
	if err != nil {
		return fmt.Errorf("leads: marshal topics: %w", err)
	}
	query := `
		UPDATE leads
		SET phone = $3, alt_phone = $4, first_name = $5, us_state = $6,
			conversation_state = $7, last_asked_topics = $8, pending_at = $9,
			confirmed_at = $10, last_proposed_at = $11, last_ai_response_at = $12,
			last_confirmation_at = $13, last_draft_text = $14, opted_out = $15,
			opted_in = $16, updated_at = now()
		WHERE id = $1 AND agent_id = $2
	`
	ct, err := r.db.Exec(ctx, query,
		lead.ID, lead.AgentID, lead.Phone, lead.AltPhone, lead.FirstName, lead.USState,
		lead.ConversationState, topics, lead.PendingAppointment, lead.ConfirmedAppointment,
		lead.LastProposed, lead.LastAIResponseAt, lead.LastConfirmationAt,
		lead.LastDraftText, lead.OptedOut, lead.OptedIn,
	)
	if err != nil {
		return fmt.Errorf("leads: update failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// FindByExactPhone matches a normalized E.164 across phone-bearing fields.
func (r *PostgresRepository) FindByExactPhone(ctx context.Context, agentID, e164 string) (*Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE agent_id = $1 AND (phone = $2 OR alt_phone = $2)
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, agentID, e164))
}

// FindByLastTen matches the trailing ten digits anchored at the end.
func (r *PostgresRepository) FindByLastTen(ctx context.Context, agentID, lastTen string) (*Lead, error) {
	if lastTen == "" {
		return nil, ErrLeadNotFound
	}
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE agent_id = $1
			AND (regexp_replace(phone, '\D', '', 'g') LIKE '%' || $2
				OR regexp_replace(alt_phone, '\D', '', 'g') LIKE '%' || $2)
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, agentID, lastTen))
}

// StampResponseAttempt touches only the attempt timestamp.
func (r *PostgresRepository) StampResponseAttempt(ctx context.Context, agentID, id string, at time.Time) error {
	query := `UPDATE leads SET last_ai_response_at = $3, updated_at = now() WHERE id = $1 AND agent_id = $2`
	ct, err := r.db.Exec(ctx, query, id, agentID, at)
	if err != nil {
		return fmt.Errorf("leads: stamp attempt: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row pgx.Row) (*Lead, error) {
	var lead Lead
	var topics []byte
	if err := row.Scan(
		&lead.ID, &lead.AgentID, &lead.Phone, &lead.AltPhone, &lead.FirstName,
		&lead.USState, &lead.Source, &lead.ConversationState, &topics,
		&lead.PendingAppointment, &lead.ConfirmedAppointment, &lead.LastProposed,
		&lead.LastAIResponseAt, &lead.LastConfirmationAt, &lead.LastDraftText,
		&lead.OptedOut, &lead.OptedIn, &lead.CreatedAt, &lead.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	if len(topics) > 0 {
		if err := json.Unmarshal(topics, &lead.LastAskedTopics); err != nil {
			return nil, fmt.Errorf("leads: unmarshal topics: %w", err)
		}
	}
	return &lead, nil
}

var _ Repository = (*PostgresRepository)(nil)
