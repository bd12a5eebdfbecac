package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coverlinehq/coverline/internal/booking"
	"github.com/coverlinehq/coverline/internal/leads"
)

// Repository defines agent storage.
type Repository interface {
	Create(ctx context.Context, agent *Agent) error
	GetByID(ctx context.Context, id string) (*Agent, error)
	// GetBySMSNumber resolves the owning agent for an inbound To number.
	GetBySMSNumber(ctx context.Context, e164 string) (*Agent, error)
	UpdateBookingSettings(ctx context.Context, id string, settings *booking.Settings) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores agents in Postgres.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("agents: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithQuerier is the test constructor.
func NewPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	if db == nil {
		panic("agents: querier required")
	}
	return &PostgresRepository{db: db}
}

const agentColumns = `id, name, sms_number, timezone, a2p_ready, calendar_id, notify_email,
	booking_settings, created_at, updated_at`

// Create inserts a new agent row.
func (r *PostgresRepository) Create(ctx context.Context, agent *Agent) error {
	if strings.TrimSpace(agent.SMSNumber) == "" {
		return ErrMissingSMSNumber
	}
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	settings, err := marshalSettings(agent.Booking)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO agents (id, name, sms_number, timezone, a2p_ready, calendar_id, notify_email, booking_settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		agent.ID, agent.Name, leads.NormalizeE164(agent.SMSNumber), agent.Timezone,
		agent.A2PReady, agent.CalendarID, agent.NotifyEmail, settings,
	).Scan(&agent.CreatedAt, &agent.UpdatedAt); err != nil {
		return fmt.Errorf("agents: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches one agent.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`
	return scanAgent(r.db.QueryRow(ctx, query, id))
}

// GetBySMSNumber fetches the agent owning a routing number.
func (r *PostgresRepository) GetBySMSNumber(ctx context.Context, e164 string) (*Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE sms_number = $1`
	return scanAgent(r.db.QueryRow(ctx, query, leads.NormalizeE164(e164)))
}

// UpdateBookingSettings replaces the settings document.
func (r *PostgresRepository) UpdateBookingSettings(ctx context.Context, id string, settings *booking.Settings) error {
	doc, err := marshalSettings(settings)
	if err != nil {
		return err
	}
	ct, err := r.db.Exec(ctx, `UPDATE agents SET booking_settings = $2, updated_at = now() WHERE id = $1`, id, doc)
	if err != nil {
		return fmt.Errorf("agents: update settings: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAgentNotFound
	}
	return nil
}

func marshalSettings(s *booking.Settings) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	doc, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("agents: marshal booking settings: %w", err)
	}
	return doc, nil
}

func scanAgent(row pgx.Row) (*Agent, error) {
	var agent Agent
	var settings []byte
	if err := row.Scan(
		&agent.ID, &agent.Name, &agent.SMSNumber, &agent.Timezone, &agent.A2PReady,
		&agent.CalendarID, &agent.NotifyEmail, &settings, &agent.CreatedAt, &agent.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("agents: select failed: %w", err)
	}
	if len(settings) > 0 {
		var s booking.Settings
		if err := json.Unmarshal(settings, &s); err != nil {
			return nil, fmt.Errorf("agents: unmarshal booking settings: %w", err)
		}
		agent.Booking = &s
	}
	return &agent, nil
}

var _ Repository = (*PostgresRepository)(nil)

// InMemoryRepository backs tests and the dev memory mode.
type InMemoryRepository struct {
	mu     sync.RWMutex
	agents map[string]*Agent
}

// NewInMemoryRepository creates an empty registry.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{agents: make(map[string]*Agent)}
}

func (r *InMemoryRepository) Create(ctx context.Context, agent *Agent) error {
	if strings.TrimSpace(agent.SMSNumber) == "" {
		return ErrMissingSMSNumber
	}
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	agent.SMSNumber = leads.NormalizeE164(agent.SMSNumber)
	now := time.Now().UTC()
	agent.CreatedAt = now
	agent.UpdatedAt = now
	r.mu.Lock()
	cp := *agent
	r.agents[agent.ID] = &cp
	r.mu.Unlock()
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	cp := *agent
	return &cp, nil
}

func (r *InMemoryRepository) GetBySMSNumber(ctx context.Context, e164 string) (*Agent, error) {
	normalized := leads.NormalizeE164(e164)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, agent := range r.agents {
		if agent.SMSNumber == normalized {
			cp := *agent
			return &cp, nil
		}
	}
	return nil, ErrAgentNotFound
}

func (r *InMemoryRepository) UpdateBookingSettings(ctx context.Context, id string, settings *booking.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok {
		return ErrAgentNotFound
	}
	agent.Booking = settings
	agent.UpdatedAt = time.Now().UTC()
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
