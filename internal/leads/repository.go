package leads

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, lead *Lead) error
	GetByID(ctx context.Context, agentID, id string) (*Lead, error)
	Update(ctx context.Context, lead *Lead) error
	// FindByExactPhone matches a normalized E.164 value against all
	// phone-bearing fields.
	FindByExactPhone(ctx context.Context, agentID, e164 string) (*Lead, error)
	// FindByLastTen matches the trailing ten digits, anchored at the end.
	FindByLastTen(ctx context.Context, agentID, lastTen string) (*Lead, error)
	// StampResponseAttempt records an automation attempt time without
	// touching the rest of the record (dedup aborts still stamp).
	StampResponseAttempt(ctx context.Context, agentID, id string, at time.Time) error
}

// InMemoryRepository is a Repository backed by a map, used in tests and the
// memory-queue dev mode.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Create stores a new lead, assigning id/timestamps.
func (r *InMemoryRepository) Create(ctx context.Context, lead *Lead) error {
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
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	r.mu.Lock()
	cp := *lead
	r.leads[lead.ID] = &cp
	r.mu.Unlock()
	return nil
}

// GetByID retrieves a lead scoped to the agent.
func (r *InMemoryRepository) GetByID(ctx context.Context, agentID, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lead, ok := r.leads[id]
	if !ok || lead.AgentID != agentID {
		return nil, ErrLeadNotFound
	}
	cp := *lead
	return &cp, nil
}

// Update overwrites the stored lead.
func (r *InMemoryRepository) Update(ctx context.Context, lead *Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.leads[lead.ID]
	if !ok || stored.AgentID != lead.AgentID {
		return ErrLeadNotFound
	}
	lead.UpdatedAt = time.Now().UTC()
	cp := *lead
	r.leads[lead.ID] = &cp
	return nil
}

// FindByExactPhone scans phone fields for an exact normalized match.
func (r *InMemoryRepository) FindByExactPhone(ctx context.Context, agentID, e164 string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, lead := range r.leads {
		if lead.AgentID != agentID {
			continue
		}
		if NormalizeE164(lead.Phone) == e164 || (lead.AltPhone != "" && NormalizeE164(lead.AltPhone) == e164) {
			cp := *lead
			return &cp, nil
		}
	}
	return nil, ErrLeadNotFound
}

// FindByLastTen scans phone fields for an anchored last-ten-digits match.
func (r *InMemoryRepository) FindByLastTen(ctx context.Context, agentID, lastTen string) (*Lead, error) {
	if lastTen == "" {
		return nil, ErrLeadNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, lead := range r.leads {
		if lead.AgentID != agentID {
			continue
		}
		if LastTen(lead.Phone) == lastTen || LastTen(lead.AltPhone) == lastTen {
			cp := *lead
			return &cp, nil
		}
	}
	return nil, ErrLeadNotFound
}

// StampResponseAttempt updates only the last-attempt timestamp.
func (r *InMemoryRepository) StampResponseAttempt(ctx context.Context, agentID, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok || lead.AgentID != agentID {
		return ErrLeadNotFound
	}
	lead.LastAIResponseAt = &at
	lead.UpdatedAt = time.Now().UTC()
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
