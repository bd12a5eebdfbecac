package googlecal

import (
	"context"
	"sync"

	"github.com/coverlinehq/coverline/internal/booking"
)

// Provider hands out per-calendar clients from one set of service-account
// credentials, caching the client per calendar id.
type Provider struct {
	credentialsJSON []byte

	mu      sync.Mutex
	clients map[string]*Client
}

func NewProvider(credentialsJSON []byte) *Provider {
	return &Provider{
		credentialsJSON: credentialsJSON,
		clients:         make(map[string]*Client),
	}
}

// ForCalendarID returns a cached client for the calendar, creating one on
// first use.
func (p *Provider) ForCalendarID(ctx context.Context, calendarID string) (booking.Calendar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[calendarID]; ok {
		return c, nil
	}
	c, err := New(ctx, p.credentialsJSON, calendarID)
	if err != nil {
		return nil, err
	}
	p.clients[calendarID] = c
	return c, nil
}
