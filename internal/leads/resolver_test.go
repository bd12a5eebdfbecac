package leads

import (
	"context"
	"testing"
)

type fakeOutbound struct {
	leadID string
	err    error
}

func (f *fakeOutbound) LastOutboundLeadID(_ context.Context, _, _ string) (string, error) {
	return f.leadID, f.err
}

func seedLead(t *testing.T, repo Repository, agentID, phone string) *Lead {
	t.Helper()
	lead := &Lead{AgentID: agentID, Phone: phone, Source: "import"}
	if err := repo.Create(context.Background(), lead); err != nil {
		t.Fatal(err)
	}
	return lead
}

func TestResolveThreadTier(t *testing.T) {
	repo := NewInMemoryRepository()
	lead := seedLead(t, repo, "agent-1", "+15551234567")
	r := NewResolver(repo, &fakeOutbound{leadID: lead.ID}, nil)

	got, err := r.Resolve(context.Background(), "agent-1", "+15551234567")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != lead.ID {
		t.Fatalf("resolved %s, want thread lead %s", got.ID, lead.ID)
	}
}

func TestResolveThreadTierRejectsPhoneMismatch(t *testing.T) {
	// A mis-threaded outbound record points at a lead whose own phone does
	// not match the sender. The thread tier must refuse it and fall through.
	repo := NewInMemoryRepository()
	wrong := seedLead(t, repo, "agent-1", "+15550001111")
	right := seedLead(t, repo, "agent-1", "+15551234567")
	r := NewResolver(repo, &fakeOutbound{leadID: wrong.ID}, nil)

	got, err := r.Resolve(context.Background(), "agent-1", "+15551234567")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != right.ID {
		t.Fatalf("resolved %s, want exact-phone lead %s", got.ID, right.ID)
	}
}

func TestResolveExactPhone(t *testing.T) {
	repo := NewInMemoryRepository()
	lead := seedLead(t, repo, "agent-1", "+15551234567")
	r := NewResolver(repo, nil, nil)

	got, err := r.Resolve(context.Background(), "agent-1", "(555) 123-4567")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != lead.ID {
		t.Fatalf("resolved %s, want %s", got.ID, lead.ID)
	}
}

func TestResolveLastTenTier(t *testing.T) {
	// Stored with a mangled country prefix; only the trailing ten digits
	// line up with the sender.
	repo := NewInMemoryRepository()
	lead := seedLead(t, repo, "agent-1", "+115551234567")
	r := NewResolver(repo, nil, nil)

	got, err := r.Resolve(context.Background(), "agent-1", "+15551234567")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != lead.ID {
		t.Fatalf("resolved %s, want last-ten lead %s", got.ID, lead.ID)
	}
}

func TestResolveScopedToAgent(t *testing.T) {
	repo := NewInMemoryRepository()
	other := seedLead(t, repo, "agent-2", "+15551234567")
	r := NewResolver(repo, nil, nil)

	got, err := r.Resolve(context.Background(), "agent-1", "+15551234567")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID == other.ID {
		t.Fatal("must not resolve another agent's lead")
	}
	if got.AgentID != "agent-1" {
		t.Fatalf("created lead under %s, want agent-1", got.AgentID)
	}
}

func TestResolveCreatesFallbackLead(t *testing.T) {
	repo := NewInMemoryRepository()
	r := NewResolver(repo, nil, nil)

	got, err := r.Resolve(context.Background(), "agent-1", "+15559990000")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID == "" {
		t.Fatal("fallback lead should get an id")
	}
	if got.Source != SourceInboundSMS {
		t.Fatalf("source = %q, want %q", got.Source, SourceInboundSMS)
	}
	if got.ConversationState != StateIdle {
		t.Fatalf("state = %q, want idle", got.ConversationState)
	}

	// A second message from the same number resolves to the same record.
	again, err := r.Resolve(context.Background(), "agent-1", "+15559990000")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != got.ID {
		t.Fatalf("re-resolve created a duplicate: %s vs %s", again.ID, got.ID)
	}
}

func TestResolveRejectsEmptyFrom(t *testing.T) {
	r := NewResolver(NewInMemoryRepository(), nil, nil)
	if _, err := r.Resolve(context.Background(), "agent-1", "  "); err == nil {
		t.Fatal("empty sender must be rejected")
	}
}
