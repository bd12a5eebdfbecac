package leads

import (
	"errors"
	"testing"
	"time"
)

func TestProposeThenConfirm(t *testing.T) {
	lead := &Lead{ConversationState: StateIdle}
	slot := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	if err := lead.ProposeTime(slot); err != nil {
		t.Fatal(err)
	}
	if lead.ConversationState != StateAwaitingTime {
		t.Fatalf("state = %s, want awaiting_time", lead.ConversationState)
	}
	if lead.LastProposed == nil || !lead.LastProposed.Equal(slot) {
		t.Fatal("proposal must be remembered for confirmation binding")
	}

	now := time.Now()
	if err := lead.ConfirmAppointment(slot, now); err != nil {
		t.Fatal(err)
	}
	if lead.ConversationState != StateScheduled {
		t.Fatalf("state = %s, want scheduled", lead.ConversationState)
	}
	if lead.PendingAppointment != nil {
		t.Fatal("confirmation must clear the pending slot")
	}
	if lead.LastConfirmationAt == nil || !lead.LastConfirmationAt.Equal(now) {
		t.Fatal("confirmation timestamp missing")
	}
	if err := lead.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestProposeTimeRejectsZero(t *testing.T) {
	lead := &Lead{}
	if err := lead.ProposeTime(time.Time{}); err == nil {
		t.Fatal("zero proposal should be rejected")
	}
}

func TestEnterQA(t *testing.T) {
	lead := &Lead{ConversationState: StateIdle}
	if err := lead.EnterQA("price"); err != nil {
		t.Fatal(err)
	}
	if lead.ConversationState != StateQA {
		t.Fatalf("state = %s, want qa", lead.ConversationState)
	}
	if len(lead.LastAskedTopics) != 1 || lead.LastAskedTopics[0] != "price" {
		t.Fatalf("topics = %v", lead.LastAskedTopics)
	}

	// The topic history is bounded at one entry.
	if err := lead.EnterQA("identity"); err != nil {
		t.Fatal(err)
	}
	if len(lead.LastAskedTopics) != 1 || lead.LastAskedTopics[0] != "identity" {
		t.Fatalf("topics = %v", lead.LastAskedTopics)
	}
}

func TestEnterQAKeepsScheduledState(t *testing.T) {
	slot := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	lead := &Lead{}
	if err := lead.ConfirmAppointment(slot, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := lead.EnterQA("price"); err != nil {
		t.Fatal(err)
	}
	if lead.ConversationState != StateScheduled {
		t.Fatalf("a booked lead asking questions must stay scheduled, got %s", lead.ConversationState)
	}
}

func TestOptOutIsFinalForAutomation(t *testing.T) {
	slot := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	lead := &Lead{OptedIn: true}
	if err := lead.ProposeTime(slot); err != nil {
		t.Fatal(err)
	}

	lead.OptOut()
	if !lead.OptedOut || lead.OptedIn {
		t.Fatal("opt-out must flip both compliance flags")
	}
	if lead.PendingAppointment != nil || lead.LastProposed != nil {
		t.Fatal("opt-out must clear pending automation")
	}
	if lead.ConversationState != StateIdle {
		t.Fatalf("state = %s, want idle", lead.ConversationState)
	}

	if err := lead.ProposeTime(slot); !errors.Is(err, ErrOptedOut) {
		t.Fatalf("propose after opt-out = %v, want ErrOptedOut", err)
	}
	if err := lead.ConfirmAppointment(slot, time.Now()); !errors.Is(err, ErrOptedOut) {
		t.Fatalf("confirm after opt-out = %v, want ErrOptedOut", err)
	}
	if err := lead.EnterQA("price"); !errors.Is(err, ErrOptedOut) {
		t.Fatalf("qa after opt-out = %v, want ErrOptedOut", err)
	}

	lead.OptIn()
	if lead.OptedOut || !lead.OptedIn {
		t.Fatal("START must re-enable automation")
	}
	if err := lead.ProposeTime(slot); err != nil {
		t.Fatal(err)
	}
}

func TestValidate(t *testing.T) {
	slot := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		lead    Lead
		wantErr bool
	}{
		{"empty lead ok", Lead{}, false},
		{"both flags", Lead{OptedOut: true, OptedIn: true}, true},
		{"scheduled without appointment", Lead{ConversationState: StateScheduled}, true},
		{"scheduled with appointment", Lead{ConversationState: StateScheduled, ConfirmedAppointment: &slot}, false},
		{"opted out non-idle", Lead{OptedOut: true, ConversationState: StateQA}, true},
		{"unknown state", Lead{ConversationState: "weird"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.lead.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
