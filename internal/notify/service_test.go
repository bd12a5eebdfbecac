package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type captureEmail struct {
	sent []EmailMessage
	err  error
}

func (c *captureEmail) Send(_ context.Context, msg EmailMessage) error {
	c.sent = append(c.sent, msg)
	return c.err
}

func TestAppointmentBooked(t *testing.T) {
	email := &captureEmail{}
	svc := NewService(email, nil)
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatal(err)
	}
	at := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

	svc.AppointmentBooked(context.Background(), "dana@example.com", "Dana", "+15552223333", at, chicago)

	if len(email.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(email.sent))
	}
	msg := email.sent[0]
	if msg.To != "dana@example.com" || msg.ToName != "Dana" {
		t.Fatalf("recipient = %q/%q", msg.To, msg.ToName)
	}
	// 15:00 UTC is 10:00 CDT on this date.
	if !strings.Contains(msg.Subject, "10:00 AM") {
		t.Fatalf("subject = %q, want agent-local time", msg.Subject)
	}
	if !strings.Contains(msg.Body, "+15552223333") || !strings.Contains(msg.Body, "Tuesday, March 10") {
		t.Fatalf("body = %q", msg.Body)
	}
}

func TestAppointmentBookedNilSafe(t *testing.T) {
	var svc *Service
	svc.AppointmentBooked(context.Background(), "dana@example.com", "Dana", "+15552223333", time.Now(), nil)

	email := &captureEmail{}
	NewService(email, nil).AppointmentBooked(context.Background(), "", "Dana", "+15552223333", time.Now(), nil)
	if len(email.sent) != 0 {
		t.Fatal("missing agent email must skip the send")
	}
}

func TestAppointmentBookedSwallowsSendFailure(t *testing.T) {
	email := &captureEmail{err: errors.New("smtp down")}
	NewService(email, nil).AppointmentBooked(context.Background(), "dana@example.com", "Dana", "+15552223333", time.Now(), nil)
	if len(email.sent) != 1 {
		t.Fatal("failure path should still attempt the send once")
	}
}

func TestNewSendGridSenderRequiresKey(t *testing.T) {
	if s := NewSendGridSender(SendGridConfig{}, nil); s != nil {
		t.Fatal("no API key should yield a nil sender")
	}
}
