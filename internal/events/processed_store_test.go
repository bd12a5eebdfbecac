package events

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

func TestMemoryStoreMarkProcessed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.MarkProcessed(ctx, "twilio", "SM1")
	if err != nil {
		t.Fatal(err)
	}
	if !first {
		t.Fatal("first claim should win")
	}

	again, err := store.MarkProcessed(ctx, "twilio", "SM1")
	if err != nil {
		t.Fatal(err)
	}
	if again {
		t.Fatal("replay must report already processed")
	}

	// Same id under a different provider is a distinct event.
	other, err := store.MarkProcessed(ctx, "sendgrid", "SM1")
	if err != nil {
		t.Fatal(err)
	}
	if !other {
		t.Fatal("provider scopes the event id")
	}

	if _, err := store.MarkProcessed(ctx, "", "SM1"); err == nil {
		t.Fatal("empty provider must error")
	}
	if _, err := store.MarkProcessed(ctx, "twilio", ""); err == nil {
		t.Fatal("empty event id must error")
	}
}

func TestPostgresStoreMarkProcessed(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()
	store := NewPostgresStore(mock)

	mock.ExpectExec("INSERT INTO processed_events").
		WithArgs("twilio", "SM1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	first, err := store.MarkProcessed(ctx, "twilio", "SM1")
	if err != nil {
		t.Fatal(err)
	}
	if !first {
		t.Fatal("fresh insert should report first claim")
	}

	mock.ExpectExec("INSERT INTO processed_events").
		WithArgs("twilio", "SM1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	again, err := store.MarkProcessed(ctx, "twilio", "SM1")
	if err != nil {
		t.Fatal(err)
	}
	if again {
		t.Fatal("conflict must report replay")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
