package delivery

import (
	"context"
	"testing"
	"time"
)

func TestMemoryQueueSendReceive(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(8)

	if err := q.Send(ctx, "one"); err != nil {
		t.Fatal(err)
	}
	if err := q.Send(ctx, "two"); err != nil {
		t.Fatal(err)
	}

	msgs, err := q.Receive(ctx, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("received %d messages, want 2", len(msgs))
	}
	if msgs[0].Body != "one" || msgs[1].Body != "two" {
		t.Fatalf("bodies = %q, %q", msgs[0].Body, msgs[1].Body)
	}
	if msgs[0].ID == "" || msgs[0].ReceiptHandle == "" {
		t.Fatal("messages must carry ids and receipt handles")
	}
	if err := q.Delete(ctx, msgs[0].ReceiptHandle); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryQueueReceiveTimesOut(t *testing.T) {
	q := NewMemoryQueue(1)
	start := time.Now()
	msgs, err := q.Receive(context.Background(), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if msgs != nil {
		t.Fatalf("got %v, want nil batch on wait expiry", msgs)
	}
	if time.Since(start) < time.Second {
		t.Fatal("returned before the wait elapsed")
	}
}

func TestMemoryQueueReceiveHonorsContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := q.Receive(ctx, 1, 10); err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestMemoryQueueSendDelayed(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(1)

	if err := q.SendDelayed(ctx, "later", 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	// Not visible before the delay.
	early, earlyCancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer earlyCancel()
	if msgs, err := q.Receive(early, 1, 10); err == nil {
		t.Fatalf("premature delivery: %v", msgs)
	}

	deadline, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msgs, err := q.Receive(deadline, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Body != "later" {
		t.Fatalf("delayed message not delivered: %v", msgs)
	}
}

func TestMemoryQueueSendDelayedZeroIsImmediate(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(1)
	if err := q.SendDelayed(ctx, "now", 0); err != nil {
		t.Fatal(err)
	}
	msgs, err := q.Receive(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Body != "now" {
		t.Fatalf("got %v", msgs)
	}
}
