package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/coverlinehq/coverline/internal/messaging"
)

// The worker drains the queue end to end: inbound job, composed draft,
// delayed dispatch job, provider send.
func TestWorkerProcessesInboundThroughSend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.engine.EnqueueInbound(ctx, env.inbound("how much does it cost")); err != nil {
		t.Fatal(err)
	}

	w := NewWorker(env.engine, env.queue, nil,
		WithWorkerCount(1), WithReceiveWaitSeconds(1), WithReceiveBatchSize(1))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.Shutdown(shutdownCtx); err != nil {
			t.Fatal(err)
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if rows := env.messages.All(); len(rows) == 1 {
			msg := rows[0]
			if msg.Direction != messaging.DirectionOutbound || !msg.Automated {
				t.Fatalf("recorded %+v", msg)
			}
			if msg.ToNumber != env.lead.Phone {
				t.Fatalf("sent to %s, want the lead", msg.ToNumber)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("worker did not complete the pipeline in time")
}

func TestWorkerDropsMalformedPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.queue.Send(ctx, "{not json"); err != nil {
		t.Fatal(err)
	}
	if err := env.queue.Send(ctx, `{"kind":"unknown"}`); err != nil {
		t.Fatal(err)
	}

	w := NewWorker(env.engine, env.queue, nil, WithWorkerCount(1), WithReceiveWaitSeconds(1))
	time.Sleep(200 * time.Millisecond)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Shutdown(shutdownCtx); err != nil {
		t.Fatal(err)
	}

	if len(env.sender.sent()) != 0 {
		t.Fatal("garbage payloads must not reach the sender")
	}
}
