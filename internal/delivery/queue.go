// Package delivery paces outbound replies: human-feel delays, quiet-hours
// deferral, and the Redis guards that keep a lead from being double-texted.
package delivery

import (
	"context"
	"time"
)

// Queue is the transport for dispatch jobs. SendDelayed makes the message
// invisible to consumers until the delay elapses, which survives process
// restarts when backed by SQS.
type Queue interface {
	Send(ctx context.Context, body string) error
	SendDelayed(ctx context.Context, body string, delay time.Duration) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]QueueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// QueueMessage is one received queue entry.
type QueueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}
