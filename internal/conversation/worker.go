package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coverlinehq/coverline/internal/delivery"
	"github.com/coverlinehq/coverline/pkg/logging"
)

const (
	defaultWorkers          = 2
	defaultReceiveWait      = 2  // seconds
	defaultReceiveMax       = 5  // messages
	maxReceiveWaitSeconds   = 20 // SQS limit
	maxReceiveBatchMessages = 10
)

// Worker polls the queue and routes jobs into the engine.
type Worker struct {
	engine *Engine
	queue  delivery.Queue
	logger *logging.Logger

	cfg workerConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// WorkerOption configures the worker pool.
type WorkerOption func(*workerConfig)

// WithWorkerCount overrides the number of queue polling goroutines.
func WithWorkerCount(workers int) WorkerOption {
	return func(cfg *workerConfig) {
		if workers > 0 {
			cfg.workers = workers
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait time for ReceiveMessage calls.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxReceiveWaitSeconds {
			seconds = maxReceiveWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize overrides how many messages each poll should return.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchMessages {
			size = maxReceiveBatchMessages
		}
		cfg.receiveBatchSize = size
	}
}

// NewWorker starts the polling goroutines immediately.
func NewWorker(engine *Engine, queue delivery.Queue, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if engine == nil {
		panic("conversation: engine cannot be nil")
	}
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkers,
		receiveWaitSecs:  defaultReceiveWait,
		receiveBatchSize: defaultReceiveMax,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		engine: engine,
		queue:  queue,
		logger: logger,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(i + 1)
	}

	return w
}

// Shutdown stops the polling goroutines and waits for in-flight jobs.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (w *Worker) run(workerID int) {
	defer w.wg.Done()
	w.logger.Debug("conversation worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("conversation worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(w.ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive conversation jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(msg)
		}
	}
}

func (w *Worker) handleMessage(msg delivery.QueueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("failed to decode conversation job", "error", err)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}

	var err error
	switch payload.Kind {
	case jobKindInbound:
		if payload.Inbound == nil {
			err = errors.New("conversation: inbound job missing payload")
		} else {
			err = w.engine.HandleInbound(w.ctx, *payload.Inbound)
		}
	case jobKindDispatch:
		if payload.Dispatch == nil {
			err = errors.New("conversation: dispatch job missing payload")
		} else {
			err = w.engine.HandleDispatch(w.ctx, *payload.Dispatch)
		}
	default:
		err = fmt.Errorf("conversation: unknown job kind %q", payload.Kind)
	}

	if err != nil {
		// Leave the message for redelivery on infrastructure failures;
		// business suppressions already returned nil.
		w.logger.Error("conversation job failed", "error", err, "kind", string(payload.Kind))
		return
	}

	w.deleteMessage(msg.ReceiptHandle)
}

func (w *Worker) deleteMessage(receiptHandle string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete conversation job", "error", err)
	}
}
