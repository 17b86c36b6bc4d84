package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/notifier"
)

// ErrQueueFull is returned when a notification cannot be queued.
var ErrQueueFull = errors.New("notification queue full")

// ErrStopped is returned for messages sent after Stop.
var ErrStopped = errors.New("notification worker stopped")

// NotificationWorker delivers mail in the background so request handlers
// never wait on the mail relay. It satisfies notifier.Mailer.
type NotificationWorker struct {
	mailer notifier.Mailer
	logger *zap.Logger
	jobs   chan notifier.Message

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewNotificationWorker wraps mailer with a queue of the given size.
func NewNotificationWorker(mailer notifier.Mailer, buffer int, logger *zap.Logger) *NotificationWorker {
	if buffer <= 0 {
		buffer = 64
	}
	return &NotificationWorker{
		mailer: mailer,
		logger: logger,
		jobs:   make(chan notifier.Message, buffer),
	}
}

// Send queues msg without blocking.
func (w *NotificationWorker) Send(_ context.Context, msg notifier.Message) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.jobs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the delivery loop. Deliveries use ctx, so cancelling it
// aborts in-flight sends; queued messages are still drained by Stop.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for msg := range w.jobs {
			if err := w.mailer.Send(ctx, msg); err != nil {
				w.logger.Warn("notification delivery failed",
					zap.String("to", msg.To),
					zap.String("subject", msg.Subject),
					zap.Error(err))
			}
		}
	}()
}

// Stop refuses new messages and waits for queued ones to be processed.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.jobs)
	w.mu.Unlock()
	w.wg.Wait()
}
