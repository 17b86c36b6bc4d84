package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/notifier"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (m *recordingMailer) Send(_ context.Context, msg notifier.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg.To)
	if m.fail {
		return errors.New("relay down")
	}
	return nil
}

func TestNotificationWorkerDeliversQueuedMail(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{}
	w := NewNotificationWorker(mailer, 4, zap.NewNop())
	w.Start(context.Background())

	require.NoError(t, w.Send(context.Background(), notifier.Message{To: "a@aol.com"}))
	require.NoError(t, w.Send(context.Background(), notifier.Message{To: "b@aol.com"}))
	w.Stop()

	assert.Equal(t, []string{"a@aol.com", "b@aol.com"}, mailer.sent)
	assert.ErrorIs(t, w.Send(context.Background(), notifier.Message{To: "c@aol.com"}), ErrStopped)
	w.Stop()
}

func TestNotificationWorkerQueueFull(t *testing.T) {
	t.Parallel()

	w := NewNotificationWorker(&recordingMailer{}, 1, zap.NewNop())

	require.NoError(t, w.Send(context.Background(), notifier.Message{To: "a@aol.com"}))
	assert.ErrorIs(t, w.Send(context.Background(), notifier.Message{To: "b@aol.com"}), ErrQueueFull)
	w.Stop()
}

func TestNotificationWorkerSurvivesDeliveryErrors(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{fail: true}
	w := NewNotificationWorker(mailer, 2, zap.NewNop())
	w.Start(context.Background())

	require.NoError(t, w.Send(context.Background(), notifier.Message{To: "a@aol.com"}))
	require.NoError(t, w.Send(context.Background(), notifier.Message{To: "b@aol.com"}))
	w.Stop()

	assert.Len(t, mailer.sent, 2)
}
