package notifier

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
)

func TestNewMailerFallsBackToLog(t *testing.T) {
	t.Parallel()

	m := NewMailer(config.NotificationConfig{}, zap.NewNop())
	_, ok := m.(*LogMailer)
	require.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@b.c", Subject: "hi"}))

	m = NewMailer(config.NotificationConfig{SMTPHost: "smtp.local", SMTPPort: "25"}, zap.NewNop())
	_, ok = m.(*SMTPMailer)
	assert.True(t, ok)
}

func TestSMTPMailerSend(t *testing.T) {
	t.Parallel()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody string
	m := &SMTPMailer{
		cfg: config.NotificationConfig{SMTPHost: "smtp.local", SMTPPort: "2525", EmailFrom: "desk@example.com"},
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotBody = addr, from, to, string(msg)
			assert.Nil(t, a)
			return nil
		},
	}

	err := m.Send(context.Background(), Message{To: "john@aol.com", Subject: "Closed\r\nBcc: x", Body: "done"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.local:2525", gotAddr)
	assert.Equal(t, "desk@example.com", gotFrom)
	assert.Equal(t, []string{"john@aol.com"}, gotTo)
	assert.True(t, strings.Contains(gotBody, "Subject: Closed  Bcc: x\r\n"))
	assert.True(t, strings.HasSuffix(gotBody, "\r\n\r\ndone"))
}

func TestSMTPMailerWrapsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("relay refused")
	m := &SMTPMailer{
		cfg: config.NotificationConfig{SMTPHost: "smtp.local", SMTPPort: "25", SMTPUser: "u", SMTPPassword: "p"},
		send: func(string, smtp.Auth, string, []string, []byte) error {
			return boom
		},
	}
	assert.ErrorIs(t, m.Send(context.Background(), Message{To: "x@y.z"}), boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "x@y.z"}), context.Canceled)
}
