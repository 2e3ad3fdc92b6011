package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestEmailNotifierSkipsWhenUnconfigured(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{}, nil)
	called := false
	n.send = func(*gomail.Message) error {
		called = true
		return nil
	}

	require.NoError(t, n.Send(context.Background(), "jane@example.com", "hi", "<p>hi</p>"))
	assert.False(t, called)
}

func TestEmailNotifierSendsMessage(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{SMTPHost: "smtp.test", SMTPPort: 587, FromEmail: "noreply@folio.dev"}, nil)
	var sent *gomail.Message
	n.send = func(m *gomail.Message) error {
		sent = m
		return nil
	}

	require.NoError(t, n.Send(context.Background(), "jane@example.com", "Subject", "<p>body</p>"))
	require.NotNil(t, sent)
	assert.Equal(t, []string{"jane@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"Subject"}, sent.GetHeader("Subject"))
}

func TestEmailNotifierHonoursDeadline(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{SMTPHost: "smtp.test", FromEmail: "noreply@folio.dev"}, nil)
	release := make(chan struct{})
	defer close(release)
	n.send = func(*gomail.Message) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := n.Send(ctx, "jane@example.com", "s", "b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestEmailNotifierWrapsTransportError(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{SMTPHost: "smtp.test", FromEmail: "noreply@folio.dev"}, nil)
	n.send = func(*gomail.Message) error { return errors.New("connection refused") }

	err := n.Send(context.Background(), "jane@example.com", "s", "b")
	assert.ErrorContains(t, err, "connection refused")
}

func TestPasswordResetEmailLink(t *testing.T) {
	subject, body := PasswordResetEmail("https://folio.dev", "jane+1@example.com", "abc123")
	assert.Equal(t, "Reset your password", subject)
	assert.True(t, strings.Contains(body, "https://folio.dev/auth/reset-password?token=abc123&amp;email=jane%2B1%40example.com"))
}
