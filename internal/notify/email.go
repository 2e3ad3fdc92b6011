package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	"gopkg.in/gomail.v2"
)

// Notifier delivers a single HTML message.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type EmailConfig struct {
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	FromEmail string
}

type EmailNotifier struct {
	cfg    EmailConfig
	logger *slog.Logger
	send   func(m *gomail.Message) error
}

func NewEmailNotifier(cfg EmailConfig, logger *slog.Logger) *EmailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &EmailNotifier{cfg: cfg, logger: logger}
	n.send = func(m *gomail.Message) error {
		d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
		return d.DialAndSend(m)
	}
	return n
}

// Send returns when the SMTP exchange finishes or ctx is done, whichever
// comes first.
func (n *EmailNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	if n.cfg.SMTPHost == "" || n.cfg.FromEmail == "" {
		n.logger.Warn("email config missing, skip notification", slog.String("subject", subject))
		return nil
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- n.send(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email: %w", err)
		}
		n.logger.Info("email sent", slog.String("to", to), slog.String("subject", subject))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email: %w", ctx.Err())
	}
}

func VerificationEmail(name, code string) (string, string) {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Verify your email</h2>
    <p>Hi %s,</p>
    <p>Your verification code is:</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>The code expires in 10 minutes.</p>
  </div>
</body>
</html>`, html.EscapeString(name), html.EscapeString(code))
	return "Your verification code", body
}

func PasswordResetEmail(appURL, email, token string) (string, string) {
	link := fmt.Sprintf("%s/auth/reset-password?token=%s&email=%s",
		appURL, url.QueryEscape(token), url.QueryEscape(email))
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Reset your password</h2>
    <p>Use the link below to choose a new password. It is valid for one hour.</p>
    <p><a href="%s">Reset password</a></p>
    <p>If you did not request this, you can ignore this email.</p>
  </div>
</body>
</html>`, html.EscapeString(link))
	return "Reset your password", body
}
