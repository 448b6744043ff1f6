package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, mail models.Mail) error
}

// SMTPConfig describes the relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer sends through a single relay without retries.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer returns nil when no relay host is configured.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Host == "" {
		return nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPMailer{cfg: cfg}
}

// Send dials with a bounded timeout, upgrades to TLS when offered and submits
// one message to every recipient.
func (m *SMTPMailer) Send(ctx context.Context, mail models.Mail) error {
	if len(mail.To) == 0 {
		return utils.NewValidationError("to", "at least one recipient is required")
	}
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprint(m.cfg.Port))

	deadline := time.Now().Add(m.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	dialer := &net.Dialer{Timeout: time.Until(deadline)}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "dial smtp %s", addr)
	}
	conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "smtp handshake")
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return errors.Wrap(err, "smtp starttls")
		}
	}
	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return errors.Wrap(err, "smtp auth")
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return errors.Wrap(err, "smtp MAIL FROM")
	}
	for _, rcpt := range mail.To {
		if err := client.Rcpt(rcpt); err != nil {
			return errors.Wrapf(err, "smtp RCPT TO %s", rcpt)
		}
	}

	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "smtp DATA")
	}
	if _, err := w.Write(buildMessage(m.cfg.From, mail)); err != nil {
		w.Close()
		return errors.Wrap(err, "write message")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "finish message")
	}

	utils.GetLogger().Info("Email sent",
		zap.Strings("to", mail.To),
		zap.String("subject", mail.Subject),
	)
	return client.Quit()
}

func buildMessage(from string, mail models.Mail) []byte {
	contentType := "text/plain; charset=UTF-8"
	if mail.HTML {
		contentType = "text/html; charset=UTF-8"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(mail.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mail.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n\r\n", contentType)
	b.WriteString(mail.Body)
	return []byte(b.String())
}
