// Package mail delivers the registration e-mails sent to people who are
// added to the system without an account of their own.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

//go:generate mockgen -destination ./mailmock/mailer.go -package mailmock groupmanager/internal/mail Mailer

// Message is a single plain-text e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig is the subset of settings the SMTP mailer needs. StartTLS
// upgrades the session before authenticating; without it the relay is
// spoken to in plain text.
type SMTPConfig struct {
	Addr     string
	Username string
	Password string
	From     string
	StartTLS bool
}

// SMTPMailer delivers through an SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
	log zerolog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, log zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log.With().Str("component", "mail").Logger()}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	from, err := mail.ParseAddress(m.cfg.From)
	if err != nil {
		return fmt.Errorf("parse 'from' address: %w", err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("parse 'to' address: %w", err)
	}
	host, _, err := net.SplitHostPort(m.cfg.Addr)
	if err != nil {
		return fmt.Errorf("'addr' validation: %w", err)
	}

	body, err := compose(from.Address, to.Address, msg)
	if err != nil {
		return err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", m.cfg.Addr)
	if err != nil {
		return fmt.Errorf("establish connection to server: %w", err)
	}
	// The client resets deadlines per command, so cancellation closes the
	// connection instead.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := m.client(conn, host)
	if err != nil {
		_ = conn.Close()
		return m.sendErr(ctx, to.Address, err)
	}
	defer func() {
		if err := c.Close(); err != nil && ctx.Err() == nil {
			m.log.Debug().Err(err).Msg("close smtp connection")
		}
	}()

	if m.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)); err != nil {
			return m.sendErr(ctx, to.Address, fmt.Errorf("plain auth: %w", err))
		}
	}
	if err := c.SendMail(from.Address, []string{to.Address}, bytes.NewReader(body)); err != nil {
		return m.sendErr(ctx, to.Address, err)
	}
	if err := c.Quit(); err != nil {
		return m.sendErr(ctx, to.Address, err)
	}
	m.log.Debug().Str("to", to.Address).Str("subject", msg.Subject).Msg("mail sent")
	return nil
}

// client greets the relay, upgrading the session first when StartTLS is set.
func (m *SMTPMailer) client(conn net.Conn, host string) (*smtp.Client, error) {
	if !m.cfg.StartTLS {
		return smtp.NewClient(conn), nil
	}
	c, err := smtp.NewClientStartTLS(conn, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return nil, fmt.Errorf("starttls: %w", err)
	}
	return c, nil
}

func (m *SMTPMailer) sendErr(ctx context.Context, to string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("send mail to %s: %w", to, err)
}

func compose(from, to string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Message-Id: <%s@%s>\r\n", uuid.NewString(), domainOf(from))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	qw := quotedprintable.NewWriter(&buf)
	if _, err := qw.Write([]byte(msg.Body)); err != nil {
		return nil, fmt.Errorf("write body: %w", err)
	}
	if err := qw.Close(); err != nil {
		return nil, fmt.Errorf("close body: %w", err)
	}
	return buf.Bytes(), nil
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return addr[i+1:]
	}
	return "localhost"
}

// LogMailer only logs; it is used when no SMTP relay is configured.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mail").Logger()}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("smtp disabled, mail not sent")
	return nil
}
