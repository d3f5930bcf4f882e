// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/telekom/failed-job-deactivator/pkg/metrics"
)

// Message is a single outbound notification.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
	SentAt  time.Time
}

type Sender interface {
	Send(ctx context.Context, msg *Message) error
	GetHost() string
}

// Session is the SMTP client context built by Resolve. It holds no per-call
// state and may be shared by any number of dispatchers.
type Session struct {
	Host string
	Port string

	// ImplicitTLS wraps the connection in TLS before the SMTP greeting (SMTPS).
	ImplicitTLS bool
	// TLSPort is the port the TLS socket is opened on; equal to Port when set.
	TLSPort string
	// TLSFallback allows falling back to plain TCP when the TLS handshake fails.
	TLSFallback bool

	// TLSConfig is used for implicit TLS and STARTTLS. Nil verifies against
	// the system roots.
	TLSConfig *tls.Config

	AuthRequired  bool
	Authenticator *Authenticator

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

var _ Sender = (*Session)(nil)

// GetHost returns the SMTP host, used as metrics label.
func (s *Session) GetHost() string {
	return s.Host
}

// Send makes exactly one delivery attempt.
func (s *Session) Send(ctx context.Context, msg *Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetDateHeader("Date", msg.SentAt)
	m.SetBody("text/plain", msg.Body)

	deliver := gomail.SendFunc(func(from string, to []string, w io.WriterTo) error {
		return s.deliver(ctx, from, to, w)
	})
	if err := gomail.Send(deliver, m); err != nil {
		metrics.MailSendFailure.WithLabelValues(s.GetHost()).Inc()
		return err
	}
	metrics.MailSendSuccess.WithLabelValues(s.GetHost()).Inc()
	return nil
}

func (s *Session) deliver(ctx context.Context, from string, to []string, w io.WriterTo) error {
	addr := net.JoinHostPort(s.Host, s.dialPort())
	dialer := &net.Dialer{Timeout: s.ConnectTimeout}
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	var conn net.Conn = &readTimeoutConn{Conn: raw, timeout: s.ReadTimeout}
	if s.ImplicitTLS {
		conn = tls.Client(conn, s.tlsConfig())
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to start SMTP session with %s: %w", addr, err)
	}
	defer func() { _ = c.Close() }()

	if !s.ImplicitTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(s.tlsConfig()); err != nil {
				return fmt.Errorf("STARTTLS with %s failed: %w", addr, err)
			}
		}
	}

	if s.AuthRequired && s.Authenticator != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			user, _ := s.Authenticator.Credentials()
			if err := c.Auth(s.Authenticator.SMTPAuth()); err != nil {
				return fmt.Errorf("SMTP authentication as %s failed: %w", user, err)
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM %s rejected: %w", from, err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s rejected: %w", rcpt, err)
		}
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.WriteTo(wc); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("message not accepted: %w", err)
	}
	return c.Quit()
}

func (s *Session) tlsConfig() *tls.Config {
	if s.TLSConfig == nil {
		return &tls.Config{ServerName: s.Host, MinVersion: tls.VersionTLS12}
	}
	cfg := s.TLSConfig.Clone()
	if cfg.ServerName == "" {
		cfg.ServerName = s.Host
	}
	return cfg
}

func (s *Session) dialPort() string {
	if s.ImplicitTLS && s.TLSPort != "" {
		return s.TLSPort
	}
	return s.Port
}

// readTimeoutConn bounds every single read, the way a socket read timeout does.
type readTimeoutConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readTimeoutConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}
