// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"crypto/tls"
	"crypto/x509"
	"time"
)

const (
	// DefaultPort is used when no explicit SMTP port is configured.
	DefaultPort = "25"
	// DefaultSSLPort is used when SSL is enabled and no explicit port is configured.
	DefaultSSLPort = "465"
	// DefaultTimeout applies to both connecting and reading from the SMTP server.
	DefaultTimeout = 60000 * time.Millisecond
)

// MailSettings is the host-wide outbound mail configuration.
// An empty Port means "not set".
type MailSettings struct {
	Host         string
	Port         string
	AuthUser     string
	AuthPassword string
	UseSSL       bool
	ReplyTo      string

	// RootCAs replaces the system roots when verifying the server certificate.
	RootCAs            *x509.CertPool
	InsecureSkipVerify bool
}

// SettingsProvider supplies the host-wide mail settings.
type SettingsProvider interface {
	MailSettings() MailSettings
}

// SettingsFunc adapts a plain function to a SettingsProvider.
type SettingsFunc func() MailSettings

func (f SettingsFunc) MailSettings() MailSettings {
	return f()
}

// Authenticator holds the SMTP credentials captured when the transport was resolved.
type Authenticator struct {
	user     string
	password string
}

// NewAuthenticator returns nil when user is empty, so anonymous sessions carry no authenticator.
func NewAuthenticator(user, password string) *Authenticator {
	if user == "" {
		return nil
	}
	return &Authenticator{user: user, password: password}
}

// Credentials returns the same pair on every challenge.
func (a *Authenticator) Credentials() (user, password string) {
	return a.user, a.password
}

// TransportConfig is an immutable snapshot of the mail settings together with
// the session built from them. Build it with Resolve.
type TransportConfig struct {
	host         string
	port         string
	authUser     string
	authPassword string
	useSSL       bool
	replyTo      string
	insecure     bool
	enabled      bool
	session      *Session
}

// Resolve reads the provider exactly once and builds the session when mail is
// configured. A missing host or reply-to address disables mail; that is not an error.
func Resolve(provider SettingsProvider) *TransportConfig {
	s := provider.MailSettings()

	tc := &TransportConfig{
		host:         s.Host,
		port:         s.Port,
		authUser:     s.AuthUser,
		authPassword: s.AuthPassword,
		useSSL:       s.UseSSL,
		replyTo:      s.ReplyTo,
		insecure:     s.InsecureSkipVerify,
		enabled:      s.Host != "" && s.ReplyTo != "",
	}
	if tc.enabled {
		tc.session = newSession(s)
	}
	return tc
}

func newSession(s MailSettings) *Session {
	session := &Session{
		Host:           s.Host,
		Port:           s.Port,
		ConnectTimeout: DefaultTimeout,
		ReadTimeout:    DefaultTimeout,
		Authenticator:  NewAuthenticator(s.AuthUser, s.AuthPassword),
	}
	if session.Port == "" {
		session.Port = DefaultPort
	}
	if s.RootCAs != nil || s.InsecureSkipVerify {
		session.TLSConfig = &tls.Config{
			ServerName:         s.Host,
			MinVersion:         tls.VersionTLS12,
			RootCAs:            s.RootCAs,
			InsecureSkipVerify: s.InsecureSkipVerify, //nolint:gosec // opt-in for relays with self-signed certificates
		}
	}

	if s.UseSSL {
		port := s.Port
		if port == "" {
			port = DefaultSSLPort
		}
		session.Port = port
		session.TLSPort = port
		session.ImplicitTLS = true
		session.TLSFallback = false
	}

	session.AuthRequired = s.AuthUser != ""
	return session
}

// Enabled reports whether outbound mail is configured.
func (t *TransportConfig) Enabled() bool {
	return t != nil && t.enabled
}

// Session is nil unless Enabled.
func (t *TransportConfig) Session() *Session {
	if t == nil {
		return nil
	}
	return t.session
}

// Host returns the configured SMTP host.
func (t *TransportConfig) Host() string {
	return t.host
}

// Port returns the configured port, empty when none was set.
func (t *TransportConfig) Port() string {
	return t.port
}

func (t *TransportConfig) AuthUser() string {
	return t.authUser
}

func (t *TransportConfig) UseSSL() bool {
	return t.useSSL
}

// ReplyTo is used as the sender address of every notification.
func (t *TransportConfig) ReplyTo() string {
	return t.replyTo
}

// HasPassword reports whether a password was configured without exposing it.
func (t *TransportConfig) HasPassword() bool {
	return t.authPassword != ""
}

// TransportInfo is a printable view of a TransportConfig. It never carries the password.
type TransportInfo struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Host        string `json:"host" yaml:"host"`
	Port        string `json:"port,omitempty" yaml:"port,omitempty"`
	SSL         bool   `json:"ssl" yaml:"ssl"`
	AuthUser    string `json:"authUser,omitempty" yaml:"authUser,omitempty"`
	PasswordSet bool   `json:"passwordSet" yaml:"passwordSet"`
	ReplyTo     string `json:"replyTo,omitempty" yaml:"replyTo,omitempty"`
	// InsecureSkipVerify is only reported when set.
	InsecureSkipVerify bool `json:"insecureSkipVerify,omitempty" yaml:"insecureSkipVerify,omitempty"`
}

// Info reports the configured values, with Port as the session will dial it.
func (t *TransportConfig) Info() TransportInfo {
	if t == nil {
		return TransportInfo{}
	}
	info := TransportInfo{
		Enabled:     t.enabled,
		Host:        t.host,
		Port:        t.port,
		SSL:         t.useSSL,
		AuthUser:    t.authUser,
		PasswordSet: t.HasPassword(),
		ReplyTo:     t.replyTo,

		InsecureSkipVerify: t.insecure,
	}
	if t.session != nil {
		info.Port = t.session.dialPort()
	}
	return info
}
