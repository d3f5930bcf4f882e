// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"bytes"
	"errors"
	"fmt"
	"net/smtp"
)

// smtpAuth answers the server's AUTH exchange with the captured credentials.
// It picks PLAIN when advertised and LOGIN otherwise. Unlike smtp.PlainAuth it
// also sends credentials over a connection without TLS when the server
// advertises the mechanism there.
type smtpAuth struct {
	user      string
	password  string
	mechanism string
}

var _ smtp.Auth = (*smtpAuth)(nil)

// SMTPAuth returns the exchange for this authenticator. Each call starts a fresh exchange.
func (a *Authenticator) SMTPAuth() smtp.Auth {
	return &smtpAuth{user: a.user, password: a.password}
}

func (a *smtpAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	switch {
	case advertises(server, "PLAIN"):
		a.mechanism = "PLAIN"
		return a.mechanism, []byte("\x00" + a.user + "\x00" + a.password), nil
	case advertises(server, "LOGIN"):
		a.mechanism = "LOGIN"
		return a.mechanism, nil, nil
	default:
		return "", nil, fmt.Errorf("server %s offers no supported AUTH mechanism (have %v, need PLAIN or LOGIN)", server.Name, server.Auth)
	}
}

func (a *smtpAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	if a.mechanism != "LOGIN" {
		return nil, errors.New("unexpected server challenge during PLAIN authentication")
	}

	switch {
	case bytes.EqualFold(fromServer, []byte("Username:")):
		return []byte(a.user), nil
	case bytes.EqualFold(fromServer, []byte("Password:")):
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected server challenge: %s", fromServer)
	}
}

func advertises(server *smtp.ServerInfo, mechanism string) bool {
	for _, m := range server.Auth {
		if m == mechanism {
			return true
		}
	}
	return false
}
