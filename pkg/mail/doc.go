// Package mail resolves the outbound SMTP transport from the host-wide mail
// settings and delivers single notification messages over it.
package mail
