// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package notification

import (
	"fmt"
	"strings"
)

// Action selects the branch a detected job takes.
type Action int

const (
	ActionDeactivate Action = iota
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionDeactivate:
		return "deactivate"
	case ActionDelete:
		return "delete"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction accepts "deactivate" and "delete", case-insensitively.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deactivate":
		return ActionDeactivate, nil
	case "delete":
		return ActionDelete, nil
	default:
		return 0, fmt.Errorf("unknown action %q (expected deactivate or delete)", s)
	}
}

// Job is the handle to a job record owned by the job store. The dispatcher
// only rewrites the description and reads the name and recipients.
type Job interface {
	FullName() string
	Description() (string, error)
	SetDescription(description string) error
	// Recipients is the job's own comma separated recipient list, empty if none.
	Recipients() string
}

// DetectedJob is one entry of a batch produced by the detection phase.
type DetectedJob struct {
	Action Action
	Reason string
	Job    Job
}

// AdminRecipientSource supplies the host-wide recipients notified for every job.
type AdminRecipientSource interface {
	AdminRecipients() []string
}

// AdminRecipientsFunc adapts a plain function to an AdminRecipientSource.
type AdminRecipientsFunc func() []string

func (f AdminRecipientsFunc) AdminRecipients() []string {
	return f()
}
