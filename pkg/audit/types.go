// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of audit event.
type EventType string

const (
	EventJobDeactivated EventType = "job.deactivated"
	EventJobDeleted     EventType = "job.deleted"
)

// Severity mirrors the log severity used for the same action.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Event is a single job lifecycle audit record.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	// RunID correlates all events written by the same dispatcher.
	RunID  string `json:"runId,omitempty"`
	Job    string `json:"job"`
	Reason string `json:"reason,omitempty"`
}

// NewEvent creates an event with a fresh ID.
func NewEvent(eventType EventType, severity Severity, timestamp time.Time, job, reason string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Severity:  severity,
		Timestamp: timestamp,
		Job:       job,
		Reason:    reason,
	}
}
