// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package notification

import (
	"fmt"
	"strings"
)

// DescriptionUpdateError means the job record store could not be read or written.
type DescriptionUpdateError struct {
	Job string
	Err error
}

func (e *DescriptionUpdateError) Error() string {
	return fmt.Sprintf("failed to update description of job %s: %v", e.Job, e.Err)
}

func (e *DescriptionUpdateError) Unwrap() error {
	return e.Err
}

// DeliveryError means a notification could not be composed or sent.
type DeliveryError struct {
	Job        string
	Recipients []string
	Err        error
}

func (e *DeliveryError) Error() string {
	if len(e.Recipients) == 0 {
		return fmt.Sprintf("failed to notify about job %s: %v", e.Job, e.Err)
	}
	return fmt.Sprintf("failed to notify %s about job %s: %v", strings.Join(e.Recipients, ", "), e.Job, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
