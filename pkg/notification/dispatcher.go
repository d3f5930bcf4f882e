// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package notification

import (
	"context"
	"fmt"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telekom/failed-job-deactivator/pkg/audit"
	"github.com/telekom/failed-job-deactivator/pkg/mail"
	"github.com/telekom/failed-job-deactivator/pkg/metrics"
	"github.com/telekom/failed-job-deactivator/pkg/system"
)

const (
	// Subject is used for every notification.
	Subject = "Failed Job Deactivator"
	// DateLayout renders the run date in description and log lines.
	DateLayout = "Mon Jan 02 15:04:05 MST 2006"

	lineBreak = "<br>"
)

// Summary counts what happened during one Dispatch call.
type Summary struct {
	Processed           int `json:"processed" yaml:"processed"`
	DescriptionFailures int `json:"descriptionFailures" yaml:"descriptionFailures"`
	Sent                int `json:"sent" yaml:"sent"`
	DeliveryFailures    int `json:"deliveryFailures" yaml:"deliveryFailures"`
	Skipped             int `json:"skipped" yaml:"skipped"`
}

// Dispatcher applies annotate, log and notify to every job of a batch, in
// that order. It logs at INFO and WARN only. The run date is captured once
// at construction and shared by every job the dispatcher ever processes.
type Dispatcher struct {
	transport *mail.TransportConfig
	sender    mail.Sender
	admins    AdminRecipientSource
	audit     audit.Sink
	log       *zap.SugaredLogger
	now       func() time.Time

	date  time.Time
	runID string
}

// Option configures optional Dispatcher collaborators.
type Option func(*Dispatcher)

// WithSender replaces the transport session as delivery mechanism.
func WithSender(sender mail.Sender) Option {
	return func(d *Dispatcher) {
		d.sender = sender
	}
}

// WithAuditSink sets the sink receiving one audit event per job.
func WithAuditSink(sink audit.Sink) Option {
	return func(d *Dispatcher) {
		if sink != nil {
			d.audit = sink
		}
	}
}

// WithClock sets the time source for the run date and the message sent date.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a Dispatcher. transport may be nil, which disables mail.
func NewDispatcher(transport *mail.TransportConfig, admins AdminRecipientSource, log *zap.SugaredLogger, opts ...Option) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	d := &Dispatcher{
		transport: transport,
		admins:    admins,
		audit:     audit.NopSink{},
		now:       time.Now,
		runID:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sender == nil && transport.Enabled() {
		d.sender = transport.Session()
	}
	d.date = d.now()
	d.log = log.Named("dispatcher").With("runID", d.runID)
	return d
}

// RunID identifies this dispatcher in logs and audit events.
func (d *Dispatcher) RunID() string {
	return d.runID
}

// Date is the timestamp written into every description and log line.
func (d *Dispatcher) Date() time.Time {
	return d.date
}

// Dispatch processes the batch sequentially in input order. Failures are
// logged and counted but never returned; an empty batch is a no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, batch []DetectedJob) Summary {
	var summary Summary
	for _, job := range batch {
		d.dispatchOne(ctx, job, &summary)
	}
	return summary
}

func (d *Dispatcher) dispatchOne(ctx context.Context, job DetectedJob, summary *Summary) {
	name := job.Job.FullName()
	log := d.log.With(system.JobFields(name)...)
	summary.Processed++
	metrics.JobsProcessed.WithLabelValues(job.Action.String()).Inc()

	if err := d.updateDescription(job); err != nil {
		summary.DescriptionFailures++
		metrics.DescriptionUpdateFailures.Inc()
		log.Infow("Failed to update job description", "error", err)
	}

	d.logAction(ctx, log, job, name)

	if !d.transport.Enabled() || d.sender == nil {
		metrics.MailSkipped.WithLabelValues("disabled").Inc()
		return
	}

	sent, err := d.notify(ctx, job, name)
	switch {
	case err != nil:
		summary.DeliveryFailures++
		log.Warnw("Sending email failed", "error", err)
	case sent:
		summary.Sent++
	default:
		summary.Skipped++
		metrics.MailSkipped.WithLabelValues("no_recipients").Inc()
	}
}

func (d *Dispatcher) updateDescription(job DetectedJob) error {
	name := job.Job.FullName()
	current, err := job.Job.Description()
	if err != nil {
		return &DescriptionUpdateError{Job: name, Err: fmt.Errorf("reading description: %w", err)}
	}

	verb := "Deactivated"
	if job.Action == ActionDelete {
		verb = "Deleted"
	}
	line := fmt.Sprintf("%s%s - %s: %s\n", lineBreak, d.formattedDate(), verb, job.Reason)

	if err := job.Job.SetDescription(current + line); err != nil {
		return &DescriptionUpdateError{Job: name, Err: fmt.Errorf("writing description: %w", err)}
	}
	return nil
}

func (d *Dispatcher) logAction(ctx context.Context, log *zap.SugaredLogger, job DetectedJob, name string) {
	var event *audit.Event
	if job.Action == ActionDelete {
		log.Warn(fmt.Sprintf("%s - %s deleted: %s", d.formattedDate(), name, job.Reason))
		event = audit.NewEvent(audit.EventJobDeleted, audit.SeverityWarning, d.date, name, job.Reason)
	} else {
		log.Info(fmt.Sprintf("%s - %s deactivated: %s", d.formattedDate(), name, job.Reason))
		event = audit.NewEvent(audit.EventJobDeactivated, audit.SeverityInfo, d.date, name, job.Reason)
	}

	event.RunID = d.runID
	if err := d.audit.Write(ctx, event); err != nil {
		log.Warnw("Failed to write audit event", "sink", d.audit.Name(), "error", err)
	}
}

// notify sends at most one message. It reports false without error when
// neither the job nor the admin list names a recipient.
func (d *Dispatcher) notify(ctx context.Context, job DetectedJob, name string) (bool, error) {
	recipients, err := d.recipients(job)
	if err != nil {
		return false, &DeliveryError{Job: name, Err: err}
	}
	if len(recipients) == 0 {
		return false, nil
	}

	verb := "deactivated"
	if job.Action == ActionDelete {
		verb = "deleted"
	}
	msg := &mail.Message{
		From:    d.transport.ReplyTo(),
		To:      recipients,
		Subject: Subject,
		Body:    fmt.Sprintf("The job %s was %s. - %s", name, verb, job.Reason),
		SentAt:  d.now(),
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		return false, &DeliveryError{Job: name, Recipients: recipients, Err: err}
	}
	return true, nil
}

// recipients merges the job's own list with the admin list. Addresses are
// compared case-insensitively and keep their first position.
func (d *Dispatcher) recipients(job DetectedJob) ([]string, error) {
	var merged []string
	seen := make(map[string]struct{})
	add := func(list string) error {
		if strings.TrimSpace(list) == "" {
			return nil
		}
		addrs, err := netmail.ParseAddressList(list)
		if err != nil {
			return fmt.Errorf("invalid recipient list %q: %w", list, err)
		}
		for _, a := range addrs {
			key := strings.ToLower(a.Address)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if a.Name == "" {
				merged = append(merged, a.Address)
			} else {
				merged = append(merged, a.String())
			}
		}
		return nil
	}

	if err := add(job.Job.Recipients()); err != nil {
		return nil, err
	}
	if d.admins != nil {
		for _, admin := range d.admins.AdminRecipients() {
			if err := add(admin); err != nil {
				return nil, err
			}
		}
	}
	return merged, nil
}

func (d *Dispatcher) formattedDate() string {
	return d.date.Format(DateLayout)
}
