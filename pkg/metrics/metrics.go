// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Dispatch metrics
	JobsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deactivator_jobs_processed_total",
		Help: "Total number of detected jobs processed by the notification dispatcher",
	}, []string{"action"})
	DescriptionUpdateFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deactivator_description_update_failures_total",
		Help: "Total number of job descriptions that could not be annotated",
	})

	// Mail metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deactivator_mail_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deactivator_mail_send_failure_total",
		Help: "Total number of failed mail sends",
	}, []string{"host"})
	// reason is "disabled" or "no_recipients"
	MailSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deactivator_mail_skipped_total",
		Help: "Total number of notifications not sent because mail is disabled or no recipient is configured",
	}, []string{"reason"})

	// Audit metrics
	AuditSinkErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deactivator_audit_sink_errors_total",
		Help: "Total number of audit events that could not be written",
	}, []string{"sink"})
)

func init() {
	prometheus.MustRegister(JobsProcessed)
	prometheus.MustRegister(DescriptionUpdateFailures)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
	prometheus.MustRegister(MailSkipped)
	prometheus.MustRegister(AuditSinkErrors)
}

// WriteTextfile dumps the default registry in the text exposition format so
// the node exporter textfile collector can pick up the counters of a run.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
