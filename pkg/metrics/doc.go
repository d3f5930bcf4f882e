// Package metrics defines Prometheus metrics for the failed job deactivator,
// covering dispatched jobs, description updates, mail delivery and audit sinks.
package metrics
