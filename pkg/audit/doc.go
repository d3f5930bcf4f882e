// Package audit records one structured event per dispatched job lifecycle
// action and writes it to a structured log and, optionally, a Kafka topic.
package audit
