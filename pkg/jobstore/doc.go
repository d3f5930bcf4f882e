// Package jobstore is the file-backed job record store used by the deactivator
// CLI. It holds each job's description and recipient list, persists description
// changes, and reads the batch of detected jobs to notify about.
package jobstore
