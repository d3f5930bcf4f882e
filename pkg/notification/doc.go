// Package notification reacts to a batch of detected jobs: it annotates each
// job's description, logs the action and, when outbound mail is configured,
// emails the job's own recipients together with the admin recipients.
package notification
