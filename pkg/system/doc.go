// Package system holds process-wide logging helpers: the zap logger factory,
// shared structured fields, and loggers for tests.
package system
