// Package config loads the deactivator configuration file: host-wide mail
// settings, admin recipients and audit sink settings.
package config
