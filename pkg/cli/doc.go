// Package cli implements the deactivator command line: flag parsing with
// environment variable fallbacks, and the notify, transport and version
// commands built on cobra.
package cli
