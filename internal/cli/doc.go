// Package cli defines the Cobra command tree for the bundlekeep CLI. Each
// file in this package registers one top-level command (download, install,
// rollback, etc.) with the root command. Commands delegate to
// internal/updater for the package lifecycle and only handle flag parsing,
// output formatting and configuration.
package cli
