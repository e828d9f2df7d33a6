// Package cli holds helpers shared by the oauth-gateway commands: typed
// startup/config errors and signal-driven shutdown contexts.
package cli
