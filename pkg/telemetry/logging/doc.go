// Package logging builds the gateway's structured logger on log/slog.
//
// Output goes to stderr by default. With RedactSecrets enabled, a handler
// middleware rewrites bearer tokens and client-secret form fields in log
// messages and string attribute values so credential material never
// reaches the sink, whatever a caller passes.
package logging
