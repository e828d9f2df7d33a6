package audit

import (
	"time"
)

// Record is one access-log entry: who asked for what, on which virtual
// host, and how the gateway answered.
type Record struct {
	// ID is the request id, shared with the request's log lines.
	ID string

	// Time is when the request completed.
	Time time.Time

	// Server is the virtual host name, empty when routing failed.
	Server string

	// Method and Path describe the request line. Query strings are not
	// recorded.
	Method string
	Path   string

	// ClientAddr is the peer address.
	ClientAddr string

	// UserID is the authenticated subject, empty on public routes and
	// rejected requests.
	UserID string

	// Outcome is the handler's disposition ("proxied", "bad_request",
	// "unauthorized", "auth_error", "upstream_error").
	Outcome string

	// Status is the HTTP status returned to the client.
	Status int
}
