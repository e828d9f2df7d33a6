package proxy

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/panicbit/oauth-gateway/pkg/security/auth"
)

// Trusted headers asserted by the proxy. Their presence on an upstream
// request must imply proxy assertion, so they are stripped from every
// inbound request before any conditional injection.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
)

// stripClientHeaders removes the headers a client must never be able to
// smuggle past the proxy: its Host and Authorization, and the trusted
// identity headers.
func stripClientHeaders(h http.Header) {
	h.Del("Host")
	h.Del("Authorization")
	h.Del(HeaderUserID)
	h.Del(HeaderUserName)
	h.Del(HeaderUserRole)
}

// forwardedFor renders the RFC 7239 for= parameter for a client address.
// IPv4 addresses are rendered bare; IPv6 addresses (already bracketed in
// Go's host:port rendering) are quoted.
func forwardedFor(remoteAddr string) string {
	if strings.HasPrefix(remoteAddr, "[") {
		return fmt.Sprintf("for=%q", remoteAddr)
	}
	return "for=" + remoteAddr
}

// injectIdentity projects an introspection result into the trusted
// headers. Role values that are not valid header values are logged and
// skipped; they never fail the request.
func injectIdentity(h http.Header, info *auth.Introspection, logger *slog.Logger) {
	if info == nil {
		return
	}

	if info.Sub != "" {
		h.Set(HeaderUserID, info.Sub)
	}
	if info.PreferredUsername != "" {
		h.Set(HeaderUserName, info.PreferredUsername)
	}

	for _, role := range info.Roles() {
		if !httpguts.ValidHeaderFieldValue(role) {
			logger.Warn("skipping role with invalid header value", "role_length", len(role))
			continue
		}
		h.Add(HeaderUserRole, role)
	}
}
