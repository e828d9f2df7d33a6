// oauth-gateway is a multi-tenant authenticating reverse HTTP proxy.
//
// One process binds several listening sockets, terminates TLS with
// per-virtual-host certificates selected by SNI, authenticates requests
// against an OIDC provider via token introspection, and streams upstream
// responses back to clients. Identity attributes from the introspection
// response are projected into trusted headers the backend can rely on.
//
// Usage:
//
//	# Start with default configuration
//	oauth-gateway run
//
//	# Start with a custom configuration file
//	oauth-gateway run --config /etc/oauth-gateway/config.yaml
//
//	# Validate a configuration file without starting
//	oauth-gateway validate
//
//	# Show version information
//	oauth-gateway version
package main

func main() {
	Execute()
}
