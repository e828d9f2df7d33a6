// Package router maps a connection's (listen address, host name) pair to
// the virtual host configured for it. Host names compare
// case-insensitively; the (listen, name) identity is unique by
// configuration validation.
package router
