package proxy

import (
	"context"
)

// ConnInfo carries the per-connection facts the handler needs: which
// socket accepted the connection and, for TLS connections, the SNI name
// negotiated during the handshake. The SNI name, when present, is the
// authoritative host identifier for every request on the connection.
type ConnInfo struct {
	ListenAddr string
	ServerName string
}

type connInfoKey struct{}

// ContextWithConnInfo attaches connection facts to a context. The
// supervisor calls it from the HTTP server's ConnContext hook.
func ContextWithConnInfo(ctx context.Context, info ConnInfo) context.Context {
	return context.WithValue(ctx, connInfoKey{}, info)
}

// ConnInfoFromContext returns the connection facts attached by the
// supervisor, if any.
func ConnInfoFromContext(ctx context.Context) (ConnInfo, bool) {
	info, ok := ctx.Value(connInfoKey{}).(ConnInfo)
	return info, ok
}
