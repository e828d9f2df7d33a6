package proxy

import (
	"net/http"
	"time"
)

// NewUpstreamClient builds the process-wide upstream executor: one pooled
// transport shared by every request, never following redirects (the
// client's own user agent decides what to do with a 3xx, not the proxy).
// No overall timeout is set; response bodies stream for as long as the
// upstream keeps sending.
func NewUpstreamClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        256,
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
