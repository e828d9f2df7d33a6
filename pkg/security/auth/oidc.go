package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/panicbit/oauth-gateway/pkg/config"
	"github.com/panicbit/oauth-gateway/pkg/telemetry/metrics"
)

// Client introspects bearer tokens against an OIDC provider. One client
// exists per process; every call shares one pooled HTTP transport, and
// that transport never follows redirects.
type Client struct {
	issuerURL     string
	introspectURL string
	clientID      string
	clientSecret  string
	http          *http.Client
	metrics       *metrics.Metrics
}

// NewClient performs provider discovery against the configured issuer and
// binds the introspection endpoint and client credentials. Discovery
// failure is fatal: a gateway that cannot see its provider must not start.
func NewClient(ctx context.Context, cfg config.OpenIDConfig, m *metrics.Metrics) (*Client, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 30 * time.Second,
		// Following redirects would let a misbehaving provider steer
		// requests carrying client credentials anywhere it likes.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	// Discovery runs over the same pooled client as introspection.
	ctx = oidc.ClientContext(ctx, httpClient)
	if _, err := oidc.NewProvider(ctx, cfg.IssuerURL); err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider at %q: %w", cfg.IssuerURL, err)
	}

	return &Client{
		issuerURL:     cfg.IssuerURL,
		introspectURL: cfg.IntrospectURL,
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		http:          httpClient,
		metrics:       m,
	}, nil
}

// Introspect asks the provider whether accessToken is currently active,
// per RFC 7662, authenticating the call with HTTP Basic client
// credentials. Transport failures and non-2xx answers are errors; an
// inactive token is a successful introspection with Active == false.
func (c *Client) Introspect(ctx context.Context, accessToken string) (*Introspection, error) {
	form := url.Values{"token": {accessToken}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build introspection request: %w", err)
	}
	req.SetBasicAuth(url.QueryEscape(c.clientID), url.QueryEscape(c.clientSecret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.RecordIntrospection(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("token introspection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused, then fail.
		io.CopyN(io.Discard, resp.Body, 4096)
		return nil, fmt.Errorf("token introspection returned status %d", resp.StatusCode)
	}

	var result Introspection
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode introspection response: %w", err)
	}

	return &result, nil
}

// CheckReady probes the provider's discovery document. The readiness
// endpoint uses it to report whether the provider is still reachable.
func (c *Client) CheckReady(ctx context.Context) error {
	ctx = oidc.ClientContext(ctx, c.http)
	if _, err := oidc.NewProvider(ctx, c.issuerURL); err != nil {
		return fmt.Errorf("OIDC provider unreachable: %w", err)
	}
	return nil
}
