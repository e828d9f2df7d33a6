package config

import (
	"regexp"
)

// Config is the root configuration for the oauth-gateway process.
type Config struct {
	// OpenID configures the OIDC provider used for token introspection.
	OpenID OpenIDConfig `yaml:"openid"`

	// Servers is the list of virtual hosts fronted by the gateway.
	Servers []Server `yaml:"servers"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Admin configures the optional admin endpoint (/metrics, /healthz).
	Admin AdminConfig `yaml:"admin"`

	// Audit configures the optional access-record store.
	Audit AuditConfig `yaml:"audit"`
}

// OpenIDConfig holds the OIDC provider settings. ClientID and ClientSecret
// support ENV[NAME] indirection, resolved at load time.
type OpenIDConfig struct {
	// IssuerURL is the OIDC issuer; discovery runs against
	// <issuer_url>/.well-known/openid-configuration at startup.
	IssuerURL string `yaml:"issuer_url"`

	// IntrospectURL is the RFC 7662 token introspection endpoint.
	IntrospectURL string `yaml:"introspect_url"`

	// ClientID is the relying party's client identifier.
	ClientID string `yaml:"client_id"`

	// ClientSecret authenticates the introspection call (HTTP Basic).
	ClientSecret string `yaml:"client_secret"`
}

// Server describes one virtual host: the (listen, name) identity under
// which requests are routed to an upstream with a per-host policy.
type Server struct {
	// Name is the host name clients address; matched case-insensitively
	// against the SNI name or the Host header.
	Name string `yaml:"name"`

	// Listen is the TCP address the host is served on (host:port).
	Listen string `yaml:"listen"`

	// Upstream is the backend authority (host[:port]).
	Upstream string `yaml:"upstream"`

	// UpstreamTLS selects https for the upstream request when true.
	UpstreamTLS bool `yaml:"upstream_tls"`

	// PublicRoutes is a set of path patterns exempt from authentication.
	// Each pattern p is compiled anchored, as ^p$.
	PublicRoutes []string `yaml:"public_routes"`

	// TLS holds the certificate material for this host, if any. Every
	// listen address is either all-TLS or all-plaintext.
	TLS *TLSConfig `yaml:"tls"`

	// publicRoutes holds the compiled anchored patterns.
	publicRoutes []*regexp.Regexp
}

// IsPublicRoute reports whether the request path matches any of the
// server's anchored public-route patterns. The query string must already
// be stripped by the caller.
func (s *Server) IsPublicRoute(path string) bool {
	for _, re := range s.publicRoutes {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// TLSConfig points at the PEM-encoded certificate material for a server.
type TLSConfig struct {
	// Cert is the path to the certificate chain file.
	Cert string `yaml:"cert"`

	// Key is the path to the private key file.
	Key string `yaml:"key"`
}

// TelemetryConfig groups the observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the output format ("json" or "text").
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus metrics subsystem.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix. Default: "gateway".
	Namespace string `yaml:"namespace"`
}

// AdminConfig configures the admin endpoint. An empty Listen disables it.
type AdminConfig struct {
	// Listen is the address serving /metrics, /healthz and /readyz.
	Listen string `yaml:"listen"`
}

// AuditConfig configures the SQLite access-record store.
type AuditConfig struct {
	// Enabled turns access recording on.
	Enabled bool `yaml:"enabled"`

	// SQLitePath is the database file path.
	SQLitePath string `yaml:"sqlite_path"`

	// BufferSize is the recorder channel capacity; records are dropped
	// (and counted) when the buffer is full. Default: 1024.
	BufferSize int `yaml:"buffer_size"`

	// RetentionDays is how long records are kept. Default: 30.
	RetentionDays int `yaml:"retention_days"`

	// PurgeSchedule is the cron expression for the retention purge.
	// Default: "0 3 * * *".
	PurgeSchedule string `yaml:"purge_schedule"`
}
