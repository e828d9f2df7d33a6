package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "servers[0].listen").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together. As a side effect it compiles each server's public
// route patterns into their anchored form.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateOpenID(&cfg.OpenID)...)
	errs = append(errs, validateServers(cfg.Servers)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)

	if cfg.Admin.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Admin.Listen); err != nil {
			errs = append(errs, FieldError{"admin.listen", fmt.Sprintf("invalid listen address: %v", err)})
		}
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateOpenID(oc *OpenIDConfig) []FieldError {
	var errs []FieldError

	if oc.IssuerURL == "" {
		errs = append(errs, FieldError{"openid.issuer_url", "field is required"})
	} else if _, err := url.Parse(oc.IssuerURL); err != nil {
		errs = append(errs, FieldError{"openid.issuer_url", fmt.Sprintf("invalid URL: %v", err)})
	}

	if oc.IntrospectURL == "" {
		errs = append(errs, FieldError{"openid.introspect_url", "field is required"})
	} else if u, err := url.Parse(oc.IntrospectURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{"openid.introspect_url", "must be an absolute URL"})
	}

	if oc.ClientID == "" {
		errs = append(errs, FieldError{"openid.client_id", "field is required"})
	}
	if oc.ClientSecret == "" {
		errs = append(errs, FieldError{"openid.client_secret", "field is required"})
	}

	return errs
}

func validateServers(servers []Server) []FieldError {
	var errs []FieldError

	if len(servers) == 0 {
		errs = append(errs, FieldError{"servers", "at least one server is required"})
	}

	// Every (listen, name) pair must be unique, case-insensitively on name.
	seen := make(map[string]bool, len(servers))

	for i := range servers {
		s := &servers[i]
		field := func(name string) string { return fmt.Sprintf("servers[%d].%s", i, name) }

		if s.Name == "" {
			errs = append(errs, FieldError{field("name"), "field is required"})
		}

		if s.Listen == "" {
			errs = append(errs, FieldError{field("listen"), "field is required"})
		} else if _, _, err := net.SplitHostPort(s.Listen); err != nil {
			errs = append(errs, FieldError{field("listen"), fmt.Sprintf("invalid listen address: %v", err)})
		}

		if s.Upstream == "" {
			errs = append(errs, FieldError{field("upstream"), "field is required"})
		} else if strings.ContainsAny(s.Upstream, "/@?#") {
			errs = append(errs, FieldError{field("upstream"), "must be a bare authority (host[:port])"})
		}

		key := s.Listen + "|" + strings.ToLower(s.Name)
		if seen[key] {
			errs = append(errs, FieldError{field("name"),
				fmt.Sprintf("duplicate virtual host %q on %s", s.Name, s.Listen)})
		}
		seen[key] = true

		if s.TLS != nil {
			if s.TLS.Cert == "" {
				errs = append(errs, FieldError{field("tls.cert"), "field is required"})
			}
			if s.TLS.Key == "" {
				errs = append(errs, FieldError{field("tls.key"), "field is required"})
			}
		}

		s.publicRoutes = s.publicRoutes[:0]
		for j, pattern := range s.PublicRoutes {
			re, err := regexp.Compile("^" + pattern + "$")
			if err != nil {
				errs = append(errs, FieldError{
					fmt.Sprintf("servers[%d].public_routes[%d]", i, j),
					fmt.Sprintf("invalid pattern: %v", err),
				})
				continue
			}
			s.publicRoutes = append(s.publicRoutes, re)
		}
	}

	return errs
}

func validateAudit(ac *AuditConfig) []FieldError {
	var errs []FieldError

	if ac.Enabled && ac.SQLitePath == "" {
		errs = append(errs, FieldError{"audit.sqlite_path", "field is required when audit is enabled"})
	}

	return errs
}
