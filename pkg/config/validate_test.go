package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		OpenID: OpenIDConfig{
			IssuerURL:     "https://idp.example",
			IntrospectURL: "https://idp.example/introspect",
			ClientID:      "gateway",
			ClientSecret:  "hunter2",
		},
		Servers: []Server{
			{Name: "api.example", Listen: "127.0.0.1:8080", Upstream: "backend:9000"},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_DuplicateVirtualHost(t *testing.T) {
	cfg := validConfig()
	cfg.Servers = append(cfg.Servers, Server{
		// Same (listen, name) pair, differing only in case.
		Name: "API.EXAMPLE", Listen: "127.0.0.1:8080", Upstream: "other:9000",
	})

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected duplicate virtual host to be rejected")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate error, got: %v", err)
	}
}

func TestValidate_SameNameDifferentListenAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.Servers = append(cfg.Servers, Server{
		Name: "api.example", Listen: "127.0.0.1:8443", Upstream: "other:9000",
	})

	if err := Validate(cfg); err != nil {
		t.Fatalf("same name on a different listen address should be allowed, got: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Servers: []Server{{Name: "api.example"}},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}

	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) < 4 {
		t.Errorf("expected several collected errors, got %d: %v", len(verr.Errors), verr)
	}
}

func TestValidate_InvalidPublicRoutePattern(t *testing.T) {
	cfg := validConfig()
	cfg.Servers[0].PublicRoutes = []string{"/ok", "("}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected invalid pattern to be rejected")
	}
	if !strings.Contains(err.Error(), "public_routes[1]") {
		t.Errorf("expected error to point at the pattern, got: %v", err)
	}
}

func TestValidate_UpstreamMustBeAuthority(t *testing.T) {
	cfg := validConfig()
	cfg.Servers[0].Upstream = "http://backend:9000/path"

	if err := Validate(cfg); err == nil {
		t.Fatal("expected upstream with scheme and path to be rejected")
	}
}

func TestIsPublicRoute_Anchored(t *testing.T) {
	cfg := validConfig()
	cfg.Servers[0].PublicRoutes = []string{"/healthz", "/public/.*"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("failed to compile routes: %v", err)
	}
	s := &cfg.Servers[0]

	tests := []struct {
		path   string
		public bool
	}{
		{"/healthz", true},
		{"/healthz/deep", false},
		{"/prefix/healthz", false},
		{"/public/anything/nested", true},
		{"/private", false},
	}

	for _, tt := range tests {
		if got := s.IsPublicRoute(tt.path); got != tt.public {
			t.Errorf("IsPublicRoute(%q) = %v, want %v", tt.path, got, tt.public)
		}
	}
}
