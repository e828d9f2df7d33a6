package router

import (
	"testing"

	"github.com/panicbit/oauth-gateway/pkg/config"
)

func testServers() []config.Server {
	return []config.Server{
		{Name: "api.example", Listen: "127.0.0.1:8080", Upstream: "backend:9000"},
		{Name: "admin.example", Listen: "127.0.0.1:8080", Upstream: "admin:9001"},
		{Name: "api.example", Listen: "0.0.0.0:8443", Upstream: "tls-backend:9000"},
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	rt := New(testServers())

	for _, host := range []string{"api.example", "API.EXAMPLE", "Api.Example"} {
		s := rt.Resolve("127.0.0.1:8080", host)
		if s == nil {
			t.Fatalf("Resolve(%q) returned nil", host)
		}
		if s.Upstream != "backend:9000" {
			t.Errorf("Resolve(%q) picked upstream %q", host, s.Upstream)
		}
	}
}

func TestResolve_ListenAddrScopes(t *testing.T) {
	rt := New(testServers())

	s := rt.Resolve("0.0.0.0:8443", "api.example")
	if s == nil || s.Upstream != "tls-backend:9000" {
		t.Fatalf("expected the 8443 variant of api.example, got %+v", s)
	}

	if s := rt.Resolve("127.0.0.1:9999", "api.example"); s != nil {
		t.Errorf("expected no match on an unconfigured listen address, got %+v", s)
	}
}

func TestResolve_UnknownHost(t *testing.T) {
	rt := New(testServers())

	if s := rt.Resolve("127.0.0.1:8080", "other.example"); s != nil {
		t.Errorf("expected nil for unknown host, got %+v", s)
	}
}

func TestListenAddrs_Dedupes(t *testing.T) {
	rt := New(testServers())

	addrs := rt.ListenAddrs()
	want := []string{"127.0.0.1:8080", "0.0.0.0:8443"}
	if len(addrs) != len(want) {
		t.Fatalf("expected %d addresses, got %v", len(want), addrs)
	}
	for i, addr := range want {
		if addrs[i] != addr {
			t.Errorf("addrs[%d] = %q, want %q", i, addrs[i], addr)
		}
	}
}
