package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/panicbit/oauth-gateway/pkg/config"
	"github.com/panicbit/oauth-gateway/pkg/gateway/router"
	"github.com/panicbit/oauth-gateway/pkg/security/auth"
)

const testListenAddr = "127.0.0.1:8080"

// fakeIdP is a minimal OIDC provider for handler tests.
type fakeIdP struct {
	srv            *httptest.Server
	introspections atomic.Int64
	response       map[string]any
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()

	idp := &fakeIdP{
		response: map[string]any{
			"active":             true,
			"sub":                "u1",
			"preferred_username": "alice",
			"realm_access":       map[string]any{"roles": []string{"admin", "ops"}},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"issuer": %q,
			"authorization_endpoint": %q,
			"token_endpoint": %q,
			"jwks_uri": %q
		}`, idp.srv.URL, idp.srv.URL+"/auth", idp.srv.URL+"/token", idp.srv.URL+"/jwks")
	})
	mux.HandleFunc("/introspect", func(w http.ResponseWriter, r *http.Request) {
		idp.introspections.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(idp.response)
	})

	idp.srv = httptest.NewServer(mux)
	t.Cleanup(idp.srv.Close)

	return idp
}

// backend captures the upstream-bound request the handler produced.
type backend struct {
	srv     *httptest.Server
	hits    atomic.Int64
	request atomic.Pointer[http.Request]
}

func newBackend(t *testing.T) *backend {
	t.Helper()

	b := &backend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		clone := r.Clone(context.Background())
		b.request.Store(clone)

		w.Header().Set("X-Backend", "yes")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "backend says hi")
	}))
	t.Cleanup(b.srv.Close)

	return b
}

func (b *backend) authority(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(b.srv.URL)
	if err != nil {
		t.Fatalf("failed to parse backend URL: %v", err)
	}
	return u.Host
}

// newTestHandler wires a handler over the fake IdP and backend.
func newTestHandler(t *testing.T, idp *fakeIdP, upstreamAuthority string) *Handler {
	t.Helper()

	oidcClient, err := auth.NewClient(context.Background(), config.OpenIDConfig{
		IssuerURL:     idp.srv.URL,
		IntrospectURL: idp.srv.URL + "/introspect",
		ClientID:      "gateway",
		ClientSecret:  "hunter2",
	}, nil)
	if err != nil {
		t.Fatalf("failed to create OIDC client: %v", err)
	}

	servers := []config.Server{{
		Name:         "api.example",
		Listen:       testListenAddr,
		Upstream:     upstreamAuthority,
		PublicRoutes: []string{"/healthz"},
	}}
	cfg := &config.Config{
		OpenID: config.OpenIDConfig{
			IssuerURL:     idp.srv.URL,
			IntrospectURL: idp.srv.URL + "/introspect",
			ClientID:      "gateway",
			ClientSecret:  "hunter2",
		},
		Servers: servers,
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}

	return NewHandler(
		router.New(cfg.Servers),
		oidcClient,
		NewUpstreamClient(),
		discardLogger(),
		nil,
		nil,
	)
}

// serve sends a request through the handler as if it had arrived on the
// configured listen address.
func serve(h *Handler, r *http.Request) *httptest.ResponseRecorder {
	ctx := ContextWithConnInfo(r.Context(), ConnInfo{ListenAddr: testListenAddr})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r.WithContext(ctx))
	return w
}

func TestHandler_PublicRoute(t *testing.T) {
	idp := newFakeIdP(t)
	b := newBackend(t)
	h := newTestHandler(t, idp, b.authority(t))

	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Host = "api.example"
	r.RemoteAddr = "1.2.3.4:5678"

	w := serve(h, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "backend says hi" {
		t.Errorf("unexpected body %q", got)
	}
	if got := w.Header().Get("X-Backend"); got != "yes" {
		t.Error("upstream headers must be mirrored")
	}

	if n := idp.introspections.Load(); n != 0 {
		t.Errorf("public routes must not introspect, got %d calls", n)
	}

	up := b.request.Load()
	if up == nil {
		t.Fatal("backend never saw the request")
	}
	if got := up.Header.Get("Forwarded"); got != "for=1.2.3.4:5678" {
		t.Errorf("Forwarded = %q", got)
	}
	for _, name := range []string{"X-User-Id", "X-User-Name", "X-User-Role"} {
		if got := up.Header.Values(name); len(got) != 0 {
			t.Errorf("public request leaked %s: %v", name, got)
		}
	}
	if up.URL.Path != "/healthz" {
		t.Errorf("path rewritten to %q", up.URL.Path)
	}
}

func TestHandler_PrivateWithoutToken(t *testing.T) {
	idp := newFakeIdP(t)
	b := newBackend(t)
	h := newTestHandler(t, idp, b.authority(t))

	r := httptest.NewRequest("GET", "/v1/me", nil)
	r.Host = "api.example"
	r.RemoteAddr = "1.2.3.4:5678"

	w := serve(h, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if n := b.hits.Load(); n != 0 {
		t.Errorf("expected no upstream call, got %d", n)
	}
	if n := idp.introspections.Load(); n != 0 {
		t.Errorf("expected no introspection without a token, got %d", n)
	}
}

func TestHandler_PrivateWithActiveToken(t *testing.T) {
	idp := newFakeIdP(t)
	b := newBackend(t)
	h := newTestHandler(t, idp, b.authority(t))

	r := httptest.NewRequest("GET", "/v1/me?q=1", nil)
	r.Host = "api.example"
	r.RemoteAddr = "1.2.3.4:5678"
	r.Header.Set("Authorization", "Bearer t")
	// Forged identity headers must be stripped, not forwarded.
	r.Header.Set("X-User-Id", "forged")
	r.Header.Add("X-User-Role", "root")

	w := serve(h, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	up := b.request.Load()
	if up == nil {
		t.Fatal("backend never saw the request")
	}

	if got := up.Header.Get("X-User-Id"); got != "u1" {
		t.Errorf("X-User-Id = %q", got)
	}
	if got := up.Header.Get("X-User-Name"); got != "alice" {
		t.Errorf("X-User-Name = %q", got)
	}
	if roles := up.Header.Values("X-User-Role"); len(roles) != 2 || roles[0] != "admin" || roles[1] != "ops" {
		t.Errorf("X-User-Role = %v", roles)
	}
	if got := up.Header.Get("Authorization"); got != "" {
		t.Errorf("Authorization leaked upstream: %q", got)
	}
	if up.URL.RawQuery != "q=1" {
		t.Errorf("query not preserved: %q", up.URL.RawQuery)
	}
}

func TestHandler_PrivateWithInactiveToken(t *testing.T) {
	idp := newFakeIdP(t)
	idp.response = map[string]any{"active": false}
	b := newBackend(t)
	h := newTestHandler(t, idp, b.authority(t))

	r := httptest.NewRequest("GET", "/v1/me", nil)
	r.Host = "api.example"
	r.Header.Set("Authorization", "Bearer t")

	w := serve(h, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if n := b.hits.Load(); n != 0 {
		t.Errorf("expected no upstream call, got %d", n)
	}
}

func TestHandler_UnknownHost(t *testing.T) {
	idp := newFakeIdP(t)
	b := newBackend(t)
	h := newTestHandler(t, idp, b.authority(t))

	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Host = "other.example"

	w := serve(h, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if n := b.hits.Load(); n != 0 {
		t.Errorf("expected no upstream call, got %d", n)
	}
}

func TestHandler_HostHeaderPortStripped(t *testing.T) {
	idp := newFakeIdP(t)
	b := newBackend(t)
	h := newTestHandler(t, idp, b.authority(t))

	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Host = "api.example:8080"

	if w := serve(h, r); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with port in Host header, got %d", w.Code)
	}
}

func TestHandler_SNIOverridesHostHeader(t *testing.T) {
	idp := newFakeIdP(t)
	b := newBackend(t)
	h := newTestHandler(t, idp, b.authority(t))

	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Host = "other.example"
	ctx := ContextWithConnInfo(r.Context(), ConnInfo{
		ListenAddr: testListenAddr,
		ServerName: "api.example",
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r.WithContext(ctx))

	if w.Code != http.StatusOK {
		t.Fatalf("SNI name must be authoritative, got %d", w.Code)
	}
}

func TestHandler_IntrospectionTransportFailure(t *testing.T) {
	idp := newFakeIdP(t)
	b := newBackend(t)
	h := newTestHandler(t, idp, b.authority(t))

	// Kill the IdP after discovery so introspection hits a dead socket.
	idp.srv.Close()

	r := httptest.NewRequest("GET", "/v1/me", nil)
	r.Host = "api.example"
	r.Header.Set("Authorization", "Bearer t")

	w := serve(h, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if n := b.hits.Load(); n != 0 {
		t.Errorf("expected no upstream call, got %d", n)
	}
}

func TestHandler_UpstreamFailure(t *testing.T) {
	idp := newFakeIdP(t)
	h := newTestHandler(t, idp, "127.0.0.1:1") // nothing listens here

	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Host = "api.example"

	w := serve(h, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on upstream failure, got %d", w.Code)
	}
}

func TestHandler_UpstreamStatusMirrored(t *testing.T) {
	idp := newFakeIdP(t)

	teapot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer teapot.Close()

	u, _ := url.Parse(teapot.URL)
	h := newTestHandler(t, idp, u.Host)

	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Host = "api.example"

	if w := serve(h, r); w.Code != http.StatusTeapot {
		t.Fatalf("expected upstream status mirrored, got %d", w.Code)
	}
}

func TestHandler_UpstreamRedirectNotFollowed(t *testing.T) {
	idp := newFakeIdP(t)

	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://elsewhere.example/", http.StatusFound)
	}))
	defer redirecting.Close()

	u, _ := url.Parse(redirecting.URL)
	h := newTestHandler(t, idp, u.Host)

	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Host = "api.example"

	w := serve(h, r)
	if w.Code != http.StatusFound {
		t.Fatalf("redirects belong to the client, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); !strings.Contains(got, "elsewhere.example") {
		t.Errorf("Location header lost: %q", got)
	}
}
