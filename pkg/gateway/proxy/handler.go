package proxy

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/panicbit/oauth-gateway/pkg/audit"
	"github.com/panicbit/oauth-gateway/pkg/config"
	"github.com/panicbit/oauth-gateway/pkg/gateway/router"
	"github.com/panicbit/oauth-gateway/pkg/security/auth"
	"github.com/panicbit/oauth-gateway/pkg/telemetry/metrics"
)

// Request dispositions, used as metric labels and audit outcomes.
const (
	outcomeProxied       = "proxied"
	outcomeBadRequest    = "bad_request"
	outcomeUnauthorized  = "unauthorized"
	outcomeAuthError     = "auth_error"
	outcomeUpstreamError = "upstream_error"
)

// Handler is the per-request state machine: host resolution, virtual-host
// routing, the authentication gate, header hygiene, the upstream rewrite,
// and response streaming. It is infallible from the client's perspective:
// every internal error becomes a synthetic 400, 401, or 500 and the
// connection stays open.
type Handler struct {
	router   *router.Router
	oidc     *auth.Client
	upstream *http.Client
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    *audit.Recorder
}

// NewHandler wires the request pipeline.
func NewHandler(
	rt *router.Router,
	oidc *auth.Client,
	upstream *http.Client,
	logger *slog.Logger,
	m *metrics.Metrics,
	recorder *audit.Recorder,
) *Handler {
	return &Handler{
		router:   rt,
		oidc:     oidc,
		upstream: upstream,
		logger:   logger,
		metrics:  m,
		audit:    recorder,
	}
}

// request carries the per-request derived state through the pipeline.
type request struct {
	id         string
	start      time.Time
	server     *config.Server
	clientAddr string
	intro      *auth.Introspection
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := &request{
		id:         uuid.NewString(),
		start:      time.Now(),
		clientAddr: r.RemoteAddr,
	}

	info, _ := ConnInfoFromContext(r.Context())

	// Host resolution: the handshake's SNI name is authoritative when
	// present; otherwise the Host header up to the first colon.
	host := info.ServerName
	if host == "" {
		host, _, _ = strings.Cut(r.Host, ":")
	}
	if host == "" {
		h.reject(w, r, req, http.StatusBadRequest, outcomeBadRequest, "missing host")
		return
	}

	req.server = h.router.Resolve(info.ListenAddr, host)
	if req.server == nil {
		h.reject(w, r, req, http.StatusBadRequest, outcomeBadRequest, "unknown virtual host: "+host)
		return
	}

	// Authentication gate. Public routes skip it entirely; no
	// introspection call is made for them.
	if req.server.IsPublicRoute(r.URL.Path) {
		h.metrics.RecordAuthResult("public")
	} else {
		token, ok := auth.ExtractBearerToken(r)
		if !ok {
			h.metrics.RecordAuthResult("no_token")
			h.reject(w, r, req, http.StatusUnauthorized, outcomeUnauthorized, "missing bearer token")
			return
		}

		intro, err := h.oidc.Introspect(r.Context(), token)
		if err != nil {
			h.metrics.RecordAuthResult("error")
			h.logger.Error("token introspection failed", "request_id", req.id, "error", err)
			h.reject(w, r, req, http.StatusInternalServerError, outcomeAuthError, "")
			return
		}
		if !intro.Active {
			h.metrics.RecordAuthResult("inactive")
			h.reject(w, r, req, http.StatusUnauthorized, outcomeUnauthorized, "token is not active")
			return
		}

		h.metrics.RecordAuthResult("ok")
		req.intro = intro
	}

	h.forward(w, r, req)
}

// forward rewrites the request for the upstream, executes it exactly
// once, and streams the response back.
func (h *Handler) forward(w http.ResponseWriter, r *http.Request, req *request) {
	out := r.Clone(r.Context())
	out.RequestURI = ""

	// Strip before injecting: the trusted headers must only ever carry
	// proxy assertions, never client input.
	stripClientHeaders(out.Header)

	if req.server.UpstreamTLS {
		out.URL.Scheme = "https"
	} else {
		out.URL.Scheme = "http"
	}
	out.URL.Host = req.server.Upstream
	out.Host = ""

	out.Header.Add("Forwarded", forwardedFor(req.clientAddr))

	injectIdentity(out.Header, req.intro, h.logger.With("request_id", req.id))

	resp, err := h.upstream.Do(out)
	if err != nil {
		h.logger.Error("upstream request failed",
			"request_id", req.id,
			"server", req.server.Name,
			"upstream", req.server.Upstream,
			"error", err,
		)
		h.reject(w, r, req, http.StatusInternalServerError, outcomeUpstreamError, "")
		return
	}
	defer resp.Body.Close()

	// Mirror the upstream response: status code and headers verbatim.
	// The HTTP version follows the client's request version (net/http
	// answers in kind); the reason phrase is not preserved.
	header := w.Header()
	for name, values := range resp.Header {
		header[name] = values
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		// Too late for a synthetic response; the stream just ends.
		h.logger.Warn("response streaming interrupted", "request_id", req.id, "error", err)
	}

	h.finish(r, req, outcomeProxied, resp.StatusCode)
}

// reject sends a synthetic response and logs the rejection on stderr.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, req *request, status int, outcome, reason string) {
	serverName := ""
	if req.server != nil {
		serverName = req.server.Name
	}

	h.logger.Warn("request rejected",
		"request_id", req.id,
		"server", serverName,
		"method", r.Method,
		"path", r.URL.Path,
		"client_addr", req.clientAddr,
		"status", status,
		"reason", reason,
	)

	http.Error(w, http.StatusText(status), status)
	h.finish(r, req, outcome, status)
}

// finish records metrics and the audit record for a completed request.
func (h *Handler) finish(r *http.Request, req *request, outcome string, status int) {
	serverName := ""
	if req.server != nil {
		serverName = req.server.Name
	}

	h.metrics.RecordRequest(serverName, outcome, time.Since(req.start))

	userID := ""
	if req.intro != nil {
		userID = req.intro.Sub
	}

	h.audit.Record(audit.Record{
		ID:         req.id,
		Time:       time.Now(),
		Server:     serverName,
		Method:     r.Method,
		Path:       r.URL.Path,
		ClientAddr: req.clientAddr,
		UserID:     userID,
		Outcome:    outcome,
		Status:     status,
	})
}
