package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/qrblink/qrblink/internal/config"
	"github.com/qrblink/qrblink/internal/core"
	"github.com/qrblink/qrblink/internal/metrics"
	"github.com/qrblink/qrblink/internal/store"
)

type Router struct {
	cfg     config.Config
	svc     *core.Service
	limiter *rateLimiter
	static  http.Handler
}

func NewRouter(cfg config.Config, svc *core.Service) http.Handler {
	r := chi.NewRouter()
	// Logging middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", dur).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	api := &Router{
		cfg:     cfg,
		svc:     svc,
		limiter: newRateLimiter(cfg.CreateRateRPS, cfg.CreateRateBurst),
		static:  http.FileServer(http.Dir(cfg.StaticDir)),
	}

	r.MethodFunc(http.MethodGet, "/healthz", api.handleHealth)
	r.MethodFunc(http.MethodGet, "/readyz", api.handleReady)

	// Metrics
	r.MethodFunc(http.MethodGet, "/metrics", metrics.Handler)

	// Link API
	r.MethodFunc(http.MethodPost, "/api/url", api.handleCreate)
	r.MethodFunc(http.MethodGet, "/api/url/{slug}", api.handleRead)
	r.MethodFunc(http.MethodPatch, "/api/url/{slug}", api.handleUpdate)

	// Slugs and static assets share the root namespace
	r.MethodFunc(http.MethodGet, "/*", api.handleRoot)

	return r
}

// Accepted aliases for the owner credential. First non-empty wins;
// everything past this boundary sees a single canonical secret.
var secretAliases = [...]string{"secret", "token", "ownerToken", "adminToken"}

func secretFromQuery(r *http.Request) string {
	q := r.URL.Query()
	for _, k := range secretAliases {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

type createReq struct {
	URL string `json:"url"`
}

type updateReq struct {
	URL        string `json:"url"`
	Secret     string `json:"secret"`
	Token      string `json:"token"`
	OwnerToken string `json:"ownerToken"`
	AdminToken string `json:"adminToken"`
}

func (u updateReq) secret() string {
	for _, v := range [...]string{u.Secret, u.Token, u.OwnerToken, u.AdminToken} {
		if v != "" {
			return v
		}
	}
	return ""
}

type redirectResp struct {
	Slug      string `json:"slug"`
	URL       string `json:"url"`
	ShortURL  string `json:"shortUrl"`
	Secret    string `json:"secret"`
	ManageURL string `json:"manageUrl"`
	Clicks    int64  `json:"clicks"`
	CreatedAt string `json:"createdAt"`
}

func (rt *Router) record(r *http.Request, rec store.Redirect) redirectResp {
	origin := rt.origin(r)
	return redirectResp{
		Slug:      rec.Slug,
		URL:       rec.URL,
		ShortURL:  origin + "/" + rec.Slug,
		Secret:    rec.Secret,
		ManageURL: origin + "/?slug=" + rec.Slug + "&secret=" + rec.Secret,
		Clicks:    rec.Clicks,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (rt *Router) origin(r *http.Request) string {
	if rt.cfg.BaseURL != "" {
		return strings.TrimRight(rt.cfg.BaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func (rt *Router) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !rt.limiter.Allow(clientIP(r)) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	rec, err := rt.svc.Create(r.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrMissingURL), errors.Is(err, core.ErrInvalidURL):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			hlog.FromRequest(r).Error().Err(err).Msg("create redirect")
			http.Error(w, "could not create redirect", http.StatusInternalServerError)
		}
		return
	}

	metrics.Creates.Inc()
	writeJSON(w, rt.record(r, rec), http.StatusOK)
}

func (rt *Router) handleRead(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		http.Error(w, "missing slug", http.StatusBadRequest)
		return
	}
	secret := secretFromQuery(r)
	if secret == "" {
		http.Error(w, "missing secret", http.StatusUnauthorized)
		return
	}

	rec, err := rt.svc.Get(r.Context(), slug, secret)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, store.ErrNoMatch):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			hlog.FromRequest(r).Error().Err(err).Msg("read redirect")
			http.Error(w, "storage error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, rt.record(r, rec), http.StatusOK)
}

func (rt *Router) handleUpdate(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		http.Error(w, "missing slug", http.StatusBadRequest)
		return
	}

	var req updateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	// Credential check precedes any storage access
	secret := req.secret()
	if secret == "" {
		http.Error(w, "missing secret", http.StatusUnauthorized)
		return
	}

	rec, err := rt.svc.Update(r.Context(), slug, secret, req.URL)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrMissingURL), errors.Is(err, core.ErrInvalidURL):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, store.ErrNoMatch):
			// Wrong secret and unknown slug are intentionally one answer
			http.Error(w, "forbidden or not found", http.StatusForbidden)
		default:
			hlog.FromRequest(r).Error().Err(err).Msg("update redirect")
			http.Error(w, "storage error", http.StatusInternalServerError)
		}
		return
	}

	metrics.Updates.Inc()
	writeJSON(w, rt.record(r, rec), http.StatusOK)
}

// handleRoot serves the shared root namespace: a bare single-segment
// path is tried as a slug first, everything else (and any miss) goes to
// the static file server.
func (rt *Router) handleRoot(w http.ResponseWriter, r *http.Request) {
	slug := strings.Trim(r.URL.Path, "/")
	if slug != "" && !strings.Contains(slug, "/") {
		if target, ok := rt.svc.Resolve(r.Context(), slug); ok {
			metrics.Redirects.Inc()
			// A buffered enqueue; the write itself happens off the
			// response path
			rt.svc.RecordClick(slug)
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
	}
	rt.static.ServeHTTP(w, r)
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (rt *Router) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func clientIP(r *http.Request) string {
	// Try X-Forwarded-For or Real-IP first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if rip := r.Header.Get("X-Real-Ip"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
