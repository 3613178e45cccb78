package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kalambet/giftwise/internal/gifts"
	"github.com/kalambet/giftwise/internal/pipeline"
	"github.com/kalambet/giftwise/internal/profile"
	"github.com/kalambet/giftwise/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Service is the recommendation surface shared by the HTTP and MCP layers.
type Service interface {
	Recommend(ctx context.Context, text string, opts pipeline.Options) (pipeline.Result, pipeline.Metadata, error)
	Profile(ctx context.Context, text string) (profile.Profile, error)
	Table() *gifts.Table
}

// CacheAdmin exposes the classification cache for inspection.
type CacheAdmin interface {
	CacheStats(ctx context.Context) (storage.CacheStats, error)
	PurgeCache(ctx context.Context) (storage.CacheStats, error)
}

// Deps holds the HTTP handler dependencies.
type Deps struct {
	Service Service
	Cache   CacheAdmin // optional; cache endpoints answer 404 when nil
	Token   string     // optional; bearer auth on /v1 when set
}

// RecommendRequest is the body of POST /v1/recommend and POST /v1/profile.
type RecommendRequest struct {
	Text           string `json:"text"`
	AssumeInterest bool   `json:"assume_interest"`
}

// ProfileResponse is the body returned by POST /v1/profile.
type ProfileResponse struct {
	Profile profile.Profile `json:"profile"`
}

// CategoriesResponse is the body returned by GET /v1/categories.
type CategoriesResponse struct {
	Categories []string            `json:"categories"`
	Rules      map[string][]string `json:"rules"`
}

// NewHandler returns the giftwise REST API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)

	r.Route("/v1", func(r chi.Router) {
		if deps.Token != "" {
			r.Use(bearerAuth(deps.Token))
		}
		r.Get("/categories", handleCategories(deps))
		r.Post("/profile", handleProfile(deps))
		r.Post("/recommend", handleRecommend(deps))
		r.Get("/cache/stats", handleCacheStats(deps))
		r.Delete("/cache", handleCachePurge(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleCategories(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := deps.Service.Table()
		writeJSON(w, http.StatusOK, CategoriesResponse{
			Categories: t.Categories(),
			Rules:      t.Rules(),
		})
	}
}

func handleProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRecommendRequest(w, r)
		if !ok {
			return
		}
		p, err := deps.Service.Profile(r.Context(), req.Text)
		if err != nil {
			serviceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ProfileResponse{Profile: p})
	}
}

// handleRecommend answers with JSON, or with the plain-text summary when
// called with ?format=text.
func handleRecommend(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		if format != "" && format != "json" && format != "text" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unsupported format %q", format)
			return
		}

		req, ok := decodeRecommendRequest(w, r)
		if !ok {
			return
		}
		res, meta, err := deps.Service.Recommend(r.Context(), req.Text, pipeline.Options{AssumeInterest: req.AssumeInterest})
		if err != nil {
			serviceError(w, r, err)
			return
		}
		slog.Debug("recommendation served",
			"request_id", RequestIDFrom(r.Context()),
			"result_id", res.ID,
			"interests_found", meta.InterestsFound,
			"recommendations", len(res.Recommendations),
			"assumed_interest", res.AssumedInterest,
			"duration_ms", meta.DurationMs,
		)

		if format == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprintln(w, gifts.Format(res.Profile, res.Recommendations))
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleCacheStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Cache == nil {
			httpError(w, http.StatusNotFound, "not_found_error", "classification cache is disabled")
			return
		}
		st, err := deps.Cache.CacheStats(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "server_error", "reading cache stats: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleCachePurge(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Cache == nil {
			httpError(w, http.StatusNotFound, "not_found_error", "classification cache is disabled")
			return
		}
		removed, err := deps.Cache.PurgeCache(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "server_error", "purging cache: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
	}
}

func decodeRecommendRequest(w http.ResponseWriter, r *http.Request) (RecommendRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return RecommendRequest{}, false
	}
	return req, true
}

// serviceError maps pipeline errors onto HTTP status codes.
func serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pipeline.ErrEmptyText):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required and must not be blank")
	case errors.Is(err, profile.ErrClassifier):
		slog.Warn("classifier failed", "request_id", RequestIDFrom(r.Context()), "error", err)
		httpError(w, http.StatusBadGateway, "classifier_error", "classification failed: %v", err)
	default:
		slog.Error("request failed", "request_id", RequestIDFrom(r.Context()), "error", err)
		httpError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

// bearerAuth rejects requests whose Authorization header does not carry token.
func bearerAuth(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="giftwise"`)
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type requestIDKey struct{}

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// requestID reuses a caller-supplied X-Request-ID or mints a UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFrom returns the request id stored by the middleware, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"request_id", RequestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
