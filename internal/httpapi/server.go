package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assetd/internal/loader"
	"assetd/internal/store"
	"assetd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListAssets() []types.AssetInfo
	LoadFamily(ctx context.Context, family string) (types.LoadResponse, error)
	LoadAll(ctx context.Context, families []string) (types.LoadAllResponse, error)
	State(ctx context.Context, id string, wait []types.State, timeout time.Duration) (types.StateResponse, error)
	Content(id string) ([]byte, types.MountInfo, error)
	SubscribeEvents(filter []string) (<-chan types.EventDTO, func())
	Status() types.StatusResponse
	Ready() bool
}

// loadAllRequest is the optional body of POST /assets/load.
type loadAllRequest struct {
	Families []string `json:"families,omitempty"`
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/assets", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(types.AssetsResponse{Assets: svc.ListAssets()}); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Post("/assets/{family}/load", func(w http.ResponseWriter, r *http.Request) {
		family := chi.URLParam(r, "family")
		lvl := requestLogLevel(r)
		start := time.Now()
		if lvl >= LevelInfo && zlog != nil {
			z := zlog.Info().Str("family", family)
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("load start")
		}
		// Join server base context with request context so shutdown
		// cancels in-flight chains too.
		joined, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp, err := svc.LoadFamily(joined, family)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := loadErrorStatus(err)
			writeJSONError(w, status, err.Error())
			if lvl >= LevelInfo && zlog != nil {
				z := zlog.Info().Int("status", status).Dur("dur", time.Since(start))
				if rid := middleware.GetReqID(r.Context()); rid != "" {
					z = z.Str("request_id", rid)
				}
				z.Err(err).Msg("load end")
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
		if lvl >= LevelInfo && zlog != nil {
			z := zlog.Info().Int("status", http.StatusOK).Bool("loaded", resp.Loaded).Dur("dur", time.Since(start))
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("load end")
		}
	})

	r.Post("/assets/load", func(w http.ResponseWriter, r *http.Request) {
		var req loadAllRequest
		if ct := r.Header.Get("Content-Type"); ct != "" {
			if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
		}
		joined, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp, err := svc.LoadAll(joined, req.Families)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeJSONError(w, loadErrorStatus(err), err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Get("/assets/{id}/state", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		q := r.URL.Query()
		var wait []types.State
		if v := q.Get("wait"); v != "" {
			for _, s := range strings.Split(v, ",") {
				st, ok := types.ParseState(strings.TrimSpace(s))
				if !ok {
					writeJSONError(w, http.StatusBadRequest, "unknown state in wait: "+s)
					return
				}
				wait = append(wait, st)
			}
		}
		var timeout time.Duration
		if v := q.Get("timeout_ms"); v != "" {
			ms, err := strconv.Atoi(v)
			if err != nil || ms < 0 {
				writeJSONError(w, http.StatusBadRequest, "timeout_ms must be a non-negative integer")
				return
			}
			timeout = time.Duration(ms) * time.Millisecond
		}
		if limit := time.Duration(waitCapSeconds) * time.Second; limit > 0 && (timeout == 0 || timeout > limit) {
			timeout = limit
		}
		joined, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp, err := svc.State(joined, id, wait, timeout)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Get("/vendor/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		data, m, err := svc.Content(id)
		if err != nil {
			if store.IsNotMounted(err) {
				writeJSONError(w, http.StatusNotFound, err.Error())
				return
			}
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		etag := `"` + m.Checksum + `"`
		w.Header().Set("Content-Type", contentTypeFor(m.Kind))
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)
	})

	r.Get("/events", eventsHandler(svc))

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("starting"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// loadErrorStatus maps well-known load errors to HTTP status codes.
func loadErrorStatus(err error) int {
	if loader.IsUnknownFamily(err) {
		return http.StatusNotFound
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

func contentTypeFor(k types.Kind) string {
	if k == types.KindStyle {
		return "text/css; charset=utf-8"
	}
	return "application/javascript; charset=utf-8"
}
