// Package server assembles the HTTP router of the link API.
package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/linkshelf/internal/app/handler"
	"github.com/atinyakov/linkshelf/internal/app/service"
	"github.com/atinyakov/linkshelf/internal/middleware"
	"github.com/atinyakov/linkshelf/internal/models"
)

// Options are the routing knobs taken from config.
type Options struct {
	// RedirectPrefix is the path segment short links live under; empty
	// serves them from the root.
	RedirectPrefix string

	// TrustedSubnet guards /metrics; empty denies every caller.
	TrustedSubnet string
}

// Init builds the router. Owner-scoped routes require a bearer token,
// redirects and /ping are public.
func Init(svc service.URLServiceIface, auth service.AuthIface, opts Options, logger *zap.Logger) *chi.Mux {
	post := handler.NewPost(svc, logger)
	get := handler.NewGet(svc, logger)
	del := handler.NewDelete(svc, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithMetrics)
	r.Use(middleware.WithGzipRequest)
	r.Use(middleware.WithGzipResponse)

	r.Group(func(r chi.Router) {
		r.Use(middleware.WithJWT(auth))

		r.Post("/url/createUrl", post.Create)
		r.Get("/url/listUrls", get.List)
		r.Delete("/url/deleteUrl/{shortID}", del.Delete)
	})

	if prefix := strings.Trim(opts.RedirectPrefix, "/"); prefix == "" {
		r.Get("/{shortID}", get.Redirect)
	} else {
		r.Get("/"+prefix+"/{shortID}", get.Redirect)
	}

	r.Get("/ping", get.Ping)
	r.With(middleware.WithSubnet(opts.TrustedSubnet)).Handle("/metrics", promhttp.Handler())

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Route not found")
	})

	return r
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}
