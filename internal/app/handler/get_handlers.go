package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/linkshelf/internal/app/service"
	"github.com/atinyakov/linkshelf/internal/middleware"
	"github.com/atinyakov/linkshelf/internal/models"
)

type GetHandler struct {
	service service.URLServiceIface
	logger  *zap.Logger
}

func NewGet(s service.URLServiceIface, l *zap.Logger) *GetHandler {
	return &GetHandler{
		service: s,
		logger:  l,
	}
}

// Redirect handles GET /{prefix}/{shortID}.
func (h *GetHandler) Redirect(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	shortID := chi.URLParam(req, "shortID")

	longURL, err := h.service.Resolve(ctx, shortID)
	if err != nil {
		writeError(res, h.logger, err)
		return
	}

	res.Header().Set("Location", longURL)
	res.WriteHeader(http.StatusTemporaryRedirect)
}

func (h *GetHandler) Ping(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	if err := h.service.PingContext(ctx); err != nil {
		h.logger.Warn("store ping failed", zap.Error(err))
		writeJSON(res, http.StatusInternalServerError, models.ErrorResponse{Error: "store unavailable"})
		return
	}

	res.WriteHeader(http.StatusOK)
}

// List handles GET /url/listUrls and always answers with a JSON array.
func (h *GetHandler) List(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	records, err := h.service.List(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		writeError(res, h.logger, err)
		return
	}

	links := make([]models.Link, 0, len(records))
	for _, r := range records {
		links = append(links, models.Link{
			ID:        r.ID,
			ShortID:   r.ShortID,
			ShortURL:  h.service.ShortURL(r.ShortID),
			LongURL:   r.LongURL,
			Title:     r.Title,
			OwnerID:   r.OwnerID,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}

	writeJSON(res, http.StatusOK, links)
}
