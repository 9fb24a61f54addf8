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

type DeleteHandler struct {
	service service.URLServiceIface
	logger  *zap.Logger
}

func NewDelete(s service.URLServiceIface, l *zap.Logger) *DeleteHandler {
	return &DeleteHandler{
		service: s,
		logger:  l,
	}
}

// Delete handles DELETE /url/deleteUrl/{shortID}. Only the owner may delete.
func (h *DeleteHandler) Delete(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		writeJSON(res, http.StatusUnauthorized, models.ErrorResponse{Error: "Access denied. No token provided."})
		return
	}

	shortID := chi.URLParam(req, "shortID")
	if err := h.service.Delete(ctx, shortID, userID); err != nil {
		writeError(res, h.logger, err)
		return
	}

	h.logger.Info("short link deleted", zap.String("shortId", shortID), zap.String("ownerId", userID))
	writeJSON(res, http.StatusOK, models.MessageResponse{Message: "Url deleted successfully"})
}
