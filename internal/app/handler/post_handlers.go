package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/linkshelf/internal/app/service"
	"github.com/atinyakov/linkshelf/internal/middleware"
	"github.com/atinyakov/linkshelf/internal/models"
)

type PostHandler struct {
	urlService service.URLServiceIface
	logger     *zap.Logger
}

func NewPost(s service.URLServiceIface, l *zap.Logger) *PostHandler {
	return &PostHandler{
		urlService: s,
		logger:     l,
	}
}

// Create handles POST /url/createUrl. The owner is the authenticated caller.
func (h *PostHandler) Create(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
	defer cancel()

	var request models.CreateRequest
	if err := decodeJSONBody(res, req, &request); err != nil {
		writeError(res, h.logger, err)
		return
	}

	ownerID := middleware.UserIDFromContext(ctx)

	shortURL, r, err := h.urlService.Shorten(ctx, request.LongURL, request.Title, ownerID)
	if err != nil {
		writeError(res, h.logger, err)
		return
	}

	h.logger.Info("short link created", zap.String("shortId", r.ShortID), zap.String("ownerId", ownerID))
	writeJSON(res, http.StatusCreated, models.CreateResponse{ShortURL: shortURL})
}
