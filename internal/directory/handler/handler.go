package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"reviewdraw/internal/directory/models"
	"reviewdraw/pkg/domain"
	dErrors "reviewdraw/pkg/domain-errors"
	"reviewdraw/pkg/platform/httputil"
	"reviewdraw/pkg/requestcontext"
)

// Directory is the read side operators browse while building a draw request.
type Directory interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListExperts(ctx context.Context, filter models.ExpertFilter) ([]models.Expert, error)
}

// Handler serves the read-only expert directory.
type Handler struct {
	directory Directory
	logger    *slog.Logger
}

func New(directory Directory, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{directory: directory, logger: logger}
}

// Register mounts the directory routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/categories", h.handleListCategories)
	r.Get("/experts", h.handleListExperts)
}

type categoriesResponse struct {
	Categories []models.Category `json:"categories"`
}

type expertsResponse struct {
	Experts []models.Expert `json:"experts"`
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categories, err := h.directory.ListCategories(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list categories",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list categories"))
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	httputil.WriteJSON(w, http.StatusOK, categoriesResponse{Categories: categories})
}

// handleListExperts lists experts, optionally narrowed by ?category= and ?in_service=true.
func (h *Handler) handleListExperts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var filter models.ExpertFilter
	if raw := q.Get("category"); raw != "" {
		id, err := domain.ParseCategoryID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.CategoryID = id
	}
	switch strings.ToLower(q.Get("in_service")) {
	case "", "false", "0":
	case "true", "1":
		filter.InServiceOnly = true
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "in_service must be true or false"))
		return
	}

	experts, err := h.directory.ListExperts(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list experts",
			"request_id", requestcontext.RequestID(ctx),
			"category_id", filter.CategoryID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list experts"))
		return
	}
	if experts == nil {
		experts = []models.Expert{}
	}
	httputil.WriteJSON(w, http.StatusOK, expertsResponse{Experts: experts})
}
