package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"reviewdraw/internal/selection/models"
	"reviewdraw/internal/selection/service"
	"reviewdraw/pkg/domain"
	dErrors "reviewdraw/pkg/domain-errors"
	"reviewdraw/pkg/platform/httputil"
	"reviewdraw/pkg/requestcontext"
)

// Service is the selection use-case surface the handler drives.
type Service interface {
	Allocate(ctx context.Context, cmd service.AllocateCommand) (*models.Record, error)
	Replace(ctx context.Context, cmd service.ReplaceCommand) (*models.Record, error)
	Get(ctx context.Context, id domain.RecordID) (*models.Record, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Record, error)
}

type Handler struct {
	selection Service
	logger    *slog.Logger
}

func New(selection Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{selection: selection, logger: logger}
}

// Register mounts the selection routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/selections", func(r chi.Router) {
		r.Post("/", h.handleAllocate)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/replacements", h.handleReplace)
	})
}

func (h *Handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AllocateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	rec, err := h.selection.Allocate(ctx, req.Command())
	if err != nil {
		h.writeError(ctx, w, "allocation rejected", err)
		return
	}
	h.logger.InfoContext(ctx, "selection created",
		"request_id", requestID,
		"record_id", rec.ID.String(),
		"entries", len(rec.Entries),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseListFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	recs, err := h.selection.List(ctx, filter)
	if err != nil {
		h.writeError(ctx, w, "list selections failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecords(recs))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.selection.Get(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "get selection failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReplaceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	rec, err := h.selection.Replace(ctx, req.Command(id))
	if err != nil {
		h.writeError(ctx, w, "replacement rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// writeError logs client faults at warn and everything else at error.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelError
	if status := dErrors.ToHTTPStatus(dErrors.CodeOf(err)); status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	if kind, ok := models.KindOf(err); ok {
		attrs = append(attrs, "kind", string(kind))
	}
	h.logger.Log(ctx, level, msg, attrs...)
	httputil.WriteError(w, err)
}
