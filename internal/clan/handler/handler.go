package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"clanhub/internal/clan/models"
	id "clanhub/pkg/domain"
	dErrors "clanhub/pkg/domain-errors"
	"clanhub/pkg/platform/httputil"
	"clanhub/pkg/requestcontext"
)

const (
	msgCreated  = "Clan created successfully."
	msgDeleted  = "Clan deleted successfully."
	msgNotFound = "Clan not found."
)

// Service defines the clan operations the handler depends on.
type Service interface {
	Create(ctx context.Context, name string, region *string) (id.ClanID, error)
	List(ctx context.Context, q models.ListQuery) ([]*models.Clan, error)
	Get(ctx context.Context, clanID id.ClanID) (*models.Clan, error)
	Delete(ctx context.Context, clanID id.ClanID) error
}

// Handler wires clan endpoints to the clan service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a clan handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts clan endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/clans", h.HandleCreate)
	r.Get("/clans", h.HandleList)
	r.Get("/clans/{id}", h.HandleGet)
	r.Delete("/clans/{id}", h.HandleDelete)
}

// HandleCreate handles POST /clans.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CreateClanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	clanID, err := h.service.Create(ctx, req.Name, req.Region)
	if err != nil {
		h.logFailure(ctx, "failed to create clan", err, "name", req.Name)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "clan created",
		"request_id", requestID,
		"clan_id", clanID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, &CreateClanResponse{
		ID:      clanID.String(),
		Message: msgCreated,
	})
}

// HandleList handles GET /clans?region=&sort_by=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clans, err := h.service.List(ctx, listQueryFrom(r))
	if err != nil {
		h.logFailure(ctx, "failed to list clans", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromClans(clans))
}

// HandleGet handles GET /clans/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clanID, ok := h.clanIDParam(w, r)
	if !ok {
		return
	}

	clan, err := h.service.Get(ctx, clanID)
	if err != nil {
		h.logFailure(ctx, "failed to get clan", err, "clan_id", clanID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromClan(clan))
}

// HandleDelete handles DELETE /clans/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	clanID, ok := h.clanIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, clanID); err != nil {
		h.logFailure(ctx, "failed to delete clan", err, "clan_id", clanID.String())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "clan deleted",
		"request_id", requestID,
		"clan_id", clanID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, &DeleteClanResponse{Message: msgDeleted})
}

// clanIDParam parses the {id} path segment. A malformed id can never match a
// stored clan, so it is reported as not found.
func (h *Handler) clanIDParam(w http.ResponseWriter, r *http.Request) (id.ClanID, bool) {
	clanID, err := id.ParseClanID(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.DebugContext(r.Context(), "malformed clan id",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, msgNotFound))
		return id.ClanID{}, false
	}
	return clanID, true
}

// logFailure logs expected client errors at info and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	args := append([]any{"request_id", requestcontext.RequestID(ctx), "error", err}, attrs...)
	if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeValidation) {
		h.logger.InfoContext(ctx, msg, args...)
		return
	}
	h.logger.ErrorContext(ctx, msg, args...)
}

func listQueryFrom(r *http.Request) models.ListQuery {
	values := r.URL.Query()
	q := models.ListQuery{SortBy: models.DefaultSort}
	if region := values.Get("region"); region != "" {
		q.Region = &region
	}
	if sortBy := values.Get("sort_by"); sortBy != "" {
		q.SortBy = models.SortField(sortBy)
	}
	return q
}
