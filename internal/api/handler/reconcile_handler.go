package handler

import (
	"net/http"
	"strconv"

	"codenotes/internal/app/service"
	"codenotes/internal/common"

	"github.com/go-chi/chi/v5"
)

type ReconcileHandler struct {
	reconcileService *service.ReconcileService
}

func NewReconcileHandler(rs *service.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{reconcileService: rs}
}

func (h *ReconcileHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.reconcile) // POST /reconcile?prune=true
}

// reconcile rebuilds every projection of the caller's data. Empty topics
// are only deleted with prune=true.
func (h *ReconcileHandler) reconcile(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	prune, _ := strconv.ParseBool(r.URL.Query().Get("prune"))

	report, err := h.reconcileService.ReconcileOwner(r.Context(), userID, prune)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, report)
}
