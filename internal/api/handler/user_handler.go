package handler

import (
	"net/http"

	"codenotes/internal/app/service"
	"codenotes/internal/common"
	"codenotes/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	membershipService *service.MembershipService
}

func NewUserHandler(ms *service.MembershipService) *UserHandler {
	return &UserHandler{membershipService: ms}
}

// RegisterRoutes mounts the profile and one add/remove pair per membership
// list: /favorites, /saved and /solved.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.getProfile)
	r.Put("/profile", h.updateProfile)

	for _, flag := range model.AllFlags {
		r.Post("/"+flag.Route(), h.setMembership(flag, true))
		r.Delete("/"+flag.Route(), h.setMembership(flag, false))
	}
}

func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	user, err := h.membershipService.GetUser(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req service.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.membershipService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) setMembership(flag model.MembershipFlag, value bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := ownerFromRequest(w, r)
		if !ok {
			return
		}
		var req service.MembershipRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		user, err := h.membershipService.SetMembershipFlag(r.Context(), userID, req.ProblemID, flag, value)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		common.RespondWithJSON(w, http.StatusOK, user)
	}
}
