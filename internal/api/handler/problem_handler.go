package handler

import (
	"net/http"

	"codenotes/internal/app/service"
	"codenotes/internal/common"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService *service.ProblemService
}

func NewProblemHandler(ps *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)                // GET /problems
	r.Post("/", h.createProblem)              // POST /problems
	r.Get("/{problemID}", h.getProblem)       // GET /problems/{problemId}
	r.Put("/{problemID}", h.updateProblem)    // PUT /problems/{problemId}
	r.Delete("/{problemID}", h.deleteProblem) // DELETE /problems/{problemId}
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	problems, err := h.problemService.ListProblems(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problems)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	problem, err := h.problemService.GetProblem(r.Context(), userID, chi.URLParam(r, "problemID"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req service.CreateProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	problem, err := h.problemService.CreateProblem(r.Context(), userID, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req service.UpdateProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	problem, err := h.problemService.UpdateProblem(r.Context(), userID, chi.URLParam(r, "problemID"), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.problemService.DeleteProblem(r.Context(), userID, chi.URLParam(r, "problemID")); err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Problem deleted successfully")
}
