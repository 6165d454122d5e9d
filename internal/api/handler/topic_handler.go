package handler

import (
	"net/http"

	"codenotes/internal/app/service"
	"codenotes/internal/common"

	"github.com/go-chi/chi/v5"
)

type TopicHandler struct {
	topicService *service.TopicService
}

func NewTopicHandler(ts *service.TopicService) *TopicHandler {
	return &TopicHandler{topicService: ts}
}

func (h *TopicHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listTopics)
	r.Post("/", h.createTopic)
	r.Get("/{topicID}", h.getTopic)
	r.Put("/{topicID}", h.updateTopic)
	r.Delete("/{topicID}", h.deleteTopic)
}

func (h *TopicHandler) listTopics(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	topics, err := h.topicService.ListTopics(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, topics)
}

func (h *TopicHandler) getTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	topic, err := h.topicService.GetTopic(r.Context(), userID, chi.URLParam(r, "topicID"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, topic)
}

func (h *TopicHandler) createTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req service.CreateTopicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	topic, err := h.topicService.CreateTopic(r.Context(), userID, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, topic)
}

func (h *TopicHandler) updateTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req service.UpdateTopicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	topic, err := h.topicService.UpdateTopic(r.Context(), userID, chi.URLParam(r, "topicID"), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, topic)
}

func (h *TopicHandler) deleteTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.topicService.DeleteTopic(r.Context(), userID, chi.URLParam(r, "topicID")); err != nil {
		respondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Topic and its problems deleted successfully")
}
