package handler

import (
	"net/http"

	"homefinder-client/internal/middleware"
	"homefinder-client/internal/model"
	"homefinder-client/internal/service"
	"homefinder-client/pkg/response"
)

// ChatHandler handles chat requests.
type ChatHandler struct {
	chats *service.ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// List handles GET /api/chat
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.chats.List(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, list)
}

// Messages handles GET /api/chat/{id}/messages
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chats.Messages(r.Context(), middleware.GetActor(r.Context()), idParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, msgs)
}

// Send handles POST /api/chat/{id}/messages
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in model.MessageInput
	if err := decodeJSON(r, &in); err != nil {
		response.Error(w, err)
		return
	}
	m, err := h.chats.Send(r.Context(), middleware.GetActor(r.Context()), idParam(r, "id"), in.Message)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, m)
}

// MarkRead handles POST /api/chat/{id}/read
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.chats.MarkRead(r.Context(), middleware.GetActor(r.Context()), idParam(r, "id")); err != nil {
		response.Error(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Chat marked as read")
}
