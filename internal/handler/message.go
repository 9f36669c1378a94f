package handler

import (
	"errors"
	"net/http"
	"strconv"
	"tush00nka/coachly_messaging/internal/pkg/httputils"
	"tush00nka/coachly_messaging/internal/service"
	"tush00nka/coachly_messaging/internal/ws"

	"github.com/gorilla/mux"
)

type MessageHandler struct {
	gateway       *ws.Gateway
	messages      service.MessageService
	conversations service.ConversationService
	attachments   service.AttachmentService
	maxUpload     int64
}

func NewMessageHandler(
	gateway *ws.Gateway,
	messages service.MessageService,
	conversations service.ConversationService,
	attachments service.AttachmentService,
	maxUpload int64,
) *MessageHandler {
	return &MessageHandler{
		gateway:       gateway,
		messages:      messages,
		conversations: conversations,
		attachments:   attachments,
		maxUpload:     maxUpload,
	}
}

func (h *MessageHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/conversations", h.listConversations).Methods("GET", "OPTIONS")
	router.HandleFunc("/conversations/{partnerID}", h.deleteConversation).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/messages", h.listMessages).Methods("GET", "OPTIONS")
	router.HandleFunc("/messages/{id}/read", h.markRead).Methods("PUT", "OPTIONS")
	router.HandleFunc("/messages/{id}/hide", h.hideMessage).Methods("PUT", "OPTIONS")
	router.HandleFunc("/messages/{id}/everyone", h.deleteForEveryone).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/messages", h.sendMessage).Methods("POST", "OPTIONS")
	router.HandleFunc("/upload-attachment", h.uploadAttachment).Methods("POST", "OPTIONS")
}

// statusFor сопоставляет ошибки бизнес-слоя с HTTP-статусами
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrAttachmentNotFound):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotRecipient),
		errors.Is(err, service.ErrNotSender),
		errors.Is(err, service.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// @Summary List conversations
// @Description List conversations of the current user with last message and unread count
// @ID list-conversations
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} []model.Conversation
// @Failure 401 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /conversations [get]
func (h *MessageHandler) listConversations(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r)

	conversations, err := h.conversations.ListConversations(r.Context(), claims.UserID)
	if err != nil {
		httputils.ResponseError(w, statusFor(err), "failed to list conversations")
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, conversations)
}

// @Summary Delete conversation
// @Description Hide every message of the conversation for the current user only
// @ID delete-conversation
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param partnerID path int true "Partner ID"
// @Success 204
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 401 {object} httputils.ErrorResponse
// @Router /conversations/{partnerID} [delete]
func (h *MessageHandler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r)

	partnerID, err := strconv.Atoi(mux.Vars(r)["partnerID"])
	if err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "failed to parse partner ID")
		return
	}

	if err := h.conversations.DeleteConversation(r.Context(), claims.UserID, uint(partnerID)); err != nil {
		httputils.ResponseError(w, statusFor(err), "failed to delete conversation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary List messages
// @Description List messages of a conversation as seen by the current user
// @ID list-messages
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param conversation_with query int true "Partner ID"
// @Param limit query int false "Max messages"
// @Success 200 {object} []model.Message
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 401 {object} httputils.ErrorResponse
// @Router /messages [get]
func (h *MessageHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r)

	partnerID, err := strconv.Atoi(r.URL.Query().Get("conversation_with"))
	if err != nil || partnerID <= 0 {
		httputils.ResponseError(w, http.StatusBadRequest, "conversation_with is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.messages.ListBetween(r.Context(), claims.UserID, uint(partnerID), limit)
	if err != nil {
		httputils.ResponseError(w, statusFor(err), "failed to list messages")
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, messages)
}

type sendMessageRequest struct {
	RecipientID  uint   `json:"recipient_id"`
	Body         string `json:"body"`
	AttachmentID string `json:"attachment_id"`
}

// @Summary Send message
// @Description Persist a message and push message:new to both participants
// @ID send-message
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param MessageData body sendMessageRequest true "Message Data"
// @Success 201 {object} model.Message
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 401 {object} httputils.ErrorResponse
// @Router /messages [post]
func (h *MessageHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r)

	var request sendMessageRequest
	if err := decodeJSON(r, &request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	msg, err := h.gateway.Send(r.Context(), claims.UserID, request.RecipientID, request.Body, request.AttachmentID)
	if err != nil {
		httputils.ResponseError(w, statusFor(err), err.Error())
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, msg)
}

// @Summary Mark message read
// @Description Idempotently set read_at; the sender's connections receive message:read
// @ID mark-read
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path int true "Message ID"
// @Success 200 {object} model.Message
// @Failure 403 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Router /messages/{id}/read [put]
func (h *MessageHandler) markRead(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "failed to parse message ID")
		return
	}

	msg, err := h.gateway.ReadOne(r.Context(), claims.UserID, uint(id))
	if err != nil {
		httputils.ResponseError(w, statusFor(err), err.Error())
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, msg)
}

// @Summary Hide message
// @Description Hide a message for the current user only; no broadcast
// @ID hide-message
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path int true "Message ID"
// @Success 204
// @Failure 403 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Router /messages/{id}/hide [put]
func (h *MessageHandler) hideMessage(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "failed to parse message ID")
		return
	}

	if err := h.gateway.Hide(r.Context(), claims.UserID, uint(id)); err != nil {
		httputils.ResponseError(w, statusFor(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Delete message for everyone
// @Description Irreversibly replace the message with a tombstone for all viewers
// @ID delete-everyone
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path int true "Message ID"
// @Success 200 {object} model.Message
// @Failure 403 {object} httputils.ErrorResponse
// @Failure 404 {object} httputils.ErrorResponse
// @Router /messages/{id}/everyone [delete]
func (h *MessageHandler) deleteForEveryone(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r)

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "failed to parse message ID")
		return
	}

	msg, err := h.gateway.DeleteEveryone(r.Context(), claims.UserID, uint(id))
	if err != nil {
		httputils.ResponseError(w, statusFor(err), err.Error())
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, msg)
}

// @Summary Upload attachment
// @Description Validate and store a file; the returned id is referenced by message:send
// @ID upload-attachment
// @Accept mpfd
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param file formData file true "File"
// @Success 201 {object} model.Attachment
// @Failure 413 {object} httputils.ErrorResponse
// @Failure 415 {object} httputils.ErrorResponse
// @Router /upload-attachment [post]
func (h *MessageHandler) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r)

	// Страховка транспортного уровня; точная проверка лимита в сервисе
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload*2)

	file, header, err := r.FormFile("file")
	if err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	att, err := h.attachments.Store(
		r.Context(),
		claims.UserID,
		header.Filename,
		header.Header.Get("Content-Type"),
		header.Size,
		file,
	)
	if err != nil {
		httputils.ResponseError(w, statusFor(err), err.Error())
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, att)
}
