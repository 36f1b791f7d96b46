package handlers

import (
	"net/http"

	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/services"
	"soundcrew/internal/validation"
)

type MessageHandler struct {
	Service   *services.MessageService
	Validator *validation.Validator
	Logger    logger.Logger
}

func (h *MessageHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.Service.ListThreads(r.Context(), UserID(r))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"threads": nonNil(threads)})
}

// GetThread returns the thread with every message and marks the incoming ones read.
func (h *MessageHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Service.GetThread(r.Context(), getParam(r, "id"), UserID(r))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"thread": detail.Thread, "messages": nonNil(detail.Messages)})
}

// SendInThread answers NOT_FOUND to non-participants before looking at the body.
func (h *MessageHandler) SendInThread(w http.ResponseWriter, r *http.Request) {
	var in models.MessageInput
	if !decode(w, r, nil, &in) {
		return
	}

	threadID := getParam(r, "id")
	if _, err := h.Service.ParticipantThread(r.Context(), threadID, UserID(r)); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	if !validate(w, h.Validator, &in) {
		return
	}

	msg, err := h.Service.SendInThread(r.Context(), threadID, UserID(r), in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"message": msg})
}

func (h *MessageHandler) SendToArtist(w http.ResponseWriter, r *http.Request) {
	var in models.SendToArtistInput
	if !decode(w, r, h.Validator, &in) {
		return
	}

	res, err := h.Service.SendToArtist(r.Context(), UserID(r), in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"threadId": res.ThreadID, "messageId": res.MessageID})
}
