package handlers

import (
	"net/http"

	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/services"
	"soundcrew/internal/validation"
)

type RequestHandler struct {
	Service   *services.RequestService
	Validator *validation.Validator
	Logger    logger.Logger
}

func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var in models.ArtistRequestInput
	if !decode(w, r, h.Validator, &in) {
		return
	}

	req, err := h.Service.CreateRequest(r.Context(), UserID(r), in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"request": envelope{"id": req.ID, "threadId": req.ThreadID}})
}

func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListRequests(r.Context(), UserID(r), r.URL.Query().Get("box"))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"requests": nonNil(items)})
}

func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in models.RequestStatusInput
	if !decode(w, r, h.Validator, &in) {
		return
	}

	req, err := h.Service.UpdateStatus(r.Context(), UserID(r), getParam(r, "id"), in.Status)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"request": req})
}
