package handlers

import (
	"net/http"

	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/services"
	"soundcrew/internal/validation"
)

type AIHandler struct {
	Service   *services.AIService
	Validator *validation.Validator
	Logger    logger.Logger
}

func (h *AIHandler) ShortIntro(w http.ResponseWriter, r *http.Request) {
	var in models.ShortIntroInput
	if !decode(w, r, h.Validator, &in) {
		return
	}

	reply, err := h.Service.ShortIntro(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"reply": reply})
}
