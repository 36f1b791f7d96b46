package handlers

import (
	"errors"
	"net/http"

	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/services"
)

type UploadHandler struct {
	Service *services.UploadService
	Logger  logger.Logger
}

func (h *UploadHandler) Presign(w http.ResponseWriter, r *http.Request) {
	var in models.PresignInput
	if !decode(w, r, nil, &in) {
		return
	}

	res, err := h.Service.Presign(in)
	switch {
	case err == nil:
		body := envelope{
			"mode":        res.Mode,
			"uploadUrl":   res.UploadURL,
			"publicUrl":   res.PublicURL,
			"viewUrl":     res.ViewURL,
			"key":         res.Key,
			"bucket":      res.Bucket,
			"region":      res.Region,
			"contentType": res.ContentType,
		}
		if res.FileName != "" {
			body["fileName"] = res.FileName
		}
		writeOK(w, body)
	case errors.Is(err, models.ErrMissingBucket),
		errors.Is(err, models.ErrMissingRegion),
		errors.Is(err, models.ErrMissingFileName):
		writeServiceError(w, h.Logger, err)
	default:
		h.Logger.Errorf("presign: %v", err)
		writeError(w, http.StatusInternalServerError, "PRESIGN_FAIL")
	}
}
