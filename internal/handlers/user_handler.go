package handlers

import (
	"net/http"
	"strings"

	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/services"
	"soundcrew/internal/validation"
)

type UserHandler struct {
	Service   *services.UserService
	Push      *services.PushService
	Validator *validation.Validator
	Logger    logger.Logger
}

// clientIP is the first X-Forwarded-For hop, else the connection address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return r.RemoteAddr
}

func (h *UserHandler) availability(w http.ResponseWriter, a models.Availability, err error) {
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	body := envelope{"available": a.Available}
	if a.Reason != "" {
		body["reason"] = a.Reason
	}
	writeOK(w, body)
}

func (h *UserHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.CheckEmail(r.Context(), r.URL.Query().Get("v"))
	h.availability(w, a, err)
}

func (h *UserHandler) CheckNickname(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.CheckNickname(r.Context(), r.URL.Query().Get("v"))
	h.availability(w, a, err)
}

func (h *UserHandler) CheckPhone(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.CheckPhone(r.Context(), r.URL.Query().Get("v"))
	h.availability(w, a, err)
}

func (h *UserHandler) RequestOtp(w http.ResponseWriter, r *http.Request) {
	var in models.OtpRequestInput
	if !decode(w, r, nil, &in) {
		return
	}
	if err := h.Service.RequestOtp(r.Context(), in.Phone); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, nil)
}

func (h *UserHandler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var in models.OtpVerifyInput
	if !decode(w, r, nil, &in) {
		return
	}
	token, err := h.Service.VerifyOtp(r.Context(), in.Phone, in.Code)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"phoneToken": token})
}

func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var in models.SignUpInput
	if !decode(w, r, nil, &in) {
		return
	}

	meta := models.ConsentMeta{UserAgent: r.UserAgent(), IP: clientIP(r)}
	if _, err := h.Service.SignUp(r.Context(), in, meta); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, nil)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if !decode(w, r, h.Validator, &in) {
		return
	}

	token, user, err := h.Service.Login(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"token": token, "user": user})
}

func (h *UserHandler) Providers(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Providers(r.Context(), UserID(r))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"isKakao": p.IsKakao, "hasPassword": p.HasPassword})
}

func (h *UserHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.GetNotifications(r.Context(), UserID(r))
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"settings": settings})
}

func (h *UserHandler) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	var in models.NotificationSettingsInput
	if !decode(w, r, nil, &in) {
		return
	}

	settings, err := h.Service.UpdateNotifications(r.Context(), UserID(r), in)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, envelope{"settings": settings})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in models.PasswordChangeInput
	if !decode(w, r, h.Validator, &in) {
		return
	}
	if err := h.Service.ChangePassword(r.Context(), UserID(r), in); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, nil)
}

func (h *UserHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var in models.DeviceInput
	if !decode(w, r, h.Validator, &in) {
		return
	}
	if err := h.Push.RegisterDevice(r.Context(), UserID(r), in); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	writeOK(w, nil)
}
