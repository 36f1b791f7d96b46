package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	publicMiddleware := standardMiddleware.Append(app.optionalAuth)
	authMiddleware := standardMiddleware.Append(app.requireAuth)

	mux := pat.New()

	// Artists
	mux.Get("/api/artists", publicMiddleware.ThenFunc(app.artistHandler.ListArtists))
	mux.Post("/api/artists", authMiddleware.ThenFunc(app.artistHandler.CreateArtist))
	mux.Get("/api/artists/:slug", publicMiddleware.ThenFunc(app.artistHandler.GetArtist))
	mux.Post("/api/artists/:slug/save", authMiddleware.ThenFunc(app.artistHandler.ToggleSave))
	mux.Post("/api/artists/:slug/reviews", authMiddleware.ThenFunc(app.artistHandler.AddReview))

	// Own profile
	mux.Get("/api/me/artist", authMiddleware.ThenFunc(app.artistHandler.GetMyArtist))
	mux.Put("/api/me/artist", authMiddleware.ThenFunc(app.artistHandler.ReplaceMyArtist))
	mux.Del("/api/me/artist", authMiddleware.ThenFunc(app.artistHandler.DeleteMyArtist))
	mux.Get("/api/me/artist/metrics", authMiddleware.ThenFunc(app.artistHandler.Metrics))
	mux.Get("/api/me/saved", authMiddleware.ThenFunc(app.artistHandler.ListSaved))

	// Messages
	mux.Get("/api/messages/threads", authMiddleware.ThenFunc(app.messageHandler.ListThreads))
	mux.Get("/api/messages/threads/:id", authMiddleware.ThenFunc(app.messageHandler.GetThread))
	mux.Post("/api/messages/threads/:id", authMiddleware.ThenFunc(app.messageHandler.SendInThread))
	mux.Post("/api/messages/send", authMiddleware.ThenFunc(app.messageHandler.SendToArtist))

	// Work requests
	mux.Post("/api/requests", authMiddleware.ThenFunc(app.requestHandler.CreateRequest))
	mux.Get("/api/requests", authMiddleware.ThenFunc(app.requestHandler.ListRequests))
	mux.Put("/api/requests/:id/status", authMiddleware.ThenFunc(app.requestHandler.UpdateStatus))

	// Auth
	mux.Get("/api/auth/check-email", standardMiddleware.ThenFunc(app.userHandler.CheckEmail))
	mux.Get("/api/auth/check-nickname", standardMiddleware.ThenFunc(app.userHandler.CheckNickname))
	mux.Get("/api/auth/check-phone", standardMiddleware.ThenFunc(app.userHandler.CheckPhone))
	mux.Post("/api/auth/phone/request-otp", standardMiddleware.ThenFunc(app.userHandler.RequestOtp))
	mux.Post("/api/auth/phone/verify", standardMiddleware.ThenFunc(app.userHandler.VerifyOtp))
	mux.Post("/api/auth/signup", standardMiddleware.ThenFunc(app.userHandler.SignUp))
	mux.Post("/api/auth/login", standardMiddleware.ThenFunc(app.userHandler.Login))

	// Profile settings
	mux.Get("/api/profile/providers", authMiddleware.ThenFunc(app.userHandler.Providers))
	mux.Get("/api/profile/notifications", authMiddleware.ThenFunc(app.userHandler.GetNotifications))
	mux.Put("/api/profile/notifications", authMiddleware.ThenFunc(app.userHandler.UpdateNotifications))
	mux.Post("/api/profile/password", authMiddleware.ThenFunc(app.userHandler.ChangePassword))
	mux.Post("/api/profile/devices", authMiddleware.ThenFunc(app.userHandler.RegisterDevice))

	// Integrations
	mux.Post("/api/uploads/presign", authMiddleware.ThenFunc(app.uploadHandler.Presign))
	mux.Post("/api/ai/short-intro", authMiddleware.ThenFunc(app.aiHandler.ShortIntro))

	// Realtime
	mux.Get("/ws", standardMiddleware.ThenFunc(app.serveWS))

	mux.Get("/healthz", http.HandlerFunc(app.healthz))

	return mux
}
