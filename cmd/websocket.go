package main

import (
	"context"
	"net/http"
	"time"
)

// serveWS authenticates with the token query parameter, since browsers cannot
// set headers on websocket upgrades.
func (app *application) serveWS(w http.ResponseWriter, r *http.Request) {
	userID, err := app.tokens.Parse(r.URL.Query().Get("token"))
	if err != nil {
		app.errorJSON(w, http.StatusUnauthorized, "UNAUTHORIZED")
		return
	}
	app.hub.ServeWS(w, r, userID)
}

func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := app.db.PingContext(ctx); err != nil {
		app.errorJSON(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}
