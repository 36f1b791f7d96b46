package main

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
)

func (app *application) serverError(w http.ResponseWriter, err error) {
	app.log.Errorf("%s\n%s", err, debug.Stack())
	app.errorJSON(w, http.StatusInternalServerError, "INTERNAL")
}

func (app *application) errorJSON(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": code})
}
