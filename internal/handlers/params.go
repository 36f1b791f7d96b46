package handlers

import "net/http"

// getParam reads a path parameter. pat exposes ":name" in the query;
// ServeMux patterns are served through PathValue.
func getParam(r *http.Request, name string) string {
	if val := r.URL.Query().Get(":" + name); val != "" {
		return val
	}
	return r.PathValue(name)
}
