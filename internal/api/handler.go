// Package api provides HTTP handlers for the fieldops API.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fieldops/fieldops/internal/auth"
	"github.com/fieldops/fieldops/internal/relay"
	"github.com/fieldops/fieldops/internal/store"
	"github.com/go-chi/chi/v5"
)

// Handler provides common handler dependencies.
type Handler struct {
	repo          store.Repository
	guard         *auth.Guard
	relay         *relay.Relay
	secureCookies bool
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, guard *auth.Guard, rly *relay.Relay, secureCookies bool) *Handler {
	return &Handler{
		repo:          repo,
		guard:         guard,
		relay:         rly,
		secureCookies: secureCookies,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// pathID parses the named chi URL parameter as a positive integer id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
