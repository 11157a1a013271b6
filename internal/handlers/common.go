package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"talkpoint-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxBodyBytes bounds JSON request bodies; images arrive inline as data URIs
const MaxBodyBytes = 10 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// respondOK sends {ok:true} merged with fields
func respondOK(w http.ResponseWriter, fields map[string]interface{}) {
	body := map[string]interface{}{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	respondJSON(w, http.StatusOK, body)
}

// decodeJSON reads a size-limited JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Request body too large.", http.StatusRequestEntityTooLarge)
			return false
		}
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// postIDParam returns the {id} path parameter if it is a valid post id
func postIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "Invalid post id.", http.StatusBadRequest)
		return "", false
	}
	return id.String(), true
}

// respondServiceError maps a service error onto a client response.
// Unexpected errors are logged and answered with fallback.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		respondError(w, validation.Message, http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, "Invalid credentials.", http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidCode):
		respondError(w, "Invalid or expired verification code.", http.StatusBadRequest)
	case errors.Is(err, services.ErrAccountExists):
		respondError(w, "That email or username is already in use.", http.StatusBadRequest)
	case errors.Is(err, services.ErrPostNotFound):
		respondError(w, "Post not found.", http.StatusNotFound)
	case errors.Is(err, services.ErrUserNotFound):
		respondError(w, "User not found.", http.StatusNotFound)
	default:
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(fallback)
		respondError(w, fallback, http.StatusInternalServerError)
	}
}

// Health handles GET /
func Health(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]interface{}{"service": "talkpoint-api"})
}
