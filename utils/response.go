package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"clubhive/apperr"
)

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithAppError maps a taxonomy error onto the wire shape
// {"error": code, "message": text} and the matching HTTP status.
func RespondWithAppError(w http.ResponseWriter, err error) {
	msg := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	RespondWithJSON(w, apperr.Status(err), map[string]string{
		"error":   apperr.Code(err),
		"message": msg,
	})
}

type M map[string]interface{}
