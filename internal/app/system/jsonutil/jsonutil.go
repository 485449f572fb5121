// Package jsonutil provides helpers for writing JSON API responses in a
// consistent envelope shape.
package jsonutil

import (
	"encoding/json"
	"net/http"
)

// WriteSuccess writes a JSON response with {"success": true} merged with
// the provided data fields.
func WriteSuccess(w http.ResponseWriter, data map[string]any) {
	response := map[string]any{"success": true}
	for k, v := range data {
		response[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// WriteError writes a JSON error response with the given HTTP status code
// in the shape {"success": false, "error": message}.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}

// DecodeBody decodes a JSON request body into dst, rejecting unknown fields.
func DecodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
