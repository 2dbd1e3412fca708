package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/argus/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps the error taxonomy to HTTP codes: missing snapshots are
// the caller's problem, config errors are ours
func statusFor(err error) int {
	var noSnap *contracts.NoSnapshotError
	if errors.As(err, &noSnap) {
		return http.StatusUnprocessableEntity
	}
	var cfgErr *contracts.ConfigError
	if errors.As(err, &cfgErr) {
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
