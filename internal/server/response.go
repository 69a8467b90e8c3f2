package server

import (
	"encoding/json"
	"net/http"

	"github.com/kevinmichaelchen/repo-analyzer/internal/log"
)

// ErrorResponse is the body of every non-streaming error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes a JSON response to the client.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error("encoding response", "err", err)
		}
	}
}

// Error writes err as an ErrorResponse.
func Error(w http.ResponseWriter, err error, statusCode int) {
	JSON(w, statusCode, ErrorResponse{Error: err.Error()})
}
