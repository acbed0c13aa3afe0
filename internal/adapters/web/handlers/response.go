package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/MrOplus/NetGuard/internal/core/domain"
)

// Envelope wraps every JSON response of the API.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON writes a successful envelope.
func WriteJSON(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// WriteError writes a failed envelope with a status derived from err.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("API error: %v", err)
	}
	writeEnvelope(w, status, Envelope{Success: false, Error: err.Error()})
}

// WriteStatus writes a failed envelope with an explicit status.
func WriteStatus(w http.ResponseWriter, status int, msg string) {
	writeEnvelope(w, status, Envelope{Success: false, Error: msg})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("JSON encode error: %v", err)
	}
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	var perr *domain.PrivilegedError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidConnectionID),
		errors.Is(err, domain.ErrInvalidSetting),
		errors.Is(err, domain.ErrInvalidMAC),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidPath),
		errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPrivilegedUnavailable),
		errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &perr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
