package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// InternalErrorMessage is returned to clients for every unexpected failure.
const InternalErrorMessage = "Internal server error"

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// NewEnvelope builds an Envelope. A nil data is rendered as an empty JSON array.
func NewEnvelope(success bool, message string, data any) Envelope {
	if data == nil {
		data = []any{}
	}
	return Envelope{Success: success, Message: message, Data: data}
}

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondSuccess writes a successful envelope.
func RespondSuccess(w http.ResponseWriter, logger *slog.Logger, status int, message string, data any) {
	RespondJSON(w, logger, status, NewEnvelope(true, message, data))
}

// RespondError writes a failed envelope with empty data.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, NewEnvelope(false, message, nil))
}
