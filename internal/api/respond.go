package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/agrisense/yield-engine/internal/utils"
)

// errorBody is the client-facing error envelope. The message is already
// redacted by the error taxonomy; nothing internal is added here.
type errorBody struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type errorEnvelope struct {
	Success   bool      `json:"success"`
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := utils.KindOf(err)
	// A missing model is fatal for the request; clients see a plain
	// internal error, the logs keep the precise kind.
	clientKind := kind
	if clientKind == utils.KindModelUnavailable {
		clientKind = utils.KindInternalError
	}
	writeJSON(w, statusForKind(kind), errorEnvelope{
		Success: false,
		Error: errorBody{
			Type:      string(clientKind),
			Message:   utils.ClientMessage(err),
			Timestamp: time.Now().UTC(),
		},
		RequestID: requestIDFrom(r.Context()),
	})
}

func statusForKind(kind utils.ErrorKind) int {
	switch kind {
	case utils.KindInvalidInput:
		return http.StatusBadRequest
	case utils.KindNoVarietiesAvailable:
		return http.StatusUnprocessableEntity
	case utils.KindDataCollectionFailed:
		return http.StatusServiceUnavailable
	case utils.KindRequestTimeout:
		return http.StatusGatewayTimeout
	default:
		// ModelUnavailable and InternalError both map to 500.
		return http.StatusInternalServerError
	}
}
