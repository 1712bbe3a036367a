package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"bahikhata/internal/core"
	"bahikhata/internal/log"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", log.FieldError, err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeError maps domain errors onto the API's status code taxonomy.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "User not found")
	case errors.Is(err, core.ErrEmailTaken):
		writeDetail(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, core.ErrInvalidCredentials):
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, core.ErrInvalidCategory):
		writeDetail(w, http.StatusBadRequest, "Category must be sales, purchase or expense")
	case errors.Is(err, core.ErrInvalidAmount):
		writeDetail(w, http.StatusBadRequest, "Amount must be a non-negative number")
	case errors.Is(err, core.ErrInvalidWindow):
		writeDetail(w, http.StatusBadRequest,
			fmt.Sprintf("days must be between 1 and %d", core.MaxWindowDays))
	case errors.Is(err, core.ErrFutureDate):
		writeDetail(w, http.StatusBadRequest, "Cannot generate a report for a future date")
	case errors.Is(err, core.ErrUnsupportedUpload):
		writeDetail(w, http.StatusBadRequest, "Unsupported document upload")
	case errors.Is(err, core.ErrUnavailable):
		writeDetail(w, http.StatusServiceUnavailable, "Service temporarily unavailable, please retry")
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}
