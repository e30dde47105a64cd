package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/models"
	"github.com/username/pagbank-analyzer/backend/src/security/validation"
	"github.com/username/pagbank-analyzer/backend/src/services"
	"github.com/username/pagbank-analyzer/backend/src/utils"
)

// machineIDParam reads and validates the {machineID} path parameter. It
// writes a 400 and returns false when the value is unusable.
func machineIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "machineID")
	// chi matches on RawPath when the path holds escapes such as %2F.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(raw)
		if err != nil {
			utils.SendJSONError(w, "machine ID is not a valid path segment", http.StatusBadRequest)
			return "", false
		}
		raw = unescaped
	}
	machineID, err := validation.ValidateMachineID(raw)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return machineID, true
}

// sendServiceError maps service errors to HTTP statuses.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, services.ErrMachineNotFound):
		utils.SendJSONError(w, "Máquina não encontrada", http.StatusNotFound)
	case errors.Is(err, services.ErrFeeScheduleNotFound):
		utils.SendJSONError(w, "Configuração não encontrada", http.StatusNotFound)
	case errors.Is(err, services.ErrNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrParsingFailed),
		errors.Is(err, models.ErrInvalidRate),
		errors.Is(err, validation.ErrValidationFailed):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		logger.ErrorFromContext(r.Context(), "Request failed", "action", action, "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, "Erro interno ao "+action, http.StatusInternalServerError)
	}
}
