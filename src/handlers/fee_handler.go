package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/models"
	"github.com/username/pagbank-analyzer/backend/src/services"
	"github.com/username/pagbank-analyzer/backend/src/utils"
)

// maxFeeUpdateBytes bounds the body of a fee schedule update.
const maxFeeUpdateBytes = 64 * 1024

type FeeHandler struct {
	machineService services.MachineService
}

func NewFeeHandler(service services.MachineService) *FeeHandler {
	return &FeeHandler{machineService: service}
}

type profitResponse struct {
	Success bool `json:"success"`
	*models.ProfitReport
}

// HandleGetFeeSchedule returns the flat rate view of a machine's schedule.
func (h *FeeHandler) HandleGetFeeSchedule(w http.ResponseWriter, r *http.Request) {
	machineID, ok := machineIDParam(w, r)
	if !ok {
		return
	}
	schedule, err := h.machineService.GetFeeSchedule(r.Context(), machineID)
	if err != nil {
		sendServiceError(w, r, err, "carregar configuração")
		return
	}
	utils.WriteJSON(w, http.StatusOK, schedule)
}

// HandleUpdateFeeSchedule applies a partial update in either field convention.
func (h *FeeHandler) HandleUpdateFeeSchedule(w http.ResponseWriter, r *http.Request) {
	machineID, ok := machineIDParam(w, r)
	if !ok {
		return
	}

	var update map[string]any
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFeeUpdateBytes))
	decoder.UseNumber()
	if err := decoder.Decode(&update); err != nil {
		logger.FromContext(r.Context()).Warn("Invalid fee schedule payload", "machineID", machineID, "error", err)
		utils.SendJSONError(w, "Corpo da requisição inválido: esperado um objeto JSON", http.StatusBadRequest)
		return
	}
	if update == nil {
		update = map[string]any{}
	}

	schedule, err := h.machineService.UpdateFeeSchedule(r.Context(), machineID, update)
	if err != nil {
		sendServiceError(w, r, err, "salvar configuração")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"config":  schedule,
		"message": "Configuração salva com sucesso!",
	})
}

// HandleCalculateProfit returns the per-transaction profit report.
func (h *FeeHandler) HandleCalculateProfit(w http.ResponseWriter, r *http.Request) {
	machineID, ok := machineIDParam(w, r)
	if !ok {
		return
	}
	report, err := h.machineService.CalculateProfit(r.Context(), machineID)
	if err != nil {
		sendServiceError(w, r, err, "calcular lucro")
		return
	}
	utils.WriteJSON(w, http.StatusOK, profitResponse{Success: true, ProfitReport: report})
}
