package handlers

import (
	"net/http"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/services"
	"github.com/username/pagbank-analyzer/backend/src/utils"
)

type MachineHandler struct {
	machineService services.MachineService
}

func NewMachineHandler(machineService services.MachineService) *MachineHandler {
	return &MachineHandler{machineService: machineService}
}

func (h *MachineHandler) HandleListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := h.machineService.ListMachines(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "listar máquinas")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"clients":       machines,
		"total_clients": len(machines),
	})
}

// HandleClearTestData removes the fixture machines used in manual testing.
func (h *MachineHandler) HandleClearTestData(w http.ResponseWriter, r *http.Request) {
	res, err := h.machineService.PurgeTestData(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "remover dados de teste")
		return
	}
	logger.InfoFromContext(r.Context(), "Test data purged", "machines", res.Machines, "transactions", res.Transactions)
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Dados de teste removidos com sucesso",
		"removed": res,
	})
}
