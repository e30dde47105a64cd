// backend/src/handlers/transaction_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/services"
	"github.com/username/pagbank-analyzer/backend/src/utils"
)

type TransactionHandler struct {
	machineService services.MachineService
}

func NewTransactionHandler(machineService services.MachineService) *TransactionHandler {
	return &TransactionHandler{
		machineService: machineService,
	}
}

// HandleGetTransactions returns the machine's transactions as a JSON array,
// honouring If-None-Match.
func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	machineID, ok := machineIDParam(w, r)
	if !ok {
		return
	}
	log := logger.FromContext(r.Context())

	txs, err := h.machineService.ListTransactions(r.Context(), machineID)
	if err != nil {
		sendServiceError(w, r, err, "buscar transações")
		return
	}

	currentETag, etagErr := utils.GenerateETag(txs)
	if etagErr != nil {
		log.Error("Failed to generate ETag for transactions", "machineID", machineID, "error", etagErr)
	}
	w.Header().Set("Cache-Control", "no-cache, private")
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				log.Debug("ETag match for transactions", "machineID", machineID)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	log.Info("Returning transactions", "machineID", machineID, "count", len(txs))
	utils.WriteJSON(w, http.StatusOK, txs)
}

// HandleExport returns the consolidated machine snapshot with a download
// file name.
func (h *TransactionHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	machineID, ok := machineIDParam(w, r)
	if !ok {
		return
	}
	export, err := h.machineService.Export(r.Context(), machineID)
	if err != nil {
		sendServiceError(w, r, err, "exportar dados")
		return
	}
	utils.WriteJSON(w, http.StatusOK, export)
}
