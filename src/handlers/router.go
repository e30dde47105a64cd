package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/username/pagbank-analyzer/backend/src/utils"
)

// Handlers groups the route handlers served by the API.
type Handlers struct {
	Upload      *UploadHandler
	Fee         *FeeHandler
	Transaction *TransactionHandler
	Machine     *MachineHandler
}

// RouterConfig carries the HTTP policies taken from configuration.
// A nil Limiter disables rate limiting.
type RouterConfig struct {
	AllowedOrigins []string
	Limiter        *rate.Limiter
}

// NewRouter mounts every API route under /api.
func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware)
	r.Use(CORSMiddleware(cfg.AllowedOrigins))
	if cfg.Limiter != nil {
		r.Use(RateLimitMiddleware(cfg.Limiter))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "PagBank Analyzer backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", h.Upload.HandleUpload)
		r.Post("/upload-csv", h.Upload.HandleUpload)
		r.Get("/uploads", h.Upload.HandleListUploads)

		r.Get("/machines", h.Machine.HandleListMachines)
		r.Post("/clear-test-data", h.Machine.HandleClearTestData)

		r.Get("/client-config/{machineID}", h.Fee.HandleGetFeeSchedule)
		r.Put("/client-config/{machineID}", h.Fee.HandleUpdateFeeSchedule)
		r.Post("/calculate-profit/{machineID}", h.Fee.HandleCalculateProfit)

		r.Get("/transactions/{machineID}", h.Transaction.HandleGetTransactions)
		r.Get("/export-data/{machineID}", h.Transaction.HandleExport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			utils.SendJSONError(w, "Rota não encontrada", http.StatusNotFound)
			return
		}
		http.NotFound(w, r)
	})

	return r
}
