// backend/src/handlers/upload_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/models"
	"github.com/username/pagbank-analyzer/backend/src/parsers/pagbank"
	"github.com/username/pagbank-analyzer/backend/src/security/validation"
	"github.com/username/pagbank-analyzer/backend/src/services"
	"github.com/username/pagbank-analyzer/backend/src/utils"
)

type UploadHandler struct {
	uploadService      services.UploadService
	maxUploadSizeBytes int64
}

func NewUploadHandler(service services.UploadService, maxUploadSizeBytes int64) *UploadHandler {
	return &UploadHandler{
		uploadService:      service,
		maxUploadSizeBytes: maxUploadSizeBytes,
	}
}

// HandleUpload ingests the multipart "file" field. The optional "source"
// field defaults to the PagBank export format.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	maxMB := h.maxUploadSizeBytes / (1024 * 1024)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSizeBytes+1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadSizeBytes); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Falha ao processar o pedido ou arquivo grande demais (máx %d MB)", maxMB), http.StatusBadRequest)
		return
	}

	source := strings.TrimSpace(r.FormValue("source"))
	if source == "" {
		source = pagbank.Source
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Nenhum arquivo enviado. Use o campo 'file'.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := validation.SanitizeFilename(fileHeader.Filename)
	if filename == "" {
		utils.SendJSONError(w, "Nenhum arquivo selecionado", http.StatusBadRequest)
		return
	}
	if fileHeader.Size > h.maxUploadSizeBytes {
		log.Warn("Uploaded file too large", "filename", filename, "fileSize", fileHeader.Size, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Arquivo grande demais, máx %d MB", maxMB), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		log.Warn("Server-side file content validation failed", "filename", filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Info("Processing upload request", "filename", filename, "source", source, "clientType", clientContentType, "detectedType", detectedContentType)

	result, err := h.uploadService.ProcessUpload(r.Context(), file, source, filename, fileHeader.Size)
	if err != nil {
		sendServiceError(w, r, err, "processar arquivo")
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// HandleListUploads returns the ingestion batch history.
func (h *UploadHandler) HandleListUploads(w http.ResponseWriter, r *http.Request) {
	batches, err := h.uploadService.ListUploads(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "listar uploads")
		return
	}
	if batches == nil {
		batches = []models.IngestionBatch{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "uploads": batches})
}
