// backend/src/services/upload_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/models"
	"github.com/username/pagbank-analyzer/backend/src/parsers"
	"github.com/username/pagbank-analyzer/backend/src/processors"
)

type uploadServiceImpl struct {
	store          Store
	batchProcessor *processors.BatchProcessor
	reportCache    *ReportCache
}

func NewUploadService(store Store, batchProcessor *processors.BatchProcessor, reportCache *ReportCache) UploadService {
	return &uploadServiceImpl{
		store:          store,
		batchProcessor: batchProcessor,
		reportCache:    reportCache,
	}
}

func (s *uploadServiceImpl) ProcessUpload(ctx context.Context, fileReader io.Reader, source, filename string, filesize int64) (*UploadResult, error) {
	startTime := time.Now()
	log := logger.FromContext(ctx)
	log.Info("ProcessUpload START", "source", source, "filename", filename, "size", filesize)

	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	rows, err := parser.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	batch, err := s.batchProcessor.Process(ctx, rows, processors.BatchMeta{Filename: filename, FileSize: filesize})
	if err != nil {
		if errors.Is(err, processors.ErrPersistenceFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("error processing upload: %w", err)
	}

	if batch.NewTransactions > 0 {
		// Any machine may have changed, so every cached report is stale.
		s.reportCache.InvalidateAll()
	}

	result := &UploadResult{
		Success:      true,
		BatchResult:  *batch,
		TotalClients: len(batch.Machines),
		Message: fmt.Sprintf("Upload concluído! %d novas transações adicionadas. Total: %d máquinas no sistema (%d duplicatas ignoradas)",
			batch.NewTransactions, len(batch.Machines), batch.SkippedDuplicates),
	}
	log.Info("ProcessUpload END", "batchID", batch.BatchID, "new", batch.NewTransactions, "duration", time.Since(startTime))
	return result, nil
}

func (s *uploadServiceImpl) ListUploads(ctx context.Context) ([]models.IngestionBatch, error) {
	return s.store.ListIngestionBatches(ctx)
}
