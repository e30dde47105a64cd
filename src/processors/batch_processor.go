// backend/src/processors/batch_processor.go
package processors

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/models"
	"github.com/username/pagbank-analyzer/backend/src/parsers/pagbank"
)

// BatchMeta describes the file a batch came from.
type BatchMeta struct {
	Filename string
	FileSize int64
}

// BatchProcessor runs the rows of one export through the normalizer and
// persists the accepted transactions in a single write.
type BatchProcessor struct {
	store      BatchStore
	normalizer *TransactionNormalizer
}

func NewBatchProcessor(store BatchStore) *BatchProcessor {
	return &BatchProcessor{store: store, normalizer: NewTransactionNormalizer(store)}
}

// Process handles rows in file order. Rejected rows are counted and logged in
// the result; they never abort the batch. Lookup failures abort before
// anything is written and write failures wrap ErrPersistenceFailed. Once the
// write succeeds Process always returns the committed counters.
func (p *BatchProcessor) Process(ctx context.Context, rows []models.RawRow, meta BatchMeta) (*models.BatchResult, error) {
	log := logger.FromContext(ctx)
	batchID := uuid.New().String()
	state := NewBatchState()

	result := &models.BatchResult{
		BatchID:   batchID,
		TotalRows: len(rows),
		Skips:     []models.SkippedRow{},
	}
	var transactions []models.Transaction

	for i, row := range rows {
		res, err := p.normalizer.Normalize(ctx, row, state)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		result.DefaultedFields += res.DefaultedFields

		if res.Skip != "" {
			switch res.Skip {
			case models.SkipDuplicate:
				result.SkippedDuplicates++
			default:
				result.SkippedInvalid++
			}
			result.Skips = append(result.Skips, models.SkippedRow{
				Row:    i + 1,
				Code:   strings.TrimSpace(row.Get(pagbank.ColTransactionCode)),
				Reason: res.Skip,
			})
			continue
		}

		tx := *res.Transaction
		tx.BatchID = batchID
		transactions = append(transactions, tx)
	}

	result.NewTransactions = len(transactions)
	result.UpdatedMachines = state.TouchedMachines()

	if len(transactions) > 0 {
		created, updated := state.Machines()
		staged := models.StagedBatch{
			Batch: models.IngestionBatch{
				BatchID:           batchID,
				Filename:          meta.Filename,
				FileSize:          meta.FileSize,
				TotalRows:         result.TotalRows,
				NewTransactions:   result.NewTransactions,
				SkippedDuplicates: result.SkippedDuplicates,
				SkippedInvalid:    result.SkippedInvalid,
			},
			NewMachines:     created,
			UpdatedMachines: updated,
			Transactions:    transactions,
		}
		if err := p.store.SaveBatch(ctx, staged); err != nil {
			log.Error("Failed to persist ingestion batch", "batchID", batchID, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
	}

	// The batch is committed at this point; a roster failure only leaves the
	// roster out of the result.
	summaries, err := p.store.ListMachineSummaries(ctx)
	if err != nil {
		log.Warn("Failed to list machines after ingestion batch", "batchID", batchID, "error", err)
		summaries = []models.MachineSummary{}
	}
	result.Machines = summaries

	log.Info("Ingestion batch processed",
		"batchID", batchID,
		"rows", result.TotalRows,
		"new", result.NewTransactions,
		"duplicates", result.SkippedDuplicates,
		"invalid", result.SkippedInvalid,
		"machines", result.UpdatedMachines,
		"defaulted", result.DefaultedFields)
	return result, nil
}
