package model

import (
	"context"
	"fmt"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/models"
)

// SaveBatch persists everything staged by one ingestion batch in a single
// transaction: new machines with zero schedules, refreshed contact data,
// the transactions and the batch history entry. Any failure rolls back all of it.
func (s *Store) SaveBatch(ctx context.Context, batch models.StagedBatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	for _, m := range batch.NewMachines {
		if err := insertMachine(ctx, tx, m, now); err != nil {
			return fmt.Errorf("inserting machine %s: %w", m.MachineID, err)
		}
		schedule := models.DefaultFeeSchedule(m.MachineID)
		if err := upsertFeeSchedule(ctx, tx, &schedule, now); err != nil {
			return fmt.Errorf("creating fee schedule for %s: %w", m.MachineID, err)
		}
	}
	for _, m := range batch.UpdatedMachines {
		if err := updateMachineContact(ctx, tx, m, now); err != nil {
			return fmt.Errorf("updating machine %s: %w", m.MachineID, err)
		}
	}

	if err := insertTransactions(ctx, tx, batch.Transactions, now); err != nil {
		return fmt.Errorf("inserting transactions: %w", err)
	}

	b := batch.Batch
	_, err = tx.ExecContext(ctx, `
	INSERT INTO ingestion_batches (batch_id, filename, file_size, total_rows, new_transactions, skipped_duplicates, skipped_invalid, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BatchID, b.Filename, b.FileSize, b.TotalRows, b.NewTransactions, b.SkippedDuplicates, b.SkippedInvalid, now)
	if err != nil {
		return fmt.Errorf("recording ingestion batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch transaction: %w", err)
	}
	logger.L.Debug("Ingestion batch committed", "batchID", b.BatchID, "transactions", len(batch.Transactions), "newMachines", len(batch.NewMachines))
	return nil
}

// ListIngestionBatches returns the batch history, most recent first.
func (s *Store) ListIngestionBatches(ctx context.Context) ([]models.IngestionBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT batch_id, filename, file_size, total_rows, new_transactions, skipped_duplicates, skipped_invalid, created_at
	FROM ingestion_batches
	ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := []models.IngestionBatch{}
	for rows.Next() {
		var b models.IngestionBatch
		if err := rows.Scan(&b.BatchID, &b.Filename, &b.FileSize, &b.TotalRows, &b.NewTransactions, &b.SkippedDuplicates, &b.SkippedInvalid, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.CreatedAt = b.CreatedAt.UTC()
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
