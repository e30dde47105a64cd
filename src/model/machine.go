package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/models"
)

// TestMachineIDs are the fixture machines removed by PurgeTestData.
var TestMachineIDs = []string{"9999999999", "8888888888"}

// PurgeResult reports what PurgeTestData removed.
type PurgeResult struct {
	Machines     int64 `json:"machines_removed"`
	Transactions int64 `json:"transactions_removed"`
}

func getMachine(ctx context.Context, q querier, machineID string) (*models.Machine, error) {
	query := `
	SELECT machine_id, client_name, client_email, created_at, updated_at
	FROM machines
	WHERE machine_id = ?`
	var m models.Machine
	err := q.QueryRowContext(ctx, query, machineID).Scan(&m.MachineID, &m.ClientName, &m.ClientEmail, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

// GetMachine returns the machine or ErrNotFound.
func (s *Store) GetMachine(ctx context.Context, machineID string) (*models.Machine, error) {
	return getMachine(ctx, s.db, machineID)
}

// FindMachine is GetMachine without the not-found error: an unknown machine
// yields nil.
func (s *Store) FindMachine(ctx context.Context, machineID string) (*models.Machine, error) {
	m, err := getMachine(ctx, s.db, machineID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return m, err
}

func insertMachine(ctx context.Context, q querier, m models.Machine, now time.Time) error {
	query := `
	INSERT INTO machines (machine_id, client_name, client_email, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, query, m.MachineID, m.ClientName, m.ClientEmail, now, now)
	return err
}

func updateMachineContact(ctx context.Context, q querier, m models.Machine, now time.Time) error {
	query := `UPDATE machines SET client_name = ?, client_email = ?, updated_at = ? WHERE machine_id = ?`
	res, err := q.ExecContext(ctx, query, m.ClientName, m.ClientEmail, now, m.MachineID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("machine %s: %w", m.MachineID, ErrNotFound)
	}
	return nil
}

const machineSummaryQuery = `
	SELECT m.machine_id, m.client_name, m.client_email,
	       COUNT(t.id),
	       COALESCE(SUM(t.gross_amount), 0),
	       COALESCE(SUM(t.provider_fee), 0),
	       COALESCE(SUM(t.net_amount), 0)
	FROM machines m
	LEFT JOIN transactions t ON t.machine_id = m.machine_id`

func scanSummary(scan func(dest ...any) error) (models.MachineSummary, error) {
	var s models.MachineSummary
	err := scan(&s.MachineID, &s.ClientName, &s.ClientEmail, &s.TransactionCount, &s.GrossTotal, &s.ProviderFeeTotal, &s.NetTotal)
	return s, err
}

// ListMachineSummaries returns every machine with its aggregated totals, in
// registration order.
func (s *Store) ListMachineSummaries(ctx context.Context) ([]models.MachineSummary, error) {
	rows, err := s.db.QueryContext(ctx, machineSummaryQuery+`
	GROUP BY m.id
	ORDER BY m.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []models.MachineSummary{}
	for rows.Next() {
		summary, err := scanSummary(rows.Scan)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// GetMachineSummary returns the aggregated totals of one machine or ErrNotFound.
func (s *Store) GetMachineSummary(ctx context.Context, machineID string) (models.MachineSummary, error) {
	row := s.db.QueryRowContext(ctx, machineSummaryQuery+`
	WHERE m.machine_id = ?
	GROUP BY m.id`, machineID)
	summary, err := scanSummary(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MachineSummary{}, ErrNotFound
	}
	return summary, err
}

// PurgeTestData deletes the fixture machines with their schedules and transactions.
func (s *Store) PurgeTestData(ctx context.Context) (PurgeResult, error) {
	var result PurgeResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, err
	}
	defer tx.Rollback()

	args := make([]any, len(TestMachineIDs))
	for i, id := range TestMachineIDs {
		args[i] = id
	}
	in := `(` + placeholders(len(args)) + `)`

	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE machine_id IN `+in, args...)
	if err != nil {
		return result, fmt.Errorf("deleting test transactions: %w", err)
	}
	result.Transactions, _ = res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fee_schedules WHERE machine_id IN `+in, args...); err != nil {
		return result, fmt.Errorf("deleting test fee schedules: %w", err)
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM machines WHERE machine_id IN `+in, args...)
	if err != nil {
		return result, fmt.Errorf("deleting test machines: %w", err)
	}
	result.Machines, _ = res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return result, err
	}
	logger.L.Info("Test data purged", "machines", result.Machines, "transactions", result.Transactions)
	return result, nil
}
