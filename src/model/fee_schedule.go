package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/pagbank-analyzer/backend/src/models"
)

// rateColumns lists credito_1x..credito_18x, debito, pix in storage order.
var rateColumns = func() []string {
	cols := make([]string, 0, models.MaxInstallments+2)
	for i := 1; i <= models.MaxInstallments; i++ {
		cols = append(cols, fmt.Sprintf("credito_%dx", i))
	}
	return append(cols, "debito", "pix")
}()

func rateArgs(s *models.FeeSchedule) []any {
	args := make([]any, 0, len(rateColumns))
	for i := range s.Credit {
		args = append(args, s.Credit[i])
	}
	return append(args, s.Debit, s.Pix)
}

func getFeeSchedule(ctx context.Context, q querier, machineID string) (*models.FeeSchedule, error) {
	query := `SELECT machine_id, ` + strings.Join(rateColumns, ", ") + `, created_at, updated_at
	FROM fee_schedules
	WHERE machine_id = ?`

	s := models.FeeSchedule{}
	dest := make([]any, 0, len(rateColumns)+3)
	dest = append(dest, &s.MachineID)
	for i := range s.Credit {
		dest = append(dest, &s.Credit[i])
	}
	dest = append(dest, &s.Debit, &s.Pix, &s.CreatedAt, &s.UpdatedAt)

	if err := q.QueryRowContext(ctx, query, machineID).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

// GetFeeSchedule returns the persisted schedule of a machine or ErrNotFound.
func (s *Store) GetFeeSchedule(ctx context.Context, machineID string) (*models.FeeSchedule, error) {
	return getFeeSchedule(ctx, s.db, machineID)
}

// upsertFeeSchedule writes every rate of the schedule. created_at is only set
// on the first write.
func upsertFeeSchedule(ctx context.Context, q querier, schedule *models.FeeSchedule, now time.Time) error {
	updates := make([]string, 0, len(rateColumns)+1)
	for _, col := range rateColumns {
		updates = append(updates, col+" = excluded."+col)
	}
	updates = append(updates, "updated_at = excluded.updated_at")

	query := `INSERT INTO fee_schedules (machine_id, ` + strings.Join(rateColumns, ", ") + `, created_at, updated_at)
	VALUES (` + placeholders(len(rateColumns)+3) + `)
	ON CONFLICT(machine_id) DO UPDATE SET ` + strings.Join(updates, ", ")

	args := make([]any, 0, len(rateColumns)+3)
	args = append(args, schedule.MachineID)
	args = append(args, rateArgs(schedule)...)
	args = append(args, now, now)

	_, err := q.ExecContext(ctx, query, args...)
	return err
}

// UpdateFeeSchedule loads the machine's schedule (or the all-zero default),
// applies update and writes the result, all in one transaction. A machine that
// does not exist yields ErrNotFound. If update fails nothing is written.
func (s *Store) UpdateFeeSchedule(ctx context.Context, machineID string, update func(*models.FeeSchedule) error) (*models.FeeSchedule, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := getMachine(ctx, tx, machineID); err != nil {
		return nil, fmt.Errorf("machine %s: %w", machineID, err)
	}

	schedule, err := getFeeSchedule(ctx, tx, machineID)
	if errors.Is(err, ErrNotFound) {
		d := models.DefaultFeeSchedule(machineID)
		schedule = &d
	} else if err != nil {
		return nil, err
	}

	if err := update(schedule); err != nil {
		return nil, err
	}

	now := s.now()
	if err := upsertFeeSchedule(ctx, tx, schedule, now); err != nil {
		return nil, fmt.Errorf("saving fee schedule for %s: %w", machineID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	return schedule, nil
}
