package model

import (
	"context"
	"database/sql"
	"time"

	"github.com/username/pagbank-analyzer/backend/src/models"
)

const transactionColumns = `machine_id, code, transaction_date, release_date, card_brand, payment_method,
	installments, gross_amount, provider_fee, net_amount, status, card_number, nsu, authorization_code,
	sale_code, reference_code, buyer_name, buyer_email, pix_code, batch_id, created_at`

// TransactionExists reports whether a transaction code is already stored.
func (s *Store) TransactionExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE code = ?)`, code).Scan(&exists)
	return exists, err
}

// ListTransactions returns the transactions of a machine in insertion order.
func (s *Store) ListTransactions(ctx context.Context, machineID string) ([]models.Transaction, error) {
	query := `SELECT id, ` + transactionColumns + `
	FROM transactions
	WHERE machine_id = ?
	ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, machineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var txDate, releaseDate sql.NullTime
		if err := rows.Scan(
			&t.ID,
			&t.MachineID,
			&t.Code,
			&txDate,
			&releaseDate,
			&t.CardBrand,
			&t.PaymentMethod,
			&t.Installments,
			&t.GrossAmount,
			&t.ProviderFee,
			&t.NetAmount,
			&t.Status,
			&t.CardNumber,
			&t.NSU,
			&t.AuthorizationCode,
			&t.SaleCode,
			&t.ReferenceCode,
			&t.BuyerName,
			&t.BuyerEmail,
			&t.PixCode,
			&t.BatchID,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		t.TransactionDate = timePtr(txDate)
		t.ReleaseDate = timePtr(releaseDate)
		t.CreatedAt = t.CreatedAt.UTC()
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// insertTransactions writes txs with a single prepared statement on the given transaction.
func insertTransactions(ctx context.Context, tx *sql.Tx, txs []models.Transaction, now time.Time) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
	VALUES (`+placeholders(21)+`)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range txs {
		if _, err := stmt.ExecContext(ctx,
			t.MachineID,
			t.Code,
			nullableTime(t.TransactionDate),
			nullableTime(t.ReleaseDate),
			t.CardBrand,
			t.PaymentMethod,
			t.Installments,
			t.GrossAmount,
			t.ProviderFee,
			t.NetAmount,
			t.Status,
			t.CardNumber,
			t.NSU,
			t.AuthorizationCode,
			t.SaleCode,
			t.ReferenceCode,
			t.BuyerName,
			t.BuyerEmail,
			t.PixCode,
			t.BatchID,
			now,
		); err != nil {
			return err
		}
	}
	return nil
}
