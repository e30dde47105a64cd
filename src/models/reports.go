package models

import "time"

// SkipReason explains why an ingestion row produced no transaction.
type SkipReason string

const (
	SkipMissingMachineID SkipReason = "missing_machine_id"
	SkipInvalidMachineID SkipReason = "invalid_machine_id"
	SkipMissingCode      SkipReason = "missing_transaction_code"
	SkipDuplicate        SkipReason = "duplicate_transaction_code"
)

// SkippedRow records one rejected row. Row is 1-based over data rows.
type SkippedRow struct {
	Row    int        `json:"row"`
	Code   string     `json:"codigo_transacao,omitempty"`
	Reason SkipReason `json:"reason"`
}

// BatchResult is the outcome of one ingestion batch.
type BatchResult struct {
	BatchID           string           `json:"batch_id"`
	TotalRows         int              `json:"total_rows_processed"`
	NewTransactions   int              `json:"new_transactions"`
	SkippedDuplicates int              `json:"skipped_duplicates"`
	SkippedInvalid    int              `json:"skipped_invalid"`
	UpdatedMachines   int              `json:"updated_machines"`
	DefaultedFields   int              `json:"defaulted_fields"`
	Skips             []SkippedRow     `json:"skipped_rows"`
	Machines          []MachineSummary `json:"clients"`
}

// IngestionBatch is the persisted history entry of a batch that inserted rows.
type IngestionBatch struct {
	BatchID           string    `json:"batch_id"`
	Filename          string    `json:"filename"`
	FileSize          int64     `json:"file_size"`
	TotalRows         int       `json:"total_rows"`
	NewTransactions   int       `json:"new_transactions"`
	SkippedDuplicates int       `json:"skipped_duplicates"`
	SkippedInvalid    int       `json:"skipped_invalid"`
	CreatedAt         time.Time `json:"created_at"`
}

// Payment categories resolved by the profit calculator.
const (
	CategoryCredit = "credito"
	CategoryDebit  = "debito"
	CategoryPix    = "pix"
)

// ProfitLine is the per-transaction breakdown of a profit report.
// Category is empty when the payment method was not recognised.
type ProfitLine struct {
	Code              string     `json:"codigo_transacao"`
	TransactionDate   *time.Time `json:"data_transacao"`
	PaymentMethod     string     `json:"forma_pagamento"`
	Installments      string     `json:"parcela"`
	GrossAmount       float64    `json:"valor_bruto"`
	ProviderFee       float64    `json:"valor_taxa"`
	ClientFee         float64    `json:"sua_taxa"`
	Profit            float64    `json:"seu_lucro"`
	ClientRatePercent float64    `json:"taxa_cliente_percent"`
	Category          string     `json:"categoria"`
	UsedFallbackRate  bool       `json:"taxa_padrao_1x"`
}

// ProfitReport is the profit breakdown of one machine.
type ProfitReport struct {
	MachineID      string       `json:"machine_id"`
	TotalClientFee float64      `json:"suas_taxas_total"`
	TotalProfit    float64      `json:"lucro_total"`
	MarginPercent  float64      `json:"margem_lucro"`
	Lines          []ProfitLine `json:"transactions"`
}

// StagedBatch is everything one ingestion batch writes, persisted atomically.
// NewMachines get an all-zero fee schedule on insert; UpdatedMachines carry
// refreshed client contact data.
type StagedBatch struct {
	Batch           IngestionBatch
	NewMachines     []Machine
	UpdatedMachines []Machine
	Transactions    []Transaction
}
