// backend/src/models/transaction.go
package models

import "time"

// RawRow is one data row of a provider export, keyed by header name.
type RawRow map[string]string

// Get returns the value for a column, or "" when the column is absent.
func (r RawRow) Get(column string) string {
	if r == nil {
		return ""
	}
	return r[column]
}

// Transaction is a persisted provider transaction. Code is the natural key.
// ProviderFee is GrossAmount - NetAmount as computed at ingestion.
type Transaction struct {
	ID                int64      `json:"id,omitempty"`
	MachineID         string     `json:"machine_id"`
	Code              string     `json:"codigo_transacao"`
	TransactionDate   *time.Time `json:"data_transacao"`
	ReleaseDate       *time.Time `json:"data_liberacao"`
	CardBrand         string     `json:"bandeira"`
	PaymentMethod     string     `json:"forma_pagamento"`
	Installments      string     `json:"parcela"`
	GrossAmount       float64    `json:"valor_bruto"`
	ProviderFee       float64    `json:"valor_taxa"`
	NetAmount         float64    `json:"valor_liquido"`
	Status            string     `json:"status"`
	CardNumber        string     `json:"numero_cartao"`
	NSU               string     `json:"codigo_nsu"`
	AuthorizationCode string     `json:"codigo_autorizacao"`
	SaleCode          string     `json:"codigo_venda"`
	ReferenceCode     string     `json:"codigo_referencia"`
	BuyerName         string     `json:"nome_comprador"`
	BuyerEmail        string     `json:"email_comprador"`
	PixCode           string     `json:"codigo_pix"`
	BatchID           string     `json:"batch_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
