package models

import "time"

// Machine is a registered point-of-sale device.
type Machine struct {
	MachineID   string    `json:"machine_id"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MachineSummary aggregates the persisted transactions of one machine.
type MachineSummary struct {
	MachineID        string  `json:"machine_id"`
	ClientName       string  `json:"client_name"`
	ClientEmail      string  `json:"client_email"`
	TransactionCount int     `json:"total_transacoes"`
	GrossTotal       float64 `json:"valor_bruto_total"`
	ProviderFeeTotal float64 `json:"valor_taxa_total"`
	NetTotal         float64 `json:"valor_liquido_total"`
}

// ExportSnapshot is the consolidated view of one machine for external serialization.
// Schedule is nil when the machine has no persisted fee schedule.
type ExportSnapshot struct {
	Machine      Machine        `json:"machine_info"`
	Schedule     *FeeSchedule   `json:"config"`
	Transactions []Transaction  `json:"transactions"`
	Summary      MachineSummary `json:"summary"`
}
