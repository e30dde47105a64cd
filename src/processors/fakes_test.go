package processors

import (
	"context"
	"errors"
	"sort"

	"github.com/username/pagbank-analyzer/backend/src/models"
	"github.com/username/pagbank-analyzer/backend/src/parsers/pagbank"
)

type fakeStore struct {
	machines     map[string]models.Machine
	transactions map[string]models.Transaction
	batches      []models.StagedBatch

	lookupErr    error
	saveErr      error
	summariesErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		machines:     map[string]models.Machine{},
		transactions: map[string]models.Transaction{},
	}
}

func (f *fakeStore) TransactionExists(_ context.Context, code string) (bool, error) {
	if f.lookupErr != nil {
		return false, f.lookupErr
	}
	_, ok := f.transactions[code]
	return ok, nil
}

func (f *fakeStore) FindMachine(_ context.Context, machineID string) (*models.Machine, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	m, ok := f.machines[machineID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeStore) SaveBatch(_ context.Context, batch models.StagedBatch) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, tx := range batch.Transactions {
		if _, dup := f.transactions[tx.Code]; dup {
			return errors.New("UNIQUE constraint failed: transactions.code")
		}
	}
	for _, m := range batch.NewMachines {
		f.machines[m.MachineID] = m
	}
	for _, m := range batch.UpdatedMachines {
		f.machines[m.MachineID] = m
	}
	for _, tx := range batch.Transactions {
		f.transactions[tx.Code] = tx
	}
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeStore) ListMachineSummaries(_ context.Context) ([]models.MachineSummary, error) {
	if f.summariesErr != nil {
		return nil, f.summariesErr
	}
	out := make([]models.MachineSummary, 0, len(f.machines))
	for id, m := range f.machines {
		s := models.MachineSummary{MachineID: id, ClientName: m.ClientName, ClientEmail: m.ClientEmail}
		for _, tx := range f.transactions {
			if tx.MachineID != id {
				continue
			}
			s.TransactionCount++
			s.GrossTotal += tx.GrossAmount
			s.ProviderFeeTotal += tx.ProviderFee
			s.NetTotal += tx.NetAmount
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MachineID < out[j].MachineID })
	return out, nil
}

func row(machineID, code, method, installments, gross, net string) models.RawRow {
	return models.RawRow{
		pagbank.ColMachineID:       machineID,
		pagbank.ColTransactionCode: code,
		pagbank.ColClientName:      "Padaria Sol",
		pagbank.ColClientEmail:     "sol@example.com",
		pagbank.ColTransactionDate: "15/03/2024 14:30",
		pagbank.ColCardBrand:       "VISA",
		pagbank.ColPaymentMethod:   method,
		pagbank.ColInstallments:    installments,
		pagbank.ColGrossAmount:     gross,
		pagbank.ColNetAmount:       net,
		pagbank.ColStatus:          "Aprovada",
	}
}
