package processors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/pagbank-analyzer/backend/src/models"
)

func TestBatchProcessorCounters(t *testing.T) {
	store := newFakeStore()
	store.transactions["OLD"] = models.Transaction{Code: "OLD", MachineID: "999"}
	store.machines["999"] = models.Machine{MachineID: "999", ClientName: "Loja"}
	p := NewBatchProcessor(store)

	rows := []models.RawRow{
		row("123", "TX1", "Crédito", "3x", "100,00", "96,00"),
		row("", "TX2", "PIX", "", "10,00", "10,00"),
		row("123", "TX1", "Crédito", "3x", "100,00", "96,00"),
		row("999", "OLD", "PIX", "", "10,00", "10,00"),
		row("456", "TX3", "Débito", "", "50,00", "x"),
		row("123", "", "PIX", "", "1,00", "1,00"),
	}
	res, err := p.Process(context.Background(), rows, BatchMeta{Filename: "export.csv", FileSize: 512})
	require.NoError(t, err)

	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, 6, res.TotalRows)
	assert.Equal(t, 2, res.NewTransactions)
	assert.Equal(t, 2, res.SkippedDuplicates)
	assert.Equal(t, 2, res.SkippedInvalid)
	assert.Equal(t, 2, res.UpdatedMachines, "machine 999 only had a duplicate")
	assert.Equal(t, 1, res.DefaultedFields)

	require.Len(t, res.Skips, 4)
	assert.Equal(t, models.SkippedRow{Row: 2, Code: "TX2", Reason: models.SkipMissingMachineID}, res.Skips[0])
	assert.Equal(t, models.SkippedRow{Row: 3, Code: "TX1", Reason: models.SkipDuplicate}, res.Skips[1])
	assert.Equal(t, models.SkippedRow{Row: 4, Code: "OLD", Reason: models.SkipDuplicate}, res.Skips[2])
	assert.Equal(t, models.SkippedRow{Row: 6, Reason: models.SkipMissingCode}, res.Skips[3])

	require.Len(t, store.batches, 1)
	saved := store.batches[0]
	assert.Equal(t, res.BatchID, saved.Batch.BatchID)
	assert.Equal(t, "export.csv", saved.Batch.Filename)
	assert.Len(t, saved.NewMachines, 2)
	assert.Empty(t, saved.UpdatedMachines)
	require.Len(t, saved.Transactions, 2)
	assert.Equal(t, "TX1", saved.Transactions[0].Code)
	assert.Equal(t, "TX3", saved.Transactions[1].Code)
	for _, tx := range saved.Transactions {
		assert.Equal(t, res.BatchID, tx.BatchID)
	}

	require.Len(t, res.Machines, 3)
	assert.Equal(t, "123", res.Machines[0].MachineID)
	assert.Equal(t, 1, res.Machines[0].TransactionCount)
	assert.InDelta(t, 4.0, res.Machines[0].ProviderFeeTotal, 1e-9)
}

func TestBatchProcessorReingestIsIdempotent(t *testing.T) {
	store := newFakeStore()
	p := NewBatchProcessor(store)
	rows := []models.RawRow{row("123", "TX1", "Crédito", "3x", "100,00", "96,00")}

	first, err := p.Process(context.Background(), rows, BatchMeta{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.NewTransactions)

	second, err := p.Process(context.Background(), rows, BatchMeta{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewTransactions)
	assert.Equal(t, 1, second.SkippedDuplicates)
	assert.Equal(t, 0, second.UpdatedMachines)
	assert.Len(t, store.batches, 1, "a batch without new rows writes nothing")
	assert.Len(t, second.Machines, 1)
}

func TestBatchProcessorEmptyInput(t *testing.T) {
	p := NewBatchProcessor(newFakeStore())
	res, err := p.Process(context.Background(), nil, BatchMeta{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalRows)
	assert.Zero(t, res.NewTransactions)
	assert.NotNil(t, res.Skips)
	assert.Empty(t, res.Machines)
}

func TestBatchProcessorPersistenceFailure(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("disk I/O error")
	p := NewBatchProcessor(store)

	_, err := p.Process(context.Background(), []models.RawRow{row("123", "TX1", "PIX", "", "1,00", "1,00")}, BatchMeta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistenceFailed)
	assert.Empty(t, store.transactions)
	assert.Empty(t, store.machines)
}

func TestBatchProcessorRosterFailureKeepsCommittedCounters(t *testing.T) {
	store := newFakeStore()
	store.summariesErr = errors.New("database is locked")
	p := NewBatchProcessor(store)

	res, err := p.Process(context.Background(), []models.RawRow{row("123", "TX1", "PIX", "", "1,00", "1,00")}, BatchMeta{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewTransactions)
	assert.NotNil(t, res.Machines)
	assert.Empty(t, res.Machines)
	assert.Contains(t, store.transactions, "TX1")
}

func TestBatchProcessorCountsInvalidMachineIDs(t *testing.T) {
	store := newFakeStore()
	p := NewBatchProcessor(store)

	rows := []models.RawRow{
		row("PB 01", "TX1", "PIX", "", "1,00", "1,00"),
		row("PB\t01", "TX2", "PIX", "", "1,00", "1,00"),
	}
	res, err := p.Process(context.Background(), rows, BatchMeta{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewTransactions)
	assert.Equal(t, 1, res.SkippedInvalid)
	require.Len(t, res.Skips, 1)
	assert.Equal(t, models.SkippedRow{Row: 2, Code: "TX2", Reason: models.SkipInvalidMachineID}, res.Skips[0])
	require.Len(t, res.Machines, 1)
	assert.Equal(t, "PB 01", res.Machines[0].MachineID)
}

func TestBatchProcessorLookupFailureAborts(t *testing.T) {
	store := newFakeStore()
	store.lookupErr = errors.New("no such table: transactions")
	p := NewBatchProcessor(store)

	_, err := p.Process(context.Background(), []models.RawRow{row("123", "TX1", "PIX", "", "1,00", "1,00")}, BatchMeta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.lookupErr)
	assert.NotErrorIs(t, err, ErrPersistenceFailed)
	assert.Empty(t, store.batches)
}
