package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/pagbank-analyzer/backend/src/database"
	"github.com/username/pagbank-analyzer/backend/src/model"
	"github.com/username/pagbank-analyzer/backend/src/models"
	_ "github.com/username/pagbank-analyzer/backend/src/parsers/pagbank"
	"github.com/username/pagbank-analyzer/backend/src/processors"
)

const exportHeader = "Identificação da Maquininha;Código da Transação;Nome Cliente;E-mail Cliente;Data da Transação;Bandeira;Forma de Pagamento;Parcela;Valor Bruto;Valor Líquido;Status\n"

type testEnv struct {
	store   *model.Store
	upload  UploadService
	machine MachineService
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))

	store := model.NewStore(db)
	reportCache := NewReportCache(0)
	return testEnv{
		store:   store,
		upload:  NewUploadService(store, processors.NewBatchProcessor(store), reportCache),
		machine: NewMachineService(store, processors.NewProfitProcessor(), reportCache),
	}
}

func (e testEnv) ingest(t *testing.T, body string) *UploadResult {
	t.Helper()
	res, err := e.upload.ProcessUpload(context.Background(), strings.NewReader(exportHeader+body), "pagbank", "export.csv", int64(len(body)))
	require.NoError(t, err)
	return res
}

func TestEndToEndProfit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res := env.ingest(t, "123;TX1;Padaria Sol;sol@example.com;15/03/2024 14:30;VISA;Crédito;3x;100,00;96,00;Aprovada\n")
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.NewTransactions)
	assert.Equal(t, 0, res.SkippedDuplicates)
	assert.Equal(t, 1, res.UpdatedMachines)
	assert.Equal(t, 1, res.TotalClients)
	assert.Contains(t, res.Message, "1 novas transações")

	txs, err := env.machine.ListTransactions(ctx, "123")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.InDelta(t, 4.0, txs[0].ProviderFee, 1e-9)

	schedule, err := env.machine.UpdateFeeSchedule(ctx, "123", map[string]any{"credito_3x": 5.0})
	require.NoError(t, err)
	rate, _ := schedule.CreditRate(3)
	assert.InDelta(t, 5.0, rate, 1e-9)

	report, err := env.machine.CalculateProfit(ctx, "123")
	require.NoError(t, err)
	require.Len(t, report.Lines, 1)
	assert.InDelta(t, 5.0, report.TotalClientFee, 1e-9)
	assert.InDelta(t, 1.0, report.TotalProfit, 1e-9)
	assert.InDelta(t, 20.0, report.MarginPercent, 1e-9)

	again := env.ingest(t, "123;TX1;Padaria Sol;sol@example.com;15/03/2024 14:30;VISA;Crédito;3x;100,00;96,00;Aprovada\n")
	assert.Equal(t, 0, again.NewTransactions)
	assert.Equal(t, 1, again.SkippedDuplicates)

	txs, err = env.machine.ListTransactions(ctx, "123")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestProfitReportRefreshesAfterScheduleChange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.ingest(t, "123;TX1;;;15/03/2024;VISA;Débito;;200,00;198,00;Aprovada\n")

	report, err := env.machine.CalculateProfit(ctx, "123")
	require.NoError(t, err)
	assert.Zero(t, report.TotalClientFee)
	assert.Zero(t, report.MarginPercent)

	_, err = env.machine.UpdateFeeSchedule(ctx, "123", map[string]any{"debit_rate": "2"})
	require.NoError(t, err)

	report, err = env.machine.CalculateProfit(ctx, "123")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, report.TotalClientFee, 1e-9)
	assert.InDelta(t, 2.0, report.TotalProfit, 1e-9)
}

func TestMachineErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.machine.CalculateProfit(ctx, "nope")
	assert.ErrorIs(t, err, ErrMachineNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.machine.UpdateFeeSchedule(ctx, "nope", map[string]any{"pix": 1})
	assert.ErrorIs(t, err, ErrMachineNotFound)

	_, err = env.machine.Export(ctx, "nope")
	assert.ErrorIs(t, err, ErrMachineNotFound)

	schedule, err := env.machine.GetFeeSchedule(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, "nope", schedule.MachineID)
	assert.Zero(t, schedule.Pix)

	txs, err := env.machine.ListTransactions(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, txs)

	env.ingest(t, "123;TX1;;;;;PIX;;10,00;10,00;\n")
	_, err = env.machine.UpdateFeeSchedule(ctx, "123", map[string]any{"pix": []int{1}})
	assert.ErrorIs(t, err, models.ErrInvalidRate)

	_, err = env.store.DB().ExecContext(ctx, `DELETE FROM fee_schedules WHERE machine_id = ?`, "123")
	require.NoError(t, err)
	_, err = env.machine.CalculateProfit(ctx, "123")
	assert.ErrorIs(t, err, ErrFeeScheduleNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadRejectsUnreadableInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.upload.ProcessUpload(context.Background(), strings.NewReader(""), "pagbank", "empty.csv", 0)
	assert.ErrorIs(t, err, ErrParsingFailed)

	_, err = env.upload.ProcessUpload(context.Background(), strings.NewReader(exportHeader), "unknown", "x.csv", 0)
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func TestListMachinesCacheInvalidatedByUpload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	machines, err := env.machine.ListMachines(ctx)
	require.NoError(t, err)
	assert.Empty(t, machines)

	env.ingest(t, "123;TX1;Loja A;;;;PIX;;10,00;10,00;\n456;TX2;Loja B;;;;PIX;;20,00;19,80;\n")

	machines, err = env.machine.ListMachines(ctx)
	require.NoError(t, err)
	require.Len(t, machines, 2)
	assert.Equal(t, "123", machines[0].MachineID)
	assert.Equal(t, "Loja B", machines[1].ClientName)

	uploads, err := env.upload.ListUploads(ctx)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, 2, uploads[0].NewTransactions)
}

func TestExportAndPurge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.ingest(t, "9999999999;T1;Teste;;;;PIX;;10,00;9,00;\n123;T2;Real;;;;PIX;;5,00;5,00;\n")

	export, err := env.machine.Export(ctx, "9999999999")
	require.NoError(t, err)
	assert.Equal(t, "machine_9999999999_export.json", export.Filename)
	assert.Equal(t, "Teste", export.Data.Machine.ClientName)
	require.NotNil(t, export.Data.Schedule)
	assert.Len(t, export.Data.Transactions, 1)
	assert.Equal(t, 1, export.Data.Summary.TransactionCount)
	assert.InDelta(t, 1.0, export.Data.Summary.ProviderFeeTotal, 1e-9)

	res, err := env.machine.PurgeTestData(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Machines)

	machines, err := env.machine.ListMachines(ctx)
	require.NoError(t, err)
	require.Len(t, machines, 1)
	assert.Equal(t, "123", machines[0].MachineID)
}

// hookStore wraps the real store to inject failures and concurrent writes.
type hookStore struct {
	Store
	summariesErr  error
	beforeListTxs func()
}

func (h *hookStore) ListMachineSummaries(ctx context.Context) ([]models.MachineSummary, error) {
	if h.summariesErr != nil {
		return nil, h.summariesErr
	}
	return h.Store.ListMachineSummaries(ctx)
}

func (h *hookStore) ListTransactions(ctx context.Context, machineID string) ([]models.Transaction, error) {
	if hook := h.beforeListTxs; hook != nil {
		h.beforeListTxs = nil
		hook()
	}
	return h.Store.ListTransactions(ctx, machineID)
}

func TestReportCacheGeneration(t *testing.T) {
	c := NewReportCache(0)

	gen := c.Generation()
	assert.True(t, c.SetIfCurrent("a", 1, gen))
	v, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, 1, v)

	c.Invalidate("a")
	_, found = c.Get("a")
	assert.False(t, found)
	assert.False(t, c.SetIfCurrent("a", 2, gen), "stale generation")
	_, found = c.Get("a")
	assert.False(t, found)

	gen = c.Generation()
	assert.True(t, c.SetIfCurrent("b", 3, gen))
	c.InvalidateAll()
	_, found = c.Get("b")
	assert.False(t, found)
}

func TestProfitReportComputedDuringScheduleChangeIsNotCached(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.ingest(t, "123;TX1;;;15/03/2024;VISA;Crédito;3x;100,00;96,00;Aprovada\n")
	_, err := env.machine.UpdateFeeSchedule(ctx, "123", map[string]any{"credito_3x": 5.0})
	require.NoError(t, err)

	hs := &hookStore{Store: env.store}
	svc := NewMachineService(hs, processors.NewProfitProcessor(), NewReportCache(0))
	hs.beforeListTxs = func() {
		_, err := svc.UpdateFeeSchedule(ctx, "123", map[string]any{"credito_3x": 10.0})
		require.NoError(t, err)
	}

	report, err := svc.CalculateProfit(ctx, "123")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, report.TotalClientFee, 1e-9, "computed from the schedule read before the update")

	report, err = svc.CalculateProfit(ctx, "123")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, report.TotalClientFee, 1e-9)
}

func TestUploadSucceedsWhenRosterRefreshFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	hs := &hookStore{Store: env.store}
	reportCache := NewReportCache(0)
	uploadSvc := NewUploadService(hs, processors.NewBatchProcessor(hs), reportCache)
	machineSvc := NewMachineService(env.store, processors.NewProfitProcessor(), reportCache)

	machines, err := machineSvc.ListMachines(ctx)
	require.NoError(t, err)
	assert.Empty(t, machines)

	hs.summariesErr = errors.New("database is locked")
	body := "123;TX1;Loja A;;;;PIX;;10,00;10,00;\n"
	res, err := uploadSvc.ProcessUpload(ctx, strings.NewReader(exportHeader+body), "pagbank", "export.csv", int64(len(body)))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.NewTransactions)

	machines, err = machineSvc.ListMachines(ctx)
	require.NoError(t, err)
	require.Len(t, machines, 1, "cached roster was dropped")
	assert.Equal(t, "123", machines[0].MachineID)
}
