// backend/src/services/machine_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/model"
	"github.com/username/pagbank-analyzer/backend/src/models"
	"github.com/username/pagbank-analyzer/backend/src/processors"
)

type machineServiceImpl struct {
	store           Store
	profitProcessor *processors.ProfitProcessor
	reportCache     *ReportCache
}

func NewMachineService(store Store, profitProcessor *processors.ProfitProcessor, reportCache *ReportCache) MachineService {
	return &machineServiceImpl{
		store:           store,
		profitProcessor: profitProcessor,
		reportCache:     reportCache,
	}
}

func (s *machineServiceImpl) ListMachines(ctx context.Context) ([]models.MachineSummary, error) {
	if cached, found := s.reportCache.Get(ckMachineRoster); found {
		return cached.([]models.MachineSummary), nil
	}
	gen := s.reportCache.Generation()
	summaries, err := s.store.ListMachineSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing machines: %w", err)
	}
	s.reportCache.SetIfCurrent(ckMachineRoster, summaries, gen)
	return summaries, nil
}

// GetFeeSchedule returns the stored schedule, or the all-zero default when the
// machine has none.
func (s *machineServiceImpl) GetFeeSchedule(ctx context.Context, machineID string) (*models.FeeSchedule, error) {
	schedule, err := s.store.GetFeeSchedule(ctx, machineID)
	if errors.Is(err, model.ErrNotFound) {
		logger.FromContext(ctx).Debug("No fee schedule stored, returning default", "machineID", machineID)
		d := models.DefaultFeeSchedule(machineID)
		return &d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading fee schedule for %s: %w", machineID, err)
	}
	return schedule, nil
}

func (s *machineServiceImpl) UpdateFeeSchedule(ctx context.Context, machineID string, update map[string]any) (*models.FeeSchedule, error) {
	schedule, err := s.store.UpdateFeeSchedule(ctx, machineID, func(fs *models.FeeSchedule) error {
		return fs.ApplyUpdate(update)
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", ErrMachineNotFound, machineID)
		case errors.Is(err, models.ErrInvalidRate):
			return nil, err
		}
		return nil, fmt.Errorf("error saving fee schedule for %s: %w", machineID, err)
	}

	s.reportCache.Invalidate(fmt.Sprintf(ckProfitReport, machineID))
	logger.FromContext(ctx).Info("Fee schedule updated", "machineID", machineID, "fields", len(update))
	return schedule, nil
}

// ListTransactions returns the machine's transactions in storage order. An
// unknown machine has no transactions.
func (s *machineServiceImpl) ListTransactions(ctx context.Context, machineID string) ([]models.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, machineID)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions for %s: %w", machineID, err)
	}
	return txs, nil
}

func (s *machineServiceImpl) CalculateProfit(ctx context.Context, machineID string) (*models.ProfitReport, error) {
	cacheKey := fmt.Sprintf(ckProfitReport, machineID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.ProfitReport), nil
	}
	gen := s.reportCache.Generation()

	if _, err := s.store.GetMachine(ctx, machineID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMachineNotFound, machineID)
		}
		return nil, err
	}
	schedule, err := s.store.GetFeeSchedule(ctx, machineID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFeeScheduleNotFound, machineID)
		}
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, machineID)
	if err != nil {
		return nil, err
	}

	report := s.profitProcessor.Calculate(*schedule, txs)
	if !s.reportCache.SetIfCurrent(cacheKey, &report, gen) {
		logger.FromContext(ctx).Debug("Profit report not cached, data changed while computing", "machineID", machineID)
	}
	logger.FromContext(ctx).Info("Profit calculated", "machineID", machineID, "transactions", len(txs), "profit", report.TotalProfit)
	return &report, nil
}

func (s *machineServiceImpl) Export(ctx context.Context, machineID string) (*ExportResult, error) {
	machine, err := s.store.GetMachine(ctx, machineID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMachineNotFound, machineID)
		}
		return nil, err
	}

	schedule, err := s.store.GetFeeSchedule(ctx, machineID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, machineID)
	if err != nil {
		return nil, err
	}
	summary, err := s.store.GetMachineSummary(ctx, machineID)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Success: true,
		Data: models.ExportSnapshot{
			Machine:      *machine,
			Schedule:     schedule,
			Transactions: txs,
			Summary:      summary,
		},
		Filename: fmt.Sprintf("machine_%s_export.json", machineID),
	}, nil
}

func (s *machineServiceImpl) PurgeTestData(ctx context.Context) (model.PurgeResult, error) {
	res, err := s.store.PurgeTestData(ctx)
	if err != nil {
		return res, fmt.Errorf("error purging test data: %w", err)
	}
	s.reportCache.InvalidateAll()
	return res, nil
}
