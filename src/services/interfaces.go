// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/username/pagbank-analyzer/backend/src/model"
	"github.com/username/pagbank-analyzer/backend/src/models"
	"github.com/username/pagbank-analyzer/backend/src/processors"
)

// Define common service errors
var (
	ErrNotFound            = errors.New("not found")
	ErrMachineNotFound     = fmt.Errorf("machine %w", ErrNotFound)
	ErrFeeScheduleNotFound = fmt.Errorf("fee schedule %w", ErrNotFound)
	ErrParsingFailed       = errors.New("csv parsing failed")
	ErrPersistenceFailed   = processors.ErrPersistenceFailed
)

// UploadResult is the outcome of one ProcessUpload call.
type UploadResult struct {
	Success bool `json:"success"`
	models.BatchResult
	TotalClients int    `json:"total_clients"`
	Message      string `json:"message"`
}

// ExportResult is the snapshot of one machine plus the file name it should be saved under.
type ExportResult struct {
	Success  bool                  `json:"success"`
	Data     models.ExportSnapshot `json:"data"`
	Filename string                `json:"filename"`
}

// Store is the persistence the services work against; model.Store implements it.
type Store interface {
	processors.BatchStore
	GetMachine(ctx context.Context, machineID string) (*models.Machine, error)
	GetMachineSummary(ctx context.Context, machineID string) (models.MachineSummary, error)
	GetFeeSchedule(ctx context.Context, machineID string) (*models.FeeSchedule, error)
	UpdateFeeSchedule(ctx context.Context, machineID string, update func(*models.FeeSchedule) error) (*models.FeeSchedule, error)
	ListTransactions(ctx context.Context, machineID string) ([]models.Transaction, error)
	ListIngestionBatches(ctx context.Context) ([]models.IngestionBatch, error)
	PurgeTestData(ctx context.Context) (model.PurgeResult, error)
}

// UploadService defines the interface for the core upload processing logic.
type UploadService interface {
	ProcessUpload(ctx context.Context, fileReader io.Reader, source, filename string, filesize int64) (*UploadResult, error)
	ListUploads(ctx context.Context) ([]models.IngestionBatch, error)
}

// MachineService covers everything that reads or configures a single machine.
type MachineService interface {
	ListMachines(ctx context.Context) ([]models.MachineSummary, error)
	GetFeeSchedule(ctx context.Context, machineID string) (*models.FeeSchedule, error)
	UpdateFeeSchedule(ctx context.Context, machineID string, update map[string]any) (*models.FeeSchedule, error)
	ListTransactions(ctx context.Context, machineID string) ([]models.Transaction, error)
	CalculateProfit(ctx context.Context, machineID string) (*models.ProfitReport, error)
	Export(ctx context.Context, machineID string) (*ExportResult, error)
	PurgeTestData(ctx context.Context) (model.PurgeResult, error)
}
