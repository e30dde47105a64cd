// backend/src/processors/interfaces.go
package processors

import (
	"context"
	"errors"

	"github.com/username/pagbank-analyzer/backend/src/models"
)

// ErrPersistenceFailed is returned when a staged batch could not be written.
// Nothing from the batch is persisted in that case.
var ErrPersistenceFailed = errors.New("batch persistence failed")

// Lookup answers the questions the normalizer asks about persisted state.
type Lookup interface {
	TransactionExists(ctx context.Context, code string) (bool, error)
	// FindMachine returns nil without error when the machine is unknown.
	FindMachine(ctx context.Context, machineID string) (*models.Machine, error)
}

// BatchStore is the storage the batch processor needs.
type BatchStore interface {
	Lookup
	SaveBatch(ctx context.Context, batch models.StagedBatch) error
	ListMachineSummaries(ctx context.Context) ([]models.MachineSummary, error)
}
