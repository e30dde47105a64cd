// backend/src/processors/normalizer.go
package processors

import (
	"context"
	"fmt"
	"strings"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/models"
	"github.com/username/pagbank-analyzer/backend/src/parsers"
	"github.com/username/pagbank-analyzer/backend/src/parsers/pagbank"
	"github.com/username/pagbank-analyzer/backend/src/security/validation"
)

type stagedMachine struct {
	machine models.Machine
	isNew   bool
}

// BatchState is what the normalizer remembers between the rows of one batch.
type BatchState struct {
	seen     map[string]struct{}
	machines map[string]*stagedMachine
	order    []string
}

// NewBatchState returns an empty state for a new batch.
func NewBatchState() *BatchState {
	return &BatchState{
		seen:     make(map[string]struct{}),
		machines: make(map[string]*stagedMachine),
	}
}

// Seen reports whether a transaction code was already accepted in this batch.
func (s *BatchState) Seen(code string) bool {
	_, ok := s.seen[code]
	return ok
}

// Machines splits the staged machines into new and existing ones, in the
// order they were first referenced.
func (s *BatchState) Machines() (created, updated []models.Machine) {
	for _, id := range s.order {
		staged := s.machines[id]
		if staged.isNew {
			created = append(created, staged.machine)
		} else {
			updated = append(updated, staged.machine)
		}
	}
	return created, updated
}

// TouchedMachines is the number of distinct machines that received a transaction.
func (s *BatchState) TouchedMachines() int {
	return len(s.order)
}

// NormalizeResult is the outcome of normalizing one row. Exactly one of
// Transaction and Skip is set.
type NormalizeResult struct {
	Transaction     *models.Transaction
	Skip            models.SkipReason
	DefaultedFields int
}

// TransactionNormalizer maps raw PagBank rows to canonical transactions and
// stages the machines they belong to.
type TransactionNormalizer struct {
	lookup Lookup
}

func NewTransactionNormalizer(lookup Lookup) *TransactionNormalizer {
	return &TransactionNormalizer{lookup: lookup}
}

// Normalize validates one row against the batch state and persisted data.
// An error means the lookup itself failed and the batch cannot continue.
func (n *TransactionNormalizer) Normalize(ctx context.Context, row models.RawRow, state *BatchState) (NormalizeResult, error) {
	machineID := strings.TrimSpace(row.Get(pagbank.ColMachineID))
	if machineID == "" {
		return NormalizeResult{Skip: models.SkipMissingMachineID}, nil
	}
	if _, err := validation.ValidateMachineID(machineID); err != nil {
		logger.L.Debug("Row rejected", "reason", models.SkipInvalidMachineID, "error", err)
		return NormalizeResult{Skip: models.SkipInvalidMachineID}, nil
	}
	code := strings.TrimSpace(row.Get(pagbank.ColTransactionCode))
	if code == "" {
		return NormalizeResult{Skip: models.SkipMissingCode}, nil
	}

	if state.Seen(code) {
		return NormalizeResult{Skip: models.SkipDuplicate}, nil
	}
	exists, err := n.lookup.TransactionExists(ctx, code)
	if err != nil {
		return NormalizeResult{}, fmt.Errorf("checking transaction %s: %w", code, err)
	}
	if exists {
		return NormalizeResult{Skip: models.SkipDuplicate}, nil
	}

	if err := n.stageMachine(ctx, machineID, row, state); err != nil {
		return NormalizeResult{}, err
	}

	var defaulted int
	gross, ok := parsers.TryParseDecimal(row.Get(pagbank.ColGrossAmount))
	if !ok {
		defaulted++
	}
	net, ok := parsers.TryParseDecimal(row.Get(pagbank.ColNetAmount))
	if !ok {
		defaulted++
	}

	txDate := parsers.ParseDateTime(row.Get(pagbank.ColTransactionDate))
	if txDate == nil {
		defaulted++
	}
	releaseText := row.Get(pagbank.ColReleaseDate)
	releaseDate := parsers.ParseDateTime(releaseText)
	if releaseDate == nil && strings.TrimSpace(releaseText) != "" {
		defaulted++
	}

	if defaulted > 0 {
		logger.L.Debug("Row normalized with defaulted fields", "code", code, "machineID", machineID, "defaulted", defaulted)
	}

	tx := &models.Transaction{
		MachineID:         machineID,
		Code:              code,
		TransactionDate:   txDate,
		ReleaseDate:       releaseDate,
		CardBrand:         strings.TrimSpace(row.Get(pagbank.ColCardBrand)),
		PaymentMethod:     strings.TrimSpace(row.Get(pagbank.ColPaymentMethod)),
		Installments:      strings.TrimSpace(row.Get(pagbank.ColInstallments)),
		GrossAmount:       gross,
		NetAmount:         net,
		ProviderFee:       gross - net,
		Status:            strings.TrimSpace(row.Get(pagbank.ColStatus)),
		CardNumber:        strings.TrimSpace(row.Get(pagbank.ColCardNumber)),
		NSU:               strings.TrimSpace(row.Get(pagbank.ColNSU)),
		AuthorizationCode: strings.TrimSpace(row.Get(pagbank.ColAuthorizationCode)),
		SaleCode:          strings.TrimSpace(row.Get(pagbank.ColSaleCode)),
		ReferenceCode:     strings.TrimSpace(row.Get(pagbank.ColReferenceCode)),
		BuyerName:         strings.TrimSpace(row.Get(pagbank.ColBuyerName)),
		BuyerEmail:        strings.TrimSpace(row.Get(pagbank.ColBuyerEmail)),
		PixCode:           strings.TrimSpace(row.Get(pagbank.ColPixCode)),
	}
	state.seen[code] = struct{}{}

	return NormalizeResult{Transaction: tx, DefaultedFields: defaulted}, nil
}

// stageMachine registers the row's machine in the batch, creating it when it
// is unknown. Contact data is only overwritten by non-empty values.
func (n *TransactionNormalizer) stageMachine(ctx context.Context, machineID string, row models.RawRow, state *BatchState) error {
	name := strings.TrimSpace(row.Get(pagbank.ColClientName))
	email := strings.TrimSpace(row.Get(pagbank.ColClientEmail))

	staged, ok := state.machines[machineID]
	if !ok {
		existing, err := n.lookup.FindMachine(ctx, machineID)
		if err != nil {
			return fmt.Errorf("looking up machine %s: %w", machineID, err)
		}
		if existing == nil {
			staged = &stagedMachine{
				machine: models.Machine{MachineID: machineID, ClientName: name, ClientEmail: email},
				isNew:   true,
			}
			state.machines[machineID] = staged
			state.order = append(state.order, machineID)
			return nil
		}
		staged = &stagedMachine{machine: *existing}
		state.machines[machineID] = staged
		state.order = append(state.order, machineID)
	}

	if name != "" {
		staged.machine.ClientName = name
	}
	if email != "" {
		staged.machine.ClientEmail = email
	}
	return nil
}
