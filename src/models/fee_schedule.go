// backend/src/models/fee_schedule.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxInstallments is the number of discrete credit installment slots (1x to 18x).
const MaxInstallments = 18

// ErrInvalidRate is returned when a fee schedule update carries a value that
// cannot be read as a percentage.
var ErrInvalidRate = errors.New("invalid fee rate")

// FeeSchedule holds the client-facing percentage rates of one machine.
// Credit[i] is the rate for i+1 installments.
type FeeSchedule struct {
	MachineID string
	Credit    [MaxInstallments]float64
	Debit     float64
	Pix       float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultFeeSchedule returns the all-zero schedule used for machines that have none yet.
func DefaultFeeSchedule(machineID string) FeeSchedule {
	return FeeSchedule{MachineID: machineID}
}

// CreditRate returns the rate for the given installment count.
// ok is false when the count has no slot.
func (s *FeeSchedule) CreditRate(installments int) (rate float64, ok bool) {
	if installments < 1 || installments > MaxInstallments {
		return 0, false
	}
	return s.Credit[installments-1], true
}

// SetCreditRate stores the rate for the given installment count.
func (s *FeeSchedule) SetCreditRate(installments int, rate float64) bool {
	if installments < 1 || installments > MaxInstallments {
		return false
	}
	s.Credit[installments-1] = rate
	return true
}

// RateFor resolves the rate for a payment method and installment count.
// Methods are compared case-insensitively; unknown methods yield 0. Credit
// counts without a slot fall back to the 1x rate.
func (s *FeeSchedule) RateFor(paymentMethod string, installments int) float64 {
	switch strings.ToLower(paymentMethod) {
	case "pix":
		return s.Pix
	case "débito":
		return s.Debit
	case "crédito":
		if rate, ok := s.CreditRate(installments); ok {
			return rate
		}
		return s.Credit[0]
	default:
		return 0.0
	}
}

// Rates returns the flat field-name view of the schedule
// (credito_1x..credito_18x, debito, pix).
func (s *FeeSchedule) Rates() map[string]float64 {
	rates := make(map[string]float64, MaxInstallments+2)
	for i := 1; i <= MaxInstallments; i++ {
		rates[creditFieldName(i)] = s.Credit[i-1]
	}
	rates["debito"] = s.Debit
	rates["pix"] = s.Pix
	return rates
}

// ApplyUpdate applies a partial rate update. It understands the flat naming
// (credito_Nx, debito, pix) and the legacy one (credit_rates{"Nx"}, debit_rate,
// pix_rate). Flat fields are applied before legacy ones. Fields absent from the
// update are left untouched; null or empty values become 0. On error the
// schedule is not modified.
func (s *FeeSchedule) ApplyUpdate(update map[string]any) error {
	next := *s

	for i := 1; i <= MaxInstallments; i++ {
		if err := applyField(update, creditFieldName(i), &next.Credit[i-1]); err != nil {
			return err
		}
	}
	if err := applyField(update, "debito", &next.Debit); err != nil {
		return err
	}
	if err := applyField(update, "pix", &next.Pix); err != nil {
		return err
	}

	if raw, ok := update["credit_rates"]; ok && raw != nil {
		legacy, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: credit_rates must be an object", ErrInvalidRate)
		}
		for i := 1; i <= MaxInstallments; i++ {
			if err := applyField(legacy, fmt.Sprintf("%dx", i), &next.Credit[i-1]); err != nil {
				return err
			}
		}
	}
	if err := applyField(update, "debit_rate", &next.Debit); err != nil {
		return err
	}
	if err := applyField(update, "pix_rate", &next.Pix); err != nil {
		return err
	}

	*s = next
	return nil
}

// MarshalJSON emits the flat view together with the machine id and timestamps.
// Zero timestamps (read-time defaults) are emitted as null.
func (s FeeSchedule) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, MaxInstallments+5)
	for k, v := range s.Rates() {
		out[k] = v
	}
	out["machine_id"] = s.MachineID
	out["created_at"] = nullableTime(s.CreatedAt)
	out["updated_at"] = nullableTime(s.UpdatedAt)
	return json.Marshal(out)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

func creditFieldName(installments int) string {
	return "credito_" + strconv.Itoa(installments) + "x"
}

func applyField(update map[string]any, key string, dst *float64) error {
	raw, ok := update[key]
	if !ok {
		return nil
	}
	rate, err := coerceRate(raw)
	if err != nil {
		return fmt.Errorf("%w: field %s: %v", ErrInvalidRate, key, err)
	}
	*dst = rate
	return nil
}

func coerceRate(raw any) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case interface{ Float64() (float64, error) }:
		return v.Float64()
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, nil
		}
		return strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", "."), 64)
	default:
		return 0, fmt.Errorf("unsupported value type %T", raw)
	}
}
