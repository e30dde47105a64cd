// backend/src/processors/profit_processor.go
package processors

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/models"
)

// ProfitProcessor compares the fee charged to the client against the fee
// PagBank retained, transaction by transaction.
type ProfitProcessor struct{}

func NewProfitProcessor() *ProfitProcessor { return &ProfitProcessor{} }

// Calculate is read-only. Lines keep the order of txs.
func (p *ProfitProcessor) Calculate(schedule models.FeeSchedule, txs []models.Transaction) models.ProfitReport {
	report := models.ProfitReport{
		MachineID: schedule.MachineID,
		Lines:     make([]models.ProfitLine, 0, len(txs)),
	}

	for _, tx := range txs {
		category, rate, fallback := resolveClientRate(schedule, tx)
		if category == "" {
			logger.L.Debug("Unrecognised payment method, using zero rate", "code", tx.Code, "paymentMethod", tx.PaymentMethod)
		}

		clientFee := tx.GrossAmount * rate / 100
		profit := clientFee - tx.ProviderFee

		report.TotalClientFee += clientFee
		report.TotalProfit += profit
		report.Lines = append(report.Lines, models.ProfitLine{
			Code:              tx.Code,
			TransactionDate:   tx.TransactionDate,
			PaymentMethod:     tx.PaymentMethod,
			Installments:      tx.Installments,
			GrossAmount:       tx.GrossAmount,
			ProviderFee:       tx.ProviderFee,
			ClientFee:         clientFee,
			Profit:            profit,
			ClientRatePercent: rate,
			Category:          category,
			UsedFallbackRate:  fallback,
		})
	}

	if report.TotalClientFee > 0 {
		report.MarginPercent = report.TotalProfit / report.TotalClientFee * 100
	}
	return report
}

// resolveClientRate classifies the stored payment method by substring, in the
// order crédito, débito, PIX. Matching is case-sensitive against the stored label.
func resolveClientRate(schedule models.FeeSchedule, tx models.Transaction) (category string, rate float64, fallback bool) {
	switch {
	case strings.Contains(tx.PaymentMethod, "Crédito"):
		n, ok := installmentCount(tx.Installments)
		if ok {
			if r, found := schedule.CreditRate(n); found {
				return models.CategoryCredit, r, false
			}
		}
		r, _ := schedule.CreditRate(1)
		return models.CategoryCredit, r, true
	case strings.Contains(tx.PaymentMethod, "Débito"):
		return models.CategoryDebit, schedule.Debit, false
	case strings.Contains(tx.PaymentMethod, "PIX"):
		return models.CategoryPix, schedule.Pix, false
	}
	return "", 0, false
}

// installmentCount reads descriptors such as "3x" or "Parcelado 3x".
// An empty descriptor means a single installment.
func installmentCount(descriptor string) (int, bool) {
	if descriptor == "" {
		return 1, true
	}
	if !strings.Contains(descriptor, "x") {
		return 0, false
	}
	cleaned := strings.ReplaceAll(descriptor, "x", "")
	cleaned = strings.ReplaceAll(cleaned, "Parcelado ", "")
	cleaned = strings.TrimSpace(cleaned)

	end := strings.IndexFunc(cleaned, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(cleaned)
	}
	n, err := strconv.Atoi(cleaned[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
