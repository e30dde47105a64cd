// backend/src/parsers/locale.go
package parsers

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Brazilian date layouts used by provider exports. Day, month and hour accept
// one or two digits.
const (
	dateTimeLayout = "2/1/2006 15:04"
	dateLayout     = "2/1/2006"
)

// TryParseDecimal reads a pt-BR formatted number ("1.234,56").
// ok is false when the input was empty or unreadable and 0 was used instead.
func TryParseDecimal(text string) (value float64, ok bool) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return 0, false
	}
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseDecimal reads a pt-BR formatted number. It never fails: empty or
// malformed input yields 0.
func ParseDecimal(text string) float64 {
	v, _ := TryParseDecimal(text)
	return v
}

// ParseDateTime reads "DD/MM/YYYY HH:MM" or "DD/MM/YYYY" as UTC.
// Empty or malformed input yields nil, which callers store as an absent date.
func ParseDateTime(text string) *time.Time {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil
	}

	layout := dateLayout
	if strings.Contains(cleaned, " ") {
		layout = dateTimeLayout
	}
	t, err := time.Parse(layout, cleaned)
	if err != nil {
		return nil
	}
	return &t
}
