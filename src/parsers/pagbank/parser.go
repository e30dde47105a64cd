// backend/src/parsers/pagbank/parser.go
package pagbank

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/username/pagbank-analyzer/backend/src/logger"
	"github.com/username/pagbank-analyzer/backend/src/models"
	"github.com/username/pagbank-analyzer/backend/src/parsers"
)

// Source is the name the parser is registered under.
const Source = "pagbank"

// Column headers of the PagBank transaction export. The normalizer reads
// rows by these exact names.
const (
	ColMachineID         = "Identificação da Maquininha"
	ColTransactionCode   = "Código da Transação"
	ColClientName        = "Nome Cliente"
	ColClientEmail       = "E-mail Cliente"
	ColTransactionDate   = "Data da Transação"
	ColReleaseDate       = "Data de Liberação"
	ColCardBrand         = "Bandeira"
	ColPaymentMethod     = "Forma de Pagamento"
	ColInstallments      = "Parcela"
	ColGrossAmount       = "Valor Bruto"
	ColNetAmount         = "Valor Líquido"
	ColStatus            = "Status"
	ColCardNumber        = "Cartão"
	ColNSU               = "Código NSU"
	ColAuthorizationCode = "Código de Autorização"
	ColSaleCode          = "Código da Venda"
	ColReferenceCode     = "Código de Referência"
	ColBuyerName         = "Nome do Comprador"
	ColBuyerEmail        = "E-mail do Comprador"
	ColPixCode           = "Código PIX"
)

const utf8BOM = "\ufeff"

// ErrEmptyFile is returned when the export has no header line.
var ErrEmptyFile = errors.New("pagbank parser: file has no header")

// Parser reads semicolon-delimited PagBank exports.
type Parser struct{}

// NewParser creates a new instance of the PagBank parser.
func NewParser() *Parser {
	return &Parser{}
}

func init() {
	parsers.Register(Source, func() parsers.Parser { return NewParser() })
}

// Parse reads the header line and maps every following record to a RawRow.
// Rows keep file order. Short rows only carry the columns they have; blank
// lines are ignored.
func (p *Parser) Parse(file io.Reader) ([]models.RawRow, error) {
	reader := csv.NewReader(file)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("pagbank parser: failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], utf8BOM))
	}

	var rows []models.RawRow
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("pagbank parser: failed to read record near line %d: %w", line, err)
		}

		row := make(models.RawRow, len(header))
		for i, value := range record {
			if i >= len(header) {
				break
			}
			row[header[i]] = value
		}
		rows = append(rows, row)
	}

	logger.L.Debug("PagBank export parsed", "columns", len(header), "rows", len(rows))
	return rows, nil
}
