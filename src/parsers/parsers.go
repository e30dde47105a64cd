// backend/src/parsers/parsers.go
package parsers

import (
	"fmt"
	"io"
	"strings"

	"github.com/username/pagbank-analyzer/backend/src/models"
)

// Parser turns a provider export into header-keyed rows, preserving file order.
type Parser interface {
	Parse(file io.Reader) ([]models.RawRow, error)
}

var registry = map[string]func() Parser{}

// Register makes a parser available under a source name. It is called from the
// init function of each provider package.
func Register(source string, factory func() Parser) {
	registry[strings.ToLower(source)] = factory
}

// GetParser returns the parser registered for the given source.
func GetParser(source string) (Parser, error) {
	factory, ok := registry[strings.ToLower(strings.TrimSpace(source))]
	if !ok {
		return nil, fmt.Errorf("unsupported source: %q", source)
	}
	return factory(), nil
}
