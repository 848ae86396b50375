package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"cnpjbase/cmd/internal/domain/entity"
)

// Format tags the on-disk representation of a dataset file. The set is
// closed: the registry is published in exactly these three shapes.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatSQLite
	FormatCSV
	FormatParquet
)

func (f Format) String() string {
	switch f {
	case FormatSQLite:
		return "sqlite"
	case FormatCSV:
		return "csv"
	case FormatParquet:
		return "parquet"
	default:
		return "unknown"
	}
}

// recognizedNames is the fixed set of dataset filenames the registry export
// is known to use.
var recognizedNames = map[string]Format{
	"cnpj.db":          FormatSQLite,
	"cnpj.sqlite":      FormatSQLite,
	"empresas.db":      FormatSQLite,
	"cnpj.csv":         FormatCSV,
	"empresas.csv":     FormatCSV,
	"cnpj.parquet":     FormatParquet,
	"empresas.parquet": FormatParquet,
}

// detectFormat classifies a filename, preferring the recognized-name table
// and falling back to the extension.
func detectFormat(name string) Format {
	lower := strings.ToLower(name)
	if f, ok := recognizedNames[lower]; ok {
		return f
	}
	switch filepath.Ext(lower) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	case ".csv":
		return FormatCSV
	case ".parquet":
		return FormatParquet
	default:
		return FormatUnknown
	}
}

func isRecognizedName(name string) bool {
	_, ok := recognizedNames[strings.ToLower(name)]
	return ok
}

// preferenceRank orders formats for candidate selection: the relational
// database beats delimited text, which beats columnar. Lower ranks first.
func preferenceRank(f Format) int {
	switch f {
	case FormatSQLite:
		return 0
	case FormatCSV:
		return 1
	case FormatParquet:
		return 2
	default:
		return 3
	}
}

// parseTable decodes the fetched bytes into the canonical table, dispatching
// on the declared format tag.
func parseTable(data []byte, format Format) (*entity.Table, error) {
	switch format {
	case FormatSQLite:
		return parseSQLite(data)
	case FormatCSV:
		return parseCSV(data)
	case FormatParquet:
		return parseParquet(data)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q: %w", format, ErrCorrupt)
	}
}
