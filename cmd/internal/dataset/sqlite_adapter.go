package dataset

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cnpjbase/cmd/internal/domain/entity"
)

var sqliteMagic = []byte("SQLite format 3\x00")

// Table names the registry exports are known to use, in lookup order.
var sqliteTableNames = []string{"empresas", "companies", "cnpj"}

// parseSQLite decodes the relational single-file format. The bytes are
// spilled to a temp file because the driver reads databases from disk.
func parseSQLite(data []byte) (*entity.Table, error) {
	if !bytes.HasPrefix(data, sqliteMagic) {
		return nil, fmt.Errorf("invalid database header: %w", ErrCorrupt)
	}

	path := filepath.Join(os.TempDir(), "cnpj-"+uuid.NewString()+".db")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("spill database to disk: %w", err)
	}
	defer os.Remove(path)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %v: %w", err, ErrCorrupt)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open database: %v: %w", err, ErrCorrupt)
	}
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	table, err := findCompanyTable(db)
	if err != nil {
		return nil, err
	}
	return readCompanyTable(db, table)
}

func findCompanyTable(db *gorm.DB) (string, error) {
	var names []string
	err := db.Raw("SELECT name FROM sqlite_master WHERE type = 'table'").Scan(&names).Error
	if err != nil {
		return "", fmt.Errorf("read database catalog: %v: %w", err, ErrCorrupt)
	}

	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}
	for _, candidate := range sqliteTableNames {
		if present[candidate] {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no company table among %v: %w", names, ErrSchemaMismatch)
}

func readCompanyTable(db *gorm.DB, table string) (*entity.Table, error) {
	rows, err := db.Raw("SELECT * FROM " + table).Rows()
	if err != nil {
		return nil, fmt.Errorf("read table %q: %v: %w", table, err, ErrCorrupt)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read table %q columns: %v: %w", table, err, ErrCorrupt)
	}

	resolved := resolveColumns(columns)
	if !hasMandatoryColumns(resolved) {
		return nil, fmt.Errorf("table %q columns %v: %w", table, columns, ErrSchemaMismatch)
	}

	var records []*entity.Company
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan table %q row: %v: %w", table, err, ErrCorrupt)
		}

		rec := buildRecord(func(field string) string {
			idx, ok := resolved[field]
			if !ok {
				return ""
			}
			return columnValueString(values[idx])
		})
		if rec != nil {
			records = append(records, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table %q: %v: %w", table, err, ErrCorrupt)
	}

	return entity.NewTable(records), nil
}

// columnValueString renders a scanned SQLite value as text. REAL columns use
// the shortest exact representation so monetary values survive the trip into
// decimals without rounding drift.
func columnValueString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []byte:
		return string(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
