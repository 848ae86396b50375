package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"cnpjbase/cmd/internal/domain/entity"
)

// parseCSV decodes the delimited-text format. The first row is the header;
// column order is free as long as the mandatory fields can be resolved.
func parseCSV(data []byte) (*entity.Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // tolerate ragged optional tails
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// A header-less empty file has no schema to validate against.
			return nil, fmt.Errorf("empty delimited file: %w", ErrSchemaMismatch)
		}
		return nil, fmt.Errorf("read delimited header: %v: %w", err, ErrCorrupt)
	}

	resolved := resolveColumns(header)
	if !hasMandatoryColumns(resolved) {
		return nil, fmt.Errorf("header %v: %w", header, ErrSchemaMismatch)
	}

	var records []*entity.Company
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read delimited row: %v: %w", err, ErrCorrupt)
		}

		rec := buildRecord(func(field string) string {
			idx, ok := resolved[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return row[idx]
		})
		if rec != nil {
			records = append(records, rec)
		}
	}

	return entity.NewTable(records), nil
}
