package dataset

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"cnpjbase/cmd/internal/domain/entity"
)

var parquetMagic = []byte("PAR1")

// parquetRowPT mirrors the column names of the official registry export.
type parquetRowPT struct {
	CNPJ          string  `parquet:"cnpj,optional"`
	RazaoSocial   string  `parquet:"razao_social,optional"`
	NomeFantasia  string  `parquet:"nome_fantasia,optional"`
	Situacao      string  `parquet:"situacao_cadastral,optional"`
	Municipio     string  `parquet:"municipio,optional"`
	UF            string  `parquet:"uf,optional"`
	CnaePrincipal string  `parquet:"cnae_principal,optional"`
	CnaeDescricao string  `parquet:"cnae_descricao,optional"`
	CapitalSocial float64 `parquet:"capital_social,optional"`
	PorteEmpresa  string  `parquet:"porte_empresa,optional"`
}

// parquetRowEN mirrors the English header variant some exporters produce.
type parquetRowEN struct {
	CNPJ          string  `parquet:"cnpj,optional"`
	LegalName     string  `parquet:"legal_name,optional"`
	TradeName     string  `parquet:"trade_name,optional"`
	Status        string  `parquet:"status,optional"`
	Municipality  string  `parquet:"municipality,optional"`
	State         string  `parquet:"state,optional"`
	ActivityCode  string  `parquet:"activity_code,optional"`
	ActivityDesc  string  `parquet:"activity_description,optional"`
	ShareCapital  float64 `parquet:"share_capital,optional"`
	SizeClass     string  `parquet:"size_class,optional"`
}

// parseParquet decodes the columnar format.
func parseParquet(data []byte) (*entity.Table, error) {
	if len(data) < 8 || !bytes.HasPrefix(data, parquetMagic) || !bytes.HasSuffix(data, parquetMagic) {
		return nil, fmt.Errorf("invalid parquet framing: %w", ErrCorrupt)
	}

	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %v: %w", err, ErrCorrupt)
	}

	present := make(map[string]bool)
	for _, field := range file.Schema().Fields() {
		present[field.Name()] = true
	}
	if !present["cnpj"] {
		return nil, fmt.Errorf("parquet schema lacks the identifier column: %w", ErrSchemaMismatch)
	}

	switch {
	case present["razao_social"]:
		rows, err := parquet.Read[parquetRowPT](bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %v: %w", err, ErrCorrupt)
		}
		return tableFromParquetPT(rows), nil

	case present["legal_name"]:
		rows, err := parquet.Read[parquetRowEN](bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %v: %w", err, ErrCorrupt)
		}
		return tableFromParquetEN(rows), nil

	default:
		return nil, fmt.Errorf("parquet schema lacks the legal name column: %w", ErrSchemaMismatch)
	}
}

func tableFromParquetPT(rows []parquetRowPT) *entity.Table {
	var records []*entity.Company
	for _, row := range rows {
		fields := map[string]string{
			colIdentifier:   row.CNPJ,
			colLegalName:    row.RazaoSocial,
			colTradeName:    row.NomeFantasia,
			colStatus:       row.Situacao,
			colMunicipality: row.Municipio,
			colState:        row.UF,
			colActivityCode: row.CnaePrincipal,
			colActivityDesc: row.CnaeDescricao,
			colShareCapital: formatParquetCapital(row.CapitalSocial),
			colSizeClass:    row.PorteEmpresa,
		}
		if rec := buildRecord(func(field string) string { return fields[field] }); rec != nil {
			records = append(records, rec)
		}
	}
	return entity.NewTable(records)
}

func tableFromParquetEN(rows []parquetRowEN) *entity.Table {
	var records []*entity.Company
	for _, row := range rows {
		fields := map[string]string{
			colIdentifier:   row.CNPJ,
			colLegalName:    row.LegalName,
			colTradeName:    row.TradeName,
			colStatus:       row.Status,
			colMunicipality: row.Municipality,
			colState:        row.State,
			colActivityCode: row.ActivityCode,
			colActivityDesc: row.ActivityDesc,
			colShareCapital: formatParquetCapital(row.ShareCapital),
			colSizeClass:    row.SizeClass,
		}
		if rec := buildRecord(func(field string) string { return fields[field] }); rec != nil {
			records = append(records, rec)
		}
	}
	return entity.NewTable(records)
}

// formatParquetCapital keeps the shortest exact text form of the stored
// double before the decimal conversion, avoiding float formatting drift.
func formatParquetCapital(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
