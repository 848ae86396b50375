package dataset

import (
	"strings"

	"github.com/shopspring/decimal"

	"cnpjbase/cmd/internal/domain/entity"
	"cnpjbase/cmd/internal/utils"
)

// Canonical schema field keys shared by every format adapter.
const (
	colIdentifier   = "identifier"
	colLegalName    = "legal_name"
	colTradeName    = "trade_name"
	colStatus       = "status"
	colMunicipality = "municipality"
	colState        = "state"
	colActivityCode = "activity_code"
	colActivityDesc = "activity_description"
	colShareCapital = "share_capital"
	colSizeClass    = "size_class"

	colAddrType         = "address_type"
	colAddrStreet       = "address_street"
	colAddrNumber       = "address_number"
	colAddrComplement   = "address_complement"
	colAddrNeighborhood = "address_neighborhood"
	colAddrZip          = "address_zip"
)

// headerAliases maps canonical fields to the header-naming variants seen in
// the registry exports, Portuguese first since that is what the official
// dumps use.
var headerAliases = map[string][]string{
	colIdentifier:   {"cnpj"},
	colLegalName:    {"razao_social", "legal_name"},
	colTradeName:    {"nome_fantasia", "trade_name"},
	colStatus:       {"situacao_cadastral", "descricao_situacao_cadastral", "registration_status", "status"},
	colMunicipality: {"municipio", "municipality", "city"},
	colState:        {"uf", "state"},
	colActivityCode: {"cnae_principal", "activity_code"},
	colActivityDesc: {"cnae_descricao", "activity_description"},
	colShareCapital: {"capital_social", "share_capital"},
	colSizeClass:    {"porte_empresa", "porte", "size_class"},

	colAddrType:         {"tipo_logradouro", "address_type"},
	colAddrStreet:       {"logradouro", "street"},
	colAddrNumber:       {"numero", "street_number"},
	colAddrComplement:   {"complemento", "complement"},
	colAddrNeighborhood: {"bairro", "neighborhood"},
	colAddrZip:          {"cep", "zip_code"},
}

// resolveColumns matches the source header names against the known variants,
// returning canonical field -> source column index. Matching is
// case-insensitive.
func resolveColumns(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		byName[strings.ToLower(strings.TrimSpace(name))] = i
	}

	resolved := make(map[string]int)
	for field, variants := range headerAliases {
		for _, variant := range variants {
			if idx, ok := byName[variant]; ok {
				resolved[field] = idx
				break
			}
		}
	}
	return resolved
}

// hasMandatoryColumns reports whether the identifier and legal name were
// both located. Everything else is optional and defaults to empty.
func hasMandatoryColumns(resolved map[string]int) bool {
	_, hasID := resolved[colIdentifier]
	_, hasName := resolved[colLegalName]
	return hasID && hasName
}

// buildRecord assembles a Company from a row accessor keyed by canonical
// field name. Rows without an identifier are skipped by returning nil.
func buildRecord(get func(field string) string) *entity.Company {
	cnpj := utils.OnlyDigits(get(colIdentifier))
	if cnpj == "" {
		return nil
	}

	return &entity.Company{
		CNPJ:                cnpj,
		LegalName:           strings.TrimSpace(get(colLegalName)),
		TradeName:           strings.TrimSpace(get(colTradeName)),
		Status:              entity.ParseRegStatus(get(colStatus)),
		Municipality:        strings.TrimSpace(get(colMunicipality)),
		State:               strings.ToUpper(strings.TrimSpace(get(colState))),
		ActivityCode:        strings.TrimSpace(get(colActivityCode)),
		ActivityDescription: strings.TrimSpace(get(colActivityDesc)),
		ShareCapital:        parseCapital(get(colShareCapital)),
		SizeClass:           strings.TrimSpace(get(colSizeClass)),
		AddressType:         strings.TrimSpace(get(colAddrType)),
		AddressStreetName:   strings.TrimSpace(get(colAddrStreet)),
		AddressNumber:       strings.TrimSpace(get(colAddrNumber)),
		AddressComplement:   strings.TrimSpace(get(colAddrComplement)),
		AddressNeighborhood: strings.TrimSpace(get(colAddrNeighborhood)),
		AddressZipCode:      utils.OnlyDigits(get(colAddrZip)),
	}
}

// parseCapital reads a monetary amount as an exact decimal. Both the
// Brazilian "1.234.567,89" and the plain "1234567.89" notations are
// accepted; an unparseable or absent value becomes zero since the field is
// optional.
func parseCapital(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return value
}
