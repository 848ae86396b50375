package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RegStatus holds the registration status exactly as the federal registry
// publishes it. Constants cover the known values; datasets may carry others,
// which are kept verbatim.
type RegStatus string

const (
	StatusActive    RegStatus = "ATIVA"
	StatusSuspended RegStatus = "SUSPENSA"
	StatusUnfit     RegStatus = "INAPTA"
	StatusClosed    RegStatus = "BAIXADA"
	StatusNull      RegStatus = "NULA"
)

// ParseRegStatus accepts both the registry's Portuguese values and their
// English translations, so datasets exported by different tools agree.
func ParseRegStatus(raw string) RegStatus {
	status := strings.ToUpper(strings.TrimSpace(raw))

	switch status {
	case "ACTIVE":
		return StatusActive
	case "SUSPENDED":
		return StatusSuspended
	case "UNFIT":
		return StatusUnfit
	case "CLOSED":
		return StatusClosed
	case "NULL":
		return StatusNull
	default:
		return RegStatus(status)
	}
}

// Company is a single registry record, keyed by its 14-digit CNPJ in
// canonical digits-only form. Records are immutable once loaded; a dataset
// refresh replaces the whole table, never individual records.
type Company struct {
	CNPJ                string
	LegalName           string
	TradeName           string
	Status              RegStatus
	Municipality        string
	State               string
	ActivityCode        string
	ActivityDescription string
	ShareCapital        decimal.Decimal
	SizeClass           string

	AddressType         string
	AddressStreetName   string
	AddressNumber       string
	AddressComplement   string
	AddressNeighborhood string
	AddressZipCode      string
}

// FullAddress derives the single-line formatted address from the individual
// address fields. Empty parts are skipped.
func (c *Company) FullAddress() string {
	var parts []string

	switch {
	case c.AddressType != "" && c.AddressStreetName != "":
		parts = append(parts, c.AddressType+" "+c.AddressStreetName)
	case c.AddressStreetName != "":
		parts = append(parts, c.AddressStreetName)
	}

	if c.AddressNumber != "" {
		parts = append(parts, "nº "+c.AddressNumber)
	}
	if c.AddressComplement != "" {
		parts = append(parts, c.AddressComplement)
	}
	if c.AddressNeighborhood != "" {
		parts = append(parts, "- "+c.AddressNeighborhood)
	}
	if c.Municipality != "" && c.State != "" {
		parts = append(parts, "- "+c.Municipality+"/"+c.State)
	}
	if cep := c.AddressZipCode; cep != "" {
		if len(cep) == 8 {
			cep = cep[:5] + "-" + cep[5:]
		}
		parts = append(parts, "- CEP: "+cep)
	}

	return strings.Join(parts, ", ")
}
