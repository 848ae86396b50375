package entity

import "testing"

func TestParseRegStatus(t *testing.T) {
	cases := []struct {
		input string
		want  RegStatus
	}{
		{"ATIVA", StatusActive},
		{"ativa", StatusActive},
		{"ACTIVE", StatusActive},
		{"BAIXADA", StatusClosed},
		{"CLOSED", StatusClosed},
		{"SUSPENSA", StatusSuspended},
		{"INAPTA", StatusUnfit},
		{"NULL", StatusNull},
		{" atIVA ", StatusActive},
		// Unknown values survive verbatim, uppercased
		{"em liquidacao", RegStatus("EM LIQUIDACAO")},
	}

	for _, tc := range cases {
		if got := ParseRegStatus(tc.input); got != tc.want {
			t.Errorf("ParseRegStatus(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFullAddress(t *testing.T) {
	c := &Company{
		Municipality:        "SAO PAULO",
		State:               "SP",
		AddressType:         "RUA",
		AddressStreetName:   "TABAPUA",
		AddressNumber:       "1123",
		AddressNeighborhood: "ITAIM BIBI",
		AddressZipCode:      "04533004",
	}

	want := "RUA TABAPUA, nº 1123, - ITAIM BIBI, - SAO PAULO/SP, - CEP: 04533-004"
	if got := c.FullAddress(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFullAddressEmpty(t *testing.T) {
	c := &Company{}
	if got := c.FullAddress(); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestTableLookup(t *testing.T) {
	table := NewTable([]*Company{
		{CNPJ: "43227497000198", LegalName: "N9 PARTICIPACOES SOCIEDADE SIMPLES"},
	})

	if rec := table.Lookup("43227497000198"); rec == nil || rec.LegalName != "N9 PARTICIPACOES SOCIEDADE SIMPLES" {
		t.Fatalf("expected record, got %+v", rec)
	}
	if rec := table.Lookup("11222333000144"); rec != nil {
		t.Errorf("expected nil for absent CNPJ, got %+v", rec)
	}
	if table.Len() != 1 {
		t.Errorf("Len: got %d, want 1", table.Len())
	}
}

func TestTableAsStale(t *testing.T) {
	table := NewTable([]*Company{{CNPJ: "43227497000198"}})
	table.FetchedAt = 42

	stale := table.AsStale()
	if !stale.Stale {
		t.Error("AsStale did not set the stale flag")
	}
	if table.Stale {
		t.Error("AsStale mutated the original table")
	}
	if stale.FetchedAt != 42 {
		t.Errorf("FetchedAt: got %d, want 42", stale.FetchedAt)
	}
	if stale.Lookup("43227497000198") == nil {
		t.Error("stale view lost the index")
	}
}
