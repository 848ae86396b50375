package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"cnpjbase/cmd/internal/contract"
	"cnpjbase/cmd/internal/dataset"
	"cnpjbase/cmd/internal/domain/entity"
	"cnpjbase/cmd/internal/utils/validators"
)

type fakeProvider struct {
	table      *entity.Table
	err        error
	refreshErr error
	status     dataset.CacheStatus

	tableCalls   int
	refreshCalls int
}

func (p *fakeProvider) Table(context.Context) (*entity.Table, error) {
	p.tableCalls++
	if p.err != nil {
		return nil, p.err
	}
	return p.table, nil
}

func (p *fakeProvider) Refresh(context.Context) (*entity.Table, error) {
	p.refreshCalls++
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return p.table, nil
}

func (p *fakeProvider) Status() dataset.CacheStatus {
	return p.status
}

func sampleTable() *entity.Table {
	capital, _ := decimal.NewFromString("1000000.00")
	return entity.NewTable([]*entity.Company{
		{
			CNPJ:         "43227497000198",
			LegalName:    "N9 PARTICIPACOES SOCIEDADE SIMPLES",
			Status:       entity.StatusActive,
			Municipality: "SAO PAULO",
			State:        "SP",
			ShareCapital: capital,
			SizeClass:    "DEMAIS",
		},
		{
			CNPJ:      "11222333000181",
			LegalName: "PADARIA CENTRAL LTDA",
			TradeName: "PAO QUENTE",
			Status:    entity.StatusClosed,
			State:     "SP",
			SizeClass: "ME",
		},
	})
}

func newTestService(provider TableProvider) *DefaultCompanyService {
	validate := validator.New()
	if err := validate.RegisterValidation("cnpj", validators.CNPJ); err != nil {
		panic(err)
	}
	return NewCompanyService(provider, validate)
}

func TestGetCompanyByCNPJ(t *testing.T) {
	provider := &fakeProvider{table: sampleTable()}
	svc := newTestService(provider)

	resp, apierr := svc.GetCompanyByCNPJ(context.Background(), "43.227.497/0001-98")
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if resp.CNPJ != "43227497000198" {
		t.Errorf("CNPJ: got %q", resp.CNPJ)
	}
	if resp.CNPJFormatted != "43.227.497/0001-98" {
		t.Errorf("CNPJFormatted: got %q", resp.CNPJFormatted)
	}
	if resp.LegalName != "N9 PARTICIPACOES SOCIEDADE SIMPLES" {
		t.Errorf("LegalName: got %q", resp.LegalName)
	}
	if resp.Status != "ATIVA" {
		t.Errorf("Status: got %q, want %q", resp.Status, "ATIVA")
	}
	if resp.ShareCapital != "1000000" {
		t.Errorf("ShareCapital: got %q", resp.ShareCapital)
	}
	if resp.Stale {
		t.Error("fresh table should not be flagged stale")
	}
}

func TestGetCompanyValidatesBeforeFetching(t *testing.T) {
	provider := &fakeProvider{err: dataset.ErrUnavailable}
	svc := newTestService(provider)

	_, apierr := svc.GetCompanyByCNPJ(context.Background(), "123")
	if apierr == nil {
		t.Fatal("expected a validation error")
	}
	if apierr.Code() != 400 {
		t.Errorf("code: got %d, want 400 even while the registry is down", apierr.Code())
	}
	if provider.tableCalls != 0 {
		t.Errorf("tableCalls: got %d, want 0 for malformed input", provider.tableCalls)
	}
}

func TestGetCompanyBadCheckDigits(t *testing.T) {
	svc := newTestService(&fakeProvider{table: sampleTable()})

	_, apierr := svc.GetCompanyByCNPJ(context.Background(), "43227497000199")
	if apierr == nil || apierr.Code() != 400 {
		t.Fatalf("expected 400, got %+v", apierr)
	}
}

func TestGetCompanyNotFoundVersusUnavailable(t *testing.T) {
	// A consulted registry without the record is a definitive 404.
	svc := newTestService(&fakeProvider{table: sampleTable()})
	_, apierr := svc.GetCompanyByCNPJ(context.Background(), "60701190000104")
	if apierr == nil || apierr.Code() != 404 {
		t.Fatalf("expected 404, got %+v", apierr)
	}

	// An unreachable registry is a 503, never a 404.
	svc = newTestService(&fakeProvider{err: dataset.ErrUnavailable})
	_, apierr = svc.GetCompanyByCNPJ(context.Background(), "60701190000104")
	if apierr == nil || apierr.Code() != 503 {
		t.Fatalf("expected 503, got %+v", apierr)
	}
}

func TestGetCompanyTimeout(t *testing.T) {
	svc := newTestService(&fakeProvider{err: dataset.ErrTimeout})

	_, apierr := svc.GetCompanyByCNPJ(context.Background(), "43227497000198")
	if apierr == nil || apierr.Code() != 504 {
		t.Fatalf("expected 504, got %+v", apierr)
	}
}

func TestSearchByName(t *testing.T) {
	svc := newTestService(&fakeProvider{table: sampleTable()})

	resp, apierr := svc.SearchByName(context.Background(), &contract.SearchRequest{Name: "N9"})
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if resp.Total != 1 {
		t.Fatalf("total: got %d, want 1", resp.Total)
	}
	if resp.Results[0].CNPJ != "43227497000198" {
		t.Errorf("result: got %q", resp.Results[0].CNPJ)
	}
}

func TestSearchMatchesTradeName(t *testing.T) {
	svc := newTestService(&fakeProvider{table: sampleTable()})

	resp, apierr := svc.SearchByName(context.Background(), &contract.SearchRequest{Name: "pao quente"})
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if resp.Total != 1 || resp.Results[0].CNPJ != "11222333000181" {
		t.Fatalf("expected the trade-name match, got %+v", resp)
	}
}

func TestSearchRankingAndLimit(t *testing.T) {
	table := entity.NewTable([]*entity.Company{
		{CNPJ: "00000000000001", LegalName: "COMERCIO ACME LTDA"},
		{CNPJ: "00000000000002", LegalName: "ACME SERVICOS SA"},
		{CNPJ: "00000000000003", LegalName: "ACME HOLDING SA"},
	})
	svc := newTestService(&fakeProvider{table: table})

	resp, apierr := svc.SearchByName(context.Background(), &contract.SearchRequest{Name: "acme"})
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if resp.Total != 3 {
		t.Fatalf("total: got %d, want 3", resp.Total)
	}
	// Earlier positions first, names alphabetical within the same position.
	want := []string{"00000000000003", "00000000000002", "00000000000001"}
	for i, w := range want {
		if resp.Results[i].CNPJ != w {
			t.Errorf("rank %d: got %q, want %q", i, resp.Results[i].CNPJ, w)
		}
	}

	resp, apierr = svc.SearchByName(context.Background(), &contract.SearchRequest{Name: "acme", Limit: 2})
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if resp.Total != 2 {
		t.Errorf("limited total: got %d, want 2", resp.Total)
	}
}

func TestSearchValidation(t *testing.T) {
	provider := &fakeProvider{table: sampleTable()}
	svc := newTestService(provider)

	cases := []struct {
		name string
		req  *contract.SearchRequest
	}{
		{"missing name", &contract.SearchRequest{}},
		{"name too short", &contract.SearchRequest{Name: "x"}},
		{"limit too large", &contract.SearchRequest{Name: "acme", Limit: 500}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, apierr := svc.SearchByName(context.Background(), tc.req)
			if apierr == nil || apierr.Code() != 400 {
				t.Fatalf("expected 400, got %+v", apierr)
			}
		})
	}
	if provider.tableCalls != 0 {
		t.Errorf("tableCalls: got %d, want 0 for rejected requests", provider.tableCalls)
	}
}

func TestBatchLookup(t *testing.T) {
	svc := newTestService(&fakeProvider{table: sampleTable()})

	resp, apierr := svc.BatchLookup(context.Background(), &contract.BatchLookupRequest{
		CNPJs: []string{"43.227.497/0001-98", "60701190000104"},
	})
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if len(resp.Found) != 1 || resp.Found[0].CNPJ != "43227497000198" {
		t.Errorf("found: got %+v", resp.Found)
	}
	if len(resp.Missing) != 1 || resp.Missing[0] != "60701190000104" {
		t.Errorf("missing: got %+v", resp.Missing)
	}
}

func TestBatchLookupRejectsMalformedEntries(t *testing.T) {
	svc := newTestService(&fakeProvider{table: sampleTable()})

	_, apierr := svc.BatchLookup(context.Background(), &contract.BatchLookupRequest{
		CNPJs: []string{"43227497000198", "not-a-cnpj"},
	})
	if apierr == nil || apierr.Code() != 400 {
		t.Fatalf("expected 400, got %+v", apierr)
	}
}

func TestGetStatistics(t *testing.T) {
	table := sampleTable()
	table.FetchedAt = 1717243200000
	svc := newTestService(&fakeProvider{table: table})

	resp, apierr := svc.GetStatistics(context.Background())
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if resp.Total != 2 {
		t.Errorf("total: got %d, want 2", resp.Total)
	}
	if resp.ByStatus["ATIVA"] != 1 || resp.ByStatus["BAIXADA"] != 1 {
		t.Errorf("by_status: got %v", resp.ByStatus)
	}
	if resp.ByState["SP"] != 2 {
		t.Errorf("by_state: got %v", resp.ByState)
	}
	if resp.BySize["ME"] != 1 || resp.BySize["DEMAIS"] != 1 {
		t.Errorf("by_size: got %v", resp.BySize)
	}
	if resp.FetchedAt == "" {
		t.Error("fetched_at should be populated")
	}
}

func TestGetStatisticsEmptyTable(t *testing.T) {
	svc := newTestService(&fakeProvider{table: entity.NewTable(nil)})

	resp, apierr := svc.GetStatistics(context.Background())
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if resp.Total != 0 {
		t.Errorf("total: got %d, want 0", resp.Total)
	}
	if len(resp.ByStatus) != 0 || len(resp.ByState) != 0 || len(resp.BySize) != 0 {
		t.Errorf("expected empty aggregations, got %+v", resp)
	}
}

func TestStaleFlagPropagates(t *testing.T) {
	table := sampleTable().AsStale()
	svc := newTestService(&fakeProvider{table: table})

	resp, apierr := svc.GetCompanyByCNPJ(context.Background(), "43227497000198")
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if !resp.Stale {
		t.Error("lookup response should carry the stale flag")
	}

	search, apierr := svc.SearchByName(context.Background(), &contract.SearchRequest{Name: "N9"})
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if !search.Stale || !search.Results[0].Stale {
		t.Error("search response should carry the stale flag")
	}

	stats, apierr := svc.GetStatistics(context.Background())
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if !stats.Stale {
		t.Error("stats response should carry the stale flag")
	}
}

func TestGetSourceStatus(t *testing.T) {
	provider := &fakeProvider{
		table: sampleTable(),
		status: dataset.CacheStatus{
			State:        "fresh",
			Records:      2,
			FetchedAt:    1717243200000,
			SourceName:   "cnpj.csv",
			SourceFormat: "csv",
		},
	}
	svc := newTestService(provider)

	resp, apierr := svc.GetSourceStatus(context.Background())
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if !resp.Connected {
		t.Error("expected connected status")
	}
	if resp.CacheState != "fresh" || resp.Records != 2 || resp.SourceFormat != "csv" {
		t.Errorf("status: got %+v", resp)
	}
}

func TestGetSourceStatusUnreachable(t *testing.T) {
	provider := &fakeProvider{
		err:    errors.New("storage backend down"),
		status: dataset.CacheStatus{State: "empty"},
	}
	svc := newTestService(provider)

	resp, apierr := svc.GetSourceStatus(context.Background())
	if apierr != nil {
		t.Fatalf("self-test should report, not fail: %+v", apierr)
	}
	if resp.Connected {
		t.Error("expected disconnected status")
	}
	if resp.Message == "" {
		t.Error("expected a failure message")
	}
}

func TestRefreshDataset(t *testing.T) {
	provider := &fakeProvider{
		table:  sampleTable(),
		status: dataset.CacheStatus{State: "fresh", Records: 2},
	}
	svc := newTestService(provider)

	resp, apierr := svc.RefreshDataset(context.Background())
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if !resp.Connected || provider.refreshCalls != 1 {
		t.Errorf("refresh: got %+v, calls %d", resp, provider.refreshCalls)
	}
}

func TestRefreshDatasetFailure(t *testing.T) {
	svc := newTestService(&fakeProvider{refreshErr: dataset.ErrFolderMissing})

	_, apierr := svc.RefreshDataset(context.Background())
	if apierr == nil || apierr.Code() != 502 {
		t.Fatalf("expected 502, got %+v", apierr)
	}
}

func TestRefreshDatasetStaleRetained(t *testing.T) {
	provider := &fakeProvider{
		table:  sampleTable().AsStale(),
		status: dataset.CacheStatus{State: "stale", Records: 2},
	}
	svc := newTestService(provider)

	resp, apierr := svc.RefreshDataset(context.Background())
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if resp.Message == "" {
		t.Error("expected a stale-retained message")
	}
}
