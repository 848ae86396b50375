package service

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"

	"cnpjbase/cmd/internal/contract"
	"cnpjbase/cmd/internal/dataset"
	"cnpjbase/cmd/internal/domain/entity"
	"cnpjbase/cmd/internal/utils"
	"cnpjbase/cmd/internal/utils/apierror"
)

// TableProvider hands out the current registry table, fetching it when
// absent or expired. The query engine owns no I/O of its own.
type TableProvider interface {
	Table(ctx context.Context) (*entity.Table, error)
	Refresh(ctx context.Context) (*entity.Table, error)
	Status() dataset.CacheStatus
}

type DefaultCompanyService struct {
	Provider TableProvider
	Validate *validator.Validate
}

func NewCompanyService(provider TableProvider, validate *validator.Validate) *DefaultCompanyService {
	return &DefaultCompanyService{
		Provider: provider,
		Validate: validate,
	}
}

// GetCompanyByCNPJ is the point lookup. The identifier is validated before
// any dataset access so malformed input never costs a fetch.
func (s *DefaultCompanyService) GetCompanyByCNPJ(ctx context.Context, raw string) (*contract.CompanyResponse, apierror.ErrorResponse) {
	cnpj, err := utils.NormalizeCNPJ(raw)
	if err != nil {
		return nil, apierror.FromCNPJError(err)
	}

	table, apierr := s.currentTable(ctx)
	if apierr != nil {
		return nil, apierr
	}

	rec := table.Lookup(cnpj)
	if rec == nil {
		return nil, apierror.CompanyNotFoundError
	}
	return toCompanyResponse(rec, table.Stale), nil
}

// SearchByName runs the fuzzy lookup: case-insensitive substring match over
// legal and trade names, earlier matches ranking higher.
func (s *DefaultCompanyService) SearchByName(ctx context.Context, req *contract.SearchRequest) (*contract.SearchResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = contract.DefaultSearchLimit
	}

	table, apierr := s.currentTable(ctx)
	if apierr != nil {
		return nil, apierr
	}

	matches := rankMatches(table.Records, req.Name, limit)

	results := make([]*contract.CompanyResponse, len(matches))
	for i, rec := range matches {
		results[i] = toCompanyResponse(rec, table.Stale)
	}
	return &contract.SearchResponse{
		Results: results,
		Total:   len(results),
		Stale:   table.Stale,
	}, nil
}

// BatchLookup resolves several identifiers against one table read. Missing
// identifiers are reported back in canonical form, never as errors.
func (s *DefaultCompanyService) BatchLookup(ctx context.Context, req *contract.BatchLookupRequest) (*contract.BatchLookupResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	table, apierr := s.currentTable(ctx)
	if apierr != nil {
		return nil, apierr
	}

	resp := &contract.BatchLookupResponse{Stale: table.Stale}
	for _, raw := range req.CNPJs {
		cnpj, err := utils.NormalizeCNPJ(raw)
		if err != nil {
			// The validator already rejected malformed entries.
			continue
		}
		if rec := table.Lookup(cnpj); rec != nil {
			resp.Found = append(resp.Found, toCompanyResponse(rec, table.Stale))
		} else {
			resp.Missing = append(resp.Missing, cnpj)
		}
	}
	return resp, nil
}

// GetStatistics aggregates the current table in a single pass. The snapshot
// is recomputed on every call so it can never drift from the table it
// describes.
func (s *DefaultCompanyService) GetStatistics(ctx context.Context) (*contract.StatsResponse, apierror.ErrorResponse) {
	table, apierr := s.currentTable(ctx)
	if apierr != nil {
		return nil, apierr
	}

	snap := computeSnapshot(table)
	resp := &contract.StatsResponse{
		Total:    snap.Total,
		ByStatus: snap.ByStatus,
		ByState:  snap.ByState,
		BySize:   snap.BySize,
		Stale:    snap.Stale,
	}
	if snap.FetchedAt > 0 {
		resp.FetchedAt = utils.FormatEpoch(snap.FetchedAt)
	}
	return resp, nil
}

// GetSourceStatus is the connection self-test: it forces a table to exist
// when none does, then reports the cache and source state.
func (s *DefaultCompanyService) GetSourceStatus(ctx context.Context) (*contract.SourceStatusResponse, apierror.ErrorResponse) {
	if _, err := s.Provider.Table(ctx); err != nil {
		log.Warnf("source status: registry not reachable: %v", err)
		return &contract.SourceStatusResponse{
			Connected:  false,
			CacheState: s.Provider.Status().State,
			Message:    err.Error(),
		}, nil
	}
	return s.statusResponse(true, ""), nil
}

// RefreshDataset forces a fetch regardless of cache age.
func (s *DefaultCompanyService) RefreshDataset(ctx context.Context) (*contract.SourceStatusResponse, apierror.ErrorResponse) {
	table, err := s.Provider.Refresh(ctx)
	if err != nil {
		return nil, apierror.MapDatasetError(err)
	}
	if table.Stale {
		return s.statusResponse(true, "refresh failed, stale table retained"), nil
	}
	return s.statusResponse(true, ""), nil
}

func (s *DefaultCompanyService) currentTable(ctx context.Context) (*entity.Table, apierror.ErrorResponse) {
	table, err := s.Provider.Table(ctx)
	if err != nil {
		return nil, apierror.MapDatasetError(err)
	}
	return table, nil
}

func (s *DefaultCompanyService) statusResponse(connected bool, message string) *contract.SourceStatusResponse {
	status := s.Provider.Status()
	resp := &contract.SourceStatusResponse{
		Connected:    connected,
		CacheState:   status.State,
		Records:      status.Records,
		SourceName:   status.SourceName,
		SourceFormat: status.SourceFormat,
		Message:      message,
	}
	if status.FetchedAt > 0 {
		resp.FetchedAt = utils.FormatEpoch(status.FetchedAt)
	}
	if !status.SourceModifiedAt.IsZero() {
		resp.SourceModifiedAt = status.SourceModifiedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// rankMatches orders by earliest substring position, then legal name, then
// CNPJ as a last stable tie-break, truncated to limit.
func rankMatches(records []*entity.Company, fragment string, limit int) []*entity.Company {
	needle := strings.ToLower(fragment)

	type match struct {
		rec *entity.Company
		pos int
	}

	var matches []match
	for _, rec := range records {
		pos := -1
		if i := strings.Index(strings.ToLower(rec.LegalName), needle); i >= 0 {
			pos = i
		}
		if i := strings.Index(strings.ToLower(rec.TradeName), needle); i >= 0 && (pos < 0 || i < pos) {
			pos = i
		}
		if pos >= 0 {
			matches = append(matches, match{rec: rec, pos: pos})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].pos != matches[j].pos {
			return matches[i].pos < matches[j].pos
		}
		if matches[i].rec.LegalName != matches[j].rec.LegalName {
			return matches[i].rec.LegalName < matches[j].rec.LegalName
		}
		return matches[i].rec.CNPJ < matches[j].rec.CNPJ
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*entity.Company, len(matches))
	for i, m := range matches {
		out[i] = m.rec
	}
	return out
}

func computeSnapshot(table *entity.Table) *entity.Snapshot {
	snap := &entity.Snapshot{
		ByStatus:  make(map[string]int),
		ByState:   make(map[string]int),
		BySize:    make(map[string]int),
		FetchedAt: table.FetchedAt,
		Stale:     table.Stale,
	}

	for _, rec := range table.Records {
		snap.Total++
		if rec.Status != "" {
			snap.ByStatus[string(rec.Status)]++
		}
		if rec.State != "" {
			snap.ByState[rec.State]++
		}
		if rec.SizeClass != "" {
			snap.BySize[rec.SizeClass]++
		}
	}
	return snap
}

func toCompanyResponse(rec *entity.Company, stale bool) *contract.CompanyResponse {
	return &contract.CompanyResponse{
		CNPJ:                rec.CNPJ,
		CNPJFormatted:       utils.FormatCNPJ(rec.CNPJ),
		LegalName:           rec.LegalName,
		TradeName:           rec.TradeName,
		Status:              string(rec.Status),
		Municipality:        rec.Municipality,
		State:               rec.State,
		ActivityCode:        rec.ActivityCode,
		ActivityDescription: rec.ActivityDescription,
		ShareCapital:        rec.ShareCapital.String(),
		SizeClass:           rec.SizeClass,
		Address:             rec.FullAddress(),
		Stale:               stale,
	}
}
