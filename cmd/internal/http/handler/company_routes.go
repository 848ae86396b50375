package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"cnpjbase/cmd/internal/contract"
	"cnpjbase/cmd/internal/utils/apierror"
)

type CompanyService interface {
	GetCompanyByCNPJ(ctx context.Context, raw string) (*contract.CompanyResponse, apierror.ErrorResponse)
	SearchByName(ctx context.Context, req *contract.SearchRequest) (*contract.SearchResponse, apierror.ErrorResponse)
	BatchLookup(ctx context.Context, req *contract.BatchLookupRequest) (*contract.BatchLookupResponse, apierror.ErrorResponse)
	GetStatistics(ctx context.Context) (*contract.StatsResponse, apierror.ErrorResponse)
	GetSourceStatus(ctx context.Context) (*contract.SourceStatusResponse, apierror.ErrorResponse)
	RefreshDataset(ctx context.Context) (*contract.SourceStatusResponse, apierror.ErrorResponse)
}

type DefaultCompanyRoute struct {
	CompanyService CompanyService
}

func NewCompanyDefault(companyService CompanyService) *DefaultCompanyRoute {
	return &DefaultCompanyRoute{CompanyService: companyService}
}

func (r *DefaultCompanyRoute) GetCompany(c echo.Context) error {
	cnpj := strings.TrimSpace(c.Param("cnpj"))

	company, apierr := r.CompanyService.GetCompanyByCNPJ(c.Request().Context(), cnpj)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, company)
}

func (r *DefaultCompanyRoute) SearchCompanies(c echo.Context) error {
	var req contract.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, apierror.MalformedJSONError)
	}

	resp, apierr := r.CompanyService.SearchByName(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (r *DefaultCompanyRoute) BatchLookup(c echo.Context) error {
	var req contract.BatchLookupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, apierror.MalformedJSONError)
	}

	resp, apierr := r.CompanyService.BatchLookup(c.Request().Context(), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (r *DefaultCompanyRoute) GetStatistics(c echo.Context) error {
	resp, apierr := r.CompanyService.GetStatistics(c.Request().Context())
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (r *DefaultCompanyRoute) GetSourceStatus(c echo.Context) error {
	resp, apierr := r.CompanyService.GetSourceStatus(c.Request().Context())
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (r *DefaultCompanyRoute) RefreshSource(c echo.Context) error {
	resp, apierr := r.CompanyService.RefreshDataset(c.Request().Context())
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}
