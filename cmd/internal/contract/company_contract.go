package contract

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100
	MaxBatchLookup     = 50
)

type CompanyResponse struct {
	CNPJ                string `json:"cnpj"`
	CNPJFormatted       string `json:"cnpj_formatted"`
	LegalName           string `json:"legal_name"`
	TradeName           string `json:"trade_name,omitempty"`
	Status              string `json:"registration_status"`
	Municipality        string `json:"municipality"`
	State               string `json:"state"`
	ActivityCode        string `json:"activity_code"`
	ActivityDescription string `json:"activity_description"`
	ShareCapital        string `json:"share_capital"`
	SizeClass           string `json:"size_class,omitempty"`
	Address             string `json:"address"`
	Stale               bool   `json:"stale"`
}

type SearchRequest struct {
	Name  string `query:"name" validate:"required,min=2,max=120"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type SearchResponse struct {
	Results []*CompanyResponse `json:"results"`
	Total   int                `json:"total"`
	Stale   bool               `json:"stale"`
}

type BatchLookupRequest struct {
	CNPJs []string `json:"cnpjs" validate:"required,min=1,max=50,dive,required,cnpj"`
}

type BatchLookupResponse struct {
	Found   []*CompanyResponse `json:"found"`
	Missing []string           `json:"missing"`
	Stale   bool               `json:"stale"`
}

type StatsResponse struct {
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"by_status"`
	ByState   map[string]int `json:"by_state"`
	BySize    map[string]int `json:"by_size"`
	FetchedAt string         `json:"fetched_at,omitempty"`
	Stale     bool           `json:"stale"`
}

type SourceStatusResponse struct {
	Connected        bool   `json:"connected"`
	CacheState       string `json:"cache_state"`
	Records          int    `json:"records"`
	FetchedAt        string `json:"fetched_at,omitempty"`
	SourceName       string `json:"source_name,omitempty"`
	SourceFormat     string `json:"source_format,omitempty"`
	SourceModifiedAt string `json:"source_modified_at,omitempty"`
	Message          string `json:"message,omitempty"`
}
