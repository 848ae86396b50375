package entity

// Table is the in-memory registry dataset produced by one fetch. It is never
// mutated after construction; a refresh builds a new Table and swaps it in.
type Table struct {
	Records []*Company

	// FetchedAt is the UTC epoch millis of the fetch that produced this table.
	FetchedAt int64

	// Stale marks a table served past its freshness window because a refresh
	// attempt failed. A fresh table always has Stale = false.
	Stale bool

	byCNPJ map[string]*Company
}

func NewTable(records []*Company) *Table {
	index := make(map[string]*Company, len(records))
	for _, rec := range records {
		index[rec.CNPJ] = rec
	}
	return &Table{
		Records: records,
		byCNPJ:  index,
	}
}

// Lookup returns the record for the canonical (digits-only) CNPJ, or nil.
func (t *Table) Lookup(cnpj string) *Company {
	return t.byCNPJ[cnpj]
}

func (t *Table) Len() int {
	return len(t.Records)
}

// AsStale returns a view of the table flagged as stale. The record slice and
// index are shared; records are immutable so this is safe.
func (t *Table) AsStale() *Table {
	return &Table{
		Records:   t.Records,
		FetchedAt: t.FetchedAt,
		Stale:     true,
		byCNPJ:    t.byCNPJ,
	}
}

// Snapshot holds aggregate statistics derived from a Table. It is always
// recomputed from the current table, never cached on its own.
type Snapshot struct {
	Total     int
	ByStatus  map[string]int
	ByState   map[string]int
	BySize    map[string]int
	FetchedAt int64
	Stale     bool
}
