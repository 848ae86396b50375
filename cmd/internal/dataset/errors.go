package dataset

import "errors"

// The error taxonomy keeps "not in the registry" strictly apart from
// "registry currently unreachable": the two carry different corrective
// actions and are never collapsed into one generic failure.
var (
	// Locator outcomes, both definitive negatives.
	ErrFolderMissing  = errors.New("no dataset folder or recognized dataset file found")
	ErrAmbiguousMatch = errors.New("multiple equally preferred dataset candidates found")

	// Fetch outcomes, transient by nature. They are absorbed into a
	// stale-table fallback whenever one exists.
	ErrUnavailable  = errors.New("dataset unavailable and no cached table present")
	ErrTimeout      = errors.New("dataset fetch deadline exceeded")
	ErrFileTooLarge = errors.New("dataset file exceeds the configured size limit")

	// Parse outcomes, fatal for the fetch attempt. They always surface to the
	// caller: the remote bytes are the only copy of the data.
	ErrSchemaMismatch = errors.New("dataset is missing the mandatory identifier or legal name columns")
	ErrCorrupt        = errors.New("dataset bytes cannot be decoded as the declared format")
)
