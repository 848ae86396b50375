package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"cnpjbase/cmd/internal/domain/entity"
)

const (
	DefaultCacheWindow = 30 * time.Minute

	defaultChunkSize = int64(8 << 20)   // 8 MiB per ranged read
	defaultMaxBytes  = int64(512 << 20) // hard cap on a dataset file
)

// cacheState is the explicit lifecycle of the cached table. Guarded
// transitions keep the single-in-flight-refresh invariant provable.
type cacheState uint8

const (
	stateEmpty cacheState = iota
	stateFetching
	stateFresh
	stateStale
)

func (s cacheState) String() string {
	switch s {
	case stateFetching:
		return "fetching"
	case stateFresh:
		return "fresh"
	case stateStale:
		return "stale"
	default:
		return "empty"
	}
}

// CacheStatus is a point-in-time view of the fetcher, exposed by the source
// status endpoint and the connection self-test.
type CacheStatus struct {
	State            string
	Records          int
	FetchedAt        int64
	SourceName       string
	SourceFormat     string
	SourceModifiedAt time.Time
}

// Fetcher downloads the located dataset and retains the parsed table for a
// bounded freshness window. Within the window every call is served from
// memory with no storage I/O at all. At most one refresh is ever in flight.
type Fetcher struct {
	Session   StorageSession
	Locator   *Locator
	Window    time.Duration
	ChunkSize int64
	MaxBytes  int64

	mu        sync.Mutex
	state     cacheState
	table     *entity.Table
	fetchedAt time.Time
	handle    *Handle
	inflight  chan struct{}

	now func() time.Time
}

func NewFetcher(session StorageSession, locator *Locator, window time.Duration) *Fetcher {
	if window <= 0 {
		window = DefaultCacheWindow
	}
	return &Fetcher{
		Session:   session,
		Locator:   locator,
		Window:    window,
		ChunkSize: defaultChunkSize,
		MaxBytes:  defaultMaxBytes,
		now:       time.Now,
	}
}

// Table returns the cached table, refreshing it first when absent or past
// the freshness window. When a refresh attempt fails and an older table
// exists, that table is returned flagged stale instead of an error.
func (f *Fetcher) Table(ctx context.Context) (*entity.Table, error) {
	return f.get(ctx, false)
}

// Refresh forces a fetch regardless of the table's age. If another refresh
// is already in flight its result is used instead of starting a second one.
func (f *Fetcher) Refresh(ctx context.Context) (*entity.Table, error) {
	return f.get(ctx, true)
}

// Status reports the current cache state without triggering any I/O.
func (f *Fetcher) Status() CacheStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expireLocked()

	status := CacheStatus{State: f.state.String()}
	if f.table != nil {
		status.Records = f.table.Len()
		status.FetchedAt = f.table.FetchedAt
	}
	if f.handle != nil {
		status.SourceName = f.handle.Name
		status.SourceFormat = f.handle.Format.String()
		status.SourceModifiedAt = f.handle.ModifiedAt
	}
	return status
}

func (f *Fetcher) get(ctx context.Context, force bool) (*entity.Table, error) {
	f.mu.Lock()
	for {
		f.expireLocked()

		switch f.state {
		case stateFresh:
			if !force {
				table := f.table
				f.mu.Unlock()
				return table, nil
			}

		case stateFetching:
			// A stale table lets non-forcing callers proceed immediately;
			// everyone else awaits the in-flight result.
			if !force && f.table != nil {
				table := f.table.AsStale()
				f.mu.Unlock()
				return table, nil
			}
			done := f.inflight
			f.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return nil, fmt.Errorf("awaiting in-flight refresh: %w", ErrTimeout)
			}
			f.mu.Lock()
			// The refresh that just finished satisfies a force request.
			force = false
			continue
		}

		// stateEmpty, stateStale, or a forced refresh of a fresh table.
		return f.refreshLocked(ctx)
	}
}

// refreshLocked runs one download-and-parse cycle as the single in-flight
// refresh. Called with the mutex held in a non-fetching state; the mutex is
// released for the duration of the network and decode work.
func (f *Fetcher) refreshLocked(ctx context.Context) (*entity.Table, error) {
	prev := f.table
	f.state = stateFetching
	done := make(chan struct{})
	f.inflight = done
	f.mu.Unlock()

	table, handle, err := f.download(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight = nil
	defer close(done)

	if err == nil {
		table.FetchedAt = f.now().UTC().UnixMilli()
		f.table = table
		f.fetchedAt = f.now()
		f.handle = handle
		f.state = stateFresh
		log.Infof("dataset: loaded %d records from %q (%s)", table.Len(), handle.Name, handle.Format)
		return table, nil
	}

	if prev != nil {
		f.state = stateStale
	} else {
		f.state = stateEmpty
	}

	// Parse errors surface even over a stale table: the fetched bytes were
	// reached but are unusable, and the caller must know.
	if errors.Is(err, ErrSchemaMismatch) || errors.Is(err, ErrCorrupt) {
		log.Errorf("dataset: refresh failed to parse: %v", err)
		return nil, err
	}

	if prev != nil {
		log.Warnf("dataset: refresh failed, serving stale table (%d records): %v", prev.Len(), err)
		return prev.AsStale(), nil
	}

	log.Errorf("dataset: refresh failed with no cached fallback: %v", err)
	return nil, err
}

func (f *Fetcher) download(ctx context.Context) (*entity.Table, *Handle, error) {
	handle, err := f.Locator.Locate(ctx)
	if err != nil {
		if errors.Is(err, ErrFolderMissing) || errors.Is(err, ErrAmbiguousMatch) {
			return nil, nil, err
		}
		return nil, nil, fetchFailure(err)
	}

	if f.MaxBytes > 0 && handle.Size > f.MaxBytes {
		return nil, nil, fmt.Errorf("%q is %d bytes: %w", handle.Name, handle.Size, ErrFileTooLarge)
	}

	data, err := f.readAll(ctx, handle)
	if err != nil {
		return nil, nil, err
	}

	table, err := parseTable(data, handle.Format)
	if err != nil {
		return nil, nil, err
	}
	return table, handle, nil
}

// readAll downloads the file in bounded chunks so peak memory stays at the
// chunk size above the accumulated result even for large files.
func (f *Fetcher) readAll(ctx context.Context, handle *Handle) ([]byte, error) {
	data := make([]byte, 0, min(handle.Size, f.ChunkSize))
	var offset int64

	for {
		chunk, err := f.Session.ReadChunk(ctx, handle.FileID, offset, f.ChunkSize)
		if err != nil {
			return nil, fetchFailure(fmt.Errorf("read %q at offset %d: %w", handle.Name, offset, err))
		}

		data = append(data, chunk...)
		offset += int64(len(chunk))

		if f.MaxBytes > 0 && offset > f.MaxBytes {
			return nil, fmt.Errorf("%q exceeded %d bytes while reading: %w", handle.Name, f.MaxBytes, ErrFileTooLarge)
		}
		if int64(len(chunk)) < f.ChunkSize {
			return data, nil
		}
	}
}

// expireLocked demotes a fresh table once its age reaches the window.
func (f *Fetcher) expireLocked() {
	if f.state == stateFresh && f.now().Sub(f.fetchedAt) >= f.Window {
		f.state = stateStale
	}
}

// fetchFailure classifies a transport-level error, keeping deadline expiry
// distinguishable from plain unavailability.
func fetchFailure(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", err, ErrTimeout)
	}
	return fmt.Errorf("%v: %w", err, ErrUnavailable)
}
