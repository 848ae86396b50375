package dataset

import (
	"context"
	"time"
)

// RemoteFile describes one entry of a remote storage folder.
type RemoteFile struct {
	ID         string
	Name       string
	MimeType   string
	Size       int64
	ModifiedAt time.Time
	IsFolder   bool
}

// StorageSession is the already-authenticated capability this package needs
// from a storage provider. Exactly two operations: list the children of a
// folder and read a byte range of a file. Credential exchange, transport and
// provider SDK details all live behind it.
type StorageSession interface {
	// ListChildren lists the entries of the given folder. An empty folderID
	// means the session's root.
	ListChildren(ctx context.Context, folderID string) ([]*RemoteFile, error)

	// ReadChunk reads up to length bytes of the file starting at offset.
	// A chunk shorter than length means the end of the file was reached.
	ReadChunk(ctx context.Context, fileID string, offset, length int64) ([]byte, error)
}
