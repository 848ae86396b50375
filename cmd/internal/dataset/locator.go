package dataset

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/labstack/gommon/log"
)

// The registry owner keeps the dataset under a fixed two-level folder chain.
// The flattened fallback search is bounded so a misconfigured root with deep
// nesting cannot turn into a runaway traversal.
const (
	baseFolderName = "BASE DE DADOS"
	dataFolderName = "BASE B2B"

	defaultMaxSearchDepth = 4
)

// Handle identifies a located dataset file: where to read it from and how to
// decode it. Handles are not persisted across process restarts.
type Handle struct {
	FileID     string
	Name       string
	Format     Format
	Size       int64
	ModifiedAt time.Time
}

// Locator finds the authoritative dataset file in the remote folder layout.
type Locator struct {
	Session  StorageSession
	MaxDepth int
}

func NewLocator(session StorageSession) *Locator {
	return &Locator{
		Session:  session,
		MaxDepth: defaultMaxSearchDepth,
	}
}

// Locate searches for the dataset file. Search order is significant:
//
//  1. The exact nested chain "BASE DE DADOS" / "BASE B2B" under the root
//     (with the data folder also accepted directly under the root).
//  2. If step 1 yields nothing, a breadth-first search for recognized
//     filenames anywhere under the root, bounded by MaxDepth.
//
// Among candidates the format preference is sqlite > csv > parquet; within
// the same format the most recent modification marker wins. Equally
// preferred candidates with identical markers are reported as ambiguous
// rather than guessed at.
func (l *Locator) Locate(ctx context.Context) (*Handle, error) {
	candidates, err := l.nestedPathCandidates(ctx)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		log.Debugf("locator: nested path empty, starting flattened search")
		candidates, err = l.flattenedCandidates(ctx)
		if err != nil {
			return nil, err
		}
	}

	if len(candidates) == 0 {
		return nil, ErrFolderMissing
	}
	return pickCandidate(candidates)
}

// nestedPathCandidates resolves the fixed folder chain and returns the
// dataset files in its terminal folder. A missing chain is not an error
// here; it just yields zero candidates so the fallback can run.
func (l *Locator) nestedPathCandidates(ctx context.Context) ([]*RemoteFile, error) {
	root, err := l.Session.ListChildren(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list root folder: %w", err)
	}

	dataFolder := findFolder(root, dataFolderName)
	if dataFolder == nil {
		base := findFolder(root, baseFolderName)
		if base == nil {
			return nil, nil
		}
		children, err := l.Session.ListChildren(ctx, base.ID)
		if err != nil {
			return nil, fmt.Errorf("list folder %q: %w", base.Name, err)
		}
		dataFolder = findFolder(children, dataFolderName)
		if dataFolder == nil {
			return nil, nil
		}
	}

	files, err := l.Session.ListChildren(ctx, dataFolder.ID)
	if err != nil {
		return nil, fmt.Errorf("list folder %q: %w", dataFolder.Name, err)
	}
	return datasetFiles(files), nil
}

// flattenedCandidates walks the tree breadth-first collecting recognized
// dataset filenames, down to MaxDepth levels below the root.
func (l *Locator) flattenedCandidates(ctx context.Context) ([]*RemoteFile, error) {
	type level struct {
		folderID string
		depth    int
	}

	queue := []level{{folderID: "", depth: 0}}
	var found []*RemoteFile

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := l.Session.ListChildren(ctx, current.folderID)
		if err != nil {
			return nil, fmt.Errorf("list folder during flattened search: %w", err)
		}

		for _, child := range children {
			if child.IsFolder {
				if current.depth+1 <= l.MaxDepth {
					queue = append(queue, level{folderID: child.ID, depth: current.depth + 1})
				}
				continue
			}
			if isRecognizedName(child.Name) {
				found = append(found, child)
			}
		}
	}
	return found, nil
}

// pickCandidate applies the preference order and the modification-time
// tie-break to a non-empty candidate list.
func pickCandidate(candidates []*RemoteFile) (*Handle, error) {
	sort.SliceStable(candidates, func(i, j int) bool {
		ri := preferenceRank(detectFormat(candidates[i].Name))
		rj := preferenceRank(detectFormat(candidates[j].Name))
		if ri != rj {
			return ri < rj
		}
		return candidates[i].ModifiedAt.After(candidates[j].ModifiedAt)
	})

	best := candidates[0]
	if len(candidates) > 1 {
		next := candidates[1]
		samePreference := preferenceRank(detectFormat(best.Name)) == preferenceRank(detectFormat(next.Name))
		if samePreference && best.ModifiedAt.Equal(next.ModifiedAt) {
			return nil, fmt.Errorf("%q and %q: %w", best.Name, next.Name, ErrAmbiguousMatch)
		}
	}

	log.Debugf("locator: selected %q (%s, modified %s)",
		best.Name, detectFormat(best.Name), best.ModifiedAt.Format(time.RFC3339))

	return &Handle{
		FileID:     best.ID,
		Name:       best.Name,
		Format:     detectFormat(best.Name),
		Size:       best.Size,
		ModifiedAt: best.ModifiedAt,
	}, nil
}

func findFolder(files []*RemoteFile, name string) *RemoteFile {
	for _, f := range files {
		if f.IsFolder && f.Name == name {
			return f
		}
	}
	return nil
}

func datasetFiles(files []*RemoteFile) []*RemoteFile {
	var out []*RemoteFile
	for _, f := range files {
		if !f.IsFolder && detectFormat(f.Name) != FormatUnknown {
			out = append(out, f)
		}
	}
	return out
}
