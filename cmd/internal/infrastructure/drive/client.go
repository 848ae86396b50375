package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cnpjbase/cmd/internal/dataset"
)

const folderMimeType = "application/vnd.google-apps.folder"

var (
	ErrNotFound     = errors.New("file not found")
	ErrUnauthorized = errors.New("drive session rejected the access token")
)

// Client is a Google Drive v3 storage session. It holds an already-issued
// access token; obtaining and refreshing tokens is someone else's job.
type Client struct {
	baseURL    string
	token      string
	rootID     string
	httpClient *http.Client
}

// NewClient builds a session over the given access token. rootFolderID may
// be empty, in which case the root is the set of folders shared with the
// token's account.
func NewClient(token, rootFolderID string) *Client {
	return &Client{
		baseURL:    "https://www.googleapis.com/drive/v3",
		token:      token,
		rootID:     rootFolderID,
		httpClient: &http.Client{},
	}
}

type fileResource struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Size         string `json:"size"`
	ModifiedTime string `json:"modifiedTime"`
}

type fileListResponse struct {
	Files []fileResource `json:"files"`
}

func (c *Client) ListChildren(ctx context.Context, folderID string) ([]*dataset.RemoteFile, error) {
	query := c.childrenQuery(folderID)

	params := url.Values{}
	params.Set("q", query)
	params.Set("fields", "files(id,name,mimeType,size,modifiedTime)")
	params.Set("pageSize", "1000")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("drive list failed with status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var list fileListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, err
	}

	files := make([]*dataset.RemoteFile, len(list.Files))
	for i, f := range list.Files {
		files[i] = toRemoteFile(f)
	}
	return files, nil
}

func (c *Client) ReadChunk(ctx context.Context, fileID string, offset, length int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+url.PathEscape(fileID)+"?alt=media", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
		return io.ReadAll(resp.Body)
	case http.StatusRequestedRangeNotSatisfiable:
		// Offset at or past the end of the file.
		return nil, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("drive download failed with status code: %d", resp.StatusCode)
	}
}

// childrenQuery builds the Drive search expression for one folder level.
func (c *Client) childrenQuery(folderID string) string {
	if folderID == "" {
		folderID = c.rootID
	}
	if folderID == "" {
		return "sharedWithMe=true and trashed=false"
	}
	return fmt.Sprintf("'%s' in parents and trashed=false", folderID)
}

func toRemoteFile(f fileResource) *dataset.RemoteFile {
	size, _ := strconv.ParseInt(f.Size, 10, 64)
	modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)

	return &dataset.RemoteFile{
		ID:         f.ID,
		Name:       f.Name,
		MimeType:   f.MimeType,
		Size:       size,
		ModifiedAt: modified,
		IsFolder:   f.MimeType == folderMimeType,
	}
}
