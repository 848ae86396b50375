package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"cnpjbase/cmd/internal/dataset"
)

// S3Session serves the dataset folder layout out of an S3 bucket, with "/"
// delimited keys standing in for folders.
type S3Session struct {
	bucket string
	prefix string
	client *s3.Client
}

func NewS3Session() (*S3Session, error) {
	region := os.Getenv("AWS_S3_REGION")
	bucket := os.Getenv("S3_BUCKET_NAME")
	if bucket == "" {
		return nil, errors.New("S3_BUCKET_NAME is empty")
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &S3Session{
		bucket: bucket,
		prefix: normalizePrefix(os.Getenv("S3_BASE_PREFIX")),
		client: s3.NewFromConfig(cfg),
	}, nil
}

func (s *S3Session) ListChildren(ctx context.Context, folderID string) ([]*dataset.RemoteFile, error) {
	prefix := normalizePrefix(folderID)
	if folderID == "" {
		prefix = s.prefix
	}

	var files []*dataset.RemoteFile
	var continuation *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, err
		}

		for _, p := range out.CommonPrefixes {
			folder := aws.ToString(p.Prefix)
			files = append(files, &dataset.RemoteFile{
				ID:       folder,
				Name:     path.Base(strings.TrimSuffix(folder, "/")),
				IsFolder: true,
			})
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix {
				// Zero-byte folder marker object.
				continue
			}
			files = append(files, &dataset.RemoteFile{
				ID:         key,
				Name:       path.Base(key),
				Size:       aws.ToInt64(obj.Size),
				ModifiedAt: aws.ToTime(obj.LastModified),
			})
		}

		if !aws.ToBool(out.IsTruncated) {
			return files, nil
		}
		continuation = out.NextContinuationToken
	}
}

func (s *S3Session) ReadChunk(ctx context.Context, fileID string, offset, length int64) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange" {
			// Offset at or past the end of the object.
			return nil, nil
		}
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// normalizePrefix guarantees a non-empty prefix ends with exactly one "/".
func normalizePrefix(p string) string {
	if p == "" {
		return ""
	}
	return strings.TrimSuffix(p, "/") + "/"
}
