// Package s3 reads file headers from Amazon S3 and S3-compatible stores.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gobeaver/filesniff"
)

// API is the subset of *s3.Client the source uses
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// Source reads headers from objects in one bucket. Keys are addressed
// relative to an optional prefix; "directories" are key prefixes.
type Source struct {
	client API
	bucket string
	prefix string
}

// SourceOption configures a Source
type SourceOption func(*Source)

// WithPrefix confines the source to keys under prefix
func WithPrefix(prefix string) SourceOption {
	return func(s *Source) {
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		s.prefix = prefix
	}
}

// New creates an S3 source
func New(client API, bucket string, options ...SourceOption) *Source {
	s := &Source{
		client: client,
		bucket: bucket,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Source) key(p string) string {
	return path.Join(s.prefix, strings.TrimPrefix(p, "/"))
}

// Stat implements filesniff.HeaderSource. A key that does not exist but
// prefixes other keys is reported as a directory.
func (s *Source) Stat(ctx context.Context, p string) (*filesniff.FileInfo, error) {
	key := s.key(p)

	if key != "" && key != "." {
		resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			metadata := make(map[string]string, len(resp.Metadata))
			for k, v := range resp.Metadata {
				metadata[k] = v
			}
			return &filesniff.FileInfo{
				Name:        path.Base(p),
				Path:        p,
				Size:        aws.ToInt64(resp.ContentLength),
				ModTime:     aws.ToTime(resp.LastModified),
				ContentType: aws.ToString(resp.ContentType),
				Metadata:    metadata,
			}, nil
		}
		if mapped := mapS3Error("stat", p, err); !filesniff.IsNotExist(mapped) {
			return nil, mapped
		}
	}

	isDir, err := s.hasChildren(ctx, key)
	if err != nil {
		return nil, mapS3Error("stat", p, err)
	}
	if !isDir {
		return nil, filesniff.WrapPathErr("stat", p, filesniff.ErrNotExist)
	}
	return &filesniff.FileInfo{Name: path.Base(p), Path: p, IsDir: true}, nil
}

func (s *Source) hasChildren(ctx context.Context, key string) (bool, error) {
	resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(dirPrefix(key)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return len(resp.Contents) > 0 || len(resp.CommonPrefixes) > 0, nil
}

// ReadHeader implements filesniff.HeaderSource with a ranged GET, so only
// the first n bytes leave the bucket.
func (s *Source) ReadHeader(ctx context.Context, p string, n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
		Range:  aws.String(fmt.Sprintf("bytes=0-%d", n-1)),
	})
	if err != nil {
		// A range on an empty object is unsatisfiable
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange" {
			return []byte{}, nil
		}
		return nil, mapS3Error("readheader", p, err)
	}
	defer resp.Body.Close()

	header, err := filesniff.ReadHeaderFrom(resp.Body, n)
	if err != nil {
		return nil, filesniff.WrapPathErr("readheader", p, err)
	}
	return header, nil
}

// Open implements filesniff.CanOpen
func (s *Source) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		return nil, mapS3Error("open", p, err)
	}
	return resp.Body, nil
}

// ListContents implements filesniff.CanList. Non-recursive listings include
// common prefixes as directories.
func (s *Source) ListContents(ctx context.Context, p string, recursive bool) ([]filesniff.FileInfo, error) {
	listPrefix := dirPrefix(s.key(p))

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(listPrefix),
	}
	if !recursive {
		input.Delimiter = aws.String("/")
	}

	var files []filesniff.FileInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapS3Error("listcontents", p, err)
		}

		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), listPrefix), "/")
			if name == "" {
				continue
			}
			files = append(files, filesniff.FileInfo{
				Name:  name,
				Path:  s.relative(aws.ToString(cp.Prefix)),
				IsDir: true,
			})
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == listPrefix || strings.HasSuffix(key, "/") {
				continue
			}
			rel := s.relative(key)
			files = append(files, filesniff.FileInfo{
				Name:    path.Base(rel),
				Path:    rel,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// relative strips the source prefix from a key
func (s *Source) relative(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/"), "/")
}

func dirPrefix(key string) string {
	if key == "" || key == "." {
		return ""
	}
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}
	return key
}

func mapS3Error(op, p string, err error) error {
	var nsk *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &notFound) {
		return filesniff.WrapPathErr(op, p, filesniff.ErrNotExist)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden":
			return filesniff.WrapPathErr(op, p, filesniff.ErrPermission)
		case "NoSuchBucket":
			return filesniff.WrapPathErr(op, p, filesniff.ErrNotExist)
		}
	}

	return filesniff.WrapPathErr(op, p, err)
}

var (
	_ filesniff.HeaderSource = (*Source)(nil)
	_ filesniff.CanList      = (*Source)(nil)
	_ filesniff.CanOpen      = (*Source)(nil)
)
