// Package gcs reads file headers from Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gobeaver/filesniff"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// Source reads headers from objects in one bucket
type Source struct {
	client *storage.Client
	bucket string
	prefix string
}

// SourceOption configures a Source
type SourceOption func(*Source)

// WithPrefix confines the source to objects under prefix
func WithPrefix(prefix string) SourceOption {
	return func(s *Source) {
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		s.prefix = prefix
	}
}

// New creates a GCS source
func New(client *storage.Client, bucket string, options ...SourceOption) *Source {
	s := &Source{
		client: client,
		bucket: bucket,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Source) object(p string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(objectKey(s.prefix, p))
}

// Stat implements filesniff.HeaderSource. A missing object whose name
// prefixes other objects is a directory.
func (s *Source) Stat(ctx context.Context, p string) (*filesniff.FileInfo, error) {
	key := objectKey(s.prefix, p)

	if key != "" {
		attrs, err := s.object(p).Attrs(ctx)
		if err == nil {
			return &filesniff.FileInfo{
				Name:        path.Base(p),
				Path:        p,
				Size:        attrs.Size,
				ModTime:     attrs.Updated,
				IsDir:       strings.HasSuffix(key, "/") || attrs.ContentType == "application/x-directory",
				ContentType: attrs.ContentType,
				Metadata:    attrs.Metadata,
			}, nil
		}
		if !errors.Is(err, storage.ErrObjectNotExist) {
			return nil, mapGCSError("stat", p, err)
		}
	}

	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: dirPrefix(key)})
	if _, err := it.Next(); err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, filesniff.WrapPathErr("stat", p, filesniff.ErrNotExist)
		}
		return nil, mapGCSError("stat", p, err)
	}
	return &filesniff.FileInfo{Name: path.Base(p), Path: p, IsDir: true}, nil
}

// ReadHeader implements filesniff.HeaderSource with a range reader, so only
// the first n bytes are transferred.
func (s *Source) ReadHeader(ctx context.Context, p string, n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}

	r, err := s.object(p).NewRangeReader(ctx, 0, int64(n))
	if err != nil {
		if isUnsatisfiableRange(err) {
			return []byte{}, nil
		}
		return nil, mapGCSError("readheader", p, err)
	}
	defer r.Close()

	header, err := filesniff.ReadHeaderFrom(r, n)
	if err != nil {
		return nil, filesniff.WrapPathErr("readheader", p, err)
	}
	return header, nil
}

// Open implements filesniff.CanOpen
func (s *Source) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	r, err := s.object(p).NewReader(ctx)
	if err != nil {
		return nil, mapGCSError("open", p, err)
	}
	return r, nil
}

// ListContents implements filesniff.CanList
func (s *Source) ListContents(ctx context.Context, p string, recursive bool) ([]filesniff.FileInfo, error) {
	listPrefix := dirPrefix(objectKey(s.prefix, p))

	query := &storage.Query{Prefix: listPrefix}
	if !recursive {
		query.Delimiter = "/"
	}

	var files []filesniff.FileInfo
	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapGCSError("listcontents", p, err)
		}

		if attrs.Prefix != "" {
			if strings.TrimSuffix(strings.TrimPrefix(attrs.Prefix, listPrefix), "/") == "" {
				continue
			}
			rel := relative(s.prefix, attrs.Prefix)
			files = append(files, filesniff.FileInfo{
				Name:  path.Base(rel),
				Path:  rel,
				IsDir: true,
			})
			continue
		}

		if attrs.Name == listPrefix || strings.HasSuffix(attrs.Name, "/") {
			continue
		}

		rel := relative(s.prefix, attrs.Name)
		files = append(files, filesniff.FileInfo{
			Name:        path.Base(rel),
			Path:        rel,
			Size:        attrs.Size,
			ModTime:     attrs.Updated,
			ContentType: attrs.ContentType,
			Metadata:    attrs.Metadata,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func objectKey(prefix, p string) string {
	key := path.Join(prefix, strings.TrimPrefix(p, "/"))
	if key == "." {
		return ""
	}
	return key
}

func relative(prefix, key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/"), "/")
}

func dirPrefix(key string) string {
	if key == "" {
		return ""
	}
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}
	return key
}

func isUnsatisfiableRange(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 416
}

// mapGCSError maps storage errors to filesniff errors
func mapGCSError(op, p string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return filesniff.WrapPathErr(op, p, filesniff.ErrNotExist)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401, 403:
			return filesniff.WrapPathErr(op, p, filesniff.ErrPermission)
		case 404:
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
