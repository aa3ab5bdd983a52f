// Package azure reads file headers from Azure Blob Storage.
package azure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/gobeaver/filesniff"
)

// Source reads headers from blobs in one container
type Source struct {
	client        *azblob.Client
	containerName string
	prefix        string
}

// SourceOption configures a Source
type SourceOption func(*Source)

// WithPrefix confines the source to blobs under prefix
func WithPrefix(prefix string) SourceOption {
	return func(s *Source) {
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		s.prefix = prefix
	}
}

// New creates an Azure Blob Storage source
func New(client *azblob.Client, containerName string, options ...SourceOption) *Source {
	s := &Source{
		client:        client,
		containerName: containerName,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Source) blobName(p string) string {
	name := path.Join(s.prefix, strings.TrimPrefix(p, "/"))
	if name == "." {
		return ""
	}
	return name
}

func (s *Source) containerClient() *container.Client {
	return s.client.ServiceClient().NewContainerClient(s.containerName)
}

// Stat implements filesniff.HeaderSource. A missing blob whose name
// prefixes other blobs is a directory.
func (s *Source) Stat(ctx context.Context, p string) (*filesniff.FileInfo, error) {
	name := s.blobName(p)

	if name != "" {
		props, err := s.containerClient().NewBlobClient(name).GetProperties(ctx, nil)
		if err == nil {
			metadata := make(map[string]string, len(props.Metadata))
			for k, v := range props.Metadata {
				if v != nil {
					metadata[k] = *v
				}
			}
			return &filesniff.FileInfo{
				Name:        path.Base(p),
				Path:        p,
				Size:        deref(props.ContentLength),
				ModTime:     deref(props.LastModified),
				IsDir:       strings.HasSuffix(name, "/"),
				ContentType: deref(props.ContentType),
				Metadata:    metadata,
			}, nil
		}
		if mapped := mapAzureError("stat", p, err); !filesniff.IsNotExist(mapped) {
			return nil, mapped
		}
	}

	prefix := dirPrefix(name)
	pager := s.containerClient().NewListBlobsFlatPager(&container.ListBlobsFlatOptions{
		Prefix:     &prefix,
		MaxResults: ptr(int32(1)),
	})
	if pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapAzureError("stat", p, err)
		}
		if len(resp.Segment.BlobItems) > 0 {
			return &filesniff.FileInfo{Name: path.Base(p), Path: p, IsDir: true}, nil
		}
	}
	return nil, filesniff.WrapPathErr("stat", p, filesniff.ErrNotExist)
}

// ReadHeader implements filesniff.HeaderSource with a ranged download
func (s *Source) ReadHeader(ctx context.Context, p string, n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}

	resp, err := s.client.DownloadStream(ctx, s.containerName, s.blobName(p), &azblob.DownloadStreamOptions{
		Range: azblob.HTTPRange{Offset: 0, Count: int64(n)},
	})
	if err != nil {
		// Empty blobs reject any range
		if bloberror.HasCode(err, bloberror.InvalidRange) {
			return []byte{}, nil
		}
		return nil, mapAzureError("readheader", p, err)
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
	resp, err := s.client.DownloadStream(ctx, s.containerName, s.blobName(p), nil)
	if err != nil {
		return nil, mapAzureError("open", p, err)
	}
	return resp.Body, nil
}

// ListContents implements filesniff.CanList
func (s *Source) ListContents(ctx context.Context, p string, recursive bool) ([]filesniff.FileInfo, error) {
	listPrefix := dirPrefix(s.blobName(p))
	var files []filesniff.FileInfo

	if recursive {
		pager := s.containerClient().NewListBlobsFlatPager(&container.ListBlobsFlatOptions{
			Prefix: &listPrefix,
		})
		for pager.More() {
			resp, err := pager.NextPage(ctx)
			if err != nil {
				return nil, mapAzureError("listcontents", p, err)
			}
			for _, item := range resp.Segment.BlobItems {
				if fi, ok := s.blobInfo(item, listPrefix); ok {
					files = append(files, fi)
				}
			}
		}
	} else {
		pager := s.containerClient().NewListBlobsHierarchyPager("/", &container.ListBlobsHierarchyOptions{
			Prefix: &listPrefix,
		})
		for pager.More() {
			resp, err := pager.NextPage(ctx)
			if err != nil {
				return nil, mapAzureError("listcontents", p, err)
			}
			for _, bp := range resp.Segment.BlobPrefixes {
				if bp.Name == nil || strings.TrimSuffix(strings.TrimPrefix(*bp.Name, listPrefix), "/") == "" {
					continue
				}
				rel := s.relative(*bp.Name)
				files = append(files, filesniff.FileInfo{
					Name:  path.Base(rel),
					Path:  rel,
					IsDir: true,
				})
			}
			for _, item := range resp.Segment.BlobItems {
				if fi, ok := s.blobInfo(item, listPrefix); ok {
					files = append(files, fi)
				}
			}
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func (s *Source) blobInfo(item *container.BlobItem, listPrefix string) (filesniff.FileInfo, bool) {
	if item == nil || item.Name == nil {
		return filesniff.FileInfo{}, false
	}
	name := *item.Name
	if name == listPrefix || strings.HasSuffix(name, "/") {
		return filesniff.FileInfo{}, false
	}

	rel := s.relative(name)
	fi := filesniff.FileInfo{Name: path.Base(rel), Path: rel}
	if item.Properties != nil {
		fi.Size = deref(item.Properties.ContentLength)
		fi.ModTime = deref(item.Properties.LastModified)
		fi.ContentType = deref(item.Properties.ContentType)
	}
	return fi, true
}

func (s *Source) relative(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(name, s.prefix), "/"), "/")
}

func dirPrefix(name string) string {
	if name == "" {
		return ""
	}
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	return name
}

func ptr[T any](v T) *T {
	return &v
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// mapAzureError maps Azure errors to filesniff errors
func mapAzureError(op, p string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return filesniff.WrapPathErr(op, p, filesniff.ErrNotExist)
	}
	if bloberror.HasCode(err, bloberror.AuthorizationFailure, bloberror.AuthorizationPermissionMismatch) {
		return filesniff.WrapPathErr(op, p, filesniff.ErrPermission)
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return filesniff.WrapPathErr(op, p, filesniff.ErrNotExist)
		case http.StatusForbidden:
			return filesniff.WrapPathErr(op, p, filesniff.ErrPermission)
		}
	}

	return filesniff.WrapPathErr(op, p, err)
}

var (
	_ filesniff.HeaderSource = (*Source)(nil)
	_ filesniff.CanList      = (*Source)(nil)
	_ filesniff.CanOpen      = (*Source)(nil)
)
