package azure

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/gobeaver/filesniff"
)

// blobServer answers the handful of Blob service calls the source makes
type blobServer struct {
	blobs  map[string][]byte
	denied map[string]bool
	ranges []string
}

func (b *blobServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("comp") == "list" {
		b.list(w, q.Get("prefix"), q.Get("delimiter"))
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/media/")
	data, ok := b.blobs[name]
	if !ok {
		w.Header().Set("x-ms-error-code", "BlobNotFound")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Last-Modified", "Tue, 14 Nov 2023 22:13:20 GMT")

	switch r.Method {
	case http.MethodHead:
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		if b.denied[name] {
			w.Header().Set("x-ms-error-code", "AuthorizationFailure")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		rng := r.Header.Get("x-ms-range")
		if rng == "" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
			return
		}
		b.ranges = append(b.ranges, rng)
		if len(data) == 0 {
			w.Header().Set("x-ms-error-code", "InvalidRange")
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		var start, end int
		_, _ = fmt.Sscanf(rng, "bytes=%d-%d", &start, &end)
		if end >= len(data) {
			end = len(data) - 1
		}
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(data[start : end+1])
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (b *blobServer) list(w http.ResponseWriter, prefix, delimiter string) {
	var names []string
	for name := range b.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?><EnumerationResults ServiceEndpoint="http://localhost/" ContainerName="media"><Blobs>`)
	seen := map[string]bool{}
	for _, name := range names {
		rest := strings.TrimPrefix(name, prefix)
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				p := prefix + rest[:i+1]
				if !seen[p] {
					seen[p] = true
					fmt.Fprintf(&sb, `<BlobPrefix><Name>%s</Name></BlobPrefix>`, p)
				}
				continue
			}
		}
		fmt.Fprintf(&sb, `<Blob><Name>%s</Name><Properties><Content-Length>%d</Content-Length></Properties></Blob>`, name, len(b.blobs[name]))
	}
	sb.WriteString(`</Blobs><NextMarker/></EnumerationResults>`)

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}

func newTestSource(t *testing.T) (*Source, *blobServer) {
	t.Helper()

	backend := &blobServer{
		blobs: map[string][]byte{
			"intake/a.gif":      []byte("GIF89a\x01\x00\x01\x00"),
			"intake/deep/b.zip": []byte("PK\x03\x04 rest of the archive"),
			"intake/empty.txt":  {},
			"intake/locked.bin": []byte("x"),
		},
		denied: map[string]bool{"intake/locked.bin": true},
	}
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	client, err := azblob.NewClientWithNoCredential(server.URL+"/", nil)
	if err != nil {
		t.Fatalf("NewClientWithNoCredential() error = %v", err)
	}
	return New(client, "media", WithPrefix("intake")), backend
}

func TestSource_ReadHeader(t *testing.T) {
	src, backend := newTestSource(t)
	ctx := context.Background()

	header, err := src.ReadHeader(ctx, "deep/b.zip", 4)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if string(header) != "PK\x03\x04" {
		t.Errorf("header = %q", header)
	}
	if len(backend.ranges) != 1 || backend.ranges[0] != "bytes=0-3" {
		t.Errorf("ranges = %v, want [bytes=0-3]", backend.ranges)
	}

	header, err = src.ReadHeader(ctx, "empty.txt", 64)
	if err != nil || len(header) != 0 {
		t.Errorf("empty blob: header = %q, err = %v", header, err)
	}

	if _, err := src.ReadHeader(ctx, "missing.bin", 64); !filesniff.IsNotExist(err) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	if _, err := src.ReadHeader(ctx, "locked.bin", 64); !filesniff.IsPermission(err) {
		t.Errorf("expected ErrPermission, got %v", err)
	}
}

func TestSource_Stat(t *testing.T) {
	src, _ := newTestSource(t)
	ctx := context.Background()

	info, err := src.Stat(ctx, "a.gif")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size != 10 || info.IsDir || info.Name != "a.gif" {
		t.Errorf("unexpected info %+v", info)
	}

	info, err = src.Stat(ctx, "deep")
	if err != nil || !info.IsDir {
		t.Errorf("Stat(deep) = %+v, %v; want directory", info, err)
	}

	if _, err := src.Stat(ctx, "nothing"); !filesniff.IsNotExist(err) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestSource_ListContents(t *testing.T) {
	src, _ := newTestSource(t)
	ctx := context.Background()

	tests := []struct {
		recursive bool
		want      string
	}{
		{false, "a.gif,deep/,empty.txt,locked.bin"},
		{true, "a.gif,deep/b.zip,empty.txt,locked.bin"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("recursive=%v", tt.recursive), func(t *testing.T) {
			files, err := src.ListContents(ctx, "", tt.recursive)
			if err != nil {
				t.Fatalf("ListContents() error = %v", err)
			}
			var got []string
			for _, f := range files {
				p := f.Path
				if f.IsDir {
					p += "/"
				}
				got = append(got, p)
			}
			if strings.Join(got, ",") != tt.want {
				t.Errorf("listing = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestSource_Identify(t *testing.T) {
	src, _ := newTestSource(t)

	cfg := &filesniff.Config{
		Source:             "azure",
		AzureAccountName:   "devstore",
		AzureContainerName: "media",
		HeaderSize:         64,
		Workers:            2,
		Recursive:          true,
		Output:             "text",
		LogLevel:           "warn",
		LogFormat:          "text",
	}
	a, err := filesniff.New(cfg, filesniff.WithSource(src))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	paths, err := a.Expand(ctx, []string{""})
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	got := map[string]string{}
	summary, err := a.AnalyzeBatch(ctx, paths, func(r filesniff.BatchResult) {
		if r.Analysis != nil {
			got[r.Path] = r.Analysis.Identification.TypeName
		}
	})
	if err != nil {
		t.Fatalf("AnalyzeBatch() error = %v", err)
	}
	if got["a.gif"] != "GIF89a" || got["deep/b.zip"] != "ZIP" {
		t.Errorf("identifications = %v", got)
	}
	if summary.Unreadable != 1 {
		t.Errorf("Unreadable = %d, want 1", summary.Unreadable)
	}
}
