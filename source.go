package filesniff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// FileInfo represents file/directory metadata reported by a source
type FileInfo struct {
	Name        string
	Path        string
	Size        int64
	ModTime     time.Time
	IsDir       bool
	ContentType string
	Metadata    map[string]string
}

// ============================================================================
// Core Interface
// ============================================================================

// HeaderSource is the read side the analyzer needs from a backend: metadata
// and a bounded prefix of the content. Nothing else is ever read unless the
// source also implements CanOpen and checksums are requested.
type HeaderSource interface {
	// Stat returns file/directory metadata.
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// ReadHeader returns up to n leading bytes of the file at path. A file
	// shorter than n yields all of its bytes without error.
	ReadHeader(ctx context.Context, path string, n int) ([]byte, error)
}

// ============================================================================
// Optional Capability Interfaces
// ============================================================================
// Sources may expose more than HeaderSource. Use a type assertion:
//
//	if lister, ok := src.(CanList); ok {
//	    files, err := lister.ListContents(ctx, "incoming", true)
//	}

// CanList indicates the source can enumerate a directory (or key prefix).
type CanList interface {
	// ListContents lists directory contents.
	// If recursive is true, includes all descendants.
	ListContents(ctx context.Context, path string, recursive bool) ([]FileInfo, error)
}

// CanOpen indicates the source can stream full file content, which is
// needed for checksums.
type CanOpen interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// CanWatch indicates the source can report files as they are created or
// written under dir. Both channels are closed when ctx is done.
type CanWatch interface {
	Watch(ctx context.Context, dir string) (<-chan string, <-chan error, error)
}

// ============================================================================
// Checksums
// ============================================================================

// ChecksumAlgorithm represents a supported checksum algorithm
type ChecksumAlgorithm string

const (
	// ChecksumMD5 is the MD5 hash algorithm (128-bit, fast but not cryptographically secure)
	ChecksumMD5 ChecksumAlgorithm = "md5"
	// ChecksumSHA1 is the SHA-1 hash algorithm (160-bit, legacy)
	ChecksumSHA1 ChecksumAlgorithm = "sha1"
	// ChecksumSHA256 is the SHA-256 hash algorithm (256-bit, recommended)
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
	// ChecksumSHA512 is the SHA-512 hash algorithm
	ChecksumSHA512 ChecksumAlgorithm = "sha512"
	// ChecksumCRC32 is the CRC32 checksum (32-bit, for integrity only)
	ChecksumCRC32 ChecksumAlgorithm = "crc32"
	// ChecksumXXHash is the xxHash algorithm (64-bit, extremely fast)
	ChecksumXXHash ChecksumAlgorithm = "xxhash"
)

// ReadHeaderFrom reads up to n bytes from r. Hitting EOF early is not an
// error; the bytes read so far are returned.
func ReadHeaderFrom(r io.Reader, n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}
	return buf[:read], nil
}
