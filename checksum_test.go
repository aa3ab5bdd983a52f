package filesniff

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCalculateChecksum(t *testing.T) {
	tests := []struct {
		algo ChecksumAlgorithm
		want string
	}{
		{ChecksumMD5, "900150983cd24fb0d6963f7d28e17f72"},
		{ChecksumSHA1, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{ChecksumSHA256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{ChecksumCRC32, "352441c2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.algo), func(t *testing.T) {
			got, err := CalculateChecksum(strings.NewReader("abc"), tt.algo)
			if err != nil {
				t.Fatalf("CalculateChecksum() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CalculateChecksum() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCalculateChecksums_SinglePass(t *testing.T) {
	data := bytes.Repeat([]byte("filesniff"), 1000)

	sums, err := CalculateChecksums(bytes.NewReader(data), []ChecksumAlgorithm{ChecksumSHA256, ChecksumXXHash, ChecksumSHA256})
	if err != nil {
		t.Fatalf("CalculateChecksums() error = %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 checksums, got %d", len(sums))
	}

	for algo, sum := range sums {
		single, err := CalculateChecksum(bytes.NewReader(data), algo)
		if err != nil {
			t.Fatalf("CalculateChecksum(%s) error = %v", algo, err)
		}
		if single != sum {
			t.Errorf("%s: multi-pass %s != single %s", algo, sum, single)
		}
	}
	if len(sums[ChecksumXXHash]) != 16 {
		t.Errorf("xxhash should be 64-bit hex, got %q", sums[ChecksumXXHash])
	}
}

func TestNewHasher_Unsupported(t *testing.T) {
	_, err := NewHasher("md4")
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
	if _, err := CalculateChecksums(strings.NewReader("x"), nil); err == nil {
		t.Error("expected error for empty algorithm list")
	}
}

type headerOnlySource struct{}

func (headerOnlySource) Stat(ctx context.Context, path string) (*FileInfo, error) {
	return &FileInfo{Name: path, Path: path}, nil
}

func (headerOnlySource) ReadHeader(ctx context.Context, path string, n int) ([]byte, error) {
	return nil, nil
}

func TestSourceChecksums_NeedsCanOpen(t *testing.T) {
	_, err := SourceChecksums(context.Background(), headerOnlySource{}, "a", []ChecksumAlgorithm{ChecksumMD5})
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) { return 0, io.ErrClosedPipe }

func TestReadHeaderFrom(t *testing.T) {
	t.Run("short input", func(t *testing.T) {
		got, err := ReadHeaderFrom(strings.NewReader("MZ"), 64)
		if err != nil || string(got) != "MZ" {
			t.Errorf("ReadHeaderFrom() = %q, %v", got, err)
		}
	})

	t.Run("bounded", func(t *testing.T) {
		got, err := ReadHeaderFrom(strings.NewReader("%PDF-1.7"), 4)
		if err != nil || string(got) != "%PDF" {
			t.Errorf("ReadHeaderFrom() = %q, %v", got, err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := ReadHeaderFrom(strings.NewReader(""), 64)
		if err != nil || len(got) != 0 {
			t.Errorf("ReadHeaderFrom() = %q, %v", got, err)
		}
	})

	t.Run("reader failure", func(t *testing.T) {
		_, err := ReadHeaderFrom(errReader{}, 64)
		if !IsReadFailure(err) {
			t.Errorf("expected read failure, got %v", err)
		}
	})
}
