// Package sftp reads file headers from a remote host over SFTP.
package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/gobeaver/filesniff"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Config holds SFTP connection configuration
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	PrivateKey []byte // PEM encoded private key
	BasePath   string
}

// Source reads headers from files on an SFTP server. A source created with
// Dial reconnects when the connection drops.
type Source struct {
	mu       sync.Mutex
	client   *sftp.Client
	sshConn  *ssh.Client
	basePath string
	config   *Config
}

// SourceOption configures a Source
type SourceOption func(*Source)

// WithBasePath confines the source to a directory on the server
func WithBasePath(basePath string) SourceOption {
	return func(s *Source) {
		s.basePath = basePath
	}
}

// Dial connects to the server described by cfg
func Dial(cfg Config, options ...SourceOption) (*Source, error) {
	s := &Source{
		basePath: cfg.BasePath,
		config:   &cfg,
	}
	for _, option := range options {
		option(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.connect(); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an established client. The caller owns the client's lifetime.
func New(client *sftp.Client, options ...SourceOption) *Source {
	s := &Source{client: client}
	for _, option := range options {
		option(s)
	}
	return s
}

// connect establishes the SSH and SFTP connections. s.mu must be held.
func (s *Source) connect() error {
	sshConfig := &ssh.ClientConfig{
		User: s.config.Username,
		// TODO: verify host keys against known_hosts
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	if len(s.config.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(s.config.PrivateKey)
		if err != nil {
			return fmt.Errorf("failed to parse private key: %w", err)
		}
		sshConfig.Auth = append(sshConfig.Auth, ssh.PublicKeys(signer))
	}
	if s.config.Password != "" {
		sshConfig.Auth = append(sshConfig.Auth, ssh.Password(s.config.Password))
	}
	if len(sshConfig.Auth) == 0 {
		return errors.New("no authentication method provided")
	}

	port := s.config.Port
	if port == 0 {
		port = 22
	}

	sshConn, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", s.config.Host, port), sshConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SSH: %w", err)
	}

	client, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return fmt.Errorf("failed to create SFTP client: %w", err)
	}

	s.sshConn = sshConn
	s.client = client
	return nil
}

// Close closes the SFTP and SSH connections
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			errs = append(errs, err)
		}
		s.client = nil
	}
	if s.sshConn != nil {
		if err := s.sshConn.Close(); err != nil {
			errs = append(errs, err)
		}
		s.sshConn = nil
	}
	return errors.Join(errs...)
}

// conn returns a live client, redialing if the source owns the connection
func (s *Source) conn() (*sftp.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		if s.client == nil {
			return nil, errors.New("sftp client is closed")
		}
		return s.client, nil
	}

	if s.client != nil {
		if _, err := s.client.Getwd(); err == nil {
			return s.client, nil
		}
		s.client.Close()
		if s.sshConn != nil {
			s.sshConn.Close()
		}
		s.client, s.sshConn = nil, nil
	}

	if err := s.connect(); err != nil {
		return nil, err
	}
	return s.client, nil
}

// resolve maps a source path to a server path
func (s *Source) resolve(op, p string) (string, error) {
	if s.basePath == "" {
		clean := path.Clean(p)
		if clean == ".." || strings.HasPrefix(clean, "../") {
			return "", filesniff.WrapPathErr(op, p, filesniff.ErrNotAllowed)
		}
		return clean, nil
	}
	return path.Join(s.basePath, path.Clean("/"+p)), nil
}

func (s *Source) prepare(ctx context.Context, op, p string) (*sftp.Client, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	full, err := s.resolve(op, p)
	if err != nil {
		return nil, "", err
	}
	client, err := s.conn()
	if err != nil {
		return nil, "", filesniff.WrapPathErr(op, p, err)
	}
	return client, full, nil
}

// Stat implements filesniff.HeaderSource
func (s *Source) Stat(ctx context.Context, p string) (*filesniff.FileInfo, error) {
	client, full, err := s.prepare(ctx, "stat", p)
	if err != nil {
		return nil, err
	}

	info, err := client.Stat(full)
	if err != nil {
		return nil, mapSFTPError("stat", p, err)
	}

	return &filesniff.FileInfo{
		Name:    path.Base(p),
		Path:    p,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

// ReadHeader implements filesniff.HeaderSource
func (s *Source) ReadHeader(ctx context.Context, p string, n int) ([]byte, error) {
	client, full, err := s.prepare(ctx, "readheader", p)
	if err != nil {
		return nil, err
	}

	f, err := client.Open(full)
	if err != nil {
		return nil, mapSFTPError("readheader", p, err)
	}
	defer f.Close()

	header, err := filesniff.ReadHeaderFrom(f, n)
	if err != nil {
		return nil, filesniff.WrapPathErr("readheader", p, err)
	}
	return header, nil
}

// Open implements filesniff.CanOpen
func (s *Source) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	client, full, err := s.prepare(ctx, "open", p)
	if err != nil {
		return nil, err
	}

	f, err := client.Open(full)
	if err != nil {
		return nil, mapSFTPError("open", p, err)
	}
	return f, nil
}

// ListContents implements filesniff.CanList
func (s *Source) ListContents(ctx context.Context, p string, recursive bool) ([]filesniff.FileInfo, error) {
	client, full, err := s.prepare(ctx, "listcontents", p)
	if err != nil {
		return nil, err
	}

	info, err := client.Stat(full)
	if err != nil {
		return nil, mapSFTPError("listcontents", p, err)
	}
	if !info.IsDir() {
		return nil, filesniff.WrapPathErr("listcontents", p, filesniff.ErrNotDir)
	}

	var files []filesniff.FileInfo
	if err := listDir(ctx, client, full, strings.TrimPrefix(path.Clean("/"+p), "/"), recursive, &files); err != nil {
		return nil, mapSFTPError("listcontents", p, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func listDir(ctx context.Context, client *sftp.Client, full, rel string, recursive bool, results *[]filesniff.FileInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := client.ReadDir(full)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		entryRel := path.Join(rel, entry.Name())
		*results = append(*results, filesniff.FileInfo{
			Name:    entry.Name(),
			Path:    entryRel,
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
			IsDir:   entry.IsDir(),
		})

		if recursive && entry.IsDir() {
			if err := listDir(ctx, client, path.Join(full, entry.Name()), entryRel, true, results); err != nil {
				return err
			}
		}
	}
	return nil
}

// mapSFTPError maps SFTP errors to filesniff errors
func mapSFTPError(op, p string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, os.ErrNotExist):
		return filesniff.WrapPathErr(op, p, filesniff.ErrNotExist)
	case errors.Is(err, os.ErrPermission):
		return filesniff.WrapPathErr(op, p, filesniff.ErrPermission)
	}

	return filesniff.WrapPathErr(op, p, err)
}

var (
	_ filesniff.HeaderSource = (*Source)(nil)
	_ filesniff.CanList      = (*Source)(nil)
	_ filesniff.CanOpen      = (*Source)(nil)
	_ io.Closer              = (*Source)(nil)
)
