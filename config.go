package filesniff

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobeaver/beaver-kit/config"
	"github.com/gobeaver/filesniff/signature"
)

type Config struct {
	// Source to read headers from (local, memory, s3, gcs, azure, sftp, mount)
	Source string `env:"FILESNIFF_SOURCE,default:local"`

	// Mount table for the mount source, e.g. "/disk=local,/bucket=s3"
	Mounts string `env:"FILESNIFF_MOUNTS"`

	// Local source configuration. Empty means paths are used as given.
	LocalBasePath string `env:"FILESNIFF_LOCAL_BASE_PATH"`

	// S3 source configuration
	S3Region          string `env:"FILESNIFF_S3_REGION,default:us-east-1"`
	S3Bucket          string `env:"FILESNIFF_S3_BUCKET"`
	S3Prefix          string `env:"FILESNIFF_S3_PREFIX"`
	S3Endpoint        string `env:"FILESNIFF_S3_ENDPOINT"`
	S3AccessKeyID     string `env:"FILESNIFF_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"FILESNIFF_S3_SECRET_ACCESS_KEY"`
	S3ForcePathStyle  bool   `env:"FILESNIFF_S3_FORCE_PATH_STYLE,default:false"`

	// GCS (Google Cloud Storage) source configuration
	GCSBucket          string `env:"FILESNIFF_GCS_BUCKET"`
	GCSPrefix          string `env:"FILESNIFF_GCS_PREFIX"`
	GCSCredentialsFile string `env:"FILESNIFF_GCS_CREDENTIALS_FILE"` // Path to service account JSON

	// Azure Blob Storage source configuration
	AzureAccountName   string `env:"FILESNIFF_AZURE_ACCOUNT_NAME"`
	AzureAccountKey    string `env:"FILESNIFF_AZURE_ACCOUNT_KEY"`
	AzureContainerName string `env:"FILESNIFF_AZURE_CONTAINER_NAME"`
	AzurePrefix        string `env:"FILESNIFF_AZURE_PREFIX"`
	AzureEndpoint      string `env:"FILESNIFF_AZURE_ENDPOINT"` // Optional custom endpoint

	// SFTP source configuration
	SFTPHost       string `env:"FILESNIFF_SFTP_HOST"`
	SFTPPort       int    `env:"FILESNIFF_SFTP_PORT,default:22"`
	SFTPUsername   string `env:"FILESNIFF_SFTP_USERNAME"`
	SFTPPassword   string `env:"FILESNIFF_SFTP_PASSWORD"`
	SFTPPrivateKey string `env:"FILESNIFF_SFTP_PRIVATE_KEY"` // Path to private key file
	SFTPBasePath   string `env:"FILESNIFF_SFTP_BASE_PATH"`

	// Identification
	HeaderSize            int  `env:"FILESNIFF_HEADER_SIZE,default:64"`
	DumpSize              int  `env:"FILESNIFF_DUMP_SIZE,default:32"`
	UseExternalClassifier bool `env:"FILESNIFF_USE_EXTERNAL_CLASSIFIER,default:false"`

	// Batch processing
	Workers   int    `env:"FILESNIFF_WORKERS,default:4"`
	Include   string `env:"FILESNIFF_INCLUDE"` // comma-separated globs
	Exclude   string `env:"FILESNIFF_EXCLUDE"` // comma-separated globs
	Recursive bool   `env:"FILESNIFF_RECURSIVE,default:false"`
	Checksums string `env:"FILESNIFF_CHECKSUMS"` // comma-separated algorithms

	// Output
	Output    string `env:"FILESNIFF_OUTPUT,default:text"`
	Color     bool   `env:"FILESNIFF_COLOR,default:true"`
	LogLevel  string `env:"FILESNIFF_LOG_LEVEL,default:warn"`
	LogFormat string `env:"FILESNIFF_LOG_FORMAT,default:text"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Builder loads configuration under a custom environment prefix
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Config loads the configuration using the builder's prefix
func (b *Builder) Config() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New creates an Analyzer from the configuration under the builder's prefix
func (b *Builder) New(opts ...Option) (*Analyzer, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}

	switch c.Source {
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3 bucket is required for S3 source")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return errors.New("GCS bucket is required for GCS source")
		}
	case "azure":
		if c.AzureAccountName == "" || c.AzureContainerName == "" {
			return errors.New("Azure account name and container are required for Azure source")
		}
	case "sftp":
		if c.SFTPHost == "" || c.SFTPUsername == "" {
			return errors.New("SFTP host and username are required for SFTP source")
		}
	case "mount":
		entries, err := c.MountEntries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return errors.New("mounts are required for mount source")
		}
	}

	if c.HeaderSize < signature.MinHeaderSize || c.HeaderSize > signature.MaxHeaderSize {
		return fmt.Errorf("header size must be between %d and %d (got %d)",
			signature.MinHeaderSize, signature.MaxHeaderSize, c.HeaderSize)
	}
	if c.DumpSize < 0 || c.DumpSize > c.HeaderSize {
		return fmt.Errorf("dump size must be between 0 and the header size %d (got %d)", c.HeaderSize, c.DumpSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1 (got %d)", c.Workers)
	}

	switch c.Output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format: %s", c.Output)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.LogFormat)
	}

	if _, err := c.ChecksumAlgorithms(); err != nil {
		return err
	}

	return nil
}

// IncludePatterns returns the include globs
func (c *Config) IncludePatterns() []string {
	return splitList(c.Include)
}

// ExcludePatterns returns the exclude globs
func (c *Config) ExcludePatterns() []string {
	return splitList(c.Exclude)
}

// MountEntry is one "prefix=source" pair of Config.Mounts
type MountEntry struct {
	Path   string
	Source string
}

// MountEntries parses the mount table in declaration order
func (c *Config) MountEntries() ([]MountEntry, error) {
	var entries []MountEntry
	for _, item := range splitList(c.Mounts) {
		mountPath, source, ok := strings.Cut(item, "=")
		mountPath, source = strings.TrimSpace(mountPath), strings.TrimSpace(source)
		if !ok || mountPath == "" || source == "" {
			return nil, fmt.Errorf("invalid mount %q: want prefix=source", item)
		}
		if source == "mount" {
			return nil, fmt.Errorf("invalid mount %q: mounts cannot nest", item)
		}
		entries = append(entries, MountEntry{Path: mountPath, Source: source})
	}
	return entries, nil
}

// ChecksumAlgorithms parses the configured checksum list
func (c *Config) ChecksumAlgorithms() ([]ChecksumAlgorithm, error) {
	names := splitList(c.Checksums)
	if len(names) == 0 {
		return nil, nil
	}

	algorithms := make([]ChecksumAlgorithm, 0, len(names))
	for _, name := range names {
		algo := ChecksumAlgorithm(strings.ToLower(name))
		if _, err := NewHasher(algo); err != nil {
			return nil, err
		}
		algorithms = append(algorithms, algo)
	}
	return algorithms, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
