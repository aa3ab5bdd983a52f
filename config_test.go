package filesniff

import (
	"os"
	"strings"
	"testing"
)

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    Config
	}{
		{
			name:    "default values",
			envVars: map[string]string{},
			want: Config{
				Source:     "local",
				S3Region:   "us-east-1",
				SFTPPort:   22,
				HeaderSize: 64,
				DumpSize:   32,
				Workers:    4,
				Output:     "text",
				Color:      true,
				LogLevel:   "warn",
				LogFormat:  "text",
			},
		},
		{
			name: "s3 configuration",
			envVars: map[string]string{
				"BEAVER_FILESNIFF_SOURCE":               "s3",
				"BEAVER_FILESNIFF_S3_BUCKET":            "intake",
				"BEAVER_FILESNIFF_S3_PREFIX":            "uploads/",
				"BEAVER_FILESNIFF_S3_REGION":            "eu-west-1",
				"BEAVER_FILESNIFF_S3_ENDPOINT":          "http://localhost:9000",
				"BEAVER_FILESNIFF_S3_FORCE_PATH_STYLE":  "true",
				"BEAVER_FILESNIFF_S3_ACCESS_KEY_ID":     "key",
				"BEAVER_FILESNIFF_S3_SECRET_ACCESS_KEY": "secret",
			},
			want: Config{
				Source:            "s3",
				S3Bucket:          "intake",
				S3Prefix:          "uploads/",
				S3Region:          "eu-west-1",
				S3Endpoint:        "http://localhost:9000",
				S3ForcePathStyle:  true,
				S3AccessKeyID:     "key",
				S3SecretAccessKey: "secret",
				SFTPPort:          22,
				HeaderSize:        64,
				DumpSize:          32,
				Workers:           4,
				Output:            "text",
				Color:             true,
				LogLevel:          "warn",
				LogFormat:         "text",
			},
		},
		{
			name: "identification and batch settings",
			envVars: map[string]string{
				"BEAVER_FILESNIFF_LOCAL_BASE_PATH":         "/srv/intake",
				"BEAVER_FILESNIFF_HEADER_SIZE":             "48",
				"BEAVER_FILESNIFF_DUMP_SIZE":               "16",
				"BEAVER_FILESNIFF_USE_EXTERNAL_CLASSIFIER": "true",
				"BEAVER_FILESNIFF_WORKERS":                 "8",
				"BEAVER_FILESNIFF_INCLUDE":                 "*.exe,*.dll",
				"BEAVER_FILESNIFF_EXCLUDE":                 "**/.git/**",
				"BEAVER_FILESNIFF_RECURSIVE":               "true",
				"BEAVER_FILESNIFF_CHECKSUMS":               "sha256,xxhash",
				"BEAVER_FILESNIFF_OUTPUT":                  "json",
				"BEAVER_FILESNIFF_COLOR":                   "false",
				"BEAVER_FILESNIFF_LOG_LEVEL":               "debug",
				"BEAVER_FILESNIFF_LOG_FORMAT":              "json",
			},
			want: Config{
				Source:                "local",
				LocalBasePath:         "/srv/intake",
				S3Region:              "us-east-1",
				SFTPPort:              22,
				HeaderSize:            48,
				DumpSize:              16,
				UseExternalClassifier: true,
				Workers:               8,
				Include:               "*.exe,*.dll",
				Exclude:               "**/.git/**",
				Recursive:             true,
				Checksums:             "sha256,xxhash",
				Output:                "json",
				Color:                 false,
				LogLevel:              "debug",
				LogFormat:             "json",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				k := k
				os.Setenv(k, v)
				t.Cleanup(func() { os.Unsetenv(k) })
			}

			cfg, err := GetConfig()
			if err != nil {
				t.Fatalf("GetConfig() error = %v", err)
			}

			if *cfg != tt.want {
				t.Errorf("GetConfig() =\n%+v\nwant\n%+v", *cfg, tt.want)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Source:     "local",
		HeaderSize: 64,
		DumpSize:   32,
		Workers:    4,
		Output:     "text",
		LogLevel:   "warn",
		LogFormat:  "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing source", mutate: func(c *Config) { c.Source = "" }, wantErr: "source is required"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Source = "s3" }, wantErr: "S3 bucket"},
		{name: "gcs without bucket", mutate: func(c *Config) { c.Source = "gcs" }, wantErr: "GCS bucket"},
		{name: "azure without container", mutate: func(c *Config) { c.Source = "azure"; c.AzureAccountName = "acct" }, wantErr: "Azure"},
		{name: "sftp without host", mutate: func(c *Config) { c.Source = "sftp" }, wantErr: "SFTP host"},
		{name: "mount without table", mutate: func(c *Config) { c.Source = "mount" }, wantErr: "mounts are required"},
		{name: "malformed mount", mutate: func(c *Config) { c.Source = "mount"; c.Mounts = "/disk" }, wantErr: "prefix=source"},
		{name: "nested mount", mutate: func(c *Config) { c.Source = "mount"; c.Mounts = "/m=mount" }, wantErr: "cannot nest"},
		{name: "valid mount", mutate: func(c *Config) { c.Source = "mount"; c.Mounts = "/disk=local, /mem=memory" }},
		{name: "header too large", mutate: func(c *Config) { c.HeaderSize = 65 }, wantErr: "header size"},
		{name: "header zero", mutate: func(c *Config) { c.HeaderSize = 0 }, wantErr: "header size"},
		{name: "header below 32", mutate: func(c *Config) { c.HeaderSize = 31; c.DumpSize = 16 }, wantErr: "header size"},
		{name: "header at minimum", mutate: func(c *Config) { c.HeaderSize = 32 }},
		{name: "dump larger than header", mutate: func(c *Config) { c.HeaderSize = 40; c.DumpSize = 48 }, wantErr: "dump size"},
		{name: "no workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: "workers"},
		{name: "bad output", mutate: func(c *Config) { c.Output = "xml" }, wantErr: "output format"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log level"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "log format"},
		{name: "bad checksum", mutate: func(c *Config) { c.Checksums = "sha256, md4" }, wantErr: "unsupported checksum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Lists(t *testing.T) {
	cfg := &Config{
		Include:   " *.png , ,*.jpg",
		Exclude:   "",
		Checksums: "SHA256,xxhash",
	}

	if got := cfg.IncludePatterns(); len(got) != 2 || got[0] != "*.png" || got[1] != "*.jpg" {
		t.Errorf("IncludePatterns() = %q", got)
	}
	if got := cfg.ExcludePatterns(); got != nil {
		t.Errorf("ExcludePatterns() = %q, want nil", got)
	}

	algos, err := cfg.ChecksumAlgorithms()
	if err != nil {
		t.Fatalf("ChecksumAlgorithms() error = %v", err)
	}
	if len(algos) != 2 || algos[0] != ChecksumSHA256 || algos[1] != ChecksumXXHash {
		t.Errorf("ChecksumAlgorithms() = %v", algos)
	}
}
