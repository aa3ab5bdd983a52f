package gcs

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/gobeaver/filesniff"
	"google.golang.org/api/option"
)

func init() {
	filesniff.RegisterSource("gcs", func(cfg *filesniff.Config) (filesniff.HeaderSource, error) {
		// Without a credentials file the client falls back to
		// GOOGLE_APPLICATION_CREDENTIALS or the default credentials.
		var clientOpts []option.ClientOption
		if cfg.GCSCredentialsFile != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
		}

		client, err := storage.NewClient(context.Background(), clientOpts...)
		if err != nil {
			return nil, err
		}

		var options []SourceOption
		if cfg.GCSPrefix != "" {
			options = append(options, WithPrefix(cfg.GCSPrefix))
		}

		return New(client, cfg.GCSBucket, options...), nil
	})
}
