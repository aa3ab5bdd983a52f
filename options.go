package filesniff

import (
	"time"

	"github.com/gobeaver/filesniff/internal/logging"
	"github.com/gobeaver/filesniff/signature"
)

// Option represents an analyzer construction option
type Option func(*Options)

// Options contains everything an Analyzer can be given besides its Config
type Options struct {
	// Source overrides the source created from Config.Source
	Source HeaderSource

	// Registry replaces the default signature registry
	Registry *signature.Registry

	// External is the backend used when Config.UseExternalClassifier is set.
	// When nil, a filetype-based sniffer reading through the source is used.
	External signature.ExternalClassifier

	// Logger receives analyzer diagnostics. Defaults to a NullLogger.
	Logger logging.Logger

	// Cache, when set, remembers analyses of unchanged files.
	Cache    Cache
	CacheTTL time.Duration
}

// WithSource sets the header source
func WithSource(src HeaderSource) Option {
	return func(o *Options) {
		o.Source = src
	}
}

// WithRegistry sets the signature registry
func WithRegistry(reg *signature.Registry) Option {
	return func(o *Options) {
		o.Registry = reg
	}
}

// WithExternalClassifier sets the external classifier backend
func WithExternalClassifier(ext signature.ExternalClassifier) Option {
	return func(o *Options) {
		o.External = ext
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithCache reuses analyses of files whose path, size and modification
// time are unchanged. A ttl of 0 keeps entries until the cache is cleared.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(o *Options) {
		o.Cache = cache
		o.CacheTTL = ttl
	}
}

func processOptions(options ...Option) *Options {
	opts := &Options{}
	for _, option := range options {
		option(opts)
	}
	return opts
}
