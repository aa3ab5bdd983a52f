package filesniff

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gobeaver/filesniff/internal/logging"
	"github.com/gobeaver/filesniff/signature"
	"github.com/gobeaver/filesniff/sniff"
)

// Global instance
var (
	defaultAnalyzer *Analyzer
	defaultOnce     sync.Once
	defaultErr      error
)

// Analyzer runs the identification pipeline for files served by a
// HeaderSource. It is safe for concurrent use.
type Analyzer struct {
	cfg        *Config
	source     HeaderSource
	classifier *signature.Classifier
	filter     *Filter
	checksums  []ChecksumAlgorithm
	logger     logging.Logger
	cache      Cache
	cacheTTL   time.Duration
}

// New creates an analyzer from cfg. A nil cfg is loaded from the environment.
func New(cfg *Config, opts ...Option) (*Analyzer, error) {
	if cfg == nil {
		var err error
		if cfg, err = GetConfig(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := processOptions(opts...)

	src := o.Source
	if src == nil {
		var err error
		if src, err = CreateSource(cfg); err != nil {
			return nil, fmt.Errorf("failed to create source: %w", err)
		}
	}

	external := o.External
	if cfg.UseExternalClassifier && external == nil {
		external = sniff.New(src)
	}

	classifier, err := signature.New(signature.Options{
		Registry:              o.Registry,
		External:              external,
		UseExternalClassifier: cfg.UseExternalClassifier,
	})
	if err != nil {
		return nil, err
	}

	filter, err := NewFilter(cfg.IncludePatterns(), cfg.ExcludePatterns())
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	checksums, err := cfg.ChecksumAlgorithms()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := o.Logger
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	return &Analyzer{
		cfg:        cfg,
		source:     src,
		classifier: classifier,
		filter:     filter,
		checksums:  checksums,
		logger:     logger,
		cache:      o.Cache,
		cacheTTL:   o.CacheTTL,
	}, nil
}

// Init initializes the global analyzer
func Init(configs ...*Config) error {
	defaultOnce.Do(func() {
		var cfg *Config
		if len(configs) > 0 {
			cfg = configs[0]
		}
		defaultAnalyzer, defaultErr = New(cfg)
	})

	return defaultErr
}

// Default returns the global analyzer, initializing it from the environment if needed
func Default() (*Analyzer, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	return defaultAnalyzer, nil
}

// Reset clears the global instance (for testing)
func Reset() {
	defaultAnalyzer = nil
	defaultOnce = sync.Once{}
	defaultErr = nil
}

// Config returns the analyzer's configuration
func (a *Analyzer) Config() *Config {
	return a.cfg
}

// Source returns the header source
func (a *Analyzer) Source() HeaderSource {
	return a.source
}

// Classifier returns the classifier
func (a *Analyzer) Classifier() *signature.Classifier {
	return a.classifier
}

// Filter returns the include/exclude filter applied by Expand
func (a *Analyzer) Filter() *Filter {
	return a.filter
}

// Analyze inspects a single file. A missing file or a directory is an error;
// an unreadable header is not, and yields an Unknown identification with
// HeaderErr set.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*FileAnalysis, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	info, err := a.source.Stat(ctx, path)
	if err != nil {
		return nil, WrapPathErr("analyze", path, err)
	}
	if info.IsDir {
		return nil, &PathError{Op: "analyze", Path: path, Err: ErrIsDir}
	}

	var cacheKey string
	if a.cache != nil {
		cacheKey = analysisKey(info)
		if v, ok := a.cache.Get(cacheKey); ok {
			if cached, ok := v.(*FileAnalysis); ok {
				return cached.clone(), nil
			}
		}
	}

	ext := signature.NormalizeExtension(info.Name)
	fa := &FileAnalysis{
		Name:         info.Name,
		Path:         info.Path,
		Size:         info.Size,
		ModTime:      info.ModTime,
		Extension:    ext,
		DeclaredMIME: DeclaredMIME(ext),
	}

	header, err := a.source.ReadHeader(ctx, path, a.cfg.HeaderSize)
	if err != nil {
		fa.HeaderErr = WrapPathErr("readheader", path, err)
		fa.Header = []byte{}
		fa.Identification = signature.Unknown()
		a.logger.Warn(ctx, "header read failed", logging.Fields{"path": path, "error": err.Error()})
	} else {
		fa.Header = header
		fa.Identification = a.classifier.Identify(ctx, path, header)
	}

	fa.ExtensionMatch = signature.CheckExtension(ext, fa.Identification)

	a.logger.Debug(ctx, "classified", logging.Fields{
		"path":       path,
		"type":       fa.Identification.TypeName,
		"method":     string(fa.Identification.Method),
		"confidence": string(fa.Identification.Confidence),
		"extension":  fa.ExtensionMatch.String(),
		"bytes":      len(fa.Header),
	})

	if len(a.checksums) > 0 && fa.HeaderErr == nil {
		fa.Checksums, fa.ChecksumErr = SourceChecksums(ctx, a.source, path, a.checksums)
		if fa.ChecksumErr != nil {
			a.logger.Warn(ctx, "checksum failed", logging.Fields{"path": path, "error": fa.ChecksumErr.Error()})
		}
	}

	if a.cache != nil && fa.HeaderErr == nil && fa.ChecksumErr == nil {
		a.cache.Set(cacheKey, fa.clone(), a.cacheTTL)
	}

	return fa, nil
}

// Expand turns the given paths into the list of files to analyze.
// Directories are listed (recursively when configured) and their entries
// filtered; other paths pass through untouched, so missing files surface
// as per-file errors from Analyze.
func (a *Analyzer) Expand(ctx context.Context, paths []string) ([]string, error) {
	var out []string

	for _, p := range paths {
		info, err := a.source.Stat(ctx, p)
		if err != nil || !info.IsDir {
			out = append(out, p)
			continue
		}

		lister, ok := a.source.(CanList)
		if !ok {
			return nil, &PathError{Op: "expand", Path: p, Err: ErrNotSupported}
		}

		entries, err := lister.ListContents(ctx, p, a.cfg.Recursive)
		if err != nil {
			return nil, WrapPathErr("expand", p, err)
		}

		for _, entry := range entries {
			if entry.IsDir || !a.filter.Match(entry.Path) {
				continue
			}
			out = append(out, entry.Path)
		}
	}

	return out, nil
}
