package filesniff

import (
	"context"
	"sync"
	"time"

	"github.com/gobeaver/filesniff/internal/logging"
	"github.com/gobeaver/filesniff/signature"
	"github.com/google/uuid"
)

// BatchResult is delivered once per path. Exactly one of Analysis and Err
// is set.
type BatchResult struct {
	Path     string
	Analysis *FileAnalysis
	Err      error
}

// BatchSummary aggregates a batch run
type BatchSummary struct {
	ID         string        `json:"id" yaml:"id"`
	Total      int           `json:"total" yaml:"total"`
	Identified int           `json:"identified" yaml:"identified"`
	Mismatched int           `json:"mismatched" yaml:"mismatched"`
	Unreadable int           `json:"unreadable" yaml:"unreadable"`
	Failed     int           `json:"failed" yaml:"failed"`
	Duration   time.Duration `json:"-" yaml:"-"`
	DurationMS int64         `json:"duration_ms" yaml:"duration_ms"`
}

// AnalyzeBatch analyzes paths with Config.Workers workers. fn is called once
// per file, never concurrently, so each file's output stays together. There
// is no ordering guarantee between files. Cancelling ctx stops the batch
// between files; the summary covers what was done and ctx.Err() is returned.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, paths []string, fn func(BatchResult)) (*BatchSummary, error) {
	summary := &BatchSummary{ID: uuid.New().String()}
	logger := a.logger.WithFields(logging.Fields{"batch": summary.ID})
	start := time.Now()

	workers := a.cfg.Workers
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers < 1 {
		workers = 1
	}

	logger.Info(ctx, "batch started", logging.Fields{"files": len(paths), "workers": workers})

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				if ctx.Err() != nil {
					continue
				}

				fa, err := a.Analyze(ctx, p)

				mu.Lock()
				summary.record(fa, err)
				if fn != nil {
					fn(BatchResult{Path: p, Analysis: fa, Err: err})
				}
				mu.Unlock()

				if err != nil {
					logger.Error(ctx, "analysis failed", err, logging.Fields{"path": p})
				}
			}
		}()
	}

feed:
	for _, p := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()

	summary.Duration = time.Since(start)
	summary.DurationMS = summary.Duration.Milliseconds()

	logger.Info(ctx, "batch finished", logging.Fields{
		"total":      summary.Total,
		"identified": summary.Identified,
		"mismatched": summary.Mismatched,
		"unreadable": summary.Unreadable,
		"failed":     summary.Failed,
		"duration":   summary.Duration.String(),
	})

	return summary, ctx.Err()
}

func (s *BatchSummary) record(fa *FileAnalysis, err error) {
	s.Total++
	if err != nil {
		s.Failed++
		return
	}
	if fa.HeaderErr != nil {
		s.Unreadable++
	}
	if fa.Identification.Identified() {
		s.Identified++
	}
	if fa.ExtensionMatch == signature.VerdictMismatch {
		s.Mismatched++
	}
}
