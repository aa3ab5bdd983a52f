package filesniff

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Filter selects which listed files are analyzed. Patterns are globs where
// "*" stays within one path segment and "**" spans segments. A pattern
// matches when it matches either the slash-separated path or the base name.
type Filter struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewFilter compiles include and exclude patterns
func NewFilter(include, exclude []string) (*Filter, error) {
	inc, err := compileGlobs(include)
	if err != nil {
		return nil, err
	}
	exc, err := compileGlobs(exclude)
	if err != nil {
		return nil, err
	}
	return &Filter{include: inc, exclude: exc}, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Match reports whether p passes the filter. Exclusions win; an empty
// include list admits everything not excluded.
func (f *Filter) Match(p string) bool {
	if f == nil {
		return true
	}

	slashed := filepath.ToSlash(p)
	base := path.Base(slashed)

	for _, g := range f.exclude {
		if g.Match(slashed) || g.Match(base) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(slashed) || g.Match(base) {
			return true
		}
	}
	return false
}
