package local

import "github.com/gobeaver/filesniff"

func init() {
	filesniff.RegisterSource("local", func(cfg *filesniff.Config) (filesniff.HeaderSource, error) {
		return New(cfg.LocalBasePath)
	})
}
