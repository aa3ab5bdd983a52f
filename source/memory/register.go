package memory

import "github.com/gobeaver/filesniff"

func init() {
	filesniff.RegisterSource("memory", func(cfg *filesniff.Config) (filesniff.HeaderSource, error) {
		return New(), nil
	})
}
