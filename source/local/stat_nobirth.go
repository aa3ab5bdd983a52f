//go:build unix && !darwin

package local

import (
	"syscall"
	"time"
)

// extractBirthTime returns nil; Stat_t carries no birth time on these platforms.
func extractBirthTime(stat *syscall.Stat_t) *time.Time {
	return nil
}
