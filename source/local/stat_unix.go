//go:build unix

package local

import (
	"os"
	"strconv"
	"syscall"
	"time"
)

// extractPlatformInfo reports owner ids and, where the platform records it,
// the creation time.
func extractPlatformInfo(info os.FileInfo) map[string]string {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}

	md := map[string]string{
		"uid": strconv.FormatUint(uint64(stat.Uid), 10),
		"gid": strconv.FormatUint(uint64(stat.Gid), 10),
	}
	if created := extractBirthTime(stat); created != nil {
		md["created"] = created.UTC().Format(time.RFC3339)
	}
	return md
}
