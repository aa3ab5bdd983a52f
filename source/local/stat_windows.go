//go:build windows

package local

import (
	"os"
	"syscall"
	"time"
)

// extractPlatformInfo reports the creation time Windows records natively.
// Owner lookup needs GetSecurityInfo and is not attempted.
func extractPlatformInfo(info os.FileInfo) map[string]string {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return nil
	}

	t := time.Unix(0, data.CreationTime.Nanoseconds())
	if t.IsZero() {
		return nil
	}
	return map[string]string{"created": t.UTC().Format(time.RFC3339)}
}
