//go:build !unix && !windows

package local

import "os"

func extractPlatformInfo(info os.FileInfo) map[string]string {
	return nil
}
