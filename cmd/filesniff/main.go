// Command filesniff identifies files by their magic bytes.
//
// Build metadata is injected with -ldflags, for example:
//
//	go build -ldflags "-X github.com/gobeaver/filesniff/internal/cli.Version=1.2.0"
package main

import (
	"fmt"
	"os"

	"github.com/gobeaver/filesniff/internal/cli"

	// Remote sources
	_ "github.com/gobeaver/filesniff/source/azure"
	_ "github.com/gobeaver/filesniff/source/gcs"
	_ "github.com/gobeaver/filesniff/source/s3"
	_ "github.com/gobeaver/filesniff/source/sftp"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}
