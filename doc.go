// Package filesniff identifies what files actually are from their leading
// bytes and flags files whose extension disagrees with their content.
//
// Identification works on a bounded header (at most 64 bytes by default)
// read through a [HeaderSource]. The header is matched against a registry of
// magic-byte signatures; the longest matching signature wins and ties go to
// the signature registered first. When nothing matches, two heuristics are
// tried (DOS executable stubs and RIFF containers). Optionally the whole
// decision can be delegated to an external content sniffer.
//
// # Sources
//
// Sources are registered by name and selected with Config.Source:
//
//   - Local filesystem (github.com/gobeaver/filesniff/source/local)
//   - In-memory (github.com/gobeaver/filesniff/source/memory)
//   - Amazon S3 (github.com/gobeaver/filesniff/source/s3)
//   - Google Cloud Storage (github.com/gobeaver/filesniff/source/gcs)
//   - Azure Blob Storage (github.com/gobeaver/filesniff/source/azure)
//   - SFTP (github.com/gobeaver/filesniff/source/sftp)
//   - Several of the above under virtual prefixes ([Mounts], source "mount")
//
// The cloud sources are separate Go modules, so you only pull the SDKs you
// use. Import a source for its side effect to register it:
//
//	import _ "github.com/gobeaver/filesniff/source/s3"
//
// # Basic Usage
//
//	a, err := filesniff.New(nil) // configuration from BEAVER_FILESNIFF_* variables
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fa, err := a.Analyze(ctx, "upload.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(fa.Identification.TypeName, fa.ExtensionMatch)
//
// Many files are processed with [Analyzer.AnalyzeBatch], which runs
// Config.Workers analyses in parallel and delivers each result to a callback
// one at a time.
//
// # Optional Capabilities
//
// Sources may implement capability interfaces:
//
//	// Directory expansion
//	if lister, ok := src.(filesniff.CanList); ok {
//	    files, err := lister.ListContents(ctx, "incoming", true)
//	}
//
//	// Full-content checksums
//	if opener, ok := src.(filesniff.CanOpen); ok {
//	    rc, err := opener.Open(ctx, "incoming/a.bin")
//	}
//
//	// Notification of new and rewritten files
//	if watcher, ok := src.(filesniff.CanWatch); ok {
//	    paths, errs, err := watcher.Watch(ctx, "incoming")
//	}
//
// # Error Handling
//
// A missing file or a directory is an error from [Analyzer.Analyze]. A file
// that exists but cannot be read is not: the analysis comes back with an
// Unknown identification and HeaderErr set.
//
//	fa, err := a.Analyze(ctx, "missing.bin")
//	if filesniff.IsNotExist(err) {
//	    // File does not exist
//	}
//
//	var pathErr *filesniff.PathError
//	if errors.As(err, &pathErr) {
//	    fmt.Println(pathErr.Op, pathErr.Path)
//	}
package filesniff
