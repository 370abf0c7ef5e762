package crucible

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
)

// DestinationKind distinguishes the three Destination constructors.
type DestinationKind int

const (
	SameAsSource DestinationKind = iota
	Named
	Temp
)

// Destination owns the mapping between a source path and its mirror path.
// A zero Destination is not valid; construct with NewSameAsSource,
// NewNamedDestination, or NewTempDestination.
type Destination struct {
	kind       DestinationKind
	sourceDir  string
	destDir    string // empty iff kind == SameAsSource
	sessionID  string // random per-Destination id; embedded in a Temp destination's directory name
	tempOwned  bool
	closeOnce  sync.Once
	closeErr   error
}

// NewSameAsSource disables mirroring: every operation targets the source
// directory directly.
func NewSameAsSource(sourceDir string) *Destination {
	return &Destination{
		kind:      SameAsSource,
		sourceDir: sourceDir,
		sessionID: uuid.NewString(),
	}
}

// NewNamedDestination mirrors sourceDir into a user-chosen directory.
func NewNamedDestination(sourceDir, destDir string) *Destination {
	return &Destination{
		kind:      Named,
		sourceDir: sourceDir,
		destDir:   destDir,
		sessionID: uuid.NewString(),
	}
}

// NewTempDestination mirrors sourceDir into a freshly created temp
// directory that this Destination owns. Call Release to remove it once the
// last reference is done with it.
func NewTempDestination(sourceDir string) (*Destination, error) {
	id := uuid.NewString()
	dir, err := os.MkdirTemp("", "crucible-"+id+"-")
	if err != nil {
		return nil, fmt.Errorf("creating temp destination: %w", err)
	}
	return &Destination{
		kind:      Temp,
		sourceDir: sourceDir,
		destDir:   dir,
		sessionID: id,
		tempOwned: true,
	}, nil
}

// IsCopying reports whether mirroring is enabled.
func (d *Destination) IsCopying() bool { return d.kind != SameAsSource }

// SourceDirectory returns the source tree root.
func (d *Destination) SourceDirectory() string { return d.sourceDir }

// DestinationDirectory returns the mirror root, or "" when not copying.
func (d *Destination) DestinationDirectory() string { return d.destDir }

// Cwd returns the effective working directory for compilations: the
// mirror when copying, the source otherwise.
func (d *Destination) Cwd() string {
	if d.IsCopying() {
		return d.destDir
	}
	return d.sourceDir
}

// SessionID returns the random per-Destination id (a UUID). For a Temp
// destination it also appears in the temp directory's name; the package's
// own log lines and spans do not include it.
func (d *Destination) SessionID() string { return d.sessionID }

// Release removes the owned temp directory, if any. Safe to call more
// than once; only the first call does work. No-op for non-owned
// destinations.
func (d *Destination) Release() error {
	d.closeOnce.Do(func() {
		if d.tempOwned {
			d.closeErr = os.RemoveAll(d.destDir)
		}
	})
	return d.closeErr
}

// mirrorPath computes the destination-relative path of a source path,
// rejoined under destDir. sourcePath must be under sourceDir.
func (d *Destination) mirrorPath(sourcePath string) (string, error) {
	rel, err := filepath.Rel(d.sourceDir, sourcePath)
	if err != nil {
		return "", fmt.Errorf("computing relative path: %w", err)
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("source path %q escapes source directory %q", sourcePath, d.sourceDir)
	}
	return filepath.Join(d.destDir, rel), nil
}

// CopyFile mirrors one regular file from source to destination. No-op
// returning false when mirroring is disabled. On a failed copy, the
// parent directory is created and the copy is retried once. The outcome
// is logged either way; failures here do not abort a ShadowCopy job.
func (d *Destination) CopyFile(sourcePath string) bool {
	if !d.IsCopying() {
		return false
	}
	dst, err := d.mirrorPath(sourcePath)
	if err != nil {
		LogWarn("shadow-copy: %v", err)
		return false
	}

	if err := copyFileContents(sourcePath, dst); err != nil {
		if mkErr := os.MkdirAll(filepath.Dir(dst), 0o755); mkErr != nil {
			LogWarn("shadow-copy: mkdir %s: %v", filepath.Dir(dst), mkErr)
			return false
		}
		if err = copyFileContents(sourcePath, dst); err != nil {
			LogWarn("shadow-copy: copy %s -> %s: %v", sourcePath, dst, err)
			return false
		}
	}
	LogInfo("shadow-copy: %s -> %s", sourcePath, dst)
	return true
}

// Remove mirrors a deletion: if the mirror path is a directory it is
// removed recursively, else the single file is removed. No-op returning
// false when mirroring is disabled.
func (d *Destination) Remove(sourcePath string) bool {
	if !d.IsCopying() {
		return false
	}
	dst, err := d.mirrorPath(sourcePath)
	if err != nil {
		LogWarn("shadow-copy: %v", err)
		return false
	}

	info, err := os.Lstat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return true
		}
		LogWarn("shadow-copy: stat %s: %v", dst, err)
		return false
	}

	if info.IsDir() {
		err = os.RemoveAll(dst)
	} else {
		err = os.Remove(dst)
	}
	if err != nil {
		LogWarn("shadow-copy: remove %s: %v", dst, err)
		return false
	}
	LogInfo("shadow-copy: removed %s", dst)
	return true
}

func copyFileContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// PopulateFilter decides whether a source-relative path participates in
// the initial ShadowCopy traversal. See glob.go for the canonical
// ignore-glob set shared with the file watcher.
type PopulateFilter func(relPath string) bool

// Populate performs the full traversal that backs a ShadowCopy job: every
// regular file accepted by filter is copied via CopyFile. Per-file copy
// failures are logged and do not abort the traversal — a partial mirror is
// still useful, and later FileSync events will converge it. Copies fan out
// over a bounded worker pool so a large initial population does not serialize
// on disk I/O; this parallelizes file copying only, not test execution.
func (d *Destination) Populate(filter PopulateFilter, concurrency int) error {
	if !d.IsCopying() {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	pool := pond.NewPool(concurrency)

	var mu sync.Mutex
	var copied, failed int

	err := filepath.WalkDir(d.sourceDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			LogWarn("shadow-copy: walk %s: %v", path, walkErr)
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(d.sourceDir, path)
		if relErr != nil || !filter(rel) {
			return nil
		}
		pool.Submit(func() {
			ok := d.CopyFile(path)
			mu.Lock()
			if ok {
				copied++
			} else {
				failed++
			}
			mu.Unlock()
		})
		return nil
	})

	pool.StopAndWait()

	LogOK("shadow-copy: populated %d file(s), %d failure(s)", copied, failed)
	return err
}
