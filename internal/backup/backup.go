// Package backup resolves the set of timestamped backup copies that belong
// to one logical file.
//
// A resolved set is ordered newest-first by creation timestamp. The set is
// re-resolved from disk on every call; there is no caching or watching, and
// a file disappearing between listing and reading degrades to a per-file
// skip rather than a failed resolve.
package backup

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"snapver/internal/basename"
	"snapver/internal/sortutil"
)

// ErrDirectoryUnavailable marks a resolve against a directory that does not
// exist or cannot be listed. It is the only fatal failure of a resolve;
// callers surface it and abort instead of rendering a partial listing.
var ErrDirectoryUnavailable = errors.New("backup directory unavailable")

// File is one backup copy inside a resolved set. Immutable once resolved.
type File struct {
	Path    string    // full path of the backup file
	Name    string    // file name within the directory
	Base    string    // logical group name shared by the set
	Created time.Time // creation instant used for ordering
}

// Resolver lists backup files for a base name within a single directory.
type Resolver struct {
	fs  afero.Fs
	log *zap.Logger
}

// NewResolver returns a resolver over fs. log receives per-file skip
// reports; it must not be nil.
func NewResolver(fs afero.Fs, log *zap.Logger) *Resolver {
	return &Resolver{fs: fs, log: log}
}

// Resolve returns the backup files in dir whose name starts with base and
// ends with the backup suffix, ordered newest-first by creation timestamp.
// Ties keep lexicographic name order. A candidate whose timestamp cannot be
// read is skipped and reported; an empty result is not an error.
func (r *Resolver) Resolve(dir, base string) ([]File, error) {
	names, err := r.listNames(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryUnavailable, dir, err)
	}

	files := make([]File, 0, len(names))
	for _, name := range sortutil.StablePathSort(names) {
		if !strings.HasPrefix(name, base) || !strings.HasSuffix(name, basename.Ext) {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := r.fs.Stat(path)
		if err != nil {
			// Partial-result semantics: one bad candidate must not
			// abort the whole scan.
			r.log.Warn("skipping unreadable backup candidate",
				zap.String("path", path), zap.Error(err))
			continue
		}
		if info.IsDir() {
			continue
		}
		files = append(files, File{
			Path:    path,
			Name:    name,
			Base:    base,
			Created: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Created.After(files[j].Created)
	})
	return files, nil
}

// Count returns how many backup copies exist in dir for base. Failures to
// list the directory escalate the same way Resolve does.
func (r *Resolver) Count(dir, base string) (int, error) {
	names, err := r.listNames(dir)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrDirectoryUnavailable, dir, err)
	}
	n := 0
	for _, name := range names {
		if strings.HasPrefix(name, base) && strings.HasSuffix(name, basename.Ext) {
			n++
		}
	}
	return n, nil
}

func (r *Resolver) listNames(dir string) ([]string, error) {
	d, err := r.fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = d.Close()
	}()
	return d.Readdirnames(-1)
}
