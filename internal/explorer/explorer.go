// Package explorer ties the version pipeline together: resolve a backup
// set for a reference file, merge audit history across it, and summarize
// each version for display.
//
// Every operation runs synchronously on the calling goroutine and
// recomputes its result from current disk state; callers re-invoke to see
// filesystem changes.
package explorer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"snapver/internal/audit"
	"snapver/internal/backup"
	"snapver/internal/basename"
	"snapver/internal/diffstat"
	"snapver/internal/sidecar"
	"snapver/internal/sortutil"
)

// Explorer is the single entry point the UI layer drives.
type Explorer struct {
	fs       afero.Fs
	resolver *backup.Resolver
	pipeline *diffstat.Pipeline
	merger   *audit.Merger
	log      *zap.Logger
}

// New wires an explorer over fs with sidecar channels kept in store.
// log must not be nil.
func New(fsys afero.Fs, store *sidecar.Store, log *zap.Logger) *Explorer {
	merger := audit.NewMerger(store, log)
	return &Explorer{
		fs:       fsys,
		resolver: backup.NewResolver(fsys, log),
		pipeline: diffstat.New(fsys, merger, log),
		merger:   merger,
		log:      log,
	}
}

// LoadVersions resolves the backup set of refFile within dir, synchronizes
// audit history across the set, and returns newest-first summaries. The
// only escalated failure is an unavailable directory; refFile may name a
// live file or any of its backups.
func (e *Explorer) LoadVersions(dir, refFile string) ([]diffstat.Summary, error) {
	base := basename.Base(filepath.Base(refFile))
	set, err := e.resolver.Resolve(dir, base)
	if err != nil {
		return nil, err
	}
	e.merger.SyncAcrossSet(set)
	return e.pipeline.Summarize(set), nil
}

// Sync resolves the backup set of refFile and merges audit history across
// it without computing summaries. It returns the resolved set.
func (e *Explorer) Sync(dir, refFile string) ([]backup.File, error) {
	base := basename.Base(filepath.Base(refFile))
	set, err := e.resolver.Resolve(dir, base)
	if err != nil {
		return nil, err
	}
	e.merger.SyncAcrossSet(set)
	return set, nil
}

// Group describes one live file in a browsed directory together with the
// number of backup copies its base name has.
type Group struct {
	Name    string // file name within the directory
	Base    string // inferred logical group name
	Backups int
}

// Groups lists the non-backup files of dir with their backup counts, in
// name order. Per-file counting failures degrade to a zero count.
func (e *Explorer) Groups(dir string) ([]Group, error) {
	d, err := e.fs.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", backup.ErrDirectoryUnavailable, dir, err)
	}
	names, err := d.Readdirnames(-1)
	_ = d.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", backup.ErrDirectoryUnavailable, dir, err)
	}

	groups := make([]Group, 0, len(names))
	for _, name := range sortutil.StablePathSort(names) {
		if strings.HasSuffix(name, basename.Ext) {
			continue
		}
		info, err := e.fs.Stat(filepath.Join(dir, name))
		if err != nil || info.IsDir() {
			continue
		}
		base := basename.Base(name)
		count, err := e.resolver.Count(dir, base)
		if err != nil {
			e.log.Warn("counting backups failed",
				zap.String("base", base), zap.Error(err))
			count = 0
		}
		groups = append(groups, Group{Name: name, Base: base, Backups: count})
	}
	return groups, nil
}

// RefreshMetaTags re-reads the source channel for already-resolved rows in
// place. This is the only partial patch of a summary; everything else needs
// a full LoadVersions.
func (e *Explorer) RefreshMetaTags(summaries []diffstat.Summary) {
	for i := range summaries {
		summaries[i].MetaTag = e.merger.ReadSource(summaries[i].Path)
	}
}

// MetaTag returns the current meta tag of path, or "".
func (e *Explorer) MetaTag(path string) string {
	return e.merger.ReadSource(path)
}

// SetMetaTag overwrites the meta tag of path and records the change in the
// file's audit history.
func (e *Explorer) SetMetaTag(path, text string) error {
	return e.merger.WriteSource(path, text)
}

// History returns the audit entries of path newest-first, the order
// secondary views display them in. Storage order is oldest-first.
func (e *Explorer) History(path string) []string {
	entries := e.merger.ReadAudit(path)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

// IsDirectoryUnavailable reports whether err is the fatal resolve failure.
func IsDirectoryUnavailable(err error) bool {
	return errors.Is(err, backup.ErrDirectoryUnavailable)
}
