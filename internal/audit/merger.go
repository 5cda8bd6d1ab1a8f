// Package audit maintains the append-only metadata history attached to
// each backup file and merges that history across a resolved set.
//
// Every value ever written to a file's source channel is recorded as a
// timestamped line in its audit channel. Merging the audit channels across
// a whole backup set lets metadata history follow a file group through
// renames and restores: after a sync, every file carries the identical
// union of entries.
//
// Failure model: channel I/O problems are logged and degrade to empty
// results or partial writes. No operation in this package aborts a batch
// over multiple files.
package audit

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"go.uber.org/zap"

	"snapver/internal/backup"
	"snapver/internal/sidecar"
)

// stampLayout is the timestamp prefix format of audit entries:
// "[2006-01-02 15:04:05] <text>".
const stampLayout = "2006-01-02 15:04:05"

// Merger reads and writes the source and audit channels of tracked files.
type Merger struct {
	store *sidecar.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewMerger returns a merger over store. log must not be nil.
func NewMerger(store *sidecar.Store, log *zap.Logger) *Merger {
	return &Merger{store: store, log: log, now: time.Now}
}

// ReadSource returns the trimmed current meta tag of path, or "" when the
// channel is absent or unreadable. It never fails to the caller.
func (m *Merger) ReadSource(path string) string {
	data, err := m.store.ReadAll(path, sidecar.SourceChannel)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.log.Warn("reading source channel failed",
				zap.String("channel", sidecar.Address(path, sidecar.SourceChannel)),
				zap.Error(err))
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

// WriteSource overwrites the meta tag of path with text, then records the
// value as a timestamped entry in the audit channel. The audit append is
// best-effort: if it fails the source write still stands and the failure is
// only reported.
func (m *Merger) WriteSource(path, text string) error {
	text = strings.TrimSpace(text)
	if err := m.store.Overwrite(path, sidecar.SourceChannel, []byte(text)); err != nil {
		return fmt.Errorf("writing %s: %w", sidecar.Address(path, sidecar.SourceChannel), err)
	}
	entry := fmt.Sprintf("[%s] %s", m.now().Format(stampLayout), text)
	if err := m.store.Append(path, sidecar.AuditChannel, []byte(entry+"\n")); err != nil {
		m.log.Error("recording audit entry failed",
			zap.String("channel", sidecar.Address(path, sidecar.AuditChannel)),
			zap.Error(err))
	}
	return nil
}

// ReadAudit returns all non-blank audit entries of path, trimmed,
// oldest-first as stored. Missing or unreadable channels degrade to an
// empty sequence.
func (m *Merger) ReadAudit(path string) []string {
	data, err := m.store.ReadAll(path, sidecar.AuditChannel)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.log.Warn("reading audit channel failed",
				zap.String("channel", sidecar.Address(path, sidecar.AuditChannel)),
				zap.Error(err))
		}
		return nil
	}
	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// AppendAudit appends the entries of entries that are not already present
// in the audit channel of path. The deduplication key is the exact trimmed
// entry line including its embedded timestamp, so re-submitting
// byte-identical lines is a no-op and the operation is idempotent.
func (m *Merger) AppendAudit(path string, entries []string) error {
	if len(entries) == 0 {
		return nil
	}
	existing := make(map[string]struct{})
	for _, e := range m.ReadAudit(path) {
		existing[e] = struct{}{}
	}

	var sb strings.Builder
	novel := 0
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, dup := existing[e]; dup {
			continue
		}
		existing[e] = struct{}{}
		sb.WriteString(e)
		sb.WriteByte('\n')
		novel++
	}
	if novel == 0 {
		return nil
	}
	if err := m.store.Append(path, sidecar.AuditChannel, []byte(sb.String())); err != nil {
		return fmt.Errorf("appending %d entries to %s: %w",
			novel, sidecar.Address(path, sidecar.AuditChannel), err)
	}
	return nil
}

// SyncAcrossSet merges audit history across every file of a resolved set:
// it collects the union of all entries, then appends the union to each
// file. After a successful sync every file holds an identical set of
// entries, regardless of which file's metadata was actually edited.
// Per-file failures are logged and do not stop the sweep.
func (m *Merger) SyncAcrossSet(set []backup.File) {
	if len(set) == 0 {
		return
	}
	seen := make(map[string]struct{})
	union := make([]string, 0)
	for _, f := range set {
		for _, e := range m.ReadAudit(f.Path) {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			union = append(union, e)
		}
	}
	if len(union) == 0 {
		return
	}
	for _, f := range set {
		if err := m.AppendAudit(f.Path, union); err != nil {
			m.log.Warn("syncing audit history failed",
				zap.String("path", f.Path), zap.Error(err))
		}
	}
}
