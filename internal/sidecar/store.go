// Package sidecar stores small per-file metadata channels.
//
// Every tracked file has two channels, addressed by the file's path plus a
// fixed suffix — the same convention as NTFS alternate data streams
// ("<path>:source", "<path>:meta_audit"):
//   - source: exactly one current free-text tag, full overwrite semantics
//   - meta_audit: append-only log of timestamped entries, one per line
//
// Because alternate data streams are filesystem-specific, the channels are
// kept in a shadow directory keyed by the owning file's path:
//
//	<root>/<aa>/<bb>/<key>.<channel>
//
// where key is the first 12 hex chars of sha256(cleaned absolute path) and
// aa/bb are its first two byte pairs. Overwrites go through a temporary
// file plus rename so readers never observe a partially-written channel.
//
// Reads and appends retry up to three attempts on I/O failure, then fall
// back to a copy-through-temporary-file pass before giving up. A missing
// channel is not transient and is reported immediately.
package sidecar

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Channel names. The on-disk channel file uses the name as its extension.
const (
	SourceChannel = "source"
	AuditChannel  = "meta_audit"
)

const maxAttempts = 3

// Address renders the logical stream-style address of a channel, used in
// logs and error reports.
func Address(path, channel string) string {
	return path + ":" + channel
}

// Store reads and writes metadata channels under a shadow root.
type Store struct {
	fs   afero.Fs
	root string
	log  *zap.Logger
}

// NewStore returns a store rooted at root. log must not be nil.
func NewStore(fsys afero.Fs, root string, log *zap.Logger) *Store {
	return &Store{fs: fsys, root: root, log: log}
}

// pathKey returns a short, stable identifier for the owning file's path.
// sha256 truncated to 12 hex chars keeps the shadow tree shallow without
// realistic collision risk.
func pathKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:])[:12]
}

// channelPath resolves the physical file backing one channel of path.
func (s *Store) channelPath(path, channel string) string {
	key := pathKey(path)
	return filepath.Join(s.root, key[:2], key[2:4], key+"."+channel)
}

// ReadAll returns the raw channel content. A missing channel yields an
// error satisfying errors.Is(err, fs.ErrNotExist) without retries; other
// failures are retried and then routed through the temp-file fallback.
func (s *Store) ReadAll(path, channel string) ([]byte, error) {
	cp := s.channelPath(path, channel)
	var data []byte
	err := s.withRetry(path, channel,
		func() error {
			var err error
			data, err = afero.ReadFile(s.fs, cp)
			return err
		},
		func() error {
			var err error
			data, err = s.readViaTemp(cp)
			return err
		})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Overwrite replaces the channel content atomically.
func (s *Store) Overwrite(path, channel string, data []byte) error {
	cp := s.channelPath(path, channel)
	if err := s.fs.MkdirAll(filepath.Dir(cp), 0o755); err != nil {
		return err
	}
	return s.writeAtomic(cp, data)
}

// Append adds data to the end of the channel, creating it if absent.
// Retried like ReadAll; the fallback rebuilds the channel through a
// temporary file from existing content plus data.
func (s *Store) Append(path, channel string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	cp := s.channelPath(path, channel)
	if err := s.fs.MkdirAll(filepath.Dir(cp), 0o755); err != nil {
		return err
	}
	return s.withRetry(path, channel,
		func() error { return s.appendDirect(cp, data) },
		func() error { return s.appendViaTemp(cp, data) })
}

// withRetry runs fn up to maxAttempts times, then fallback once. A missing
// channel short-circuits; it is a normal condition, not transient I/O.
func (s *Store) withRetry(path, channel string, fn, fallback func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		s.log.Warn("sidecar channel I/O failed",
			zap.String("channel", Address(path, channel)),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	if ferr := fallback(); ferr == nil {
		s.log.Info("sidecar channel recovered via temp file",
			zap.String("channel", Address(path, channel)))
		return nil
	} else if !errors.Is(ferr, fs.ErrNotExist) {
		s.log.Warn("sidecar temp-file fallback failed",
			zap.String("channel", Address(path, channel)),
			zap.Error(ferr))
	}
	return err
}

func (s *Store) appendDirect(cp string, data []byte) error {
	f, err := s.fs.OpenFile(cp, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// appendViaTemp rebuilds the channel from its current content plus data,
// staged in a temporary file and renamed into place.
func (s *Store) appendViaTemp(cp string, data []byte) error {
	existing, err := afero.ReadFile(s.fs, cp)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return s.writeAtomic(cp, append(existing, data...))
}

// readViaTemp copies the channel to a temporary sibling and reads that
// copy, then removes it.
func (s *Store) readViaTemp(cp string) ([]byte, error) {
	src, err := s.fs.Open(cp)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = src.Close()
	}()

	tmp, err := afero.TempFile(s.fs, filepath.Dir(cp), ".read-"+filepath.Base(cp)+"-")
	if err != nil {
		return nil, err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = s.fs.Remove(tmpName)
	}()
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	return afero.ReadFile(s.fs, tmpName)
}

// writeAtomic stages data in a temporary file within the channel directory
// and renames it over the target.
func (s *Store) writeAtomic(cp string, data []byte) error {
	dir := filepath.Dir(cp)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := afero.TempFile(s.fs, dir, ".tmp-"+filepath.Base(cp)+"-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return err
	}
	if err := s.fs.Rename(tmpName, cp); err != nil {
		// Some afero backends refuse to rename over an existing file;
		// retry after clearing the target.
		if rmErr := s.fs.Remove(cp); rmErr != nil {
			_ = s.fs.Remove(tmpName)
			return err
		}
		return s.fs.Rename(tmpName, cp)
	}
	return nil
}
