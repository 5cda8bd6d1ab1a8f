// Package editor launches the external editor on a resolved backup path.
// The launch is an opaque side effect: the process is started detached and
// never waited on.
package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no editor binary has been set.
var ErrNotConfigured = errors.New("no editor configured")

// Launcher starts the configured editor binary.
type Launcher struct {
	bin string
	log *zap.Logger
}

// NewLauncher returns a launcher for bin, which is either an absolute path
// or a name resolved via PATH. log must not be nil.
func NewLauncher(bin string, log *zap.Logger) *Launcher {
	return &Launcher{bin: bin, log: log}
}

// Open starts the editor with path as its single argument and detaches.
func (l *Launcher) Open(path string) error {
	if l.bin == "" {
		return ErrNotConfigured
	}
	if err := l.check(); err != nil {
		return err
	}
	cmd := exec.Command(l.bin, path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", l.bin, err)
	}
	_ = cmd.Process.Release()
	l.log.Info("opened file in editor",
		zap.String("editor", l.bin), zap.String("path", path))
	return nil
}

// check verifies the editor binary exists before launching, so the caller
// gets a clear report instead of a raw exec failure.
func (l *Launcher) check() error {
	if strings.ContainsRune(l.bin, os.PathSeparator) {
		if _, err := os.Stat(l.bin); err != nil {
			return fmt.Errorf("editor not found at %s: %w", l.bin, err)
		}
		return nil
	}
	if _, err := exec.LookPath(l.bin); err != nil {
		return fmt.Errorf("editor %s not found in PATH: %w", l.bin, err)
	}
	return nil
}
