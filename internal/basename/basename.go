// Package basename derives the logical group name shared by a live file and
// its timestamped backup copies.
//
// Backups follow the editor's naming convention:
//
//	<stem>.<YYYY>-<MM>-<DD>_<HHMMSS>.bak
//
// For such names the stem is returned unmodified, including any dots it
// contains. For every other name the portion before the first dot is used.
// The first-dot rule is deliberately lossy: a logical name that itself
// contains a dot before its extension ("v1.2-notes.txt") is truncated. That
// matches how the backups were grouped when they were written, so it must
// not be "fixed" here.
package basename

import (
	"regexp"
	"strings"
)

// Ext is the literal suffix every backup copy carries.
const Ext = ".bak"

// stampedRe matches a timestamped backup name and captures the stem.
var stampedRe = regexp.MustCompile(`^(.*)\.\d{4}-\d{2}-\d{2}_\d{6}\.bak$`)

// Base returns the logical group name for filename. filename must be a bare
// name, not a path.
func Base(filename string) string {
	if m := stampedRe.FindStringSubmatch(filename); m != nil {
		return m[1]
	}
	if i := strings.IndexByte(filename, '.'); i >= 0 {
		return filename[:i]
	}
	return filename
}

// IsBackup reports whether filename matches the timestamped backup pattern.
func IsBackup(filename string) bool {
	return stampedRe.MatchString(filename)
}
