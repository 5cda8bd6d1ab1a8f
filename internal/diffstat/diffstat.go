// Package diffstat turns a resolved backup set into per-version summaries.
//
// For each file in a newest-first set it computes the total line count, a
// changed-lines descriptor against the chronologically next older version
// (classic unified diff via github.com/pmezard/go-difflib), a contiguous
// version label (V1 = oldest), and the current meta tag.
//
// Failure model: a file that cannot be read yields the "Error" sentinel in
// the affected fields and the batch continues. Nothing in this package
// aborts a summarize run.
package diffstat

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	difflib "github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"snapver/internal/backup"
	"snapver/internal/textutil"
)

// Field sentinels. NoBaseline marks the oldest version, which has nothing
// to diff against; ReadFailed marks a per-file read or compare failure.
const (
	NoBaseline = "N/A"
	ReadFailed = "Error"
)

// diffContext is the number of context lines in the unified diffs used for
// change accounting. Matches the classic default.
const diffContext = 3

// Summary is one row of the version table, derived from one backup file.
// Recomputed in full on every refresh; only MetaTag may be patched
// independently after a metadata edit.
type Summary struct {
	Path       string
	Created    time.Time
	Base       string
	Version    string // "V<n>", V1 = oldest
	Changes    string // "<sign><count> lines", NoBaseline, or ReadFailed
	TotalLines string // decimal count or ReadFailed
	MetaTag    string
}

// SourceReader supplies the current meta tag for a tracked file. An empty
// string means no tag; implementations never fail to the caller.
type SourceReader interface {
	ReadSource(path string) string
}

// Pipeline computes summaries over fs.
type Pipeline struct {
	fs   afero.Fs
	meta SourceReader
	log  *zap.Logger
}

// New returns a pipeline. meta may be nil, in which case MetaTag stays
// empty. log must not be nil.
func New(fs afero.Fs, meta SourceReader, log *zap.Logger) *Pipeline {
	return &Pipeline{fs: fs, meta: meta, log: log}
}

// Summarize produces one Summary per entry of set, preserving the
// newest-first order established by the resolver. An empty set yields an
// empty result.
func (p *Pipeline) Summarize(set []backup.File) []Summary {
	n := len(set)
	out := make([]Summary, 0, n)

	// Each file is read at most once; the lines double as diff input.
	lines := make([][]string, n)
	readErr := make([]error, n)
	for i, f := range set {
		lines[i], readErr[i] = p.readLines(f.Path)
	}

	for i, f := range set {
		s := Summary{
			Path:    f.Path,
			Created: f.Created,
			Base:    f.Base,
			Version: fmt.Sprintf("V%d", n-i),
		}

		if readErr[i] != nil {
			p.log.Warn("counting lines failed",
				zap.String("path", f.Path), zap.Error(readErr[i]))
			s.TotalLines = ReadFailed
		} else {
			s.TotalLines = strconv.Itoa(len(lines[i]))
		}

		switch {
		case i == n-1:
			s.Changes = NoBaseline
		case readErr[i] != nil || readErr[i+1] != nil:
			s.Changes = ReadFailed
		default:
			desc, err := changeDescriptor(set[i+1].Name, f.Name, lines[i+1], lines[i])
			if err != nil {
				p.log.Warn("comparing versions failed",
					zap.String("path", f.Path),
					zap.String("baseline", set[i+1].Path),
					zap.Error(err))
				s.Changes = ReadFailed
			} else {
				s.Changes = desc
			}
		}

		if p.meta != nil {
			s.MetaTag = p.meta.ReadSource(f.Path)
		}
		out = append(out, s)
	}
	return out
}

// readLines reads a file as normalized UTF-8 and splits it into records,
// keeping newline terminators for diff input. A trailing newline does not
// open a new record; an empty file has zero records.
func (p *Pipeline) readLines(path string) ([]string, error) {
	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, err
	}
	data = textutil.NormalizeUTF8LF(textutil.StripBOM(data))
	return splitLinesKeepNL(string(data)), nil
}

// changeDescriptor diffs older (baseline) against current (target) and
// formats the changed-line count. Changed lines are every addition or
// removal in the unified diff body, excluding the ---/+++ file headers. The
// sign reflects the total line count: '+' when the current file grew, '-'
// when it shrank, none when equal.
func changeDescriptor(olderName, currentName string, older, current []string) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        older,
		B:        current,
		FromFile: olderName,
		ToFile:   currentName,
		Context:  diffContext,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", err
	}

	changed := 0
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"), strings.HasPrefix(line, "-"):
			changed++
		}
	}

	sign := ""
	switch {
	case len(current) > len(older):
		sign = "+"
	case len(current) < len(older):
		sign = "-"
	}
	return fmt.Sprintf("%s%d lines", sign, changed), nil
}

// splitLinesKeepNL splits into lines keeping the '\n' on each element,
// which produces better unified hunks. SplitAfter leaves an empty trailing
// chunk when the input ends with a newline; that chunk is not a record and
// is dropped.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
