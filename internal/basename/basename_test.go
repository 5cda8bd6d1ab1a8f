package basename

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseStripsTimestampSuffix(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple stem", "report.txt.2024-01-02_100000.bak", "report.txt"},
		{"dotted stem preserved", "v1.2-notes.txt.2025-05-03_115301.bak", "v1.2-notes.txt"},
		{"script stem", "script.py.2025-05-03_115301.bak", "script.py"},
		{"stem without extension", "notes.2024-12-31_235959.bak", "notes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Base(tc.in))
		})
	}
}

func TestBaseSplitsOnFirstDot(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.txt", "report"},
		{"script.py", "script"},
		{"archive.tar.gz", "archive"},
		{"v1.2-notes.txt", "v1"}, // lossy on purpose: dots in logical names truncate
		{"README", "README"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Base(tc.in), "input %q", tc.in)
	}
}

func TestBaseNonMatchingBakNames(t *testing.T) {
	// A .bak without the timestamp stamp falls through to the first-dot rule.
	assert.Equal(t, "report", Base("report.bak"))
	assert.Equal(t, "report", Base("report.txt.bak"))
}

func TestIsBackup(t *testing.T) {
	assert.True(t, IsBackup("report.txt.2024-01-02_100000.bak"))
	assert.False(t, IsBackup("report.txt"))
	assert.False(t, IsBackup("report.txt.bak"))
	assert.False(t, IsBackup("report.txt.2024-1-2_100000.bak"))
}
