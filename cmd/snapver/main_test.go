package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestSplitRef(t *testing.T) {
	viper.Set("dir", "/work")
	t.Cleanup(func() { viper.Set("dir", ".") })

	dir, name := splitRef("report.txt")
	assert.Equal(t, "/work", dir)
	assert.Equal(t, "report.txt", name)

	// A path argument overrides the configured directory.
	dir, name = splitRef("/other/report.txt.2024-01-02_100000.bak")
	assert.Equal(t, "/other", dir)
	assert.Equal(t, "report.txt.2024-01-02_100000.bak", name)

	dir, name = splitRef("sub/report.txt")
	assert.Equal(t, "sub", dir)
	assert.Equal(t, "report.txt", name)
}

func TestDisplayTime(t *testing.T) {
	at := time.Date(2025, 5, 3, 11, 53, 0, 0, time.UTC)
	assert.Equal(t, "sat 05/03/2025 11:53am", displayTime(at))

	evening := time.Date(2024, 12, 31, 23, 5, 0, 0, time.UTC)
	assert.Equal(t, "tue 12/31/2024 11:05pm", displayTime(evening))
}
