package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripBOM(t *testing.T) {
	assert.Equal(t, []byte("hello"), StripBOM([]byte("\xEF\xBB\xBFhello")))
	assert.Equal(t, []byte("hello"), StripBOM([]byte("hello")))
	// Only a leading BOM is removed.
	in := []byte("a\xEF\xBB\xBFb")
	assert.Equal(t, in, StripBOM(in))
}

func TestNormalizeUTF8LF(t *testing.T) {
	assert.Equal(t, []byte("a\nb\nc\n"), NormalizeUTF8LF([]byte("a\r\nb\rc\n")))
	assert.Equal(t, []byte("plain\n"), NormalizeUTF8LF([]byte("plain\n")))
}

func TestNormalizeUTF8LFReplacesInvalidBytes(t *testing.T) {
	got := NormalizeUTF8LF([]byte{'a', 0xFF, 'b'})
	assert.Equal(t, "a�b", string(got))
}
