// Package textutil normalizes raw file bytes before line counting and
// diffing: UTF-8 with a tolerated leading byte-order mark, LF line endings.
package textutil

import "bytes"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripBOM removes a single leading UTF-8 byte-order mark, if present.
func StripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, utf8BOM)
}

// NormalizeUTF8LF converts CRLF and lone CR to LF and replaces invalid
// UTF-8 sequences with the Unicode replacement character.
func NormalizeUTF8LF(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	return bytes.ToValidUTF8(b, []byte("�"))
}
