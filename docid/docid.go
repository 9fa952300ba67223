// Package docid derives document identities from file metadata.
//
// The identity is a 32-bit rolling hash, not a cryptographic digest. Two
// files with the same name, size and modification time share an id, and
// unrelated files may collide. It is meant for local single-user
// persistence keys only.
package docid

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf16"
)

// Prefix starts every id.
const Prefix = "doc_"

// FromFile returns the id for a file.
func FromFile(name string, size int64, modTime time.Time) string {
	return FromKey(fmt.Sprintf("%s_%d_%d", name, size, modTime.UnixMilli()))
}

// FromKey hashes an arbitrary key over its UTF-16 code units.
func FromKey(key string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(key)) {
		h = (h << 5) - h + int32(u)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return Prefix + strconv.FormatInt(v, 36)
}
