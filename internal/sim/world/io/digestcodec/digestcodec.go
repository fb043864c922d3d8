// Package digestcodec holds the fixed-width encodings used by state digests.
package digestcodec

import (
	"encoding/binary"
	"sort"
)

type Writer interface {
	Write(p []byte) (n int, err error)
}

func WriteU64(w Writer, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.Write(tmp[:])
}

func WriteI64(w Writer, tmp *[8]byte, v int64) { WriteU64(w, tmp, uint64(v)) }

// WriteString is length-prefixed so adjacent strings cannot alias.
func WriteString(w Writer, tmp *[8]byte, s string) {
	WriteU64(w, tmp, uint64(len(s)))
	w.Write([]byte(s))
}

func WriteBool(w Writer, v bool) {
	w.Write([]byte{BoolByte(v)})
}

func BoolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// WriteSortedStringMap emits a key-sorted encoding of m.
func WriteSortedStringMap(w Writer, tmp *[8]byte, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	WriteU64(w, tmp, uint64(len(keys)))
	for _, k := range keys {
		WriteString(w, tmp, k)
		WriteString(w, tmp, m[k])
	}
}
