package bcsv

import (
	"fmt"

	"golang.org/x/text/encoding"
)

// StringTable is the deduplicated pool of NUL terminated strings stored
// after the entry block. Offsets are relative to the start of the pool and
// are handed out in first-seen order.
type StringTable struct {
	enc     encoding.Encoding
	offsets map[string]uint32
	data    [][]byte
	next    uint32
}

// NewStringTable creates an empty table. Strings are stored in enc, or as
// UTF-8 when enc is nil.
func NewStringTable(enc encoding.Encoding) *StringTable {
	return &StringTable{
		enc:     enc,
		offsets: make(map[string]uint32),
	}
}

// Intern returns the offset of text, adding it when it has not been seen.
// Adding advances the next free offset by the encoded length plus one.
func (st *StringTable) Intern(text string) (uint32, error) {
	if off, ok := st.offsets[text]; ok {
		return off, nil
	}

	raw := []byte(text)
	if st.enc != nil {
		encoded, err := st.enc.NewEncoder().Bytes(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrEncoding, text, err)
		}
		raw = encoded
	}

	off := st.next
	st.offsets[text] = off
	st.data = append(st.data, raw)
	st.next += uint32(len(raw)) + 1
	return off, nil
}

// Offset returns the offset of an interned string.
func (st *StringTable) Offset(text string) (uint32, bool) {
	off, ok := st.offsets[text]
	return off, ok
}

// Len returns the number of unique strings.
func (st *StringTable) Len() int {
	return len(st.data)
}

// Size returns the serialized size in bytes, which is also the next offset
// Intern would assign.
func (st *StringTable) Size() uint32 {
	return st.next
}

// AppendTo appends every string followed by a NUL, in offset order.
func (st *StringTable) AppendTo(dst []byte) []byte {
	for _, s := range st.data {
		dst = append(dst, s...)
		dst = append(dst, 0)
	}
	return dst
}

// Bytes returns the serialized table.
func (st *StringTable) Bytes() []byte {
	return st.AppendTo(make([]byte, 0, st.next))
}
