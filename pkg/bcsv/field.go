package bcsv

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/ssargent/bcsv/pkg/hash"
)

// Field describes one column. Two fields are the same column when their
// hashes match; mask, shift, offset and type may change between edits.
type Field struct {
	Hash       uint32 // name hash
	Mask       uint32 // bits of the raw value that belong to this column
	DataOffset uint16 // byte offset of the column inside a row
	Shift      uint8  // right shift applied after masking
	Tag        uint8  // raw type tag, see TypeOf
}

// NewField creates a field of type t with the type's default mask.
func NewField(h uint32, t FieldType) Field {
	return Field{Hash: h, Mask: t.DefaultMask(), Tag: uint8(t)}
}

// Type returns the column type. Unknown tags report TypeNull.
func (f Field) Type() FieldType {
	return TypeOf(f.Tag)
}

// Size returns the number of row bytes the column occupies.
func (f Field) Size() int {
	return f.Type().Size()
}

// Name resolves the field's name through names, falling back to hex.
func (f Field) Name(names *hash.Table) string {
	return names.Name(f.Hash)
}

func (f Field) String() string {
	return fmt.Sprintf("%s:%d:%d:%s@%d", hash.Hex(f.Hash), f.Mask, f.Shift, f.Type(), f.DataOffset)
}

func (f Field) appendTo(dst []byte, order binary.ByteOrder) []byte {
	var b [FieldSize]byte
	order.PutUint32(b[0:], f.Hash)
	order.PutUint32(b[4:], f.Mask)
	order.PutUint16(b[8:], f.DataOffset)
	b[10] = f.Shift
	b[11] = f.Tag
	return append(dst, b[:]...)
}

func decodeField(b []byte, order binary.ByteOrder) Field {
	return Field{
		Hash:       order.Uint32(b[0:4]),
		Mask:       order.Uint32(b[4:8]),
		DataOffset: order.Uint16(b[8:10]),
		Shift:      b[10],
		Tag:        b[11],
	}
}

// RankTable is the type priority that decides the physical column order of
// the entry block. Both tables exist in files in the wild; pick the one that
// matches the title being edited and use it for every write.
type RankTable uint8

const (
	// RankClassic orders STRING, FLOAT, LONG, ULONG, SHORT, CHAR, STRINGOFF.
	RankClassic RankTable = iota
	// RankAlternate orders STRING, ULONG, LONG, FLOAT, SHORT, CHAR, STRINGOFF.
	RankAlternate
)

var rankTables = [...][TypeNull]int{
	RankClassic: {
		TypeString:    0,
		TypeFloat:     1,
		TypeLong:      2,
		TypeULong:     3,
		TypeShort:     4,
		TypeChar:      5,
		TypeStringOff: 6,
	},
	RankAlternate: {
		TypeString:    0,
		TypeULong:     1,
		TypeLong:      2,
		TypeFloat:     3,
		TypeShort:     4,
		TypeChar:      5,
		TypeStringOff: 6,
	},
}

// Rank returns the write position of t. Unknown types rank -1 so they sort
// ahead of every valid column.
func (r RankTable) Rank(t FieldType) int {
	if t >= TypeNull || int(r) >= len(rankTables) {
		return -1
	}
	return rankTables[r][t]
}

// Sorted returns a copy of fields in write order. Fields of equal rank keep
// their declared order.
func (r RankTable) Sorted(fields []Field) []Field {
	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool {
		return r.Rank(sorted[i].Type()) < r.Rank(sorted[j].Type())
	})
	return sorted
}

func (r RankTable) String() string {
	if r == RankAlternate {
		return "alternate"
	}
	return "classic"
}

// ParseRankTable accepts "classic" or "alternate".
func ParseRankTable(s string) (RankTable, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "classic", "":
		return RankClassic, nil
	case "alternate":
		return RankAlternate, nil
	}
	return RankClassic, fmt.Errorf("unknown rank table %q", s)
}
