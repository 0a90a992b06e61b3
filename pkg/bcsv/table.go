package bcsv

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Header is the fixed 16-byte preamble of a file.
type Header struct {
	EntryCount      uint32 // rows; every column holds this many values
	FieldCount      uint32
	EntryDataOffset uint32 // absolute offset of the entry block
	EntrySize       uint32 // row stride in bytes
}

// StringTableOffset is where the string pool starts: right after the
// entry block.
func (h Header) StringTableOffset() int64 {
	return int64(h.EntryDataOffset) + int64(h.EntryCount)*int64(h.EntrySize)
}

func (h Header) appendTo(dst []byte, order binary.ByteOrder) []byte {
	var b [HeaderSize]byte
	order.PutUint32(b[0:], h.EntryCount)
	order.PutUint32(b[4:], h.FieldCount)
	order.PutUint32(b[8:], h.EntryDataOffset)
	order.PutUint32(b[12:], h.EntrySize)
	return append(dst, b[:]...)
}

func decodeHeader(b []byte, order binary.ByteOrder) Header {
	return Header{
		EntryCount:      order.Uint32(b[0:4]),
		FieldCount:      order.Uint32(b[4:8]),
		EntryDataOffset: order.Uint32(b[8:12]),
		EntrySize:       order.Uint32(b[12:16]),
	}
}

// Table is an in-memory BCSV file: the fields in their declared order and
// one column of values per field, keyed by field hash.
//
// A Table is not safe for concurrent mutation.
type Table struct {
	header  Header
	fields  []Field
	columns map[uint32][]Value
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{columns: make(map[uint32][]Value)}
}

// Header returns the header as last read or repacked, with the counts kept
// in sync with the table's contents.
func (t *Table) Header() Header {
	h := t.header
	h.FieldCount = uint32(len(t.fields))
	return h
}

// EntryCount returns the number of rows.
func (t *Table) EntryCount() int {
	return int(t.header.EntryCount)
}

// Fields returns a copy of the fields in declared order.
func (t *Table) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// Field returns the field with hash h.
func (t *Table) Field(h uint32) (Field, bool) {
	i := t.indexOf(h)
	if i < 0 {
		return Field{}, false
	}
	return t.fields[i], true
}

func (t *Table) indexOf(h uint32) int {
	for i, f := range t.fields {
		if f.Hash == h {
			return i
		}
	}
	return -1
}

// AddField appends a column. Existing rows get the zero value of the
// field's type.
func (t *Table) AddField(f Field) error {
	if t.columns == nil {
		t.columns = make(map[uint32][]Value)
	}
	if _, ok := t.columns[f.Hash]; ok {
		return fmt.Errorf("%w: 0x%X", ErrDuplicateField, f.Hash)
	}

	column := make([]Value, t.EntryCount())
	for i := range column {
		column[i] = Zero(f.Type())
	}
	t.fields = append(t.fields, f)
	t.columns[f.Hash] = column
	t.header.FieldCount = uint32(len(t.fields))
	return nil
}

// RemoveField drops the column with hash h.
func (t *Table) RemoveField(h uint32) error {
	i := t.indexOf(h)
	if i < 0 {
		return fmt.Errorf("%w: 0x%X", ErrFieldNotFound, h)
	}
	t.fields = append(t.fields[:i], t.fields[i+1:]...)
	delete(t.columns, h)
	t.header.FieldCount = uint32(len(t.fields))
	return nil
}

// UpdateField edits the field with hash h in place. If edit changes the
// hash the column is moved to the new key in the same step; nothing is
// changed when the new hash is already taken. The type may only change
// while the table has no rows.
func (t *Table) UpdateField(h uint32, edit func(f *Field)) error {
	i := t.indexOf(h)
	if i < 0 {
		return fmt.Errorf("%w: 0x%X", ErrFieldNotFound, h)
	}

	updated := t.fields[i]
	edit(&updated)
	if updated.Type() != t.fields[i].Type() && t.EntryCount() > 0 {
		return fmt.Errorf("%w: 0x%X holds %d %s values, cannot become %s",
			ErrTypeMismatch, h, t.EntryCount(), t.fields[i].Type(), updated.Type())
	}
	if updated.Hash != h {
		if _, taken := t.columns[updated.Hash]; taken {
			return fmt.Errorf("%w: 0x%X", ErrDuplicateField, updated.Hash)
		}
		t.columns[updated.Hash] = t.columns[h]
		delete(t.columns, h)
	}
	t.fields[i] = updated
	return nil
}

// Column returns a copy of the values of the field with hash h.
func (t *Table) Column(h uint32) ([]Value, error) {
	column, ok := t.columns[h]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%X", ErrFieldNotFound, h)
	}
	out := make([]Value, len(column))
	copy(out, column)
	return out, nil
}

// Value returns the cell at row for field h.
func (t *Table) Value(row int, h uint32) (Value, error) {
	column, ok := t.columns[h]
	if !ok {
		return Value{}, fmt.Errorf("%w: 0x%X", ErrFieldNotFound, h)
	}
	if row < 0 || row >= len(column) {
		return Value{}, fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, len(column))
	}
	return column[row], nil
}

// SetValue replaces the cell at row for field h.
func (t *Table) SetValue(row int, h uint32, v Value) error {
	column, ok := t.columns[h]
	if !ok {
		return fmt.Errorf("%w: 0x%X", ErrFieldNotFound, h)
	}
	if row < 0 || row >= len(column) {
		return fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, len(column))
	}
	if err := checkType(t.fields[t.indexOf(h)], v); err != nil {
		return err
	}
	column[row] = v
	return nil
}

// AppendRow adds a row. values are given in declared field order and must
// match their field's type.
func (t *Table) AppendRow(values ...Value) error {
	if len(values) != len(t.fields) {
		return fmt.Errorf("%w: row has %d values, table has %d fields",
			ErrColumnLength, len(values), len(t.fields))
	}
	for i, f := range t.fields {
		if err := checkType(f, values[i]); err != nil {
			return err
		}
	}
	for i, f := range t.fields {
		t.columns[f.Hash] = append(t.columns[f.Hash], values[i])
	}
	t.header.EntryCount++
	return nil
}

func checkType(f Field, v Value) error {
	if v.Type() != f.Type() {
		return fmt.Errorf("%w: field 0x%X is %s, value is %s", ErrTypeMismatch, f.Hash, f.Type(), v.Type())
	}
	return nil
}

// Row returns the values of one row in declared field order.
func (t *Table) Row(row int) ([]Value, error) {
	if row < 0 || row >= t.EntryCount() {
		return nil, fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, t.EntryCount())
	}
	out := make([]Value, len(t.fields))
	for i, f := range t.fields {
		out[i] = t.columns[f.Hash][row]
	}
	return out, nil
}

// Layout computes the header and field descriptors a write would emit.
// Data offsets are assigned back to back in rank order, so they are
// repacked on every write; the returned fields stay in declared order.
// The table itself is not modified.
func (t *Table) Layout(rank RankTable) (Header, []Field, error) {
	fields := t.Fields()
	index := make(map[uint32]int, len(fields))
	for i, f := range fields {
		index[f.Hash] = i
	}

	var cursor int
	for _, f := range rank.Sorted(fields) {
		if cursor > math.MaxUint16 {
			return Header{}, nil, &FormatError{
				Kind:     ErrLayoutMismatch,
				Section:  "layout",
				Expected: math.MaxUint16,
				Actual:   int64(cursor),
			}
		}
		fields[index[f.Hash]].DataOffset = uint16(cursor)
		cursor += f.Size()
	}

	h := Header{
		EntryCount:      uint32(t.EntryCount()),
		FieldCount:      uint32(len(fields)),
		EntryDataOffset: uint32(HeaderSize + FieldSize*len(fields)),
		EntrySize:       uint32(cursor),
	}
	return h, fields, nil
}

// Repack applies Layout to the table.
func (t *Table) Repack(rank RankTable) error {
	h, fields, err := t.Layout(rank)
	if err != nil {
		return err
	}
	t.header = h
	t.fields = fields
	return nil
}
