package bcsv

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// stringSlot is a STRINGOFF cell whose offset is patched once the string
// table has been built.
type stringSlot struct {
	pos  int
	text string
}

// Encode serializes t into a new buffer.
//
// Layout: the header and the field descriptors in declared order, then
// every row with its columns in rank order, then the string table, then
// 0x40 padding up to a multiple of 32 bytes.
func (c *Codec) Encode(t *Table) (out []byte, err error) {
	start := time.Now()
	defer func() {
		c.observer.ObserveWrite(int64(len(out)), time.Since(start), err)
	}()

	h, fields, err := t.Layout(c.rank)
	if err != nil {
		return nil, err
	}
	sorted := c.rank.Sorted(fields)
	c.sugar.Debugw("computed layout",
		"entries", h.EntryCount,
		"fields", h.FieldCount,
		"entrySize", h.EntrySize,
		"rank", c.rank.String(),
	)

	stringTableOffset := h.StringTableOffset()
	buf := make([]byte, 0, stringTableOffset+Alignment)
	buf = h.appendTo(buf, c.order)
	for _, f := range fields {
		buf = f.appendTo(buf, c.order)
	}

	var slots []stringSlot
	rows := int(h.EntryCount)
	for row := 0; row < rows; row++ {
		for _, f := range sorted {
			v := t.columns[f.Hash][row]
			if v.typ == TypeStringOff {
				slots = append(slots, stringSlot{pos: len(buf), text: v.str})
				v.off = 0
			}
			buf = v.Pack(f.Mask, f.Shift).AppendTo(buf, c.order)
		}
	}

	if int64(len(buf)) != stringTableOffset {
		return nil, &FormatError{
			Kind:     ErrLayoutMismatch,
			Section:  "entry",
			Offset:   int64(h.EntryDataOffset),
			Expected: stringTableOffset,
			Actual:   int64(len(buf)),
		}
	}

	// Offsets are only known once every earlier string is interned, so
	// assign them all first and patch the placeholders afterwards.
	st := NewStringTable(c.enc)
	offsets := make([]uint32, len(slots))
	for i, s := range slots {
		off, err := st.Intern(s.text)
		if err != nil {
			return nil, err
		}
		offsets[i] = off
	}
	for i, s := range slots {
		c.order.PutUint32(buf[s.pos:], offsets[i])
	}

	buf = st.AppendTo(buf)
	buf = pad(buf)
	c.sugar.Debugw("encoded table",
		"strings", st.Len(),
		"stringTableSize", st.Size(),
		"size", len(buf),
	)
	return buf, nil
}

// pad extends buf with PadByte up to the next multiple of Alignment.
func pad(buf []byte) []byte {
	for len(buf)%Alignment != 0 {
		buf = append(buf, PadByte)
	}
	return buf
}

// Write encodes t and writes it to w. Nothing is written if encoding fails.
func (c *Codec) Write(w io.Writer, t *Table) error {
	data, err := c.Encode(t)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

// WriteFile encodes t and stores it at path. The file is written to a
// temporary name in the same directory and renamed into place, so path is
// never left half written.
func (c *Codec) WriteFile(path string, t *Table) error {
	if path == "" {
		return fmt.Errorf("%w: empty output path", ErrInvalidPath)
	}
	data, err := c.Encode(t)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
