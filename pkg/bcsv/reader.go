package bcsv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"
	"unicode/utf8"
)

// stringChunk is how many bytes are fetched at a time while looking for a
// string's terminator.
const stringChunk = 64

// countingReaderAt tracks how many bytes a read consumed.
type countingReaderAt struct {
	r io.ReaderAt
	n int64
}

func (c *countingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n, err := c.r.ReadAt(p, off)
	c.n += int64(n)
	return n, err
}

// readFull reads exactly len(buf) bytes at off. A short read is reported as
// ErrTruncated with the section being read.
func readFull(r io.ReaderAt, buf []byte, off int64, section string) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &FormatError{
			Kind:     ErrTruncated,
			Section:  section,
			Offset:   off,
			Expected: int64(len(buf)),
			Actual:   int64(n),
		}
	}
	return fmt.Errorf("failed to read %s at offset %d: %w", section, off, err)
}

// Decode reads a table from an in-memory file.
func (c *Codec) Decode(data []byte) (*Table, error) {
	return c.Read(bytes.NewReader(data))
}

// ReadFile reads a table from the file at path.
func (c *Codec) ReadFile(path string) (*Table, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty input path", ErrInvalidPath)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	defer f.Close()

	t, err := c.Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return t, nil
}

// Read parses a complete table from r.
//
// The header, field descriptors and entry block must be intact; a short
// read anywhere in them fails the whole call with ErrTruncated. Strings are
// resolved afterwards and a string that cannot be decoded only leaves its
// value empty.
func (c *Codec) Read(r io.ReaderAt) (t *Table, err error) {
	start := time.Now()
	cr := &countingReaderAt{r: r}
	defer func() {
		c.observer.ObserveRead(cr.n, time.Since(start), err)
	}()

	var hbuf [HeaderSize]byte
	if err := readFull(cr, hbuf[:], 0, "header"); err != nil {
		return nil, err
	}
	h := decodeHeader(hbuf[:], c.order)
	c.sugar.Debugw("read header",
		"entries", h.EntryCount,
		"fields", h.FieldCount,
		"entryDataOffset", h.EntryDataOffset,
		"entrySize", h.EntrySize,
	)
	if want := uint32(HeaderSize + FieldSize*int(h.FieldCount)); h.EntryDataOffset != want {
		c.sugar.Debugw("entry block is not directly after the field table",
			"entryDataOffset", h.EntryDataOffset, "expected", want)
	}

	fields, err := c.readFields(cr, h)
	if err != nil {
		return nil, err
	}

	columns, err := c.readEntries(cr, h, fields)
	if err != nil {
		return nil, err
	}

	c.resolveStrings(cr, h, fields, columns)

	return &Table{header: h, fields: fields, columns: columns}, nil
}

// readFields parses the descriptors in stream order. That order is the
// table's declared order.
func (c *Codec) readFields(r io.ReaderAt, h Header) ([]Field, error) {
	fields := make([]Field, 0, min(int(h.FieldCount), 1024))
	seen := make(map[uint32]struct{}, cap(fields))

	var buf [FieldSize]byte
	for i := int64(0); i < int64(h.FieldCount); i++ {
		off := HeaderSize + i*FieldSize
		if err := readFull(r, buf[:], off, "field"); err != nil {
			return nil, err
		}
		f := decodeField(buf[:], c.order)
		if _, dup := seen[f.Hash]; dup {
			return nil, fmt.Errorf("%w: 0x%X at offset %d", ErrDuplicateField, f.Hash, off)
		}
		seen[f.Hash] = struct{}{}
		fields = append(fields, f)
	}
	return fields, nil
}

// readEntries decodes every cell at entryDataOffset + row*entrySize +
// dataOffset. Each cell is read at its own absolute position so columns may
// overlap or leave gaps.
func (c *Codec) readEntries(r io.ReaderAt, h Header, fields []Field) (map[uint32][]Value, error) {
	columns := make(map[uint32][]Value, len(fields))
	rows := int64(h.EntryCount)
	base := int64(h.EntryDataOffset)
	stride := int64(h.EntrySize)

	if err := checkEntryBlock(r, base, rows, stride); err != nil {
		return nil, err
	}

	for _, f := range fields {
		columns[f.Hash] = make([]Value, 0, min(rows, 4096))
	}
	if len(fields) == 0 {
		return columns, nil
	}

	var buf [StringSize]byte
	for row := int64(0); row < rows; row++ {
		for _, f := range fields {
			t := f.Type()
			size := t.Size()
			off := base + row*stride + int64(f.DataOffset)
			if size > 0 {
				if err := readFull(r, buf[:size], off, "entry"); err != nil {
					return nil, err
				}
			}
			v, err := DecodeValue(t, buf[:size], c.order)
			if err != nil {
				return nil, err
			}
			columns[f.Hash] = append(columns[f.Hash], v.Unpack(f.Mask, f.Shift))
		}
	}
	return columns, nil
}

// checkEntryBlock fails early instead of allocating for rows the input
// cannot hold. Every row is charged at least one byte, even with a zero
// stride, so the row count is bounded by the input length.
func checkEntryBlock(r io.ReaderAt, base, rows, stride int64) error {
	if rows == 0 {
		return nil
	}
	span := max(stride, 1)
	if rows > (math.MaxInt64-base)/span {
		return &FormatError{
			Kind:     ErrTruncated,
			Section:  "entry",
			Offset:   base,
			Expected: math.MaxInt64,
			Actual:   0,
		}
	}
	var last [1]byte
	return readFull(r, last[:], base+rows*span-1, "entry")
}

// resolveStrings fills in every STRINGOFF value from the string table that
// starts right after the entry block.
func (c *Codec) resolveStrings(r io.ReaderAt, h Header, fields []Field, columns map[uint32][]Value) {
	base := h.StringTableOffset()
	cache := make(map[uint32]string)

	for _, f := range fields {
		if f.Type() != TypeStringOff {
			continue
		}
		column := columns[f.Hash]
		for row := range column {
			off := column[row].off
			s, ok := cache[off]
			if !ok {
				var err error
				s, err = c.readString(r, base+int64(off))
				if err != nil {
					c.sugar.Warnw("failed to resolve string",
						"field", fmt.Sprintf("0x%X", f.Hash),
						"row", row,
						"offset", off,
						"error", err,
					)
					c.observer.ObserveDegradedString(err)
					continue
				}
				cache[off] = s
			}
			column[row].str = s
		}
	}
}

// readString reads the NUL terminated string at off and decodes it with the
// codec's encoding.
func (c *Codec) readString(r io.ReaderAt, off int64) (string, error) {
	var raw []byte
	start := off
	chunk := make([]byte, stringChunk)
	for {
		n, err := r.ReadAt(chunk, off)
		if i := bytes.IndexByte(chunk[:n], 0); i >= 0 {
			raw = append(raw, chunk[:i]...)
			break
		}
		raw = append(raw, chunk[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: unterminated string at offset %d", ErrEncoding, start)
			}
			return "", err
		}
		off += int64(n)
	}

	if c.enc == nil {
		return string(raw), nil
	}
	decoded, err := c.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	// Invalid sequences decode to U+FFFD, which the encoding cannot write
	// back.
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", fmt.Errorf("%w: invalid byte sequence % X at offset %d", ErrEncoding, raw, start)
	}
	return string(decoded), nil
}
