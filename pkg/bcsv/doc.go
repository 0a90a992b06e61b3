// Package bcsv reads and writes BCSV tables, the fixed-layout binary
// spreadsheets used by several Nintendo titles.
//
// # File Format
//
// A file is made of four consecutive regions:
//
//	[Header(16)][Field(12) * FieldCount][Entry(EntrySize) * EntryCount][StringTable][Padding]
//
// Header:
//   - EntryCount: number of rows (u32)
//   - FieldCount: number of columns (u32)
//   - EntryDataOffset: absolute offset of the entry block, 16 + 12*FieldCount (u32)
//   - EntrySize: stride of one row in bytes (u32)
//
// Field:
//   - Hash: hash of the column name, see package hash (u32)
//   - Mask: bits of the raw value owned by the column (u32)
//   - DataOffset: byte offset of the column inside a row (u16)
//   - Shift: right shift applied after masking (u8)
//   - Type: LONG=0 STRING=1 FLOAT=2 ULONG=3 SHORT=4 CHAR=5 STRINGOFF=6 (u8)
//
// STRING cells are 32 raw bytes stored inline. STRINGOFF cells hold a u32
// offset into the string table, which starts right after the entry block
// and is a tight run of NUL terminated strings. The file is padded with
// 0x40 ('@') up to a multiple of 32 bytes. The format carries no byte order
// marker; the caller chooses Big, Little or Native per call.
//
// # Column Order
//
// Field descriptors are written in the table's declared order, but the
// columns inside a row are laid out by type rank (see RankTable) and their
// data offsets are recomputed on every write. Tables read from disk keep
// the descriptor order of the file.
//
// # Usage
//
//	codec := bcsv.NewCodec(bcsv.WithEndian(bcsv.Big))
//
//	table, err := codec.ReadFile("scenariodata.bcsv")
//	if err != nil {
//	    return err
//	}
//
//	h := hash.Calc("ZoneName")
//	v, err := table.Value(0, h)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(v.Text(false))
//
//	data, err := codec.Encode(table)
//
// # Error Handling
//
// Structural problems abort the call: a short header, field table or entry
// block yields ErrTruncated, and a write whose row bytes do not end exactly
// at the string table yields ErrLayoutMismatch. Both come wrapped in a
// *FormatError carrying the offset and the expected and actual sizes. A
// string that cannot be resolved does not fail a read; the value is left
// empty and the problem is logged and reported to the Observer. Table edits
// reject values of the wrong type with ErrTypeMismatch.
//
// # Thread Safety
//
// A Codec holds no per-call state and may be shared. Each call owns the
// buffers it builds, so independent conversions can run in parallel. A
// Table must not be mutated concurrently.
package bcsv
