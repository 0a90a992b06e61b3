package bcsv

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

// Value is one cell of a table. Its type matches the column it lives in.
//
// Integral and FLOAT payloads are kept as raw bits. A STRINGOFF value keeps
// the resolved string; its offset is only meaningful right after a read and
// is recomputed on every write.
type Value struct {
	typ   FieldType
	bits  uint32
	fixed [StringSize]byte
	str   string
	off   uint32
}

// Long creates a LONG value.
func Long(v int32) Value { return Value{typ: TypeLong, bits: uint32(v)} }

// ULong creates a ULONG value.
func ULong(v uint32) Value { return Value{typ: TypeULong, bits: v} }

// Float creates a FLOAT value.
func Float(v float32) Value { return Value{typ: TypeFloat, bits: math.Float32bits(v)} }

// Short creates a SHORT value.
func Short(v uint16) Value { return Value{typ: TypeShort, bits: uint32(v)} }

// Char creates a CHAR value.
func Char(v uint8) Value { return Value{typ: TypeChar, bits: uint32(v)} }

// FixedString creates a STRING value from its raw 32-byte buffer.
func FixedString(b [StringSize]byte) Value { return Value{typ: TypeString, fixed: b} }

// FixedStringFrom creates a STRING value from s, truncated or zero padded to
// 32 bytes.
func FixedStringFrom(s string) Value {
	v := Value{typ: TypeString}
	copy(v.fixed[:], s)
	return v
}

// StringOff creates a STRINGOFF value holding s.
func StringOff(s string) Value { return Value{typ: TypeStringOff, str: s} }

// Null creates the placeholder value of unknown columns.
func Null() Value { return Value{typ: TypeNull} }

// Zero returns the zero value for a column of type t.
func Zero(t FieldType) Value {
	if t > TypeNull {
		t = TypeNull
	}
	return Value{typ: t}
}

func (v Value) Type() FieldType { return v.typ }

func (v Value) Long() int32    { return int32(v.bits) }
func (v Value) ULong() uint32  { return v.bits }
func (v Value) Float() float32 { return math.Float32frombits(v.bits) }
func (v Value) Short() uint16  { return uint16(v.bits) }
func (v Value) Char() uint8    { return uint8(v.bits) }

// Bytes returns the raw buffer of a STRING value.
func (v Value) Bytes() [StringSize]byte { return v.fixed }

// Str returns the content of a STRINGOFF value.
func (v Value) Str() string { return v.str }

// Offset returns the string table offset a STRINGOFF value was read with.
func (v Value) Offset() uint32 { return v.off }

// DecodeValue interprets the start of b as a value of type t. b must hold at
// least t.Size() bytes. STRINGOFF values only carry the offset until the
// string table is resolved.
func DecodeValue(t FieldType, b []byte, order binary.ByteOrder) (Value, error) {
	size := t.Size()
	if len(b) < size {
		return Value{}, &FormatError{
			Kind:     ErrTruncated,
			Section:  "value",
			Expected: int64(size),
			Actual:   int64(len(b)),
		}
	}

	v := Value{typ: t}
	switch t {
	case TypeLong, TypeFloat, TypeULong:
		v.bits = order.Uint32(b)
	case TypeShort:
		v.bits = uint32(order.Uint16(b))
	case TypeChar:
		v.bits = uint32(b[0])
	case TypeString:
		copy(v.fixed[:], b[:StringSize])
	case TypeStringOff:
		v.off = order.Uint32(b)
	}
	return v, nil
}

// Unpack applies the read transform (raw & mask) >> shift in the value's own
// width. LONG shifts arithmetically. Other types are returned unchanged.
func (v Value) Unpack(mask uint32, shift uint8) Value {
	switch v.typ {
	case TypeLong:
		v.bits = uint32(int32(v.bits&mask) >> shift)
	case TypeULong:
		v.bits = (v.bits & mask) >> shift
	case TypeShort:
		v.bits = uint32((uint16(v.bits) & uint16(mask)) >> shift)
	case TypeChar:
		v.bits = uint32((uint8(v.bits) & uint8(mask)) >> shift)
	}
	return v
}

// Pack applies the write transform (v << shift) & mask, the inverse of
// Unpack for bits inside the mask.
func (v Value) Pack(mask uint32, shift uint8) Value {
	switch v.typ {
	case TypeLong, TypeULong:
		v.bits = (v.bits << shift) & mask
	case TypeShort:
		v.bits = uint32((uint16(v.bits) << shift) & uint16(mask))
	case TypeChar:
		v.bits = uint32((uint8(v.bits) << shift) & uint8(mask))
	}
	return v
}

// AppendTo appends the on-disk form of v. STRINGOFF writes its 4-byte
// offset, never the string itself. NULL writes nothing.
func (v Value) AppendTo(dst []byte, order binary.ByteOrder) []byte {
	var scratch [4]byte
	switch v.typ {
	case TypeLong, TypeFloat, TypeULong:
		order.PutUint32(scratch[:], v.bits)
		return append(dst, scratch[:4]...)
	case TypeStringOff:
		order.PutUint32(scratch[:], v.off)
		return append(dst, scratch[:4]...)
	case TypeShort:
		order.PutUint16(scratch[:], uint16(v.bits))
		return append(dst, scratch[:2]...)
	case TypeChar:
		return append(dst, uint8(v.bits))
	case TypeString:
		return append(dst, v.fixed[:]...)
	}
	return dst
}

// Text renders v for delimited text. With signed set, SHORT and CHAR are
// shown as int16 and int8. STRING bytes are read as UTF-8 with invalid
// sequences replaced and the trailing NUL padding dropped; they are never
// run through the legacy string table encoding.
func (v Value) Text(signed bool) string {
	switch v.typ {
	case TypeLong:
		return strconv.FormatInt(int64(v.Long()), 10)
	case TypeULong:
		return strconv.FormatUint(uint64(v.bits), 10)
	case TypeFloat:
		return formatFloat(v.Float())
	case TypeShort:
		if signed {
			return strconv.FormatInt(int64(int16(v.Short())), 10)
		}
		return strconv.FormatUint(uint64(v.Short()), 10)
	case TypeChar:
		if signed {
			return strconv.FormatInt(int64(int8(v.Char())), 10)
		}
		return strconv.FormatUint(uint64(v.Char()), 10)
	case TypeString:
		raw := bytes.TrimRight(v.fixed[:], "\x00")
		return strings.ToValidUTF8(string(raw), "�")
	case TypeStringOff:
		return v.str
	}
	return ""
}

func (v Value) String() string {
	return v.typ.String() + "(" + v.Text(false) + ")"
}

func formatFloat(f float32) string {
	switch {
	case math.IsInf(float64(f), 1):
		return "inf"
	case math.IsInf(float64(f), -1):
		return "-inf"
	}
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

// ParseValue is the inverse of Text. Text that does not parse as the column
// type yields the type's zero value. SHORT and CHAR accept both their signed
// and unsigned ranges.
func ParseValue(t FieldType, s string) Value {
	switch t {
	case TypeString:
		return FixedStringFrom(s)
	case TypeStringOff:
		return StringOff(s)
	case TypeNull:
		return Null()
	}

	s = strings.TrimSpace(s)
	switch t {
	case TypeLong:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Zero(t)
		}
		return Long(int32(n))
	case TypeULong:
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return Zero(t)
		}
		return ULong(uint32(n))
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Zero(t)
		}
		return Float(float32(f))
	case TypeShort:
		return Short(uint16(parseIntegral(s, 16)))
	case TypeChar:
		return Char(uint8(parseIntegral(s, 8)))
	}
	return Null()
}

func parseIntegral(s string, bits int) uint64 {
	if n, err := strconv.ParseInt(s, 10, bits); err == nil {
		return uint64(n)
	}
	if n, err := strconv.ParseUint(s, 10, bits); err == nil {
		return n
	}
	return 0
}
