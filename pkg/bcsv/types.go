package bcsv

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// On-disk sizes of the fixed structures.
const (
	HeaderSize = 16 // EntryCount(4) FieldCount(4) EntryDataOffset(4) EntrySize(4)
	FieldSize  = 12 // Hash(4) Mask(4) DataOffset(2) Shift(1) Type(1)
	StringSize = 32 // inline STRING buffer

	// Alignment and PadByte describe the trailing padding of every file.
	Alignment = 32
	PadByte   = 0x40
)

// FieldType is the column type tag stored in a field descriptor.
type FieldType uint8

const (
	TypeLong FieldType = iota
	TypeString
	TypeFloat
	TypeULong
	TypeShort
	TypeChar
	TypeStringOff
	// TypeNull stands in for every tag the format does not define.
	TypeNull
)

var fieldTypeNames = [...]string{
	TypeLong:      "LONG",
	TypeString:    "STRING",
	TypeFloat:     "FLOAT",
	TypeULong:     "ULONG",
	TypeShort:     "SHORT",
	TypeChar:      "CHAR",
	TypeStringOff: "STRINGOFF",
	TypeNull:      "NULL",
}

// TypeOf maps a raw tag to its FieldType. Unknown tags become TypeNull.
func TypeOf(tag uint8) FieldType {
	if tag > uint8(TypeStringOff) {
		return TypeNull
	}
	return FieldType(tag)
}

// Size returns the number of bytes a value of this type occupies in a row.
func (t FieldType) Size() int {
	switch t {
	case TypeLong, TypeFloat, TypeULong, TypeStringOff:
		return 4
	case TypeString:
		return StringSize
	case TypeShort:
		return 2
	case TypeChar:
		return 1
	default:
		return 0
	}
}

// DefaultMask returns the all-ones mask for the type's width. Types that are
// never bit-packed get a zero mask.
func (t FieldType) DefaultMask() uint32 {
	switch t {
	case TypeLong, TypeULong, TypeStringOff:
		return 0xFFFFFFFF
	case TypeShort:
		return 0xFFFF
	case TypeChar:
		return 0xFF
	default:
		return 0
	}
}

// Integral reports whether mask and shift apply to the type.
func (t FieldType) Integral() bool {
	switch t {
	case TypeLong, TypeULong, TypeShort, TypeChar:
		return true
	}
	return false
}

func (t FieldType) String() string {
	if int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return fieldTypeNames[TypeNull]
}

// ParseFieldType parses a type name such as "LONG" or "STRINGOFF". Unknown
// names yield TypeNull.
func ParseFieldType(name string) FieldType {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range fieldTypeNames {
		if n == name {
			return FieldType(i)
		}
	}
	return TypeNull
}

// Endian selects the byte order of multi-byte values. Files carry no marker,
// so the caller picks one per call.
type Endian uint8

const (
	Big Endian = iota
	Little
	Native
)

// ByteOrder returns the encoding/binary order for e.
func (e Endian) ByteOrder() binary.ByteOrder {
	switch e {
	case Big:
		return binary.BigEndian
	case Little:
		return binary.LittleEndian
	default:
		return binary.NativeEndian
	}
}

func (e Endian) String() string {
	switch e {
	case Big:
		return "big"
	case Little:
		return "little"
	default:
		return "native"
	}
}

// ParseEndian accepts "big", "little" or "native" (case-insensitive), plus
// the short forms "be" and "le".
func ParseEndian(s string) (Endian, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "big", "be":
		return Big, nil
	case "little", "le":
		return Little, nil
	case "native", "":
		return Native, nil
	}
	return Native, fmt.Errorf("unknown endian %q", s)
}
