package bcsv

import "fmt"

// Errors
var (
	ErrTruncated      = &CodecError{"truncated input"}
	ErrLayoutMismatch = &CodecError{"layout mismatch"}
	ErrEncoding       = &CodecError{"text encoding error"}
	ErrInvalidPath    = &CodecError{"invalid path"}
	ErrFieldNotFound  = &CodecError{"field not found"}
	ErrDuplicateField = &CodecError{"duplicate field"}
	ErrRowOutOfRange  = &CodecError{"row out of range"}
	ErrColumnLength   = &CodecError{"column length mismatch"}
	ErrTypeMismatch   = &CodecError{"value type does not match field type"}
)

// CodecError is the kind of a codec failure. Compare with errors.Is.
type CodecError struct {
	Message string
}

func (e *CodecError) Error() string {
	return e.Message
}

// FormatError reports where in the byte stream a structural problem was
// found. It unwraps to its Kind.
type FormatError struct {
	Kind     *CodecError
	Section  string // header, field, entry, string table, layout
	Offset   int64
	Expected int64
	Actual   int64
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d: expected %d bytes, got %d",
		e.Kind.Message, e.Section, e.Offset, e.Expected, e.Actual)
}

func (e *FormatError) Unwrap() error {
	return e.Kind
}
