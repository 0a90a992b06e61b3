// Package textconv converts BCSV tables to and from delimited text and JSON.
//
// Every column is labelled by its field. The short label is
// "name:tag" where tag is the numeric type tag; the extended label is
// "name:mask:shift:TYPE" and keeps mask and shift so a table survives a
// text round trip unchanged. Names that are not in the hash table are
// written as 0x-prefixed hex hashes and read back verbatim.
package textconv

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ssargent/bcsv/pkg/bcsv"
	"github.com/ssargent/bcsv/pkg/hash"
)

// Errors
var (
	ErrInvalidHeader = &bcsv.CodecError{Message: "invalid header"}
	ErrInvalidValue  = &bcsv.CodecError{Message: "invalid value"}
)

// Options controls how tables are rendered and parsed.
type Options struct {
	// Delimiter separates CSV columns. Zero means ','.
	Delimiter rune
	// Signed renders SHORT and CHAR as signed integers.
	Signed bool
	// Extended writes name:mask:shift:TYPE labels instead of name:tag.
	Extended bool
	// Mask, when non-zero, replaces the mask of every imported field.
	Mask uint32
	// Names resolves hashes on export and hashes names on import. Nil
	// exports hex labels and imports with hash.Calc.
	Names *hash.Table
	// Logger receives debug output. Nil discards it.
	Logger *zap.Logger
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

func (o Options) sugar() *zap.SugaredLogger {
	if o.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return o.Logger.Named("textconv").Sugar()
}

// Label renders the column label of f. Unknown types keep their numeric
// tag in either form.
func Label(f bcsv.Field, names *hash.Table, extended bool) string {
	name := f.Name(names)
	if extended {
		typ := f.Type().String()
		if f.Type() == bcsv.TypeNull {
			typ = strconv.Itoa(int(f.Tag))
		}
		return fmt.Sprintf("%s:%d:%d:%s", name, f.Mask, f.Shift, typ)
	}
	return fmt.Sprintf("%s:%d", name, f.Tag)
}

// ParseLabel parses either label form back into a field. The short form
// gets the type's default mask and a zero shift.
func ParseLabel(label string, names *hash.Table) (bcsv.Field, error) {
	parts := strings.Split(label, ":")

	var f bcsv.Field
	switch len(parts) {
	case 2:
		tag, err := parseTag(parts[1])
		if err != nil {
			return f, fmt.Errorf("%w: %q: %v", ErrInvalidHeader, label, err)
		}
		f = bcsv.Field{Tag: tag, Mask: bcsv.TypeOf(tag).DefaultMask()}
	case 4:
		mask, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil {
			return f, fmt.Errorf("%w: %q: bad mask: %v", ErrInvalidHeader, label, err)
		}
		shift, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 8)
		if err != nil {
			return f, fmt.Errorf("%w: %q: bad shift: %v", ErrInvalidHeader, label, err)
		}
		tag, err := parseTag(parts[3])
		if err != nil {
			return f, fmt.Errorf("%w: %q: %v", ErrInvalidHeader, label, err)
		}
		f = bcsv.Field{Mask: uint32(mask), Shift: uint8(shift), Tag: tag}
	default:
		return f, fmt.Errorf("%w: %q: expected name:tag or name:mask:shift:type", ErrInvalidHeader, label)
	}

	h, err := parseName(parts[0], names)
	if err != nil {
		return f, fmt.Errorf("%w: %q: %v", ErrInvalidHeader, label, err)
	}
	f.Hash = h
	return f, nil
}

// parseTag accepts a numeric tag or a type name.
func parseTag(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		return uint8(n), nil
	}
	t := bcsv.ParseFieldType(s)
	if t == bcsv.TypeNull && !strings.EqualFold(s, "NULL") {
		return 0, fmt.Errorf("unknown type %q", s)
	}
	return uint8(t), nil
}

func parseName(name string, names *hash.Table) (uint32, error) {
	if hex, ok := strings.CutPrefix(name, "0x"); ok {
		h, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("bad hex hash %q", name)
		}
		return uint32(h), nil
	}
	if name == "" {
		return 0, fmt.Errorf("empty field name")
	}
	return names.Hash(name), nil
}

// buildTable creates an empty table with one field per label, applying
// the mask override.
func buildTable(labels []string, opts Options) (*bcsv.Table, []bcsv.Field, error) {
	if len(labels) == 0 {
		return nil, nil, fmt.Errorf("%w: no columns", ErrInvalidHeader)
	}

	table := bcsv.NewTable()
	fields := make([]bcsv.Field, 0, len(labels))
	for _, label := range labels {
		f, err := ParseLabel(label, opts.Names)
		if err != nil {
			return nil, nil, err
		}
		if opts.Mask != 0 {
			f.Mask = opts.Mask
		}
		if err := table.AddField(f); err != nil {
			return nil, nil, fmt.Errorf("%w: %q: %w", ErrInvalidHeader, label, err)
		}
		fields = append(fields, f)
	}
	return table, fields, nil
}
