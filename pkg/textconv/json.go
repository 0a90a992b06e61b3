package textconv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/ssargent/bcsv/pkg/bcsv"
)

// ExportJSON writes t as one JSON object that maps each extended label to
// the column's values, keys in declared field order. Numbers are written
// as JSON numbers except non-finite floats, which are written as strings.
func ExportJSON(w io.Writer, t *bcsv.Table, opts Options) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range t.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(Label(f, opts.Names, true))
		if err != nil {
			return fmt.Errorf("failed to encode label: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		column, err := t.Column(f.Hash)
		if err != nil {
			return err
		}
		buf.WriteByte('[')
		for row, v := range column {
			if row > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSONValue(&buf, v, opts.Signed); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return fmt.Errorf("failed to format json: %w", err)
	}
	out.WriteByte('\n')
	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	opts.sugar().Debugw("exported json", "fields", len(t.Fields()), "rows", t.EntryCount())
	return nil
}

func appendJSONValue(buf *bytes.Buffer, v bcsv.Value, signed bool) error {
	switch v.Type() {
	case bcsv.TypeNull:
		buf.WriteString("null")
		return nil
	case bcsv.TypeFloat:
		f := float64(v.Float())
		if math.IsInf(f, 0) || math.IsNaN(f) {
			break
		}
		buf.WriteString(v.Text(signed))
		return nil
	case bcsv.TypeString, bcsv.TypeStringOff:
	default:
		buf.WriteString(v.Text(signed))
		return nil
	}

	s, err := json.Marshal(v.Text(signed))
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	buf.Write(s)
	return nil
}

// ImportJSON parses an object written by ExportJSON. Keys may use either
// label form and every array must have the same length.
func ImportJSON(r io.Reader, opts Options) (*bcsv.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected a json object", ErrInvalidHeader)
	}

	var labels []string
	var columns [][]any
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read json key: %w", err)
		}
		label, _ := tok.(string)

		var column []any
		if err := dec.Decode(&column); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidValue, label, err)
		}
		labels = append(labels, label)
		columns = append(columns, column)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read json: %w", err)
	}

	table, fields, err := buildTable(labels, opts)
	if err != nil {
		return nil, err
	}

	rows := len(columns[0])
	for i, column := range columns {
		if len(column) != rows {
			return nil, fmt.Errorf("%w: %q has %d values, %q has %d",
				bcsv.ErrColumnLength, labels[i], len(column), labels[0], rows)
		}
	}

	values := make([]bcsv.Value, len(fields))
	for row := 0; row < rows; row++ {
		for i, f := range fields {
			v, err := parseJSONValue(f.Type(), columns[i][row])
			if err != nil {
				return nil, fmt.Errorf("%w: %q row %d: %v", ErrInvalidValue, labels[i], row, err)
			}
			values[i] = v
		}
		if err := table.AppendRow(values...); err != nil {
			return nil, err
		}
	}

	opts.sugar().Debugw("imported json", "fields", len(fields), "rows", rows)
	return table, nil
}

func parseJSONValue(t bcsv.FieldType, raw any) (bcsv.Value, error) {
	switch v := raw.(type) {
	case nil:
		return bcsv.Zero(t), nil
	case json.Number:
		return bcsv.ParseValue(t, v.String()), nil
	case string:
		return bcsv.ParseValue(t, v), nil
	}
	return bcsv.Value{}, fmt.Errorf("unsupported json value %T", raw)
}
