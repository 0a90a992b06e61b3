package textconv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/ssargent/bcsv/pkg/bcsv"
)

// ExportCSV writes t as delimited text: one label row, then one row per
// entry with values in declared field order. Lines end in LF.
func ExportCSV(w io.Writer, t *bcsv.Table, opts Options) error {
	fields := t.Fields()
	cw := csv.NewWriter(w)
	cw.Comma = opts.delimiter()

	record := make([]string, len(fields))
	for i, f := range fields {
		record[i] = Label(f, opts.Names, opts.Extended)
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for row := 0; row < t.EntryCount(); row++ {
		values, err := t.Row(row)
		if err != nil {
			return err
		}
		for i, v := range values {
			record[i] = v.Text(opts.Signed)
		}
		if len(record) == 1 && record[0] == "" {
			// A blank line would be skipped on import; quote the empty cell.
			if err := writeEmptyCell(cw, w); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			continue
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	opts.sugar().Debugw("exported csv", "fields", len(fields), "rows", t.EntryCount())
	return nil
}

func writeEmptyCell(cw *csv.Writer, w io.Writer) error {
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\"\"\n")
	return err
}

// ImportCSV parses delimited text written by ExportCSV, or by hand in
// either label form. Every row must have one value per label; values that
// do not parse as their column type become zero.
func ImportCSV(r io.Reader, opts Options) (*bcsv.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = opts.delimiter()
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	labels, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	table, fields, err := buildTable(labels, opts)
	if err != nil {
		return nil, err
	}

	values := make([]bcsv.Value, len(fields))
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if len(record) != len(fields) {
			return nil, fmt.Errorf("%w: line %d has %d values, header has %d",
				bcsv.ErrColumnLength, line, len(record), len(fields))
		}
		for i, f := range fields {
			values[i] = bcsv.ParseValue(f.Type(), record[i])
		}
		if err := table.AppendRow(values...); err != nil {
			return nil, err
		}
	}

	opts.sugar().Debugw("imported csv", "fields", len(fields), "rows", table.EntryCount())
	return table, nil
}
