package textconv

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bcsv/pkg/bcsv"
	"github.com/ssargent/bcsv/pkg/hash"
)

// Calc("id") has no name in the tables used below and renders as 0xD1B.
var (
	nameHash = hash.Calc("name")
	idHash   = hash.Calc("id")
)

func sampleTable(t *testing.T) *bcsv.Table {
	t.Helper()
	table := bcsv.NewTable()
	require.NoError(t, table.AddField(bcsv.NewField(nameHash, bcsv.TypeStringOff)))
	require.NoError(t, table.AddField(bcsv.NewField(idHash, bcsv.TypeLong)))
	require.NoError(t, table.AppendRow(bcsv.StringOff("Left"), bcsv.Long(1)))
	require.NoError(t, table.AppendRow(bcsv.StringOff("Right"), bcsv.Long(-2)))
	return table
}

func TestLabel(t *testing.T) {
	names := hash.New("name")
	f := bcsv.Field{Hash: nameHash, Mask: 0xFF0, Shift: 4, Tag: uint8(bcsv.TypeShort)}

	assert.Equal(t, "name:4", Label(f, names, false))
	assert.Equal(t, "name:4080:4:SHORT", Label(f, names, true))
	assert.Equal(t, "0xD1B:0", Label(bcsv.NewField(idHash, bcsv.TypeLong), names, false))
}

func TestParseLabel(t *testing.T) {
	testCases := []struct {
		name  string
		label string
		want  bcsv.Field
	}{
		{
			name:  "short form by name",
			label: "name:6",
			want:  bcsv.Field{Hash: nameHash, Mask: 0xFFFFFFFF, Tag: 6},
		},
		{
			name:  "short form by hex",
			label: "0xd1b:4",
			want:  bcsv.Field{Hash: idHash, Mask: 0xFFFF, Tag: 4},
		},
		{
			name:  "short form by type name",
			label: "id:CHAR",
			want:  bcsv.Field{Hash: idHash, Mask: 0xFF, Tag: 5},
		},
		{
			name:  "unknown numeric tag is kept",
			label: "id:9",
			want:  bcsv.Field{Hash: idHash, Tag: 9},
		},
		{
			name:  "extended form",
			label: "name:4080:4:SHORT",
			want:  bcsv.Field{Hash: nameHash, Mask: 0xFF0, Shift: 4, Tag: 4},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseLabel(tc.label, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{"name", "name:1:2", "0xZZ:0", ":0", "name:WORD", "name:x:0:LONG", "name:1:300:LONG"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParseLabel(bad, nil)
			assert.ErrorIs(t, err, ErrInvalidHeader)
		})
	}

	t.Run("legacy hash function", func(t *testing.T) {
		got, err := ParseLabel("name:0", hash.NewWithFunc(hash.CalcOld))
		require.NoError(t, err)
		assert.Equal(t, hash.CalcOld("name"), got.Hash)
	})
}

func TestExportCSV(t *testing.T) {
	table := sampleTable(t)
	names := hash.New("name")

	t.Run("short labels", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ExportCSV(&buf, table, Options{Names: names}))
		assert.Equal(t, "name:6,0xD1B:0\nLeft,1\nRight,-2\n", buf.String())
	})

	t.Run("extended labels and delimiter", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ExportCSV(&buf, table, Options{Names: names, Extended: true, Delimiter: '\t'}))
		assert.Equal(t,
			"name:4294967295:0:STRINGOFF\t0xD1B:4294967295:0:LONG\nLeft\t1\nRight\t-2\n",
			buf.String())
	})

	t.Run("signed small integers", func(t *testing.T) {
		small := bcsv.NewTable()
		require.NoError(t, small.AddField(bcsv.NewField(1, bcsv.TypeShort)))
		require.NoError(t, small.AddField(bcsv.NewField(2, bcsv.TypeChar)))
		require.NoError(t, small.AppendRow(bcsv.Short(0xFFFF), bcsv.Char(0x80)))

		var buf bytes.Buffer
		require.NoError(t, ExportCSV(&buf, small, Options{Signed: true}))
		assert.Equal(t, "0x1:4,0x2:5\n-1,-128\n", buf.String())
	})

	t.Run("values containing the delimiter are quoted", func(t *testing.T) {
		quoted := bcsv.NewTable()
		require.NoError(t, quoted.AddField(bcsv.NewField(1, bcsv.TypeStringOff)))
		require.NoError(t, quoted.AppendRow(bcsv.StringOff("a,b")))

		var buf bytes.Buffer
		require.NoError(t, ExportCSV(&buf, quoted, Options{}))
		assert.Equal(t, "0x1:6\n\"a,b\"\n", buf.String())

		back, err := ImportCSV(&buf, Options{})
		require.NoError(t, err)
		v, err := back.Value(0, 1)
		require.NoError(t, err)
		assert.Equal(t, "a,b", v.Str())
	})

	t.Run("empty single cell survives import", func(t *testing.T) {
		testCases := []struct {
			name   string
			typ    bcsv.FieldType
			values []bcsv.Value
			want   string
		}{
			{
				name:   "string offset",
				typ:    bcsv.TypeStringOff,
				values: []bcsv.Value{bcsv.StringOff("a"), bcsv.StringOff(""), bcsv.StringOff("b")},
				want:   "0x1234:6\na\n\"\"\nb\n",
			},
			{
				name:   "fixed string",
				typ:    bcsv.TypeString,
				values: []bcsv.Value{bcsv.FixedStringFrom(""), bcsv.FixedStringFrom("x")},
				want:   "0x1234:1\n\"\"\nx\n",
			},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				single := bcsv.NewTable()
				require.NoError(t, single.AddField(bcsv.NewField(0x1234, tc.typ)))
				for _, v := range tc.values {
					require.NoError(t, single.AppendRow(v))
				}

				var buf bytes.Buffer
				require.NoError(t, ExportCSV(&buf, single, Options{}))
				assert.Equal(t, tc.want, buf.String())

				back, err := ImportCSV(&buf, Options{})
				require.NoError(t, err)
				require.Equal(t, len(tc.values), back.EntryCount())
				column, err := back.Column(0x1234)
				require.NoError(t, err)
				assert.Equal(t, tc.values, column)
			})
		}
	})
}

func TestImportCSV(t *testing.T) {
	t.Run("short labels", func(t *testing.T) {
		in := "name:6,0xD1B:0\r\nLeft,1\r\nRight,oops\r\n"
		table, err := ImportCSV(strings.NewReader(in), Options{})
		require.NoError(t, err)

		assert.Equal(t, 2, table.EntryCount())
		row, err := table.Row(1)
		require.NoError(t, err)
		assert.Equal(t, []bcsv.Value{bcsv.StringOff("Right"), bcsv.Long(0)}, row)

		f, ok := table.Field(idHash)
		require.True(t, ok)
		assert.Equal(t, uint32(0xFFFFFFFF), f.Mask)
	})

	t.Run("mask override", func(t *testing.T) {
		in := "a:0;b:3\n1;2\n"
		table, err := ImportCSV(strings.NewReader(in), Options{Delimiter: ';', Mask: 0xFF})
		require.NoError(t, err)
		for _, f := range table.Fields() {
			assert.Equal(t, uint32(0xFF), f.Mask)
		}
	})

	t.Run("unknown tags import as null", func(t *testing.T) {
		table, err := ImportCSV(strings.NewReader("a:9\nwhatever\n"), Options{})
		require.NoError(t, err)
		v, err := table.Value(0, hash.Calc("a"))
		require.NoError(t, err)
		assert.Equal(t, bcsv.TypeNull, v.Type())
	})

	t.Run("header only", func(t *testing.T) {
		table, err := ImportCSV(strings.NewReader("a:0\n"), Options{})
		require.NoError(t, err)
		assert.Equal(t, 0, table.EntryCount())
		assert.Len(t, table.Fields(), 1)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := ImportCSV(strings.NewReader(""), Options{})
		assert.ErrorIs(t, err, ErrInvalidHeader)

		_, err = ImportCSV(strings.NewReader("a\n1\n"), Options{})
		assert.ErrorIs(t, err, ErrInvalidHeader)

		_, err = ImportCSV(strings.NewReader("a:0,a:1\n1,2\n"), Options{})
		assert.ErrorIs(t, err, ErrInvalidHeader)
		assert.ErrorIs(t, err, bcsv.ErrDuplicateField)

		_, err = ImportCSV(strings.NewReader("a:0,b:0\n1,2\n3\n"), Options{})
		assert.ErrorIs(t, err, bcsv.ErrColumnLength)
		assert.Contains(t, err.Error(), "line 3")
	})
}

func TestCSVRoundTripThroughCodec(t *testing.T) {
	table := bcsv.NewTable()
	require.NoError(t, table.AddField(bcsv.Field{Hash: 1, Mask: 0xFF0, Shift: 4, Tag: uint8(bcsv.TypeULong)}))
	require.NoError(t, table.AddField(bcsv.NewField(2, bcsv.TypeString)))
	require.NoError(t, table.AddField(bcsv.NewField(3, bcsv.TypeFloat)))
	require.NoError(t, table.AddField(bcsv.NewField(4, bcsv.TypeStringOff)))
	require.NoError(t, table.AddField(bcsv.NewField(5, bcsv.TypeShort)))
	require.NoError(t, table.AppendRow(bcsv.ULong(0xAB), bcsv.FixedStringFrom("Dummy"), bcsv.Float(0.1), bcsv.StringOff("ダミー"), bcsv.Short(0x8000)))
	require.NoError(t, table.AppendRow(bcsv.ULong(3), bcsv.FixedStringFrom(""), bcsv.Float(float32(math.Inf(1))), bcsv.StringOff(" spaced "), bcsv.Short(1)))

	codec := bcsv.NewCodec()
	want, err := codec.Encode(table)
	require.NoError(t, err)

	for _, signed := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, ExportCSV(&buf, table, Options{Extended: true, Signed: signed}))

		back, err := ImportCSV(&buf, Options{})
		require.NoError(t, err)

		got, err := codec.Encode(back)
		require.NoError(t, err)
		assert.Equal(t, want, got, "signed=%v", signed)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, sampleTable(t), Options{Names: hash.New("name")}))

	want := `{
  "name:4294967295:0:STRINGOFF": [
    "Left",
    "Right"
  ],
  "0xD1B:4294967295:0:LONG": [
    1,
    -2
  ]
}
`
	assert.Equal(t, want, buf.String())
}

func TestImportJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		table := sampleTable(t)
		require.NoError(t, table.AddField(bcsv.NewField(3, bcsv.TypeFloat)))
		require.NoError(t, table.AddField(bcsv.Field{Hash: 4, Tag: 9}))
		require.NoError(t, table.SetValue(0, 3, bcsv.Float(float32(math.Inf(-1)))))
		require.NoError(t, table.SetValue(1, 3, bcsv.Float(2.5)))

		var buf bytes.Buffer
		require.NoError(t, ExportJSON(&buf, table, Options{}))
		assert.Contains(t, buf.String(), `"-inf"`)
		assert.Contains(t, buf.String(), "null")

		back, err := ImportJSON(&buf, Options{})
		require.NoError(t, err)
		assert.Equal(t, table.Fields(), back.Fields())
		for row := 0; row < table.EntryCount(); row++ {
			want, err := table.Row(row)
			require.NoError(t, err)
			got, err := back.Row(row)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("numbers given as strings", func(t *testing.T) {
		in := `{"a:0": ["5", 6], "b:6": ["x", "y"]}`
		table, err := ImportJSON(strings.NewReader(in), Options{})
		require.NoError(t, err)
		column, err := table.Column(hash.Calc("a"))
		require.NoError(t, err)
		assert.Equal(t, []bcsv.Value{bcsv.Long(5), bcsv.Long(6)}, column)
	})

	t.Run("errors", func(t *testing.T) {
		testCases := []struct {
			name string
			in   string
			err  error
		}{
			{"empty", "", ErrInvalidHeader},
			{"not an object", `[1, 2]`, ErrInvalidHeader},
			{"no columns", `{}`, ErrInvalidHeader},
			{"bad label", `{"a": [1]}`, ErrInvalidHeader},
			{"ragged", `{"a:0": [1, 2], "b:0": [1]}`, bcsv.ErrColumnLength},
			{"not an array", `{"a:0": 1}`, ErrInvalidValue},
			{"nested value", `{"a:0": [{"x": 1}]}`, ErrInvalidValue},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := ImportJSON(strings.NewReader(tc.in), Options{})
				assert.ErrorIs(t, err, tc.err)
			})
		}
	})
}

func TestLabelUnknownTag(t *testing.T) {
	f := bcsv.Field{Hash: 4, Tag: 9}
	assert.Equal(t, "0x4:9", Label(f, nil, false))
	assert.Equal(t, "0x4:0:0:9", Label(f, nil, true))

	back, err := ParseLabel(Label(f, nil, true), nil)
	require.NoError(t, err)
	assert.Equal(t, f, back)
}
