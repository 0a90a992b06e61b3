package bcsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bcsv/pkg/hash"
)

func newTestTable(t *testing.T, fields ...Field) *Table {
	t.Helper()
	table := NewTable()
	for _, f := range fields {
		require.NoError(t, table.AddField(f))
	}
	return table
}

func TestTableAddField(t *testing.T) {
	table := newTestTable(t, NewField(hash.Calc("id"), TypeLong))
	require.NoError(t, table.AppendRow(Long(7)))
	require.NoError(t, table.AppendRow(Long(8)))

	t.Run("duplicate hash is rejected", func(t *testing.T) {
		err := table.AddField(NewField(hash.Calc("id"), TypeShort))
		assert.ErrorIs(t, err, ErrDuplicateField)
	})

	t.Run("existing rows get zero values", func(t *testing.T) {
		h := hash.Calc("name")
		require.NoError(t, table.AddField(NewField(h, TypeStringOff)))

		column, err := table.Column(h)
		require.NoError(t, err)
		assert.Equal(t, []Value{StringOff(""), StringOff("")}, column)
	})

	assert.Equal(t, 2, table.EntryCount())
	assert.Equal(t, uint32(2), table.Header().FieldCount)
}

func TestTableRows(t *testing.T) {
	id := hash.Calc("id")
	name := hash.Calc("name")
	table := newTestTable(t, NewField(id, TypeLong), NewField(name, TypeStringOff))

	require.NoError(t, table.AppendRow(Long(1), StringOff("Left")))
	require.NoError(t, table.AppendRow(Long(2), StringOff("Right")))

	err := table.AppendRow(Long(3))
	assert.ErrorIs(t, err, ErrColumnLength)
	assert.Equal(t, 2, table.EntryCount())

	v, err := table.Value(1, name)
	require.NoError(t, err)
	assert.Equal(t, "Right", v.Str())

	require.NoError(t, table.SetValue(0, id, Long(10)))
	row, err := table.Row(0)
	require.NoError(t, err)
	assert.Equal(t, []Value{Long(10), StringOff("Left")}, row)

	_, err = table.Value(2, id)
	assert.ErrorIs(t, err, ErrRowOutOfRange)
	_, err = table.Value(-1, id)
	assert.ErrorIs(t, err, ErrRowOutOfRange)
	assert.ErrorIs(t, table.SetValue(5, id, Long(0)), ErrRowOutOfRange)
	_, err = table.Value(0, 0xBAD)
	assert.ErrorIs(t, err, ErrFieldNotFound)
	_, err = table.Row(3)
	assert.ErrorIs(t, err, ErrRowOutOfRange)

	t.Run("column is a copy", func(t *testing.T) {
		column, err := table.Column(id)
		require.NoError(t, err)
		column[0] = Long(99)

		v, err := table.Value(0, id)
		require.NoError(t, err)
		assert.Equal(t, int32(10), v.Long())
	})
}

func TestTableRemoveField(t *testing.T) {
	a, b := hash.Calc("a"), hash.Calc("b")
	table := newTestTable(t, NewField(a, TypeLong), NewField(b, TypeChar))

	require.NoError(t, table.RemoveField(a))
	assert.Len(t, table.Fields(), 1)
	_, ok := table.Field(a)
	assert.False(t, ok)
	_, err := table.Column(a)
	assert.ErrorIs(t, err, ErrFieldNotFound)

	assert.ErrorIs(t, table.RemoveField(a), ErrFieldNotFound)
}

func TestTableUpdateField(t *testing.T) {
	oldHash := hash.Calc("ScenarioNo")
	newHash := hash.Calc("ZoneName")
	other := hash.Calc("other")
	table := newTestTable(t, NewField(oldHash, TypeLong), NewField(other, TypeLong))
	require.NoError(t, table.AppendRow(Long(1), Long(2)))

	t.Run("rename moves the column", func(t *testing.T) {
		err := table.UpdateField(oldHash, func(f *Field) {
			f.Hash = newHash
			f.Mask = 0xFF
		})
		require.NoError(t, err)

		_, ok := table.Field(oldHash)
		assert.False(t, ok)
		f, ok := table.Field(newHash)
		require.True(t, ok)
		assert.Equal(t, uint32(0xFF), f.Mask)

		v, err := table.Value(0, newHash)
		require.NoError(t, err)
		assert.Equal(t, int32(1), v.Long())
		_, err = table.Column(oldHash)
		assert.ErrorIs(t, err, ErrFieldNotFound)

		assert.Equal(t, newHash, table.Fields()[0].Hash, "declared position is kept")
	})

	t.Run("collision leaves the table unchanged", func(t *testing.T) {
		err := table.UpdateField(newHash, func(f *Field) { f.Hash = other })
		assert.ErrorIs(t, err, ErrDuplicateField)

		f, ok := table.Field(newHash)
		require.True(t, ok)
		assert.Equal(t, uint32(0xFF), f.Mask)
		v, err := table.Value(0, other)
		require.NoError(t, err)
		assert.Equal(t, int32(2), v.Long())
	})

	t.Run("edit without rename", func(t *testing.T) {
		require.NoError(t, table.UpdateField(other, func(f *Field) { f.Shift = 3 }))
		f, _ := table.Field(other)
		assert.Equal(t, uint8(3), f.Shift)
	})

	t.Run("missing field", func(t *testing.T) {
		err := table.UpdateField(0xBAD, func(f *Field) {})
		assert.ErrorIs(t, err, ErrFieldNotFound)
	})

	t.Run("retype with rows", func(t *testing.T) {
		err := table.UpdateField(other, func(f *Field) { f.Tag = uint8(TypeFloat) })
		assert.ErrorIs(t, err, ErrTypeMismatch)
		f, _ := table.Field(other)
		assert.Equal(t, TypeLong, f.Type())
	})

	t.Run("retype empty table", func(t *testing.T) {
		empty := newTestTable(t, NewField(1, TypeLong))
		require.NoError(t, empty.UpdateField(1, func(f *Field) { f.Tag = uint8(TypeFloat) }))
		require.NoError(t, empty.AppendRow(Float(1.5)))
	})
}

func TestTableTypeMismatch(t *testing.T) {
	table := newTestTable(t,
		NewField(1, TypeLong),
		NewField(2, TypeStringOff),
		Field{Hash: 3, Tag: 9},
	)

	tests := []struct {
		name   string
		values []Value
	}{
		{name: "float in long column", values: []Value{Float(1.5), StringOff("a"), Null()}},
		{name: "string offset in long column", values: []Value{StringOff("x"), StringOff("a"), Null()}},
		{name: "fixed string in string offset column", values: []Value{Long(1), FixedStringFrom("a"), Null()}},
		{name: "value in null column", values: []Value{Long(1), StringOff("a"), ULong(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := table.AppendRow(tt.values...)
			assert.ErrorIs(t, err, ErrTypeMismatch)
			assert.Equal(t, 0, table.EntryCount())
			column, _ := table.Column(1)
			assert.Empty(t, column, "no column is extended by a rejected row")
		})
	}

	require.NoError(t, table.AppendRow(Long(1), StringOff("a"), Null()))

	t.Run("set value", func(t *testing.T) {
		assert.ErrorIs(t, table.SetValue(0, 1, Float(1.5)), ErrTypeMismatch)
		assert.ErrorIs(t, table.SetValue(0, 1, ULong(1)), ErrTypeMismatch)
		assert.ErrorIs(t, table.SetValue(0, 3, Long(1)), ErrTypeMismatch)
		require.NoError(t, table.SetValue(0, 3, Null()))

		v, err := table.Value(0, 1)
		require.NoError(t, err)
		assert.Equal(t, Long(1), v)
	})
}

func TestTableLayout(t *testing.T) {
	table := newTestTable(t,
		NewField(1, TypeChar),
		NewField(2, TypeStringOff),
		NewField(3, TypeLong),
		NewField(4, TypeString),
		NewField(5, TypeShort),
	)
	require.NoError(t, table.AppendRow(Char(1), StringOff("x"), Long(2), FixedStringFrom("y"), Short(3)))

	h, fields, err := table.Layout(RankClassic)
	require.NoError(t, err)

	assert.Equal(t, Header{
		EntryCount:      1,
		FieldCount:      5,
		EntryDataOffset: HeaderSize + 5*FieldSize,
		EntrySize:       32 + 4 + 2 + 1 + 4,
	}, h)

	offsets := map[uint32]uint16{}
	for _, f := range fields {
		offsets[f.Hash] = f.DataOffset
	}
	assert.Equal(t, map[uint32]uint16{4: 0, 3: 32, 5: 36, 1: 38, 2: 39}, offsets)

	assert.Equal(t, []uint32{1, 2, 3, 4, 5},
		[]uint32{fields[0].Hash, fields[1].Hash, fields[2].Hash, fields[3].Hash, fields[4].Hash},
		"layout keeps declared order")

	for _, f := range table.Fields() {
		assert.Equal(t, uint16(0), f.DataOffset, "layout does not modify the table")
	}

	require.NoError(t, table.Repack(RankClassic))
	f, _ := table.Field(2)
	assert.Equal(t, uint16(39), f.DataOffset)
	assert.Equal(t, h, table.Header())
}

func TestTableLayoutOverflow(t *testing.T) {
	table := NewTable()
	for i := 0; i < 2100; i++ {
		require.NoError(t, table.AddField(NewField(uint32(i), TypeString)))
	}
	_, _, err := table.Layout(RankClassic)
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}
