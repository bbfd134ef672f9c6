package fit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceRows struct {
	rows []Row
	i    int
}

func (s *sliceRows) Next() (Row, bool) {
	if s.i >= len(s.rows) {
		return nil, false
	}
	r := s.rows[s.i]
	s.i++
	return r, true
}

func TestCompileProfileTypesAndMessages(t *testing.T) {
	types := &sliceRows{rows: []Row{
		{"file", "enum"},
		{"", "", "activity", "4"},
		{"", "", "course", "6"},
		{"File types.", ""}, // commentary row, upper-case first letter
	}}

	messages := &sliceRows{rows: []Row{
		{"monitoring"},
		{"", "253", "timestamp", "date_time"},
		{"", "0", "device_index", "uint8"},
		{"", "1", "cycles", "uint32"},
		{"", "", "steps", "uint32", "", "", "", "", "", "", "", "device_index", "1"},
	}}

	reg, cat, err := CompileProfile(nil, types, messages)
	require.NoError(t, err)

	fileType, err := reg.Lookup("file")
	require.NoError(t, err)
	enumType, ok := fileType.(EnumType)
	require.True(t, ok)
	internal, err := enumType.ProfileToInternal("activity")
	require.NoError(t, err)
	assert.Equal(t, int64(4), internal)

	msg, err := cat.Lookup("monitoring")
	require.NoError(t, err)
	cycles, ok := msg.FieldByName("cycles")
	require.True(t, ok)
	assert.True(t, cycles.IsDynamic)
	require.Len(t, cycles.References, 1)
	assert.Equal(t, "device_index", cycles.References[0].Name)

	header, err := cat.Lookup("HEADER")
	require.NoError(t, err)
	assert.Equal(t, HeaderGlobalType, header.Number)
}

func TestCompileProfileDanglingDynamicReferenceFails(t *testing.T) {
	types := &sliceRows{}
	messages := &sliceRows{rows: []Row{
		{"monitoring"},
		{"", "1", "cycles", "uint32"},
		{"", "", "steps", "uint32", "", "", "", "", "", "", "", "missing_ref", "1"},
	}}

	_, _, err := CompileProfile(nil, types, messages)
	var dangling *DanglingDynamicReferenceError
	assert.ErrorAs(t, err, &dangling)
}

func TestRowPeekerPushBack(t *testing.T) {
	src := &sliceRows{rows: []Row{{"a"}, {"b"}, {"c"}}}
	p := newRowPeeker(src)

	first, ok := p.next()
	require.True(t, ok)
	assert.Equal(t, Row{"a"}, first)

	peeked, ok := p.peek()
	require.True(t, ok)
	assert.Equal(t, Row{"b"}, peeked)

	second, ok := p.next()
	require.True(t, ok)
	assert.Equal(t, Row{"b"}, second)

	third, ok := p.next()
	require.True(t, ok)
	assert.Equal(t, Row{"c"}, third)

	_, ok = p.next()
	assert.False(t, ok)
}
