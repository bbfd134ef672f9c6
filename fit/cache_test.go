package fit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadSchemaRoundTrip(t *testing.T) {
	types := &sliceRows{rows: []Row{
		{"file", "enum"},
		{"", "", "activity", "4"},
	}}
	messages := &sliceRows{rows: []Row{
		{"monitoring"},
		{"", "0", "device_index", "uint8"},
		{"", "1", "cycles", "uint32"},
		{"", "", "steps", "uint32", "", "", "", "", "", "", "", "device_index", "1"},
	}}

	reg, cat, err := CompileProfile(nil, types, messages)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, SaveSchema(&buf, reg, cat))

	reloadedReg, reloadedCat, err := LoadSchema(&buf, nil)
	require.NoError(t, err)

	fileType, err := reloadedReg.Lookup("file")
	require.NoError(t, err)
	enumType := fileType.(EnumType)
	internal, err := enumType.ProfileToInternal("activity")
	require.NoError(t, err)
	assert.Equal(t, int64(4), internal)

	msg, err := reloadedCat.Lookup("monitoring")
	require.NoError(t, err)
	cycles, ok := msg.FieldByName("cycles")
	require.True(t, ok)
	assert.True(t, cycles.IsDynamic)
	require.Len(t, cycles.References, 1)
	assert.Equal(t, "device_index", cycles.References[0].Name)

	header, err := reloadedCat.Lookup("HEADER")
	require.NoError(t, err)
	assert.Equal(t, HeaderGlobalType, header.Number)
}
