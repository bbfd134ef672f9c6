package fit

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoIntTypeDecode(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want interface{}
	}{
		{"uint8", []byte{0x2A}, int64(42)},
		{"sint8", []byte{0xFE}, int64(-2)},
		{"uint16", []byte{0x01, 0x00}, int64(1)},
		{"sint16", []byte{0xFF, 0xFF}, int64(-1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			typ, err := newAutoIntType(tc.name)
			require.NoError(t, err)
			v, err := typ.Decode(tc.data, 1, binary.LittleEndian)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}
}

func TestAutoIntTypeBadValueSentinel(t *testing.T) {
	typ, err := newAutoIntType("uint8")
	require.NoError(t, err)
	v, err := typ.Decode([]byte{0xFF}, 1, binary.LittleEndian)
	require.NoError(t, err)
	assert.Nil(t, v)

	signed, err := newAutoIntType("sint16")
	require.NoError(t, err)
	v, err = signed.Decode([]byte{0xFF, 0x7F}, 1, binary.LittleEndian)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAutoIntTypeArray(t *testing.T) {
	typ, err := newAutoIntType("uint8")
	require.NoError(t, err)
	v, err := typ.Decode([]byte{1, 2, 3}, 3, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(3)}, v)
}

func TestDateTypeAbsoluteThreshold(t *testing.T) {
	spec, err := newAutoIntType("uint32")
	require.NoError(t, err)
	dt := &dateType{name: "date_time", spec: spec, utc: true}

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, 1000000000)
	v, err := dt.Decode(buf, 1, binary.LittleEndian)
	require.NoError(t, err)
	ts, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, dateEpoch.Add(1000000000*time.Second), ts)
}

func TestDateTypeBelowThresholdStaysInteger(t *testing.T) {
	spec, err := newAutoIntType("uint32")
	require.NoError(t, err)
	dt := &dateType{name: "date_time", spec: spec, utc: true}

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, 100)
	v, err := dt.Decode(buf, 1, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, int64(100), v)
}

func TestMappingTypeRoundTrip(t *testing.T) {
	base, err := newAutoIntType("uint8")
	require.NoError(t, err)
	m := newMappingType("battery_status", base)
	m.addValue("critical", int64(1))
	m.addValue("low", int64(2))

	internal, err := m.ProfileToInternal("low")
	require.NoError(t, err)
	assert.Equal(t, int64(2), internal)

	profile, err := m.InternalToProfile(int64(1))
	require.NoError(t, err)
	assert.Equal(t, "critical", profile)

	_, err = m.ProfileToInternal("unknown")
	assert.Error(t, err)
}

func TestAutoFloatTypeDecode(t *testing.T) {
	typ, err := newAutoFloatType("float32")
	require.NoError(t, err)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, 0x3F800000) // 1.0f
	v, err := typ.Decode(buf, 1, binary.LittleEndian)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v.(float64), 0.0001)
}

func TestStringTypeDecodeTrimsAtNUL(t *testing.T) {
	typ := stringType{}
	v, err := typ.Decode([]byte("abc\x00def"), 1, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestRegistryLookupOrAutocreate(t *testing.T) {
	r := NewTypeRegistry(nil)
	typ, err := r.LookupOrAutocreate("uint16")
	require.NoError(t, err)
	assert.Equal(t, "uint16", typ.Name())

	typ, err = r.LookupOrAutocreate("sint64")
	require.NoError(t, err)
	assert.Equal(t, 8, typ.Size())

	_, err = r.LookupOrAutocreate("not_a_type")
	assert.Error(t, err)
}

func TestRegistryDuplicateInstallConflict(t *testing.T) {
	r := NewTypeRegistry(nil)
	base, err := newAutoIntType("uint8")
	require.NoError(t, err)
	err = r.Install(&aliasIntType{name: "uint8", spec: base})
	assert.NoError(t, err) // same size as existing uint8, tolerated

	bigger, err := newAutoIntType("uint16")
	require.NoError(t, err)
	err = r.Install(&aliasIntType{name: "uint8", spec: bigger})
	var conflict *DuplicateTypeConflictError
	assert.ErrorAs(t, err, &conflict)
}
