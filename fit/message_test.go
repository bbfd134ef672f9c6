package fit

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *TypeRegistry {
	t.Helper()
	return NewTypeRegistry(nil)
}

func TestMessageResolveDynamicsWiresReferences(t *testing.T) {
	reg := newTestRegistry(t)
	uint8Type, err := reg.Lookup("uint8")
	require.NoError(t, err)
	uint16Type, err := reg.Lookup("uint16")
	require.NoError(t, err)

	msg := NewMessage("event")
	eventField := newField("event", 0, true, "", uint8Type)
	dataField := newField("data", 1, true, "", uint16Type)
	msg.AddField(eventField)
	msg.AddField(dataField)

	alt := newField("gear_change_data", 0, false, "", uint16Type)
	dataField.stash = append(dataField.stash, dynamicStash{refName: "event", refValue: "1", alt: alt})

	require.NoError(t, msg.resolveDynamics())
	assert.True(t, dataField.IsDynamic)
	assert.Len(t, dataField.References, 1)
	assert.Equal(t, "event", dataField.References[0].Name)

	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, 7)
	v, err := dataField.decodeValue(buf, 1, binary.LittleEndian, map[string]interface{}{"event": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestMessageResolveDynamicsDanglingReference(t *testing.T) {
	reg := newTestRegistry(t)
	uint8Type, _ := reg.Lookup("uint8")

	msg := NewMessage("event")
	dataField := newField("data", 1, true, "", uint8Type)
	msg.AddField(dataField)
	dataField.stash = append(dataField.stash, dynamicStash{refName: "nonexistent", refValue: "1", alt: dataField})

	err := msg.resolveDynamics()
	var dangling *DanglingDynamicReferenceError
	assert.ErrorAs(t, err, &dangling)
}

func TestDecodeValueUnresolvableWithoutSiblings(t *testing.T) {
	reg := newTestRegistry(t)
	uint8Type, _ := reg.Lookup("uint8")
	field := newField("data", 1, true, "", uint8Type)
	field.IsDynamic = true
	field.References = []*Field{newField("event", 0, true, "", uint8Type)}
	field.Dynamic = map[dynamicKey]*Field{}

	_, err := field.decodeValue([]byte{1}, 1, binary.LittleEndian, nil)
	var unresolvable *DynamicUnresolvableError
	assert.ErrorAs(t, err, &unresolvable)
}

func TestMessageCatalogByNumberCreatesPlaceholder(t *testing.T) {
	cat := NewMessageCatalog(nil)
	m := cat.ByNumber(9999)
	assert.Equal(t, "MESSAGE 9999", m.Name)
	assert.True(t, m.HasNumber)

	again := cat.ByNumber(9999)
	assert.Same(t, m, again)
}

func TestMessageCatalogLookupUnknown(t *testing.T) {
	cat := NewMessageCatalog(nil)
	_, err := cat.Lookup("nonexistent")
	var unknown *UnknownMessageError
	assert.ErrorAs(t, err, &unknown)
}

func TestWithUnit(t *testing.T) {
	assert.Nil(t, withUnit(nil, "km"))
	assert.Equal(t, int64(42), withUnit(int64(42), ""))
	assert.Equal(t, "42km", withUnit(int64(42), "km"))
}
