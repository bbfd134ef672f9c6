package fit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFileIDSchema(t *testing.T) (*TypeRegistry, *MessageCatalog) {
	t.Helper()
	reg := NewTypeRegistry(nil)
	cat := NewMessageCatalog(nil)

	uint8Type, err := reg.Lookup("uint8")
	require.NoError(t, err)
	uint16Type, err := reg.Lookup("uint16")
	require.NoError(t, err)

	msg := NewMessage("file_id")
	msg.HasNumber = true
	msg.Number = 0
	msg.AddField(newField("serial_number", 0, true, "", uint8Type))
	msg.AddField(newField("value", 1, true, "", uint16Type))
	cat.AddMessage(msg)

	header, err := newHeaderMessage(reg)
	require.NoError(t, err)
	cat.AddMessage(header)

	return reg, cat
}

// buildGoldenFitFile assembles a minimal 12-byte-header FIT byte stream
// holding one definition record (local message 0 -> global message 0, two
// uint8/uint16 fields) and one data record (serial_number=5, value=10).
func buildGoldenFitFile() []byte {
	definitionRecord := []byte{
		0x40,       // record header: definition, local id 0
		0x00,       // reserved
		0x00,       // architecture: little-endian
		0x00, 0x00, // global message number 0
		0x02,             // field count
		0x00, 0x01, 0x02, // field 0: number=0, size=1, base type uint8 (index 2)
		0x01, 0x02, 0x04, // field 1: number=1, size=2, base type uint16 (index 4)
	}
	dataRecord := []byte{
		0x00,       // record header: data, local id 0
		0x05,       // serial_number = 5
		0x0A, 0x00, // value = 10
	}

	dataSize := len(definitionRecord) + len(dataRecord)

	var buf bytes.Buffer
	buf.WriteByte(0x0C)                                  // header_size = 12
	buf.WriteByte(0x10)                                  // protocol_version
	buf.Write([]byte{0x64, 0x00})                        // profile_version = 100
	buf.Write([]byte{byte(dataSize), 0x00, 0x00, 0x00})  // data_size
	buf.Write([]byte(".FIT"))                            // fit_text
	buf.Write(definitionRecord)
	buf.Write(dataRecord)
	buf.Write([]byte{0x00, 0x00}) // file CRC, never verified

	return buf.Bytes()
}

func TestDecoderDecodeAll(t *testing.T) {
	reg, cat := buildFileIDSchema(t)
	dec := NewDecoder(reg, cat, nil)

	records, err := dec.DecodeAll(bytes.NewReader(buildGoldenFitFile()))
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "file_id", rec.Message.Name)
	assert.Equal(t, int64(5), rec.Values["serial_number"])
	assert.Equal(t, int64(10), rec.Values["value"])
}

func TestDecoderDecodeHeader12Byte(t *testing.T) {
	reg, cat := buildFileIDSchema(t)
	dec := NewDecoder(reg, cat, nil)

	header, err := dec.DecodeHeader(bytes.NewReader(buildGoldenFitFile()))
	require.NoError(t, err)
	assert.Equal(t, int64(12), header.Values["header_size"])
	_, hasChecksum := header.Values["checksum"]
	assert.False(t, hasChecksum)
}

func TestDecoderUnknownMessageFallback(t *testing.T) {
	reg := NewTypeRegistry(nil)
	cat := NewMessageCatalog(nil)
	header, err := newHeaderMessage(reg)
	require.NoError(t, err)
	cat.AddMessage(header)

	dec := NewDecoder(reg, cat, nil)
	records, err := dec.DecodeAll(bytes.NewReader(buildGoldenFitFile()))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "MESSAGE 0", records[0].Message.Name)
	assert.Equal(t, int64(5), records[0].Values["0"])
	assert.Equal(t, 1, dec.UnknownMessageCounts()[0])
}

func TestDecoderCompressedTimestampUnsupported(t *testing.T) {
	reg, cat := buildFileIDSchema(t)
	dec := NewDecoder(reg, cat, nil)

	body := buildGoldenFitFile()
	// Splice a compressed-timestamp header byte in place of the first
	// record's header byte.
	recordsStart := 12
	body[recordsStart] = 0x80 | 0x20

	_, err := dec.DecodeAll(bytes.NewReader(body))
	var unsupported *CompressedTimestampUnsupportedError
	assert.ErrorAs(t, err, &unsupported)
}
