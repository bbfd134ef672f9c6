package fit

// headerFields mirrors the Python original's HEADER_FIELDS tuple: the fixed
// layout of a FIT file header, exposed as an ordinary Message numbered
// HeaderGlobalType so the Record Decoder can read it through the same
// Field/Type machinery as any other message (spec.md §4.5, §9).
var headerFields = []struct {
	name     string
	number   int
	typeName string
}{
	{"header_size", 0, "uint8"},
	{"protocol_version", 1, "uint8"},
	{"profile_version", 2, "uint16"},
	{"data_size", 3, "uint32"},
	{"fit_text", 4, "string"},
	{"checksum", 5, "uint16"},
}

// newHeaderMessage builds the synthetic HEADER message. Its checksum field
// is present in the 14-byte form of a file header but absent from the
// 12-byte form; the Record Decoder suppresses it by header size rather than
// this message carrying two shapes (spec.md §4.5 point 3).
func newHeaderMessage(registry *TypeRegistry) (*Message, error) {
	m := NewMessage("HEADER")
	m.HasNumber = true
	m.Number = HeaderGlobalType

	for _, hf := range headerFields {
		typ, err := registry.Lookup(hf.typeName)
		if err != nil {
			return nil, err
		}
		m.AddField(newField(hf.name, hf.number, true, "", typ))
	}
	return m, nil
}
