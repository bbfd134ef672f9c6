package fit

import (
	"encoding/binary"
	"fmt"
)

// dynamicKey indexes a dynamic field's alternative table by the reference
// field's profile name and its decoded internal value (spec.md §3).
type dynamicKey struct {
	refName string
	value   interface{}
}

// dynamicStash holds an unresolved (reference-name, reference-value,
// alternative-field) tuple collected while reading a message's field rows,
// before the second, same-message resolution pass runs (spec.md §4.3 point
// 5, §9's "arena + index" design note).
type dynamicStash struct {
	refName  string
	refValue string
	alt      *Field
}

// Field is a single field of a Message (spec.md §3). A Field with
// HasNumber == false is a dynamic alternative that only ever lives inside
// another field's Dynamic table — it is never indexed directly by a
// Message.
type Field struct {
	Name      string
	Number    int
	HasNumber bool
	Unit      string
	Type      Type

	IsDynamic  bool
	References []*Field
	Dynamic    map[dynamicKey]*Field

	stash []dynamicStash
}

func newField(name string, number int, hasNumber bool, unit string, typ Type) *Field {
	return &Field{Name: name, Number: number, HasNumber: hasNumber, Unit: unit, Type: typ}
}

// ProfileToInternal converts a profile literal through this field's Type.
func (f *Field) ProfileToInternal(literal string) (interface{}, error) {
	return f.Type.ProfileToInternal(literal)
}

// withUnit renders a decoded value for storage in a decoded record: nil
// stays nil, otherwise a non-empty unit is appended to the value's string
// form (spec.md §4.6 point 4). A field with no unit keeps its native Go
// type, which is what lets callers do numeric comparisons directly; this
// resolves an ambiguity between the distilled spec's worked example
// (§8 scenario 6, an untyped int in the decoded map) and the always-stringify
// behaviour of the Python original's MessageField._with_unit — see
// DESIGN.md.
func withUnit(value interface{}, unit string) interface{} {
	if value == nil {
		return nil
	}
	if unit == "" {
		return value
	}
	return fmt.Sprintf("%v%s", value, unit)
}

// decodeValue decodes this field's wire bytes, resolving a dynamic
// alternative first if applicable (spec.md §4.6 point 6). siblings holds the
// raw (pre-unit) values of fields already decoded earlier in the same
// record; a nil siblings map means the caller supplied no resolution
// context at all, which is only valid for a non-dynamic field.
func (f *Field) decodeValue(data []byte, count int, order binary.ByteOrder, siblings map[string]interface{}) (interface{}, error) {
	if f.IsDynamic {
		if siblings == nil {
			return nil, &DynamicUnresolvableError{Field: f.Name}
		}
		for _, ref := range f.References {
			v, ok := siblings[ref.Name]
			if !ok {
				continue
			}
			if alt, ok := f.Dynamic[dynamicKey{ref.Name, v}]; ok {
				return alt.Type.Decode(data, count, order)
			}
		}
	}
	return f.Type.Decode(data, count, order)
}

// Message is a named, field-indexed FIT message (spec.md §3). Messages and
// their Fields are immutable once the Message Compiler's dynamic resolution
// pass has run.
type Message struct {
	Name      string
	Number    int
	HasNumber bool

	byName   map[string]*Field
	byNumber map[int]*Field
	order    []*Field
}

// NewMessage constructs an empty, unnumbered message. Use HasNumber/Number
// to record the mesg_num mapping's result once it is known.
func NewMessage(name string) *Message {
	return &Message{
		Name:     name,
		byName:   make(map[string]*Field),
		byNumber: make(map[int]*Field),
	}
}

// AddField indexes a field by profile name and, if it carries one, by
// number.
func (m *Message) AddField(f *Field) {
	m.byName[f.Name] = f
	m.order = append(m.order, f)
	if f.HasNumber {
		m.byNumber[f.Number] = f
	}
}

// FieldByName looks up a field by profile name, used to resolve dynamic
// field references (spec.md §4.3 point 5).
func (m *Message) FieldByName(name string) (*Field, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// FieldByNumber looks up a field by its wire field number.
func (m *Message) FieldByNumber(number int) (*Field, bool) {
	f, ok := m.byNumber[number]
	return f, ok
}

// Field is the direct, error-returning form of FieldByNumber (spec.md §7's
// direct-lookup API), failing with UnknownFieldNumberError when absent.
func (m *Message) Field(number int) (*Field, error) {
	f, ok := m.byNumber[number]
	if !ok {
		return nil, &UnknownFieldNumberError{Message: m.Name, Number: number}
	}
	return f, nil
}

// Fields returns fields in declaration order (spec.md §4.6's "ordering
// guarantee" relies on callers walking a wire definition's own field order,
// not this slice, but tests find this convenient for completeness checks).
func (m *Message) Fields() []*Field {
	return m.order
}

// resolveDynamics runs the second, same-message pass that turns each
// field's stashed (reference-name, reference-literal, alternative) tuples
// into resolved References/Dynamic table entries (spec.md §4.3 point 5).
// References may be forward references within the message, which is why
// this only runs once every field row has been read.
func (m *Message) resolveDynamics() error {
	for _, f := range m.order {
		if len(f.stash) == 0 {
			continue
		}
		f.IsDynamic = true
		f.Dynamic = make(map[dynamicKey]*Field, len(f.stash))
		seen := make(map[string]bool)
		for _, s := range f.stash {
			ref, ok := m.FieldByName(s.refName)
			if !ok {
				return &DanglingDynamicReferenceError{Message: m.Name, Field: f.Name, Reference: s.refName}
			}
			value, err := ref.ProfileToInternal(s.refValue)
			if err != nil {
				return err
			}
			if !seen[ref.Name] {
				f.References = append(f.References, ref)
				seen[ref.Name] = true
			}
			f.Dynamic[dynamicKey{ref.Name, value}] = s.alt
		}
		f.stash = nil
	}
	return nil
}

// MessageCatalog holds every named Message compiled from the profile's
// Messages sheet, indexed by both profile name and global message number
// (spec.md §3, §4.3).
type MessageCatalog struct {
	log      LogSink
	byName   map[string]*Message
	byNumber map[int]*Message
}

// NewMessageCatalog constructs an empty catalog.
func NewMessageCatalog(log LogSink) *MessageCatalog {
	return &MessageCatalog{
		log:      orNullLog(log),
		byName:   make(map[string]*Message),
		byNumber: make(map[int]*Message),
	}
}

// AddMessage indexes a compiled message by name and, if numbered, by
// number.
func (c *MessageCatalog) AddMessage(m *Message) {
	c.byName[m.Name] = m
	if m.HasNumber {
		c.byNumber[m.Number] = m
	}
}

// Lookup resolves a message by profile name, failing with
// UnknownMessageError when absent. This is the direct-lookup API named in
// spec.md §7; decode-time fallback uses ByNumber instead, which never
// errors.
func (c *MessageCatalog) Lookup(name string) (*Message, error) {
	m, ok := c.byName[name]
	if !ok {
		return nil, &UnknownMessageError{Name: name}
	}
	return m, nil
}

// ByNumber resolves a message by its global message number. An unknown
// number silently yields (and caches) a synthetic "MESSAGE <number>"
// placeholder with no fields, per spec.md §4.6 point 5 and the Python
// original's Missing class.
func (c *MessageCatalog) ByNumber(number int) *Message {
	if m, ok := c.byNumber[number]; ok {
		return m
	}
	m := NewMessage(fmt.Sprintf("MESSAGE %d", number))
	m.HasNumber = true
	m.Number = number
	c.byNumber[number] = m
	return m
}

// Len returns the number of distinct messages currently in the catalog.
func (c *MessageCatalog) Len() int {
	return len(c.byName)
}
