package fit

import (
	"encoding/gob"
	"io"
)

// typeRecord is the serializable description of one compiled Type beyond
// the always-present seed set (spec.md §4.7, "Schema Cache"). Which fields
// are meaningful depends on Kind; this mirrors how little state each Type
// variant actually carries once its construction function is known.
type typeRecord struct {
	Kind string // "autoInt", "autoFloat", "alias", "date", "mapping"
	Name string

	AliasOf string // alias, date: underlying AutoInteger's name
	UTC     bool   // date only

	MappingBase   string // mapping only: base type's name
	MappingValues []mappingValueRecord
}

type mappingValueRecord struct {
	Profile  string
	Internal int64
}

type fieldRecord struct {
	Name      string
	Number    int
	HasNumber bool
	Unit      string
	TypeName  string
}

type dynamicEntryRecord struct {
	RefName     string
	RefInternal int64
	Alt         fieldRecord
}

type messageFieldRecord struct {
	Field          fieldRecord
	IsDynamic      bool
	ReferenceNames []string
	Dynamic        []dynamicEntryRecord
}

type messageRecord struct {
	Name      string
	Number    int
	HasNumber bool
	Fields    []messageFieldRecord
}

type schemaSnapshot struct {
	Types    []typeRecord
	Messages []messageRecord
}

// SaveSchema serializes a compiled TypeRegistry and MessageCatalog to an
// opaque byte stream (spec.md §4.7). No LogSink is part of the payload:
// LoadSchema always binds a fresh one, the same way the Python original's
// NullableLog is nulled out before pickling and rebound with set_log after
// unpickling.
func SaveSchema(w io.Writer, reg *TypeRegistry, cat *MessageCatalog) error {
	snap := schemaSnapshot{
		Types:    reg.exportExtra(),
		Messages: cat.exportMessages(),
	}
	return gob.NewEncoder(w).Encode(&snap)
}

// LoadSchema rebuilds a TypeRegistry and MessageCatalog from a stream
// written by SaveSchema, bound to log.
func LoadSchema(r io.Reader, log LogSink) (*TypeRegistry, *MessageCatalog, error) {
	var snap schemaSnapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, nil, err
	}

	reg := NewTypeRegistry(log)
	if err := reg.importExtra(snap.Types); err != nil {
		return nil, nil, err
	}

	cat := NewMessageCatalog(log)
	if err := cat.importMessages(snap.Messages, reg); err != nil {
		return nil, nil, err
	}

	header, err := newHeaderMessage(reg)
	if err != nil {
		return nil, nil, err
	}
	cat.AddMessage(header)

	return reg, cat, nil
}

func (r *TypeRegistry) exportExtra() []typeRecord {
	records := make([]typeRecord, 0, len(r.order))
	for _, name := range r.order {
		t := r.byName[name]
		switch v := t.(type) {
		case *autoIntType:
			records = append(records, typeRecord{Kind: "autoInt", Name: v.name})
		case *autoFloatType:
			records = append(records, typeRecord{Kind: "autoFloat", Name: v.name})
		case *aliasIntType:
			records = append(records, typeRecord{Kind: "alias", Name: v.name, AliasOf: v.spec.name})
		case *dateType:
			records = append(records, typeRecord{Kind: "date", Name: v.name, AliasOf: v.spec.name, UTC: v.utc})
		case *mappingType:
			values := make([]mappingValueRecord, 0, len(v.profileToIntern))
			for profile, internal := range v.profileToIntern {
				n, _ := internal.(int64)
				values = append(values, mappingValueRecord{Profile: profile, Internal: n})
			}
			records = append(records, typeRecord{Kind: "mapping", Name: v.name, MappingBase: v.base.Name(), MappingValues: values})
		}
	}
	return records
}

func (r *TypeRegistry) importExtra(records []typeRecord) error {
	for _, rec := range records {
		switch rec.Kind {
		case "autoInt":
			t, err := newAutoIntType(rec.Name)
			if err != nil {
				return err
			}
			if err := r.install(t); err != nil {
				return err
			}
		case "autoFloat":
			t, err := newAutoFloatType(rec.Name)
			if err != nil {
				return err
			}
			if err := r.install(t); err != nil {
				return err
			}
		case "alias":
			base, err := r.Lookup(rec.AliasOf)
			if err != nil {
				return err
			}
			if err := r.install(&aliasIntType{name: rec.Name, spec: base.(*autoIntType)}); err != nil {
				return err
			}
		case "date":
			base, err := r.Lookup(rec.AliasOf)
			if err != nil {
				return err
			}
			if err := r.install(&dateType{name: rec.Name, spec: base.(*autoIntType), utc: rec.UTC}); err != nil {
				return err
			}
		case "mapping":
			base, err := r.Lookup(rec.MappingBase)
			if err != nil {
				return err
			}
			mapping := newMappingType(rec.Name, base)
			for _, v := range rec.MappingValues {
				mapping.addValue(v.Profile, v.Internal)
			}
			if err := r.install(mapping); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *MessageCatalog) exportMessages() []messageRecord {
	records := make([]messageRecord, 0, len(c.byName))
	for name, m := range c.byName {
		if m.HasNumber && m.Number == HeaderGlobalType {
			continue // rebuilt by newHeaderMessage on load, not cached
		}
		rec := messageRecord{Name: name, Number: m.Number, HasNumber: m.HasNumber}
		for _, f := range m.order {
			fr := messageFieldRecord{
				Field:     exportField(f),
				IsDynamic: f.IsDynamic,
			}
			for _, ref := range f.References {
				fr.ReferenceNames = append(fr.ReferenceNames, ref.Name)
			}
			for key, alt := range f.Dynamic {
				n, _ := key.value.(int64)
				fr.Dynamic = append(fr.Dynamic, dynamicEntryRecord{
					RefName:     key.refName,
					RefInternal: n,
					Alt:         exportField(alt),
				})
			}
			rec.Fields = append(rec.Fields, fr)
		}
		records = append(records, rec)
	}
	return records
}

func exportField(f *Field) fieldRecord {
	return fieldRecord{Name: f.Name, Number: f.Number, HasNumber: f.HasNumber, Unit: f.Unit, TypeName: f.Type.Name()}
}

func (c *MessageCatalog) importMessages(records []messageRecord, reg *TypeRegistry) error {
	for _, rec := range records {
		m := NewMessage(rec.Name)
		m.HasNumber = rec.HasNumber
		m.Number = rec.Number

		for _, fr := range rec.Fields {
			typ, err := reg.Lookup(fr.Field.TypeName)
			if err != nil {
				return err
			}
			field := newField(fr.Field.Name, fr.Field.Number, fr.Field.HasNumber, fr.Field.Unit, typ)
			field.IsDynamic = fr.IsDynamic
			m.AddField(field)
		}

		for i, fr := range rec.Fields {
			if !fr.IsDynamic {
				continue
			}
			field := m.order[i]
			field.Dynamic = make(map[dynamicKey]*Field, len(fr.Dynamic))
			for _, refName := range fr.ReferenceNames {
				ref, ok := m.FieldByName(refName)
				if !ok {
					return &DanglingDynamicReferenceError{Message: m.Name, Field: field.Name, Reference: refName}
				}
				field.References = append(field.References, ref)
			}
			for _, entry := range fr.Dynamic {
				altTyp, err := reg.Lookup(entry.Alt.TypeName)
				if err != nil {
					return err
				}
				alt := newField(entry.Alt.Name, entry.Alt.Number, entry.Alt.HasNumber, entry.Alt.Unit, altTyp)
				field.Dynamic[dynamicKey{entry.RefName, entry.RefInternal}] = alt
			}
		}

		c.AddMessage(m)
	}
	return nil
}
