package fit

// TypeRegistry holds every named Type compiled from the profile's Types
// sheet, plus the types that are always present regardless of the profile
// document (spec.md §4.1). It is append-only once compilation finishes:
// decoders only ever call Lookup/BaseTypeByIndex/LookupOrAutocreate, none of
// which mutate an already-installed entry, so a *TypeRegistry may be shared
// by reference across concurrently running decoders (spec.md §5).
type TypeRegistry struct {
	log       LogSink
	byName    map[string]Type
	baseTypes [17]Type

	// order records the names of types installed after the always-present
	// seed types (string, the 17 base types, enum/byte/bool/date_time/
	// local_date_time), in dependency-safe install order. It backs the
	// Schema Cache (cache.go): only these types need to round-trip, since
	// NewTypeRegistry recreates the seed set deterministically.
	order  []string
	seeded bool
}

// NewTypeRegistry constructs a registry pre-populated with string, enum,
// byte, the 17 canonical base types, bool, date_time (UTC) and
// local_date_time (naive), exactly as spec.md §4.1 requires.
func NewTypeRegistry(log LogSink) *TypeRegistry {
	r := &TypeRegistry{
		log:    orNullLog(log),
		byName: make(map[string]Type),
	}
	r.addKnownTypes()
	return r
}

func (r *TypeRegistry) addKnownTypes() {
	_ = r.install(stringType{})

	for _, name := range baseTypeNames {
		if name == "enum" || name == "byte" {
			continue // aliases of uint8, installed below
		}
		if _, err := r.lookupOrAutocreateBase(name); err != nil {
			// base type names are fixed and always valid; a failure here
			// is a programming error, not a runtime condition.
			panic(err)
		}
	}

	uint8Type := r.byName["uint8"].(*autoIntType)
	_ = r.install(&aliasIntType{name: "enum", spec: uint8Type})
	_ = r.install(&aliasIntType{name: "byte", spec: uint8Type})

	for i, name := range baseTypeNames {
		r.baseTypes[i] = r.byName[name]
	}

	_ = r.install(boolType{})

	uint32Type := r.byName["uint32"].(*autoIntType)
	_ = r.install(&dateType{name: "date_time", spec: uint32Type, utc: true})
	_ = r.install(&dateType{name: "local_date_time", spec: uint32Type, utc: false})

	r.seeded = true
}

// lookupOrAutocreateBase is used only while seeding the canonical base types
// other than string (installed first) and enum/byte (uint8 aliases, installed
// after it): each is installed under its own Go struct type (autoInt or
// autoFloat), never aliased, so those entries hold concrete numeric decoders.
func (r *TypeRegistry) lookupOrAutocreateBase(name string) (Type, error) {
	if t, ok := r.byName[name]; ok {
		return t, nil
	}
	if name == "string" {
		return r.byName["string"], nil
	}
	if autoFloatPattern.MatchString(name) {
		t, err := newAutoFloatType(name)
		if err != nil {
			return nil, err
		}
		return t, r.install(t)
	}
	t, err := newAutoIntType(name)
	if err != nil {
		return nil, err
	}
	return t, r.install(t)
}

// Lookup resolves a profile type name to its Type, failing with
// UnknownTypeError when absent (spec.md §4.1).
func (r *TypeRegistry) Lookup(name string) (Type, error) {
	if t, ok := r.byName[name]; ok {
		return t, nil
	}
	return nil, &UnknownTypeError{Name: name}
}

// LookupOrAutocreate resolves name, and if absent tries to auto-create it as
// an AutoInteger or AutoFloat (spec.md §4.1). Any other unknown name fails.
func (r *TypeRegistry) LookupOrAutocreate(name string) (Type, error) {
	if t, ok := r.byName[name]; ok {
		return t, nil
	}
	if autoFloatPattern.MatchString(name) {
		t, err := newAutoFloatType(name)
		if err != nil {
			return nil, err
		}
		r.log.Warnf("auto-adding AutoFloat type for %q", name)
		if err := r.install(t); err != nil {
			return nil, err
		}
		return t, nil
	}
	if autoIntPattern.MatchString(name) {
		t, err := newAutoIntType(name)
		if err != nil {
			return nil, err
		}
		r.log.Warnf("auto-adding AutoInteger type for %q", name)
		if err := r.install(t); err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, &UnknownTypeError{Name: name}
}

// BaseTypeByIndex returns one of the 17 canonical base types by its
// definition-record base-type index (spec.md §4.1).
func (r *TypeRegistry) BaseTypeByIndex(i int) (Type, error) {
	if i < 0 || i >= len(r.baseTypes) {
		return nil, &UnknownTypeError{Name: "<base type index out of range>"}
	}
	return r.baseTypes[i], nil
}

// install adds a type to the registry. Re-installing a name with the same
// size is tolerated (logged as a warning, existing entry kept, matching the
// profile's practice of listing the same base type more than once);
// differing sizes are a fatal DuplicateTypeConflictError (spec.md §4.1).
func (r *TypeRegistry) install(t Type) error {
	if existing, ok := r.byName[t.Name()]; ok {
		if existing.Size() == t.Size() {
			r.log.Warnf("ignoring duplicate type for %q", t.Name())
			return nil
		}
		return &DuplicateTypeConflictError{Name: t.Name(), Size: t.Size(), Existing: existing.Size()}
	}
	r.byName[t.Name()] = t
	if r.seeded {
		r.order = append(r.order, t.Name())
	}
	return nil
}

// Install is the exported form of install, used by the profile compiler
// while reading the Types sheet.
func (r *TypeRegistry) Install(t Type) error {
	return r.install(t)
}

// Len returns the number of distinct type names currently registered.
func (r *TypeRegistry) Len() int {
	return len(r.byName)
}
