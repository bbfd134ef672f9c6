package fit

import (
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"
)

// Type is the decoding capability set every FIT type exposes (spec.md
// §4.5). Rather than a class hierarchy, variants are expressed as a small
// set of concrete structs all satisfying this one interface — a tagged sum,
// per the re-architecture hint in spec.md §9.
type Type interface {
	// Name is the type's unique profile name.
	Name() string
	// Size is the type's size in bytes of a single element.
	Size() int
	// Decode turns count*Size() bytes into a scalar (count==1) or an
	// ordered []interface{} (count>1). It returns (nil, nil) for the
	// type's "bad"/missing-value sentinel. Decode never mutates the
	// registry and is safe for concurrent use across decoders sharing a
	// compiled schema (spec.md §5).
	Decode(data []byte, count int, order binary.ByteOrder) (interface{}, error)
	// ProfileToInternal converts a profile-table literal cell into the
	// type's internal representation. Only used at compile time.
	ProfileToInternal(literal string) (interface{}, error)
}

// EnumType is the subset of Type that also maps an internal value back to
// its profile name. Only Mapping types implement it.
type EnumType interface {
	Type
	InternalToProfile(internal interface{}) (string, error)
}

var (
	autoIntPattern   = regexp.MustCompile(`^([su]?)int(\d{1,2})(z?)$`)
	autoFloatPattern = regexp.MustCompile(`^float(\d{1,2})$`)
)

// --- String ---------------------------------------------------------------

type stringType struct{}

func (stringType) Name() string { return "string" }
func (stringType) Size() int    { return 1 }

func (stringType) Decode(data []byte, count int, order binary.ByteOrder) (interface{}, error) {
	// A string run may be null-terminated or run to the end of the
	// field; trim at the first NUL, matching how FIT devices pad fixed
	// string fields.
	n := len(data)
	for i, b := range data {
		if b == 0 {
			n = i
			break
		}
	}
	if !utf8.Valid(data[:n]) {
		return string(data[:n]), nil
	}
	return string(data[:n]), nil
}

func (stringType) ProfileToInternal(literal string) (interface{}, error) {
	return literal, nil
}

// --- Boolean ---------------------------------------------------------------

type boolType struct{}

func (boolType) Name() string { return "bool" }
func (boolType) Size() int    { return 1 }

func (boolType) Decode(data []byte, count int, order binary.ByteOrder) (interface{}, error) {
	if count == 1 {
		return data[0] != 0, nil
	}
	out := make([]interface{}, count)
	for i := 0; i < count; i++ {
		out[i] = data[i] != 0
	}
	return out, nil
}

func (boolType) ProfileToInternal(literal string) (interface{}, error) {
	return literal != "" && literal != "0" && literal != "false", nil
}

// --- AutoInteger ------------------------------------------------------------

type autoIntType struct {
	name   string
	size   int
	signed bool
	zflag  bool
	badLE  []byte
	badBE  []byte
}

func newAutoIntType(name string) (*autoIntType, error) {
	m := autoIntPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, &UnknownTypeError{Name: name}
	}
	signed := m[1] != "u"
	bits, _ := strconv.Atoi(m[2])
	if bits%8 != 0 {
		return nil, fmt.Errorf("fit: size of %q not a multiple of 8 bits", name)
	}
	size := bits / 8
	switch size {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("fit: cannot unpack %d bytes as an integer (%q)", size, name)
	}
	zflag := m[3] == "z"
	var badValue uint64
	if zflag {
		badValue = 0
	} else if signed {
		badValue = uint64(1)<<(uint(bits)-1) - 1
	} else {
		if bits == 64 {
			badValue = ^uint64(0)
		} else {
			badValue = uint64(1)<<uint(bits) - 1
		}
	}
	t := &autoIntType{name: name, size: size, signed: signed, zflag: zflag}
	t.badLE = packBad(badValue, size, binary.LittleEndian)
	t.badBE = packBad(badValue, size, binary.BigEndian)
	return t, nil
}

func packBad(value uint64, size int, order binary.ByteOrder) []byte {
	buf := make([]byte, size)
	switch size {
	case 1:
		buf[0] = byte(value)
	case 2:
		order.PutUint16(buf, uint16(value))
	case 4:
		order.PutUint32(buf, uint32(value))
	case 8:
		order.PutUint64(buf, value)
	}
	return buf
}

func (t *autoIntType) Name() string { return t.name }
func (t *autoIntType) Size() int    { return t.size }

func isBad(data []byte, count int, size int, bad []byte) bool {
	for i := 0; i < count; i++ {
		chunk := data[i*size : (i+1)*size]
		for j := 0; j < size; j++ {
			if chunk[j] != bad[j] {
				return false
			}
		}
	}
	return true
}

func (t *autoIntType) decodeOne(chunk []byte, order binary.ByteOrder) interface{} {
	switch t.size {
	case 1:
		if t.signed {
			return int64(int8(chunk[0]))
		}
		return int64(chunk[0])
	case 2:
		u := order.Uint16(chunk)
		if t.signed {
			return int64(int16(u))
		}
		return int64(u)
	case 4:
		u := order.Uint32(chunk)
		if t.signed {
			return int64(int32(u))
		}
		return int64(u)
	case 8:
		u := order.Uint64(chunk)
		if t.signed {
			return int64(u)
		}
		return int64(u)
	}
	return nil
}

func (t *autoIntType) Decode(data []byte, count int, order binary.ByteOrder) (interface{}, error) {
	bad := t.badLE
	if order == binary.BigEndian {
		bad = t.badBE
	}
	if isBad(data, count, t.size, bad) {
		return nil, nil
	}
	if count == 1 {
		return t.decodeOne(data[:t.size], order), nil
	}
	out := make([]interface{}, count)
	for i := 0; i < count; i++ {
		out[i] = t.decodeOne(data[i*t.size:(i+1)*t.size], order)
	}
	return out, nil
}

func (t *autoIntType) ProfileToInternal(literal string) (interface{}, error) {
	v, err := strconv.ParseInt(literal, 0, 64)
	if err != nil {
		return nil, &UnknownEnumLiteralError{Type: t.name, Literal: literal}
	}
	return v, nil
}

// --- AliasInteger -----------------------------------------------------------

// aliasIntType is a named wrapper that reuses another AutoInteger's size and
// decoder (e.g. "enum" aliases "uint8", "byte" aliases "uint8").
type aliasIntType struct {
	name string
	spec *autoIntType
}

func (t *aliasIntType) Name() string { return t.name }
func (t *aliasIntType) Size() int    { return t.spec.Size() }

func (t *aliasIntType) Decode(data []byte, count int, order binary.ByteOrder) (interface{}, error) {
	return t.spec.Decode(data, count, order)
}

func (t *aliasIntType) ProfileToInternal(literal string) (interface{}, error) {
	return t.spec.ProfileToInternal(literal)
}

// --- Date --------------------------------------------------------------------

// dateEpoch is 1989-12-31T00:00:00, the FIT epoch.
var dateEpoch = time.Date(1989, time.December, 31, 0, 0, 0, 0, time.UTC)

const dateThreshold = 0x10000000

// dateType is an AliasInteger over uint32 whose values at or above
// dateThreshold are absolute timestamps (spec.md §3).
type dateType struct {
	name string
	spec *autoIntType
	utc  bool
}

func (t *dateType) Name() string { return t.name }
func (t *dateType) Size() int    { return t.spec.Size() }

func (t *dateType) Decode(data []byte, count int, order binary.ByteOrder) (interface{}, error) {
	raw, err := t.spec.Decode(data, count, order)
	if err != nil || raw == nil {
		return raw, err
	}
	convert := func(v interface{}) interface{} {
		n, ok := v.(int64)
		if !ok || n < dateThreshold {
			return v
		}
		// No real timezone info is available for either date or
		// local_date_time fields; both are returned as a UTC-labelled
		// clock time, matching the naive datetime the Python original
		// produces either way.
		return dateEpoch.Add(time.Duration(n) * time.Second)
	}
	if count == 1 {
		return convert(raw), nil
	}
	seq := raw.([]interface{})
	out := make([]interface{}, len(seq))
	for i, v := range seq {
		out[i] = convert(v)
	}
	return out, nil
}

func (t *dateType) ProfileToInternal(literal string) (interface{}, error) {
	return t.spec.ProfileToInternal(literal)
}

// --- AutoFloat -----------------------------------------------------------

type autoFloatType struct {
	name  string
	size  int
	badLE []byte
	badBE []byte
}

func newAutoFloatType(name string) (*autoFloatType, error) {
	m := autoFloatPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, &UnknownTypeError{Name: name}
	}
	bits, _ := strconv.Atoi(m[1])
	if bits%8 != 0 {
		return nil, fmt.Errorf("fit: size of %q not a multiple of 8 bits", name)
	}
	size := bits / 8
	switch size {
	case 2, 4, 8:
	default:
		return nil, fmt.Errorf("fit: cannot unpack %d bytes as a float (%q)", size, name)
	}
	var badValue uint64
	if bits == 64 {
		badValue = ^uint64(0)
	} else {
		badValue = uint64(1)<<uint(bits) - 1
	}
	t := &autoFloatType{name: name, size: size}
	t.badLE = packBad(badValue, size, binary.LittleEndian)
	t.badBE = packBad(badValue, size, binary.BigEndian)
	return t, nil
}

func (t *autoFloatType) Name() string { return t.name }
func (t *autoFloatType) Size() int    { return t.size }

func (t *autoFloatType) decodeOne(chunk []byte, order binary.ByteOrder) interface{} {
	switch t.size {
	case 4:
		return float64(math.Float32frombits(order.Uint32(chunk)))
	case 8:
		return math.Float64frombits(order.Uint64(chunk))
	}
	return nil
}

func (t *autoFloatType) Decode(data []byte, count int, order binary.ByteOrder) (interface{}, error) {
	if t.size == 2 {
		// float16 has no FIT base type in the 17-entry table; auto-creation
		// never produces one in practice, but guard rather than panic.
		return nil, fmt.Errorf("fit: float16 decoding is not supported")
	}
	bad := t.badLE
	if order == binary.BigEndian {
		bad = t.badBE
	}
	if isBad(data, count, t.size, bad) {
		return nil, nil
	}
	if count == 1 {
		return t.decodeOne(data[:t.size], order), nil
	}
	out := make([]interface{}, count)
	for i := 0; i < count; i++ {
		out[i] = t.decodeOne(data[i*t.size:(i+1)*t.size], order)
	}
	return out, nil
}

func (t *autoFloatType) ProfileToInternal(literal string) (interface{}, error) {
	v, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return nil, &UnknownEnumLiteralError{Type: t.name, Literal: literal}
	}
	return v, nil
}

// --- Mapping (enum) -----------------------------------------------------------

// mappingType adorns a base type with a profile-name<->internal-integer
// enumeration (spec.md §3, §4.2).
type mappingType struct {
	name            string
	base            Type
	profileToIntern map[string]interface{}
	internToProfile map[interface{}]string
}

func newMappingType(name string, base Type) *mappingType {
	return &mappingType{
		name:            name,
		base:            base,
		profileToIntern: make(map[string]interface{}),
		internToProfile: make(map[interface{}]string),
	}
}

func (t *mappingType) Name() string { return t.name }
func (t *mappingType) Size() int    { return t.base.Size() }

func (t *mappingType) Decode(data []byte, count int, order binary.ByteOrder) (interface{}, error) {
	return t.base.Decode(data, count, order)
}

func (t *mappingType) ProfileToInternal(literal string) (interface{}, error) {
	v, ok := t.profileToIntern[literal]
	if !ok {
		return nil, &UnknownEnumLiteralError{Type: t.name, Literal: literal}
	}
	return v, nil
}

func (t *mappingType) InternalToProfile(internal interface{}) (string, error) {
	v, ok := t.internToProfile[internal]
	if !ok {
		return "", &UnknownEnumLiteralError{Type: t.name, Literal: fmt.Sprintf("%v", internal)}
	}
	return v, nil
}

func (t *mappingType) addValue(profile string, internal interface{}) {
	t.profileToIntern[profile] = internal
	t.internToProfile[internal] = profile
}
