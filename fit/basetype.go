package fit

// baseTypeNames is table 4-6 of the FIT definition document: the 17
// canonical base types in the order their index appears inside a definition
// record's field descriptors (spec.md §4.1).
var baseTypeNames = [17]string{
	"enum", "sint8", "uint8", "sint16", "uint16", "sint32", "uint32",
	"string", "float32", "float64",
	"uint8z", "uint16z", "uint32z", "byte", "sint64", "uint64", "uint64z",
}

const (
	// HeaderGlobalType is the synthetic message number for the HEADER
	// message, carried over from the Python original's HEADER_GLOBAL_TYPE.
	HeaderGlobalType = -1
)
