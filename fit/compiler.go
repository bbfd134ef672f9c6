package fit

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Row is one row of a profile table sheet. A blank cell is represented as
// the empty string; spec.md §6.1 asks that a reader distinguish blank from
// an explicit empty string, which the excelize-backed reader in package
// profile cannot do losslessly — see DESIGN.md for why that gap is
// harmless in practice.
type Row []string

func cell(row Row, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// RowSource yields the rows of one profile table sheet in order.
// Implementations (e.g. package profile's excelize reader) need not support
// push-back themselves: rowPeeker adds the one-element buffer the compiler
// needs on top of any RowSource.
type RowSource interface {
	Next() (Row, bool)
}

// rowPeeker adds a one-element push-back buffer over a RowSource, exactly
// the "peekable" row iterator spec.md §4.4 calls for (grounded on
// more_itertools.peekable in the Python original).
type rowPeeker struct {
	src     RowSource
	pending *Row
	havePending bool
}

func newRowPeeker(src RowSource) *rowPeeker {
	return &rowPeeker{src: src}
}

func (p *rowPeeker) next() (Row, bool) {
	if p.havePending {
		r := *p.pending
		p.pending = nil
		p.havePending = false
		return r, true
	}
	return p.src.Next()
}

func (p *rowPeeker) peek() (Row, bool) {
	if !p.havePending {
		r, ok := p.src.Next()
		if !ok {
			return nil, false
		}
		p.pending = &r
		p.havePending = true
	}
	return *p.pending, true
}

func (p *rowPeeker) pushBack(r Row) {
	p.pending = &r
	p.havePending = true
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// CompileProfile drives the Profile Compiler described in spec.md §4.4: it
// reads the Types sheet then the Messages sheet, resolving cross-references
// and installing the synthetic HEADER message, and returns the compiled
// TypeRegistry and MessageCatalog.
func CompileProfile(log LogSink, typesSheet, messagesSheet RowSource) (*TypeRegistry, *MessageCatalog, error) {
	log = orNullLog(log)
	registry := NewTypeRegistry(log)
	catalog := NewMessageCatalog(log)

	if err := compileTypesSheet(log, typesSheet, registry); err != nil {
		return nil, nil, err
	}
	if err := compileMessagesSheet(log, messagesSheet, registry, catalog); err != nil {
		return nil, nil, err
	}

	header, err := newHeaderMessage(registry)
	if err != nil {
		return nil, nil, err
	}
	catalog.AddMessage(header)

	return registry, catalog, nil
}

func compileTypesSheet(log LogSink, sheet RowSource, registry *TypeRegistry) error {
	rows := newRowPeeker(sheet)
	for row, ok := rows.next(); ok; row, ok = rows.next() {
		name := cell(row, 0)
		switch {
		case name == "":
			continue
		case startsUpper(name):
			log.Debugf("skipping commentary row %v", row)
		default:
			log.Infof("parsing type %s", name)
			mapping, err := compileMapping(log, row, rows, registry)
			if err != nil {
				return err
			}
			if err := registry.Install(mapping); err != nil {
				return err
			}
		}
	}
	return nil
}

// compileMapping is the Mapping Compiler (spec.md §4.2): it reads a type
// block's header row plus its trailing enumeration-value rows.
func compileMapping(log LogSink, header Row, rows *rowPeeker, registry *TypeRegistry) (*mappingType, error) {
	name := cell(header, 0)
	base, err := registry.LookupOrAutocreate(cell(header, 1))
	if err != nil {
		return nil, err
	}
	mapping := newMappingType(name, base)

	for {
		row, ok := rows.peek()
		if !ok {
			break
		}
		if cell(row, 0) != "" || cell(row, 2) == "" || cell(row, 3) == "" {
			break
		}
		row, _ = rows.next()
		internal, err := base.ProfileToInternal(cell(row, 3))
		if err != nil {
			return nil, err
		}
		mapping.addValue(cell(row, 2), internal)
	}
	log.Debugf("parsed %d values for type %s", len(mapping.profileToIntern), name)
	return mapping, nil
}

func compileMessagesSheet(log LogSink, sheet RowSource, registry *TypeRegistry, catalog *MessageCatalog) error {
	rows := newRowPeeker(sheet)
	for row, ok := rows.next(); ok; row, ok = rows.next() {
		name := cell(row, 0)
		switch {
		case name == "":
			continue
		case startsUpper(name):
			log.Debugf("skipping commentary row %v", row)
		default:
			log.Infof("parsing message %s", name)
			msg, err := compileMessage(log, row, rows, registry)
			if err != nil {
				return err
			}
			catalog.AddMessage(msg)
		}
	}
	return nil
}

// compileMessage is the Message Compiler (spec.md §4.3).
func compileMessage(log LogSink, header Row, rows *rowPeeker, registry *TypeRegistry) (*Message, error) {
	name := cell(header, 0)
	msg := NewMessage(name)

	if mesgNum, err := registry.Lookup("mesg_num"); err == nil {
		if em, ok := mesgNum.(EnumType); ok {
			if internal, err := em.ProfileToInternal(name); err == nil {
				if n, ok := internal.(int64); ok {
					msg.HasNumber = true
					msg.Number = int(n)
				}
			} else {
				log.Warnf(MissingMessageNumberWarning(name))
			}
		}
	}

	for {
		row, ok := rows.peek()
		if !ok || cell(row, 2) == "" {
			break
		}
		row, _ = rows.next()

		field, err := buildField(row, registry)
		if err != nil {
			return nil, err
		}

		for {
			peek, ok := rows.peek()
			if !ok || cell(peek, 2) == "" || cell(peek, 1) != "" {
				break
			}
			arow, _ := rows.next()
			alt, err := buildField(arow, registry)
			if err != nil {
				return nil, err
			}
			refNames := splitTrim(cell(arow, 11))
			refValues := splitTrim(cell(arow, 12))
			for i, refName := range refNames {
				if i >= len(refValues) {
					break
				}
				field.stash = append(field.stash, dynamicStash{refName: refName, refValue: refValues[i], alt: alt})
			}
		}

		msg.AddField(field)
	}

	if err := msg.resolveDynamics(); err != nil {
		return nil, err
	}
	return msg, nil
}

func buildField(row Row, registry *TypeRegistry) (*Field, error) {
	name := cell(row, 2)
	var number int
	hasNumber := false
	if s := cell(row, 1); s != "" {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("fit: field %q has a non-numeric field number %q", name, s)
		}
		number, hasNumber = n, true
	}
	typ, err := registry.LookupOrAutocreate(cell(row, 3))
	if err != nil {
		return nil, err
	}
	return newField(name, number, hasNumber, cell(row, 8), typ), nil
}

func splitTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
