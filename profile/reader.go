// Package profile reads the tabular FIT profile document — the Types and
// Messages sheets that fit.CompileProfile turns into a compiled schema
// (spec.md §6.1) — backed by github.com/xuri/excelize/v2, the same
// spreadsheet-as-schema-source role openpyxl plays in
// original_source/choochoo/fit/profile.py.
package profile

import (
	"github.com/xuri/excelize/v2"

	"github.com/porelle-logan/choochoo/fit"
)

const (
	// TypesSheet and MessagesSheet are the two worksheet names the FIT
	// SDK's Profile.xlsx document carries.
	TypesSheet    = "Types"
	MessagesSheet = "Messages"
)

// Document wraps an opened profile workbook.
type Document struct {
	f *excelize.File
}

// Open reads the workbook at path into memory.
func Open(path string) (*Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &Document{f: f}, nil
}

// Close releases the underlying workbook.
func (d *Document) Close() error {
	return d.f.Close()
}

// Sheet returns a fit.RowSource over one worksheet's rows. A blank cell and
// a short row both read back as "" — excelize.GetRows trims a row down to
// its last populated cell, so an empty string at index i may mean either
// "blank" or "short"; the compiler treats both alike (spec.md §6.1's
// blank/empty-string distinction is not preserved past this reader — see
// DESIGN.md).
func (d *Document) Sheet(name string) (fit.RowSource, error) {
	rows, err := d.f.GetRows(name)
	if err != nil {
		return nil, err
	}
	return &sheetSource{rows: rows}, nil
}

type sheetSource struct {
	rows [][]string
	pos  int
}

func (s *sheetSource) Next() (fit.Row, bool) {
	if s.pos >= len(s.rows) {
		return nil, false
	}
	row := fit.Row(s.rows[s.pos])
	s.pos++
	return row, true
}
