// Package table is the xlsx persistence layer: load, backup, merge, save.
// The output workbook is shared with other tooling, so merges only touch
// the columns this pipeline produces and leave everything else intact.
package table

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// MissingColumnError reports a required column absent from a workbook.
// Surfaced before any network work starts.
type MissingColumnError struct {
	Path   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table: required column %q not found in %s", e.Column, e.Path)
}

// Table is an in-memory worksheet: ordered columns, rows keyed by column
// name. Cells are strings; empty means absent.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Load reads the first sheet of an xlsx file. Each required column must
// appear in the header row or a *MissingColumnError is returned.
func Load(path string, required ...string) (*Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, eris.Wrapf(os.ErrNotExist, "table: %s", path)
	}
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "table: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("table: %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	t := &Table{}
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			t.Columns = cells
			continue
		}
		r := make(map[string]string, len(t.Columns))
		for j, col := range t.Columns {
			if j < len(cells) {
				r[col] = cells[j]
			}
		}
		t.Rows = append(t.Rows, r)
	}

	for _, col := range required {
		if !t.HasColumn(col) {
			return nil, &MissingColumnError{Path: path, Column: col}
		}
	}
	return t, nil
}

// LoadOrEmpty is Load for output files: a missing file is a fresh start,
// not an error.
func LoadOrEmpty(path string, required ...string) (*Table, error) {
	t, err := Load(path, required...)
	if eris.Is(err, os.ErrNotExist) {
		return New(required...), nil
	}
	return t, err
}

// HasColumn reports whether the table has a column with this name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// EnsureColumn appends the column if absent.
func (t *Table) EnsureColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// FindRow returns the first row whose key column holds value, or nil.
func (t *Table) FindRow(key, value string) map[string]string {
	for _, r := range t.Rows {
		if r[key] == value {
			return r
		}
	}
	return nil
}

// Save writes the table as the first sheet of an xlsx file. Cells that
// parse as numbers are written as numbers so spreadsheet consumers can
// compute on them.
func (t *Table) Save(path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	if err != nil {
		return eris.Wrap(err, "table: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range t.Columns {
		header.AddCell().SetString(col)
	}
	for _, r := range t.Rows {
		row := sheet.AddRow()
		for _, col := range t.Columns {
			cell := row.AddCell()
			v := r[col]
			if n, err := strconv.ParseFloat(v, 64); err == nil && v != "" {
				cell.SetFloat(n)
			} else {
				cell.SetString(v)
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "table: save %s", path)
	}
	return nil
}

// timeNow is swapped in backup tests for a fixed timestamp.
var timeNow = time.Now

// Backup copies an existing file to a timestamped sibling before it gets
// overwritten. Returns the backup path, or "" when there was nothing to
// back up.
func Backup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", eris.Wrapf(err, "table: read %s for backup", path)
	}

	backupPath := backupName(path, timeNow())
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "table: write backup %s", backupPath)
	}
	return backupPath, nil
}

func backupName(path string, at time.Time) string {
	base := path
	const ext = ".xlsx"
	if len(base) > len(ext) && base[len(base)-len(ext):] == ext {
		base = base[:len(base)-len(ext)]
	}
	return base + "_backup_" + at.Format("20060102_150405") + ext
}
