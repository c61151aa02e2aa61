// =============================================================================
// Trader Config Editor - XLSX Grid
// =============================================================================
//
// This module turns the category grid into an Excel workbook and reads an
// edited workbook back as direct record edits.
//
// WORKBOOK LAYOUT:
//   Sheet "Categories" (index sheet):
//     | Sheet | Category Index | Category Name |
//   One sheet per category:
//     | Row | Item Name | Column 2 | Column 3 | Stock Level | Buy Price | Sell Price |
//
//   "Row" is the position of the record in the category's Products list.
//   Malformed records are not part of the grid and are never touched by an
//   import. All cells are written as text so that "10.00" stays "10.00".
//
// =============================================================================

package xlsxgrid

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/trader-config-editor/internal/document"
	"github.com/ginjaninja78/trader-config-editor/internal/record"
)

// IndexSheet is the name of the sheet mapping sheets to categories.
const IndexSheet = "Categories"

// RowTitle is the title of the first column of a category sheet.
const RowTitle = "Row"

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

// ErrGridMismatch is returned when a workbook does not belong to the document.
var ErrGridMismatch = errors.New("grid does not match document")

// ImportReport summarizes an import.
type ImportReport struct {
	// Changed is the number of records rewritten.
	Changed int `json:"changed"`

	// Unchanged is the number of grid rows equal to the document.
	Unchanged int `json:"unchanged"`
}

// =============================================================================
// EXPORT
// =============================================================================

// Export builds the grid workbook of doc. The caller must Close the file.
func Export(doc *document.Document) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", IndexSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create index sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, IndexSheet, 1, []interface{}{"Sheet", "Category Index", "Category Name"}); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(IndexSheet, "A1", "C1", bold); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to style index sheet: %w", err)
	}

	names := SheetNames(doc.CategoryNames())
	for i, cat := range doc.Categories() {
		sheet := names[i]
		if err := writeRow(f, IndexSheet, i+2, []interface{}{sheet, cat.Index(), cat.DisplayName()}); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeCategory(f, sheet, cat, bold); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetColWidth(IndexSheet, "A", "C", 24); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to size index sheet: %w", err)
	}
	return f, nil
}

// WriteTo writes the grid workbook of doc to w.
func WriteTo(w io.Writer, doc *document.Document) error {
	f, err := Export(doc)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeCategory(f *excelize.File, sheet string, cat *document.Category, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	header := make([]interface{}, 0, record.FieldCount+1)
	header = append(header, RowTitle)
	for _, title := range record.Titles {
		header = append(header, title)
	}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(record.FieldCount+1, 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style sheet %q: %w", sheet, err)
	}

	for i, row := range cat.Rows() {
		values := make([]interface{}, 0, record.FieldCount+1)
		values = append(values, row.Index)
		for _, v := range row.Fields.Values() {
			values = append(values, v)
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", 32); err != nil {
		return fmt.Errorf("failed to size sheet %q: %w", sheet, err)
	}
	return nil
}

// writeRow writes values starting at column A. Strings are stored as text.
func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if s, ok := v.(string); ok {
			err = f.SetCellStr(sheet, cell, s)
		} else {
			err = f.SetCellValue(sheet, cell, v)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// SheetNames maps category names to unique, valid sheet names. Invalid
// characters become "_", names are cut to 31 characters, duplicates get a
// " (n)" suffix and an empty name becomes "Category <i>".
func SheetNames(categories []string) []string {
	used := map[string]bool{strings.ToLower(IndexSheet): true}
	out := make([]string, len(categories))

	for i, name := range categories {
		base := sanitizeSheetName(name)
		if base == "" {
			base = fmt.Sprintf("Category %d", i)
		}

		candidate := base
		for n := 2; used[strings.ToLower(candidate)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			candidate = strings.TrimSpace(truncate(base, maxSheetName-len(suffix))) + suffix
		}
		used[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}

func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(name, "' ")
	return truncate(name, maxSheetName)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// =============================================================================
// IMPORT
// =============================================================================

type edit struct {
	category int
	product  int
	fields   record.Fields
}

// Import reads a grid workbook and writes every changed row into doc. The
// workbook is checked completely before the first record is written, so a
// rejected workbook leaves doc untouched.
func Import(doc *document.Document, r io.Reader) (ImportReport, error) {
	var report ImportReport

	f, err := excelize.OpenReader(r)
	if err != nil {
		return report, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	index, err := f.GetRows(IndexSheet)
	if err != nil {
		return report, fmt.Errorf("%w: missing %q sheet", ErrGridMismatch, IndexSheet)
	}

	var edits []edit
	for i := 1; i < len(index); i++ {
		row := index[i]
		if isRowEmpty(row) {
			continue
		}

		sheet := cell(row, 0)
		catIndex, err := strconv.Atoi(cell(row, 1))
		if err != nil {
			return report, fmt.Errorf("%w: index sheet row %d: invalid category index", ErrGridMismatch, i+1)
		}
		cat, err := doc.Category(catIndex)
		if err != nil {
			return report, fmt.Errorf("%w: %v", ErrGridMismatch, err)
		}
		if name := cell(row, 2); name != cat.DisplayName() {
			return report, fmt.Errorf("%w: category %d is %q in the workbook and %q in the document",
				ErrGridMismatch, catIndex, name, cat.DisplayName())
		}

		sheetEdits, unchanged, err := readCategory(f, sheet, cat)
		if err != nil {
			return report, err
		}
		edits = append(edits, sheetEdits...)
		report.Unchanged += unchanged
	}

	for _, e := range edits {
		if err := doc.SetRecord(e.category, e.product, e.fields); err != nil {
			return report, err
		}
		report.Changed++
	}
	return report, nil
}

func readCategory(f *excelize.File, sheet string, cat *document.Category) ([]edit, int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: missing sheet %q", ErrGridMismatch, sheet)
	}

	var edits []edit
	unchanged := 0
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		product, err := strconv.Atoi(cell(row, 0))
		if err != nil {
			return nil, 0, fmt.Errorf("sheet %q row %d: invalid row index %q", sheet, i+1, cell(row, 0))
		}
		raw, err := cat.Product(product)
		if err != nil {
			return nil, 0, fmt.Errorf("sheet %q row %d: %w", sheet, i+1, err)
		}
		current, ok := record.Decode(raw)
		if !ok {
			return nil, 0, fmt.Errorf("sheet %q row %d: product %d is not an editable record", sheet, i+1, product)
		}

		values := make([]string, record.FieldCount)
		for c := range values {
			values[c] = cell(row, c+1)
		}
		fields, err := record.FromValues(values)
		if err != nil {
			return nil, 0, fmt.Errorf("sheet %q row %d: %w", sheet, i+1, err)
		}

		if fields == current {
			unchanged++
			continue
		}
		edits = append(edits, edit{category: cat.Index(), product: product, fields: fields})
	}
	return edits, unchanged, nil
}

// cell returns row[i], or "" when the row is shorter; GetRows drops
// trailing empty cells.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
