package xlsxgrid

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/trader-config-editor/internal/document"
)

const sample = `{
  "Version": "2.5",
  "TraderCategories": [
    {"CategoryName": "Weapons", "Products": ["Rifle,A,B,10,100,50", "broken", "Saw,A,B,1,10.00,-1,x"]},
    {"Products": ["Bread,A,B,5,2.50,1"]}
  ]
}`

func parse(t *testing.T) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(sample))
	require.NoError(t, err)
	return doc
}

func export(t *testing.T, doc *document.Document) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, doc))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func workbook(t *testing.T, f *excelize.File) *bytes.Buffer {
	t.Helper()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestExportLayout(t *testing.T) {
	f := export(t, parse(t))

	assert.Equal(t, []string{IndexSheet, "Weapons", "Category 1"}, f.GetSheetList())

	index, err := f.GetRows(IndexSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Sheet", "Category Index", "Category Name"},
		{"Weapons", "0", "Weapons"},
		{"Category 1", "1", "Category 1"},
	}, index)

	rows, err := f.GetRows("Weapons")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Row", "Item Name", "Column 2", "Column 3", "Stock Level", "Buy Price", "Sell Price"},
		{"0", "Rifle", "A", "B", "10", "100", "50"},
		{"2", "Saw", "A", "B", "1", "10.00", "-1"},
	}, rows)

	width, err := f.GetColWidth(IndexSheet, "C")
	require.NoError(t, err)
	assert.InDelta(t, 24, width, 0.01)
	width, err = f.GetColWidth("Weapons", "B")
	require.NoError(t, err)
	assert.InDelta(t, 32, width, 0.01)
}

func TestImportUnchanged(t *testing.T) {
	doc := parse(t)
	before, err := doc.Marshal()
	require.NoError(t, err)

	report, err := Import(doc, workbook(t, export(t, doc)))
	require.NoError(t, err)
	assert.Equal(t, ImportReport{Changed: 0, Unchanged: 3}, report)

	after, err := doc.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestImportEdits(t *testing.T) {
	doc := parse(t)
	f := export(t, doc)
	require.NoError(t, f.SetCellStr("Weapons", "F2", "120"))
	require.NoError(t, f.SetCellStr("Category 1", "E2", "-1"))

	report, err := Import(doc, workbook(t, f))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Changed)
	assert.Equal(t, 1, report.Unchanged)

	weapons, _ := doc.Category(0)
	assert.Equal(t, []string{"Rifle,A,B,10,120,50", "broken", "Saw,A,B,1,10.00,-1,x"}, weapons.Products())
	food, _ := doc.Category(1)
	assert.Equal(t, []string{"Bread,A,B,-1,2.50,1"}, food.Products())
}

func TestImportEmptyTrailingCell(t *testing.T) {
	doc := parse(t)
	f := export(t, doc)
	require.NoError(t, f.SetCellStr("Weapons", "G2", ""))

	_, err := Import(doc, workbook(t, f))
	require.NoError(t, err)

	weapons, _ := doc.Category(0)
	raw, _ := weapons.Product(0)
	assert.Equal(t, "Rifle,A,B,10,100,", raw)
}

func TestImportRejectsWithoutWriting(t *testing.T) {
	tests := map[string]func(f *excelize.File){
		"bad row index": func(f *excelize.File) {
			_ = f.SetCellStr("Weapons", "F2", "1")
			_ = f.SetCellStr("Category 1", "A2", "x")
		},
		"row out of range": func(f *excelize.File) {
			_ = f.SetCellStr("Weapons", "F2", "1")
			_ = f.SetCellStr("Category 1", "A2", "9")
		},
		"malformed target": func(f *excelize.File) {
			_ = f.SetCellStr("Weapons", "A2", "1")
		},
		"renamed category": func(f *excelize.File) {
			_ = f.SetCellStr(IndexSheet, "C2", "Guns")
		},
		"missing sheet": func(f *excelize.File) {
			_ = f.DeleteSheet("Category 1")
		},
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			doc := parse(t)
			before, _ := doc.Marshal()

			f := export(t, doc)
			mutate(f)

			_, err := Import(doc, workbook(t, f))
			assert.Error(t, err)

			after, _ := doc.Marshal()
			assert.Equal(t, string(before), string(after))
		})
	}
}

func TestImportNotAWorkbook(t *testing.T) {
	_, err := Import(parse(t), bytes.NewBufferString("{}"))
	assert.Error(t, err)
}

func TestSheetNames(t *testing.T) {
	long := "An extremely long category name for sure"
	names := SheetNames([]string{"Weapons", "weapons", "a/b:c", "", long, long, "Categories"})

	assert.Equal(t, "Weapons", names[0])
	assert.Equal(t, "weapons (2)", names[1])
	assert.Equal(t, "a_b_c", names[2])
	assert.Equal(t, "Category 3", names[3])
	assert.Equal(t, "An extremely long category name", names[4])
	assert.Equal(t, "An extremely long category (2)", names[5])
	assert.Equal(t, "Categories (2)", names[6])
}
