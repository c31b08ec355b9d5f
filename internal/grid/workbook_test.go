package grid

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range rows {
			for c, cell := range row {
				ref, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(name, ref, cell))
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestDecode_XLSX(t *testing.T) {
	data := buildXLSX(t, map[string][][]string{
		"Detail": {
			{"Ship To State", "Total Sales"},
			{"TX", "5000"},
		},
	})

	wb, err := Decode(data, "march.xlsx")
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	assert.Equal(t, "Detail", wb.Sheets[0].Name)
	require.NotEmpty(t, wb.Sheets[0].Rows)
	assert.Equal(t, []string{"Ship To State", "Total Sales"}, wb.Sheets[0].Rows[0])
}

func TestDecode_CSV(t *testing.T) {
	csvData := []byte("Ship To State,Total Sales\nTX,\"5,000.00\"\nCA,300\n")

	wb, err := Decode(csvData, "uploads/march_commissions.csv")
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	assert.Equal(t, "march_commissions", wb.Sheets[0].Name)
	require.Len(t, wb.Sheets[0].Rows, 3)
	assert.Equal(t, "5,000.00", wb.Sheets[0].Rows[1][1])
}

func TestDecode_CSVRaggedRows(t *testing.T) {
	csvData := []byte("a,b,c\nonly-one\nx,y\n")
	wb, err := Decode(csvData, "ragged.csv")
	require.NoError(t, err)
	assert.Len(t, wb.Sheets[0].Rows, 3)
	assert.Len(t, wb.Sheets[0].Rows[1], 1)
}

func TestDecode_UnsupportedExtension(t *testing.T) {
	_, err := Decode([]byte("%PDF-1.4"), "statement.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported workbook format")
}

func TestDecode_CorruptXLS(t *testing.T) {
	_, err := Decode([]byte("not an ole2 container"), "legacy.xls")
	assert.Error(t, err)
}

func TestDecode_CorruptXLSX(t *testing.T) {
	_, err := Decode([]byte("not a zip archive"), "broken.xlsx")
	assert.Error(t, err)
}

func TestWorkbook_Split(t *testing.T) {
	t.Run("token match on both sheets", func(t *testing.T) {
		wb := &Workbook{Sheets: []Sheet{
			{Name: "Commission Summary", Rows: [][]string{{"Final Commission", "150"}}},
			{Name: "Transaction Detail", Rows: [][]string{{"Ship To State"}, {"TX"}}},
		}}
		detail, summary, err := wb.Split()
		require.NoError(t, err)
		assert.Equal(t, "Transaction Detail", detail.Name)
		require.NotNil(t, summary)
		assert.Equal(t, "Commission Summary", summary.Name)
	})

	t.Run("single sheet is the detail sheet", func(t *testing.T) {
		wb := &Workbook{Sheets: []Sheet{
			{Name: "march_commissions", Rows: [][]string{{"Ship To State"}}},
		}}
		detail, summary, err := wb.Split()
		require.NoError(t, err)
		assert.Equal(t, "march_commissions", detail.Name)
		assert.Nil(t, summary)
	})

	t.Run("largest unnamed sheet wins", func(t *testing.T) {
		wb := &Workbook{Sheets: []Sheet{
			{Name: "Totals", Rows: [][]string{{"x"}}},
			{Name: "Sheet2", Rows: [][]string{{"a"}, {"b"}, {"c"}}},
			{Name: "Sheet3", Rows: [][]string{{"a"}}},
		}}
		detail, summary, err := wb.Split()
		require.NoError(t, err)
		assert.Equal(t, "Sheet2", detail.Name)
		require.NotNil(t, summary)
		assert.Equal(t, "Totals", summary.Name)
	})

	t.Run("summary-only workbook is a structural error", func(t *testing.T) {
		wb := &Workbook{Sheets: []Sheet{
			{Name: "Summary", Rows: [][]string{{"Final Commission", "150"}}},
			{Name: "Totals Recap", Rows: nil},
		}}
		_, _, err := wb.Split()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Summary")
		assert.Contains(t, err.Error(), "Totals Recap")
	})

	t.Run("a sheet never serves as both", func(t *testing.T) {
		wb := &Workbook{Sheets: []Sheet{
			{Name: "summary_data", Rows: [][]string{{"Ship To State"}}},
		}}
		detail, summary, err := wb.Split()
		require.NoError(t, err)
		require.NotNil(t, detail)
		assert.Nil(t, summary)
	})

	t.Run("empty workbook", func(t *testing.T) {
		wb := &Workbook{}
		_, _, err := wb.Split()
		assert.Error(t, err)
	})
}
