// Package grid decodes uploaded spreadsheets into plain cell grids and
// resolves which sheet holds transaction detail and which holds the
// payer's summary. Nothing here interprets cell contents; that is the
// engine's job.
package grid

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet flattened to raw cell strings. Rows may be
// ragged; trailing empty cells are whatever the decoder produced.
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook is a decoded upload, sheets in file order.
type Workbook struct {
	Sheets []Sheet
}

var (
	detailTokens  = []string{"detail", "transaction", "data"}
	summaryTokens = []string{"summary", "total", "recap"}
)

// Decode picks a decoder from the filename extension. CSV uploads come
// back as a single sheet named after the file.
func Decode(data []byte, filename string) (*Workbook, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx", ".xlsm":
		return decodeXLSX(data)
	case ".xls":
		return decodeXLS(data)
	case ".csv":
		return decodeCSV(data, filename)
	default:
		return nil, fmt.Errorf("unsupported workbook format %q, want .xlsx, .xls or .csv", ext)
	}
}

func decodeXLSX(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}
	return wb, nil
}

func decodeXLS(data []byte) (*Workbook, error) {
	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}

	wb := &Workbook{}
	for i := 0; i < book.NumSheets(); i++ {
		sheet := book.GetSheet(i)
		if sheet == nil {
			continue
		}
		rows := make([][]string, 0, int(sheet.MaxRow)+1)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			// Row cells are sparse; rebuild a dense line so column
			// positions stay aligned with the header.
			line := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				line[c] = row.Col(c)
			}
			rows = append(rows, line)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: sheet.Name, Rows: rows})
	}
	return wb, nil
}

func decodeCSV(data []byte, filename string) (*Workbook, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return &Workbook{Sheets: []Sheet{{Name: name, Rows: records}}}, nil
}

// SheetNames lists the decoded sheet names, for diagnostics.
func (wb *Workbook) SheetNames() []string {
	names := make([]string, 0, len(wb.Sheets))
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
	}
	return names
}

func hasToken(name string, tokens []string) bool {
	lower := strings.ToLower(name)
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

func (wb *Workbook) byToken(tokens []string) *Sheet {
	for i := range wb.Sheets {
		if hasToken(wb.Sheets[i].Name, tokens) {
			return &wb.Sheets[i]
		}
	}
	return nil
}

// DetailSheet resolves the transaction-level sheet: first by name token,
// then a lone sheet wins by default, then the largest sheet that is not
// named like a summary. The error lists what the workbook did contain so
// the uploader can fix the file.
func (wb *Workbook) DetailSheet() (*Sheet, error) {
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook contains no sheets")
	}
	if s := wb.byToken(detailTokens); s != nil {
		return s, nil
	}
	if len(wb.Sheets) == 1 {
		return &wb.Sheets[0], nil
	}
	var best *Sheet
	for i := range wb.Sheets {
		s := &wb.Sheets[i]
		if hasToken(s.Name, summaryTokens) {
			continue
		}
		if best == nil || len(s.Rows) > len(best.Rows) {
			best = s
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no detail sheet in workbook, found: %s", strings.Join(wb.SheetNames(), ", "))
	}
	return best, nil
}

// Split resolves both logical sheets in one call. The summary sheet is
// optional and comes back nil when absent; a sheet never serves as both.
func (wb *Workbook) Split() (detail, summary *Sheet, err error) {
	detail, err = wb.DetailSheet()
	if err != nil {
		return nil, nil, err
	}
	summary = wb.byToken(summaryTokens)
	if summary == detail {
		summary = nil
	}
	return detail, summary, nil
}
