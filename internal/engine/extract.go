package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Alias groups for the detail sheet headers. Exported workbooks rename
// columns between export versions, so every group lists the variants seen
// in the field, highest confidence first. Lookup order is alias order,
// not column order.
var (
	regionAliases     = []string{"ship to state", "shiptostate", "state", "region", "st"}
	invoiceAliases    = []string{"invoice number", "invoice no", "invoice", "inv"}
	itemAliases       = []string{"item code", "item number", "item", "product code", "sku"}
	customerAliases   = []string{"customer id", "customer number", "customer", "cust"}
	salesAliases      = []string{"total sales", "sales amount", "ext sales", "net sales", "sales"}
	repeatCommAliases = []string{"repeat product commission", "repeat commission", "commission repeat"}
	newCommAliases    = []string{"new product commission", "new commission", "commission new"}
	newSalesAliases   = []string{"new product sales", "new sales"}
	incentCommAliases = []string{"incentive commission", "incentive pay", "spiff commission", "spiff"}
	incentFlagAliases = []string{"incentive flag", "spiff flag", "incentive"}
	totalCommAliases  = []string{"total commission", "commission amount", "commission paid", "commission"}

	headerAliasGroups = [][]string{regionAliases, salesAliases, invoiceAliases, itemAliases, customerAliases, totalCommAliases, repeatCommAliases, newCommAliases}

	truthyFlags = map[string]bool{"y": true, "yes": true, "x": true, "true": true, "t": true, "1": true}
)

const headerScanRows = 20

// normalizeCell flattens the whitespace noise spreadsheet exports carry:
// non-breaking spaces, padding, doubled separators.
func normalizeCell(cell string) string {
	cell = strings.ReplaceAll(cell, "\u00a0", " ")
	cell = strings.TrimSpace(cell)
	cell = strings.Join(strings.Fields(cell), " ")
	return cell
}

// normalizeKey reduces a header or label cell to bare lowercase
// alphanumerics so "Ship-To State:" and "ship to state" compare equal.
func normalizeKey(s string) string {
	s = strings.ToLower(normalizeCell(s))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// cleanAmount strips the formatting spreadsheets wrap around money:
// thousands separators, currency signs, accounting parentheses.
func cleanAmount(s string) string {
	s = normalizeCell(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	return s
}

// parseStrict reads a cell as money and reports whether the whole cell
// was numeric after cleanup.
func parseStrict(s string) (decimal.Decimal, bool) {
	cleaned := cleanAmount(s)
	if cleaned == "" || cleaned == "-" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// parseAmount is the lenient form: anything that still fails to parse
// after cleanup counts as zero, so one mangled cell never sinks a run.
func parseAmount(s string) decimal.Decimal {
	d, ok := parseStrict(s)
	if !ok {
		return decimal.Zero
	}
	return d
}

func parseFlag(s string) bool {
	return truthyFlags[normalizeKey(s)]
}

// headerIndex maps normalized header text to its column position. The
// first occurrence wins when a workbook repeats a header.
type headerIndex map[string]int

func buildHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, cell := range header {
		key := normalizeKey(cell)
		if key == "" {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// lookup walks the alias list in order and returns the first column whose
// normalized header matches. Alias priority outranks column order.
func (h headerIndex) lookup(aliases []string) (int, bool) {
	for _, alias := range aliases {
		if col, ok := h[normalizeKey(alias)]; ok {
			return col, true
		}
	}
	return -1, false
}

// LocateHeader scans the top rows of a detail grid for the row that
// matches at least two known alias groups. Exports bury the header under
// title and address banners, so row zero is never assumed.
func LocateHeader(rows [][]string) (int, []string, bool) {
	limit := headerScanRows
	if len(rows) < limit {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		idx := buildHeaderIndex(rows[i])
		groups := 0
		for _, aliases := range headerAliasGroups {
			if _, ok := idx.lookup(aliases); ok {
				groups++
			}
		}
		if groups >= 2 {
			return i, rows[i], true
		}
	}
	return -1, nil, false
}

// detailColumns holds the resolved column for every field the extractor
// knows about, -1 when the workbook does not carry it.
type detailColumns struct {
	region, invoice, item, customer, sales int
	repeatComm, newComm, newSales          int
	incentComm, incentFlag, totalComm      int
}

func resolveColumns(header []string) detailColumns {
	idx := buildHeaderIndex(header)
	find := func(aliases []string) int {
		col, ok := idx.lookup(aliases)
		if !ok {
			return -1
		}
		return col
	}
	return detailColumns{
		region:     find(regionAliases),
		invoice:    find(invoiceAliases),
		item:       find(itemAliases),
		customer:   find(customerAliases),
		sales:      find(salesAliases),
		repeatComm: find(repeatCommAliases),
		newComm:    find(newCommAliases),
		newSales:   find(newSalesAliases),
		incentComm: find(incentCommAliases),
		incentFlag: find(incentFlagAliases),
		totalComm:  find(totalCommAliases),
	}
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return normalizeCell(row[col])
}

func amountAt(row []string, col int) decimal.Decimal {
	if col < 0 || col >= len(row) {
		return decimal.Zero
	}
	return parseAmount(row[col])
}

// ExtractTransactions turns the raw rows under a located header into
// admitted transactions. Rows with no region or non-positive sales are
// dropped; mangled numeric cells degrade to zero instead of failing the
// run. Returns the admitted set plus the dropped-row count.
func ExtractTransactions(header []string, rows [][]string) ([]Transaction, int) {
	cols := resolveColumns(header)
	txns := make([]Transaction, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		t, ok := extractTransaction(cols, row)
		if !ok {
			dropped++
			continue
		}
		txns = append(txns, t)
	}
	return txns, dropped
}

func extractTransaction(cols detailColumns, row []string) (Transaction, bool) {
	region := cellAt(row, cols.region)
	if region == "" {
		return Transaction{}, false
	}
	sales := amountAt(row, cols.sales)
	if !sales.IsPositive() {
		return Transaction{}, false
	}

	sig := classSignals{
		IncentiveFlag:       parseFlag(cellAt(row, cols.incentFlag)),
		IncentiveCommission: amountAt(row, cols.incentComm),
		NewCommission:       amountAt(row, cols.newComm),
		NewSales:            amountAt(row, cols.newSales),
		RepeatCommission:    amountAt(row, cols.repeatComm),
	}

	reported := amountAt(row, cols.totalComm)
	if reported.IsZero() {
		reported = sig.RepeatCommission.Add(sig.NewCommission).Add(sig.IncentiveCommission)
	}

	return Transaction{
		Region:             strings.ToUpper(region),
		InvoiceID:          cellAt(row, cols.invoice),
		ItemCode:           cellAt(row, cols.item),
		CustomerID:         cellAt(row, cols.customer),
		SalesAmount:        sales,
		Class:              Classify(sig),
		ReportedCommission: reported,
	}, true
}
