// Package engine recomputes sales commission payouts from workbook grids
// and reconciles them against the figures the payer reported. It is pure
// in-memory computation over already-decoded cell grids; decoding and
// persistence live elsewhere. A Config value carries all policy state,
// so concurrent runs never share anything mutable.
package engine

import "errors"

// ErrHeaderNotFound means the detail grid has no row that looks like a
// transaction header. Callers surface this as a structural defect of the
// uploaded workbook.
var ErrHeaderNotFound = errors.New("no recognizable transaction header row in detail sheet")

// Run executes the whole reconciliation over a decoded workbook: locate
// the header, extract and classify transactions, aggregate per region,
// lift reported totals off the summary grid, then reconcile the two
// sides. The summary grid may be empty; the detail grid must carry a
// recognizable header row.
func Run(cfg Config, detail [][]string, summary [][]string) (Result, error) {
	headerRow, header, ok := LocateHeader(detail)
	if !ok {
		return Result{}, ErrHeaderNotFound
	}
	txns, dropped := ExtractTransactions(header, detail[headerRow+1:])
	aggs := AggregateByRegion(cfg.Policy, txns)
	reported := ExtractSummary(summary, cfg.Window)

	res := Reconcile(aggs, reported)
	res.HeaderRow = headerRow
	res.DroppedRows = dropped
	return res, nil
}
