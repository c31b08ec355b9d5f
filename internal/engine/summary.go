package engine

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// summaryField tags each figure the summary scan can produce.
type summaryField int

const (
	fieldAmountDue summaryField = iota
	fieldFinalCommission
	fieldRepeatCommission
	fieldNewCommission
	fieldIncentiveCommission
	fieldSumOfCommission
	fieldStateBonus
	fieldTotalRevenue
	fieldHeuristicTotal
)

// summaryRules drives the label scan. Matching is substring containment
// over normalized text, so "FINAL COMMISSION DUE:" still hits. Variants
// are ordered most specific first; adding a layout quirk means adding a
// row here, never another branch in the evaluator.
var summaryRules = []struct {
	field  summaryField
	labels []string
}{
	{fieldFinalCommission, []string{"final commission"}},
	{fieldSumOfCommission, []string{"sum of total commission", "total commission"}},
	{fieldAmountDue, []string{"amount due to salesperson", "amount due salesperson", "amount due"}},
	{fieldRepeatCommission, []string{"repeat product commission", "repeat commission"}},
	{fieldNewCommission, []string{"new product commission", "new commission"}},
	{fieldIncentiveCommission, []string{"incentive commission", "spiff"}},
	{fieldStateBonus, []string{"additional state commission", "state bonus", "additional commission"}},
	{fieldTotalRevenue, []string{"total revenue", "total sales"}},
}

// adjacentOffsets is the search order around a matched label, in (row,
// col) deltas: right, two right, below, diagonal down-right, left. The
// first offset holding a parseable positive number wins.
var adjacentOffsets = []struct{ dr, dc int }{
	{0, 1}, {0, 2}, {1, 0}, {1, 1}, {0, -1},
}

// totalSignalRank orders the competing commission-total signals, highest
// confidence first. "Amount due" ranks under the commission labels since
// it usually bundles region bonuses into the figure, and picking it when
// a cleaner label exists double-counts bonuses downstream. The magnitude
// heuristic trails everything.
var totalSignalRank = []struct {
	field  summaryField
	source string
}{
	{fieldFinalCommission, "final_commission"},
	{fieldSumOfCommission, "sum_of_total_commission"},
	{fieldAmountDue, "amount_due_to_payee"},
	{fieldHeuristicTotal, "magnitude_heuristic"},
}

// ExtractSummary scans an unstructured summary grid for the payer's
// reported totals. Fields the grid does not carry stay zero-valued with
// Found=false, which downstream code treats as "nothing reported". When
// no commission total is labeled anywhere, a last-resort pass looks for
// a lone number inside the plausible magnitude window and tags it
// Heuristic so consumers can tell a guess from a confirmed value.
func ExtractSummary(grid [][]string, window SummaryWindow) ReportedTotals {
	var rt ReportedTotals
	for r, row := range grid {
		for c, cell := range row {
			key := normalizeKey(cell)
			if key == "" {
				continue
			}
			for _, rule := range summaryRules {
				dst := rt.fieldRef(rule.field)
				if dst.Found {
					continue
				}
				label, ok := matchLabel(key, rule.labels)
				if !ok {
					continue
				}
				val, ref, ok := adjacentValue(grid, r, c)
				if !ok {
					continue
				}
				*dst = ReportedField{Value: val, Found: true, CellRef: ref, Label: label}
			}
		}
	}

	if !rt.FinalCommission.Found && !rt.SumOfTotalCommission.Found && !rt.AmountDueToPayee.Found {
		if val, ref, ok := magnitudeFallback(grid, window); ok {
			rt.HeuristicTotal = ReportedField{Value: val, Heuristic: true, CellRef: ref}
		}
	}
	return rt
}

// BestCommissionTotal resolves the single figure the grand totals are
// reconciled against, walking the signal ranking top down.
func (rt *ReportedTotals) BestCommissionTotal() (ReportedField, string, bool) {
	for _, sig := range totalSignalRank {
		f := rt.fieldRef(sig.field)
		if f.Found || f.Heuristic {
			return *f, sig.source, true
		}
	}
	return ReportedField{}, "", false
}

func (rt *ReportedTotals) fieldRef(f summaryField) *ReportedField {
	switch f {
	case fieldAmountDue:
		return &rt.AmountDueToPayee
	case fieldFinalCommission:
		return &rt.FinalCommission
	case fieldRepeatCommission:
		return &rt.RepeatCommission
	case fieldNewCommission:
		return &rt.NewCommission
	case fieldIncentiveCommission:
		return &rt.IncentiveCommission
	case fieldSumOfCommission:
		return &rt.SumOfTotalCommission
	case fieldStateBonus:
		return &rt.StateBonus
	case fieldTotalRevenue:
		return &rt.TotalRevenue
	default:
		return &rt.HeuristicTotal
	}
}

func matchLabel(normalizedCell string, labels []string) (string, bool) {
	for _, label := range labels {
		if keyContains(normalizedCell, label) {
			return label, true
		}
	}
	return "", false
}

func keyContains(normalizedCell, label string) bool {
	needle := normalizeKey(label)
	if needle == "" {
		return false
	}
	return strings.Contains(normalizedCell, needle)
}

// adjacentValue probes the offsets around a label cell and returns the
// first positive number together with its A1-style address.
func adjacentValue(grid [][]string, r, c int) (decimal.Decimal, string, bool) {
	for _, off := range adjacentOffsets {
		rr, cc := r+off.dr, c+off.dc
		if rr < 0 || rr >= len(grid) || cc < 0 || cc >= len(grid[rr]) {
			continue
		}
		val, ok := parseStrict(grid[rr][cc])
		if !ok || !val.IsPositive() {
			continue
		}
		ref, _ := excelize.CoordinatesToCellName(cc+1, rr+1)
		return val, ref, true
	}
	return decimal.Decimal{}, "", false
}

// magnitudeFallback picks the largest lone number inside the window.
// Largest, because per-region figures and totals often share the sheet
// and the total is the biggest of them.
func magnitudeFallback(grid [][]string, window SummaryWindow) (decimal.Decimal, string, bool) {
	best := decimal.Decimal{}
	bestRef := ""
	found := false
	for r, row := range grid {
		for c, cell := range row {
			val, ok := parseStrict(cell)
			if !ok {
				continue
			}
			if val.LessThan(window.Min) || val.GreaterThan(window.Max) {
				continue
			}
			if !found || val.GreaterThan(best) {
				ref, _ := excelize.CoordinatesToCellName(c+1, r+1)
				best, bestRef, found = val, ref, true
			}
		}
	}
	return best, bestRef, found
}
