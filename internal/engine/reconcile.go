package engine

import "github.com/shopspring/decimal"

// tolerance is the slack a delta gets before it counts as a discrepancy.
// One cent, fixed by the payout agreement rather than configuration.
var tolerance = decimal.New(1, -2)

func classifyDelta(delta decimal.Decimal) Classification {
	switch {
	case delta.GreaterThan(tolerance):
		return Underpaid
	case delta.LessThan(tolerance.Neg()):
		return Overpaid
	default:
		return Aligned
	}
}

// Reconcile lines the recomputed aggregates up against what the workbook
// reported. Every region gets an entry, aligned ones included, so the
// report always accounts for the whole payout. A region with no reported
// figure in its detail rows is treated as entirely unpaid. The grand
// totals additionally get checked against the summary sheet's best
// commission figure when one was extracted.
func Reconcile(aggs []RegionAggregate, reported ReportedTotals) Result {
	res := Result{
		Regions:       aggs,
		Discrepancies: make([]DiscrepancyEntry, 0, len(aggs)),
		Reported:      reported,
	}

	var grand GrandTotals
	for _, agg := range aggs {
		grand.TotalSales = grand.TotalSales.Add(agg.TotalSales)
		grand.RecomputedCommission = grand.RecomputedCommission.Add(agg.RecomputedCommission)
		grand.Bonus = grand.Bonus.Add(agg.Bonus)
		grand.TotalWithBonus = grand.TotalWithBonus.Add(agg.TotalWithBonus)
		grand.TransactionCount += len(agg.Lines)

		entry := DiscrepancyEntry{
			Region:          agg.Region,
			RecomputedTotal: agg.TotalWithBonus,
		}
		if agg.ReportedFound {
			rep := agg.ReportedCommission
			entry.ReportedTotal = &rep
			entry.Delta = agg.TotalWithBonus.Sub(rep)
			grand.ReportedCommission = grand.ReportedCommission.Add(rep)
		} else {
			entry.Delta = agg.TotalWithBonus
		}
		entry.Classification = classifyDelta(entry.Delta)
		if entry.Classification != Aligned {
			grand.ImpactedRegions++
		}
		res.Discrepancies = append(res.Discrepancies, entry)
	}
	grand.RegionCount = len(aggs)
	grand.AmountOwed = grand.TotalWithBonus.Sub(grand.ReportedCommission)

	if best, source, ok := reported.BestCommissionTotal(); ok {
		delta := grand.TotalWithBonus.Sub(best.Value)
		res.Summary = &SummaryComparison{
			Reported:       best.Value,
			Source:         source,
			CellRef:        best.CellRef,
			Heuristic:      best.Heuristic,
			Delta:          delta,
			Classification: classifyDelta(delta),
		}
	}

	res.Grand = grand
	return res
}
