package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AggregateByRegion groups transactions by region and prices them in two
// passes: first the region's total sales picks the tier, then every line
// is recomputed at that tier's rates. A region whose lines individually
// sit in a low bracket still earns the bracket its combined volume
// reaches. The per-region bonus is added once, not per line.
//
// Regions come back sorted by name so results are stable regardless of
// workbook row order. Regions with no admitted transactions simply do
// not appear.
func AggregateByRegion(p Policy, txns []Transaction) []RegionAggregate {
	byRegion := make(map[string][]Transaction)
	for _, t := range txns {
		byRegion[t.Region] = append(byRegion[t.Region], t)
	}

	regions := make([]string, 0, len(byRegion))
	for region := range byRegion {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	aggs := make([]RegionAggregate, 0, len(regions))
	for _, region := range regions {
		group := byRegion[region]

		total := decimal.Zero
		for _, t := range group {
			total = total.Add(t.SalesAmount)
		}
		tierIdx, tier := p.TierFor(total)

		agg := RegionAggregate{
			Region:     region,
			TotalSales: total,
			TierIndex:  tierIdx,
			Bonus:      tier.Bonus,
			Lines:      make([]ProcessedLine, 0, len(group)),
		}
		reported := decimal.Zero
		for _, t := range group {
			line := ProcessTransaction(p, tier, t)
			agg.Lines = append(agg.Lines, line)
			agg.RecomputedCommission = agg.RecomputedCommission.Add(line.RecomputedCommission)
			reported = reported.Add(t.ReportedCommission)
		}
		agg.TotalWithBonus = agg.RecomputedCommission.Add(agg.Bonus)
		agg.ReportedCommission = reported
		agg.ReportedFound = !reported.IsZero()
		aggs = append(aggs, agg)
	}
	return aggs
}
