package engine

// ProcessTransaction prices one transaction at the rate its class earns
// inside the given tier. The tier always comes from the region's total
// sales, so callers resolve it once per region, never per line.
func ProcessTransaction(p Policy, tier Tier, t Transaction) ProcessedLine {
	rate := p.RateFor(tier, t.Class)
	return ProcessedLine{
		Transaction:          t,
		Rate:                 rate,
		RecomputedCommission: t.SalesAmount.Mul(rate),
	}
}
