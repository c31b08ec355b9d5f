package engine

import "github.com/shopspring/decimal"

// classSignals are the per-row cues that drive product classification.
type classSignals struct {
	IncentiveFlag       bool
	IncentiveCommission decimal.Decimal
	NewCommission       decimal.Decimal
	NewSales            decimal.Decimal
	RepeatCommission    decimal.Decimal
}

// classRules is evaluated top to bottom, first match wins. Incentive
// outranks new, new outranks repeat, so a row flagged as a spiff stays
// incentive even when it also carries new-product figures.
var classRules = []struct {
	class ProductClass
	match func(classSignals) bool
}{
	{ClassIncentive, func(s classSignals) bool {
		return s.IncentiveFlag || s.IncentiveCommission.IsPositive()
	}},
	{ClassNew, func(s classSignals) bool {
		return s.NewCommission.IsPositive() || s.NewSales.IsPositive()
	}},
	{ClassRepeat, func(s classSignals) bool {
		return s.RepeatCommission.IsPositive()
	}},
}

// Classify resolves the commission class of one transaction, defaulting
// to repeat when no signal fires.
func Classify(s classSignals) ProductClass {
	for _, rule := range classRules {
		if rule.match(s) {
			return rule.class
		}
	}
	return ClassRepeat
}
