package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductClass is the commission class assigned to a single transaction.
// The numeric order is the precedence order used during classification:
// incentive outranks new, new outranks repeat.
type ProductClass int

const (
	ClassRepeat ProductClass = iota
	ClassNew
	ClassIncentive
)

func (c ProductClass) String() string {
	switch c {
	case ClassIncentive:
		return "incentive"
	case ClassNew:
		return "new"
	default:
		return "repeat"
	}
}

func (c ProductClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText restores a class from its wire form. Stored results
// round-trip through JSON, so the three names must decode back exactly.
func (c *ProductClass) UnmarshalText(b []byte) error {
	switch string(b) {
	case "repeat":
		*c = ClassRepeat
	case "new":
		*c = ClassNew
	case "incentive":
		*c = ClassIncentive
	default:
		return fmt.Errorf("unknown product class %q", b)
	}
	return nil
}

// Transaction is one admitted detail row after field extraction.
type Transaction struct {
	Region             string          `json:"region"`
	InvoiceID          string          `json:"invoice_id,omitempty"`
	ItemCode           string          `json:"item_code,omitempty"`
	CustomerID         string          `json:"customer_id,omitempty"`
	SalesAmount        decimal.Decimal `json:"sales_amount"`
	Class              ProductClass    `json:"class"`
	ReportedCommission decimal.Decimal `json:"reported_commission"`
}

// ProcessedLine is a transaction priced against the tier of its region.
type ProcessedLine struct {
	Transaction
	Rate                 decimal.Decimal `json:"rate"`
	RecomputedCommission decimal.Decimal `json:"recomputed_commission"`
}

// RegionAggregate carries everything recomputed for one region. The tier
// is resolved from the region's total sales, never per line.
type RegionAggregate struct {
	Region               string          `json:"region"`
	TotalSales           decimal.Decimal `json:"total_sales"`
	TierIndex            int             `json:"tier_index"`
	Lines                []ProcessedLine `json:"lines,omitempty"`
	RecomputedCommission decimal.Decimal `json:"recomputed_commission"`
	Bonus                decimal.Decimal `json:"bonus"`
	TotalWithBonus       decimal.Decimal `json:"total_with_bonus"`
	ReportedCommission   decimal.Decimal `json:"reported_commission"`
	ReportedFound        bool            `json:"reported_found"`
}

// ReportedField is one figure lifted off the summary sheet. CellRef keeps
// the A1-style address of the value cell so a reviewer can trace it back
// to the workbook. Heuristic marks values that were guessed rather than
// confirmed by a label.
type ReportedField struct {
	Value     decimal.Decimal `json:"value"`
	Found     bool            `json:"found"`
	Heuristic bool            `json:"heuristic,omitempty"`
	CellRef   string          `json:"cell_ref,omitempty"`
	Label     string          `json:"label,omitempty"`
}

// ReportedTotals is the full set of figures the summary sheet may carry.
// Absent figures stay zero-valued with Found=false.
type ReportedTotals struct {
	AmountDueToPayee     ReportedField `json:"amount_due_to_payee"`
	FinalCommission      ReportedField `json:"final_commission"`
	RepeatCommission     ReportedField `json:"repeat_commission"`
	NewCommission        ReportedField `json:"new_commission"`
	IncentiveCommission  ReportedField `json:"incentive_commission"`
	SumOfTotalCommission ReportedField `json:"sum_of_total_commission"`
	StateBonus           ReportedField `json:"state_bonus"`
	TotalRevenue         ReportedField `json:"total_revenue"`
	HeuristicTotal       ReportedField `json:"heuristic_total"`
}

// Classification buckets a delta after the tolerance check.
type Classification string

const (
	Underpaid Classification = "UNDERPAID"
	Overpaid  Classification = "OVERPAID"
	Aligned   Classification = "ALIGNED"
)

// DiscrepancyEntry compares one region's recomputed payout against what
// the workbook reported for it. ReportedTotal is nil when the detail rows
// carried no commission figures for the region, in which case the full
// recomputed amount is treated as unpaid.
type DiscrepancyEntry struct {
	Region          string           `json:"region"`
	RecomputedTotal decimal.Decimal  `json:"recomputed_total"`
	ReportedTotal   *decimal.Decimal `json:"reported_total"`
	Delta           decimal.Decimal  `json:"delta"`
	Classification  Classification   `json:"classification"`
}

// SummaryComparison is the grand-total check against the summary sheet's
// best commission figure.
type SummaryComparison struct {
	Reported       decimal.Decimal `json:"reported"`
	Source         string          `json:"source"`
	CellRef        string          `json:"cell_ref,omitempty"`
	Heuristic      bool            `json:"heuristic,omitempty"`
	Delta          decimal.Decimal `json:"delta"`
	Classification Classification  `json:"classification"`
}

// GrandTotals rolls the per-region aggregates up to the payout level.
// ReportedCommission only sums regions where a reported figure existed.
type GrandTotals struct {
	TotalSales           decimal.Decimal `json:"total_sales"`
	RecomputedCommission decimal.Decimal `json:"recomputed_commission"`
	Bonus                decimal.Decimal `json:"bonus"`
	TotalWithBonus       decimal.Decimal `json:"total_with_bonus"`
	ReportedCommission   decimal.Decimal `json:"reported_commission"`
	AmountOwed           decimal.Decimal `json:"amount_owed"`
	TransactionCount     int             `json:"transaction_count"`
	RegionCount          int             `json:"region_count"`
	ImpactedRegions      int             `json:"impacted_regions"`
}

// Result is the complete outcome of one reconciliation run. HeaderRow is
// the zero-based row the detail header was found on; DroppedRows counts
// detail rows rejected during extraction.
type Result struct {
	Regions       []RegionAggregate  `json:"regions"`
	Grand         GrandTotals        `json:"grand_totals"`
	Discrepancies []DiscrepancyEntry `json:"discrepancies"`
	Reported      ReportedTotals     `json:"reported_totals"`
	Summary       *SummaryComparison `json:"summary_comparison,omitempty"`
	HeaderRow     int                `json:"header_row"`
	DroppedRows   int                `json:"dropped_rows"`
}
