package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txn(region, sales string, class ProductClass, reported string) Transaction {
	return Transaction{
		Region:             region,
		SalesAmount:        dec(sales),
		Class:              class,
		ReportedCommission: dec(reported),
	}
}

func TestAggregateByRegion_TierFromRegionTotal(t *testing.T) {
	policy := DefaultConfig().Policy

	// Three repeat-class lines each below 10k individually; together they
	// push TX into the second tier, so every line earns 1%, not 2%.
	txns := []Transaction{
		txn("TX", "5000", ClassRepeat, "0"),
		txn("TX", "3000", ClassRepeat, "0"),
		txn("TX", "2000", ClassRepeat, "0"),
	}

	aggs := AggregateByRegion(policy, txns)
	require.Len(t, aggs, 1)

	tx := aggs[0]
	assert.Equal(t, "TX", tx.Region)
	assert.Equal(t, 1, tx.TierIndex)
	assertDec(t, "10000", tx.TotalSales)
	assertDec(t, "100", tx.RecomputedCommission)
	assertDec(t, "100", tx.Bonus)
	assertDec(t, "200", tx.TotalWithBonus)
	assert.False(t, tx.ReportedFound)
	require.Len(t, tx.Lines, 3)
	assertDec(t, "0.01", tx.Lines[0].Rate)
	assertDec(t, "50", tx.Lines[0].RecomputedCommission)
}

func TestAggregateByRegion_MixedClassesAndBonusOnce(t *testing.T) {
	policy := DefaultConfig().Policy

	txns := []Transaction{
		txn("CA", "30000", ClassRepeat, "300"),
		txn("CA", "10000", ClassNew, "200"),
		txn("CA", "5000", ClassIncentive, "150"),
	}

	aggs := AggregateByRegion(policy, txns)
	require.Len(t, aggs, 1)

	ca := aggs[0]
	// 45k total lands in tier 2: repeat 1%, new 2%, incentive 3%.
	assert.Equal(t, 1, ca.TierIndex)
	assertDec(t, "300", ca.Lines[0].RecomputedCommission)
	assertDec(t, "200", ca.Lines[1].RecomputedCommission)
	assertDec(t, "150", ca.Lines[2].RecomputedCommission)
	assertDec(t, "650", ca.RecomputedCommission)
	// Bonus applies once per region, not per line.
	assertDec(t, "100", ca.Bonus)
	assertDec(t, "750", ca.TotalWithBonus)
	assertDec(t, "650", ca.ReportedCommission)
	assert.True(t, ca.ReportedFound)
}

func TestAggregateByRegion_SortsAndPartitions(t *testing.T) {
	policy := DefaultConfig().Policy

	txns := []Transaction{
		txn("NM", "100", ClassRepeat, "0"),
		txn("AZ", "200", ClassRepeat, "0"),
		txn("NM", "300", ClassRepeat, "0"),
		txn("CA", "400", ClassRepeat, "0"),
	}

	aggs := AggregateByRegion(policy, txns)
	require.Len(t, aggs, 3)
	assert.Equal(t, "AZ", aggs[0].Region)
	assert.Equal(t, "CA", aggs[1].Region)
	assert.Equal(t, "NM", aggs[2].Region)

	// Aggregation invariant: region totals sum back to the input total.
	inputTotal := decimal.Zero
	for _, tr := range txns {
		inputTotal = inputTotal.Add(tr.SalesAmount)
	}
	regionTotal := decimal.Zero
	lineCount := 0
	for _, agg := range aggs {
		regionTotal = regionTotal.Add(agg.TotalSales)
		lineCount += len(agg.Lines)
	}
	assert.True(t, inputTotal.Equal(regionTotal), "want %s, got %s", inputTotal, regionTotal)
	assert.Equal(t, len(txns), lineCount)
}

func TestAggregateByRegion_EmptyInput(t *testing.T) {
	aggs := AggregateByRegion(DefaultConfig().Policy, nil)
	assert.Empty(t, aggs)
}
