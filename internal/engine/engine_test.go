package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_FullPipeline(t *testing.T) {
	detail := [][]string{
		{"ACME DISTRIBUTION LLC"},
		{"Commission Detail - March 2024"},
		{"Invoice Number", "Customer ID", "Ship To State", "Total Sales", "Repeat Commission", "New Commission", "Incentive Flag"},
		{"10001", "C-1", "TX", "5,000.00", "", "", ""},
		{"10002", "C-2", "TX", "3,000.00", "", "", ""},
		{"10003", "C-3", "TX", "2,000.00", "", "", ""},
		{"10004", "C-4", "", "1,000.00", "", "", ""}, // dropped, no region
	}
	summary := [][]string{
		{"Commission Summary"},
		{"FINAL COMMISSION", "150.00"},
	}

	res, err := Run(DefaultConfig(), detail, summary)
	require.NoError(t, err)

	assert.Equal(t, 2, res.HeaderRow)
	assert.Equal(t, 1, res.DroppedRows)

	// 10k in repeat sales lands TX in the second tier: 1% plus the 100
	// region bonus.
	require.Len(t, res.Regions, 1)
	tx := res.Regions[0]
	assert.Equal(t, "TX", tx.Region)
	assert.Equal(t, 1, tx.TierIndex)
	assertDec(t, "10000", tx.TotalSales)
	assertDec(t, "100", tx.RecomputedCommission)
	assertDec(t, "100", tx.Bonus)
	assertDec(t, "200", tx.TotalWithBonus)

	// No per-line commissions were reported, so the region reads as
	// fully unpaid at region granularity.
	require.Len(t, res.Discrepancies, 1)
	assert.Nil(t, res.Discrepancies[0].ReportedTotal)
	assertDec(t, "200", res.Discrepancies[0].Delta)
	assert.Equal(t, Underpaid, res.Discrepancies[0].Classification)

	// The summary sheet said 150, so the grand comparison is 50 short.
	require.NotNil(t, res.Summary)
	assert.Equal(t, "final_commission", res.Summary.Source)
	assertDec(t, "150", res.Summary.Reported)
	assertDec(t, "50", res.Summary.Delta)
	assert.Equal(t, Underpaid, res.Summary.Classification)

	assert.Equal(t, 3, res.Grand.TransactionCount)
	assert.Equal(t, 1, res.Grand.RegionCount)
	assert.Equal(t, 1, res.Grand.ImpactedRegions)
}

func TestRun_Deterministic(t *testing.T) {
	detail := [][]string{
		{"Ship To State", "Total Sales", "Repeat Commission", "New Commission"},
		{"NM", "1,200.00", "24", ""},
		{"AZ", "800.00", "", "24"},
		{"NM", "300.00", "6", ""},
		{"CA", "60,000.00", "600", ""},
	}
	summary := [][]string{
		{"Sum of Total Commission", "654"},
	}

	first, err := Run(DefaultConfig(), detail, summary)
	require.NoError(t, err)
	second, err := Run(DefaultConfig(), detail, summary)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first.Regions, 3)
	assert.Equal(t, "AZ", first.Regions[0].Region)
	assert.Equal(t, "CA", first.Regions[1].Region)
	assert.Equal(t, "NM", first.Regions[2].Region)
}

func TestRun_NoHeader(t *testing.T) {
	detail := [][]string{
		{"no tabular content here"},
		{"just", "prose"},
	}
	_, err := Run(DefaultConfig(), detail, nil)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestRun_EmptySummarySheet(t *testing.T) {
	detail := [][]string{
		{"Ship To State", "Total Sales"},
		{"TX", "500"},
		{"CA", "700"},
	}

	res, err := Run(DefaultConfig(), detail, nil)
	require.NoError(t, err)

	// With nothing reported anywhere, every region is underpaid by its
	// full recomputed amount.
	require.Len(t, res.Discrepancies, 2)
	for _, d := range res.Discrepancies {
		assert.Nil(t, d.ReportedTotal)
		assert.Equal(t, Underpaid, d.Classification)
		assert.True(t, d.Delta.Equal(d.RecomputedTotal))
	}
	assert.Nil(t, res.Summary)
}

func TestRun_NoAdmittedRows(t *testing.T) {
	detail := [][]string{
		{"Ship To State", "Total Sales"},
		{"", "500"},
		{"TX", "0"},
	}
	res, err := Run(DefaultConfig(), detail, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Regions)
	assert.Equal(t, 2, res.DroppedRows)
	assert.Equal(t, 0, res.Grand.RegionCount)
}
