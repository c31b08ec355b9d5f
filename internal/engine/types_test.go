package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductClassTextRoundTrip(t *testing.T) {
	for _, class := range []ProductClass{ClassRepeat, ClassNew, ClassIncentive} {
		text, err := class.MarshalText()
		require.NoError(t, err)

		var back ProductClass
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, class, back, "class %s", class)
	}

	var c ProductClass
	err := c.UnmarshalText([]byte("bulk"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown product class")
}

// Stored runs survive as JSON and are decoded straight back into Result,
// so a marshaled result must unmarshal to the same reconciliation. This
// covers every field family: priced lines with all three classes,
// reported totals, discrepancies and the summary comparison.
func TestResultJSONRoundTrip(t *testing.T) {
	detail := [][]string{
		{"Ship To State", "Total Sales", "Repeat Commission", "New Commission", "Incentive Flag", "Total Commission"},
		{"TX", "5000", "100", "", "", "100"},
		{"TX", "2000", "", "60", "", "60"},
		{"CA", "1500", "", "", "Y", "45"},
	}
	summary := [][]string{
		{"Final Commission", "205"},
	}

	original, err := Run(DefaultConfig(), detail, summary)
	require.NoError(t, err)

	payload, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"class":"repeat"`)
	assert.Contains(t, string(payload), `"class":"new"`)
	assert.Contains(t, string(payload), `"class":"incentive"`)

	var restored Result
	require.NoError(t, json.Unmarshal(payload, &restored))

	require.Len(t, restored.Regions, 2)
	ca, tx := restored.Regions[0], restored.Regions[1]

	assert.Equal(t, "CA", ca.Region)
	require.Len(t, ca.Lines, 1)
	assert.Equal(t, ClassIncentive, ca.Lines[0].Class)

	assert.Equal(t, "TX", tx.Region)
	require.Len(t, tx.Lines, 2)
	assert.Equal(t, ClassRepeat, tx.Lines[0].Class)
	assert.Equal(t, ClassNew, tx.Lines[1].Class)
	assertDec(t, "7000", tx.TotalSales)
	assertDec(t, "160", tx.TotalWithBonus)

	assert.Equal(t, 3, restored.Grand.TransactionCount)
	assert.Equal(t, 2, restored.Grand.RegionCount)
	assertDec(t, "205", restored.Grand.TotalWithBonus)

	require.Len(t, restored.Discrepancies, 2)
	for _, d := range restored.Discrepancies {
		assert.Equal(t, Aligned, d.Classification, "region %s", d.Region)
		require.NotNil(t, d.ReportedTotal)
	}

	require.True(t, restored.Reported.FinalCommission.Found)
	assert.Equal(t, "B1", restored.Reported.FinalCommission.CellRef)

	require.NotNil(t, restored.Summary)
	assert.Equal(t, "final_commission", restored.Summary.Source)
	assertDec(t, "205", restored.Summary.Reported)
	assert.Equal(t, Aligned, restored.Summary.Classification)
}
