package recon

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"OurFloWorks/internal/engine"
	"OurFloWorks/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportFixtureRun(t *testing.T) *store.Run {
	t.Helper()
	detail := [][]string{
		{"Ship To State", "Invoice", "Total Sales", "Commission Amount"},
		{"TX", "1001", "5000", "75.00"},
		{"TX", "1002", "3000", "45.00"},
		{"TX", "1003", "2000", "30.00"},
	}
	summary := [][]string{
		{"Final Commission", "150"},
	}
	result, err := engine.Run(engine.DefaultConfig(), detail, summary)
	require.NoError(t, err)

	return &store.Run{
		ID:         "3f1d8a52-9f7e-4b7c-a6a1-0c2f5d9e8b11",
		Filename:   "march_commissions.xlsx",
		UploadedBy: "priya",
		UploadedAt: time.Date(2026, 3, 31, 9, 30, 0, 0, time.UTC),
		Result:     result,
	}
}

func TestWriteCSVReport(t *testing.T) {
	run := reportFixtureRun(t)

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	writeCSVReport(cw, run)
	cw.Flush()
	require.NoError(t, cw.Error())

	out := buf.String()
	assert.Contains(t, out, "Run,3f1d8a52-9f7e-4b7c-a6a1-0c2f5d9e8b11")
	assert.Contains(t, out, "File,march_commissions.xlsx")
	assert.Contains(t, out, "Uploaded At,2026-03-31 09:30:00")
	assert.Contains(t, out, strings.Join(regionReportHeader, ","))
	assert.Contains(t, out, "TX,2,10000.00,100.00,100.00,200.00,150.00,50.00,UNDERPAID")
	assert.Contains(t, out, "GRAND TOTAL,,10000.00,100.00,100.00,200.00,150.00,50.00,")
	assert.Contains(t, out, "Reported Total,150.00,final_commission,B1")
	assert.Contains(t, out, "Delta,50.00,UNDERPAID")
}

func TestWriteCSVReport_NoSummaryTotal(t *testing.T) {
	run := reportFixtureRun(t)
	run.Result.Summary = nil

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	writeCSVReport(cw, run)
	cw.Flush()

	assert.Contains(t, buf.String(), "Reported Total,not found")
}

func TestBuildXLSXReport(t *testing.T) {
	run := reportFixtureRun(t)

	f, err := buildXLSXReport(run)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Regions")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Region", rows[0][0])
	assert.Equal(t, "Classification", rows[0][8])

	assert.Equal(t, "TX", rows[1][0])
	assert.Equal(t, "2", rows[1][1])
	assert.Equal(t, "10000", rows[1][2])
	assert.Equal(t, "200", rows[1][5])
	assert.Equal(t, "150", rows[1][6])
	assert.Equal(t, "UNDERPAID", rows[1][8])

	assert.Equal(t, "GRAND TOTAL", rows[2][0])

	summaryRows, err := f.GetRows("Summary")
	require.NoError(t, err)

	flat := map[string][]string{}
	for _, row := range summaryRows {
		if len(row) > 0 {
			flat[row[0]] = row
		}
	}
	require.Contains(t, flat, "Summary Reported Total")
	reported := flat["Summary Reported Total"]
	require.True(t, len(reported) >= 4)
	assert.Equal(t, "150", reported[1])
	assert.Equal(t, "final_commission", reported[2])
	assert.Equal(t, "B1", reported[3])
	assert.Equal(t, []string{"Run", run.ID}, flat["Run"][:2])
}
