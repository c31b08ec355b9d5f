package recon

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"OurFloWorks/api"
	"OurFloWorks/api/constants"
	"OurFloWorks/internal/engine"
	"OurFloWorks/internal/store"

	"github.com/xuri/excelize/v2"
)

var regionReportHeader = []string{
	"Region", "Tier", "Total Sales", "Recomputed Commission", "Bonus",
	"Total With Bonus", "Reported Commission", "Delta", "Classification",
}

// DownloadReportCSV streams a persisted run as a CSV report.
func DownloadReportCSV(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, ok := fetchRun(d, w, r)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", constants.ContentTypeCSV)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="recon_%s.csv"`, run.ID))
		cw := csv.NewWriter(w)
		writeCSVReport(cw, run)
		cw.Flush()
	}
}

// DownloadReportXLSX streams a persisted run as an XLSX report with a
// Regions sheet and a Summary sheet.
func DownloadReportXLSX(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, ok := fetchRun(d, w, r)
		if !ok {
			return
		}
		f, err := buildXLSXReport(run)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "failed to build report: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", constants.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="recon_%s.xlsx"`, run.ID))
		if err := f.Write(w); err != nil {
			api.LogError("stream xlsx report for run %s: %v", run.ID, err)
		}
	}
}

// discrepancyIndex maps region name to its reconciliation entry.
func discrepancyIndex(res engine.Result) map[string]engine.DiscrepancyEntry {
	idx := make(map[string]engine.DiscrepancyEntry, len(res.Discrepancies))
	for _, d := range res.Discrepancies {
		idx[d.Region] = d
	}
	return idx
}

func regionReportRow(agg engine.RegionAggregate, disc engine.DiscrepancyEntry) []string {
	reported := ""
	if agg.ReportedFound {
		reported = agg.ReportedCommission.StringFixed(2)
	}
	return []string{
		agg.Region,
		strconv.Itoa(agg.TierIndex + 1),
		agg.TotalSales.StringFixed(2),
		agg.RecomputedCommission.StringFixed(2),
		agg.Bonus.StringFixed(2),
		agg.TotalWithBonus.StringFixed(2),
		reported,
		disc.Delta.StringFixed(2),
		string(disc.Classification),
	}
}

func writeCSVReport(cw *csv.Writer, run *store.Run) {
	res := run.Result
	byRegion := discrepancyIndex(res)

	cw.Write([]string{"Commission Reconciliation Report"})
	cw.Write([]string{"Run", run.ID})
	cw.Write([]string{"File", run.Filename})
	cw.Write([]string{"Uploaded At", run.UploadedAt.Format(constants.DateTimeFormat)})
	cw.Write([]string{"Rows Dropped", strconv.Itoa(res.DroppedRows)})
	cw.Write([]string{""})

	cw.Write(regionReportHeader)
	for _, agg := range res.Regions {
		cw.Write(regionReportRow(agg, byRegion[agg.Region]))
	}
	cw.Write([]string{
		"GRAND TOTAL",
		"",
		res.Grand.TotalSales.StringFixed(2),
		res.Grand.RecomputedCommission.StringFixed(2),
		res.Grand.Bonus.StringFixed(2),
		res.Grand.TotalWithBonus.StringFixed(2),
		res.Grand.ReportedCommission.StringFixed(2),
		res.Grand.AmountOwed.StringFixed(2),
		"",
	})

	cw.Write([]string{""})
	cw.Write([]string{"Summary Sheet Check"})
	if res.Summary != nil {
		source := res.Summary.Source
		if res.Summary.Heuristic {
			source += " (heuristic)"
		}
		cw.Write([]string{"Reported Total", res.Summary.Reported.StringFixed(2), source, res.Summary.CellRef})
		cw.Write([]string{"Recomputed Total", res.Grand.TotalWithBonus.StringFixed(2)})
		cw.Write([]string{"Delta", res.Summary.Delta.StringFixed(2), string(res.Summary.Classification)})
	} else {
		cw.Write([]string{"Reported Total", "not found"})
	}
}

func buildXLSXReport(run *store.Run) (*excelize.File, error) {
	res := run.Result
	byRegion := discrepancyIndex(res)

	f := excelize.NewFile()
	const regionSheet = "Regions"
	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", regionSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}

	setRow := func(sheet string, row int, values []interface{}) error {
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		return nil
	}

	header := make([]interface{}, len(regionReportHeader))
	for i, h := range regionReportHeader {
		header[i] = h
	}
	if err := setRow(regionSheet, 1, header); err != nil {
		return nil, err
	}
	for i, agg := range res.Regions {
		disc := byRegion[agg.Region]
		var reported interface{} = ""
		if agg.ReportedFound {
			reported = agg.ReportedCommission.InexactFloat64()
		}
		row := []interface{}{
			agg.Region,
			agg.TierIndex + 1,
			agg.TotalSales.InexactFloat64(),
			agg.RecomputedCommission.InexactFloat64(),
			agg.Bonus.InexactFloat64(),
			agg.TotalWithBonus.InexactFloat64(),
			reported,
			disc.Delta.InexactFloat64(),
			string(disc.Classification),
		}
		if err := setRow(regionSheet, i+2, row); err != nil {
			return nil, err
		}
	}
	grandRow := []interface{}{
		"GRAND TOTAL",
		"",
		res.Grand.TotalSales.InexactFloat64(),
		res.Grand.RecomputedCommission.InexactFloat64(),
		res.Grand.Bonus.InexactFloat64(),
		res.Grand.TotalWithBonus.InexactFloat64(),
		res.Grand.ReportedCommission.InexactFloat64(),
		res.Grand.AmountOwed.InexactFloat64(),
		"",
	}
	if err := setRow(regionSheet, len(res.Regions)+2, grandRow); err != nil {
		return nil, err
	}

	summaryRows := [][]interface{}{
		{"Run", run.ID},
		{"File", run.Filename},
		{"Uploaded By", run.UploadedBy},
		{"Uploaded At", run.UploadedAt.Format(constants.DateTimeFormat)},
		{"Transactions", res.Grand.TransactionCount},
		{"Rows Dropped", res.DroppedRows},
		{"Regions", res.Grand.RegionCount},
		{"Regions Flagged", res.Grand.ImpactedRegions},
		{"Total Sales", res.Grand.TotalSales.InexactFloat64()},
		{"Recomputed Commission", res.Grand.TotalWithBonus.InexactFloat64()},
		{"Amount Owed", res.Grand.AmountOwed.InexactFloat64()},
	}
	if res.Summary != nil {
		source := res.Summary.Source
		if res.Summary.Heuristic {
			source += " (heuristic)"
		}
		summaryRows = append(summaryRows,
			[]interface{}{"Summary Reported Total", res.Summary.Reported.InexactFloat64(), source, res.Summary.CellRef},
			[]interface{}{"Summary Delta", res.Summary.Delta.InexactFloat64(), string(res.Summary.Classification)},
		)
	} else {
		summaryRows = append(summaryRows, []interface{}{"Summary Reported Total", "not found"})
	}
	for i, row := range summaryRows {
		if err := setRow(summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}

	return f, nil
}
