package recon

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"OurFloWorks/api"
	"OurFloWorks/api/constants"
	"OurFloWorks/internal/checksum"
	"OurFloWorks/internal/config"
	"OurFloWorks/internal/engine"
	"OurFloWorks/internal/grid"
	"OurFloWorks/internal/logger"
	"OurFloWorks/internal/store"

	"github.com/google/uuid"
)

// UploadWorkbook ingests one commission statement workbook (form field
// "file", optional "uploaded_by"), reconciles it and returns the full
// result. The run is persisted and the original file archived to S3
// when those are configured; neither failure mode loses the result.
func UploadWorkbook(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes)
		if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
			api.RespondWithError(w, http.StatusRequestEntityTooLarge, constants.ErrUploadTooLarge)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrFileRequired)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "failed to read uploaded file: "+err.Error())
			return
		}
		if len(data) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrEmptyUpload)
			return
		}

		fileHash := checksum.Hash(data)
		uploadedBy := r.FormValue("uploaded_by")

		wb, err := grid.Decode(data, header.Filename)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		detail, summary, err := wb.Split()
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(detail.Rows) > config.MaxDetailRows {
			api.RespondWithError(w, http.StatusBadRequest,
				fmt.Sprintf(constants.ErrTooManyRowsFmt, len(detail.Rows), config.MaxDetailRows))
			return
		}

		var summaryRows [][]string
		if summary != nil {
			summaryRows = summary.Rows
		}

		result, err := engine.Run(d.cfg, detail.Rows, summaryRows)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest,
				fmt.Sprintf("%v (detail sheet %q)", err, detail.Name))
			return
		}

		runID := uuid.New().String()

		archiveURL := ""
		if isArchiveEnabled() {
			key := buildWorkbookKey(fileHash, filepath.Ext(header.Filename))
			archiveURL, err = uploadWorkbookToS3(r.Context(), key, data, detectContentType(data))
			if err != nil {
				api.RespondWithError(w, http.StatusInternalServerError,
					fmt.Sprintf(constants.ErrArchiveFailedFmt, err))
				return
			}
			api.LogInfo("archived workbook %s to %s", header.Filename, archiveURL)
		}

		persisted := false
		if d.store != nil {
			run := &store.Run{
				ID:                   runID,
				Filename:             header.Filename,
				FileHash:             fileHash,
				ArchiveURL:           archiveURL,
				UploadedBy:           uploadedBy,
				UploadedAt:           time.Now(),
				RowCount:             result.Grand.TransactionCount,
				DroppedRows:          result.DroppedRows,
				RegionCount:          result.Grand.RegionCount,
				ImpactedRegions:      result.Grand.ImpactedRegions,
				TotalSales:           result.Grand.TotalSales.InexactFloat64(),
				RecomputedCommission: result.Grand.RecomputedCommission.InexactFloat64(),
				AmountOwed:           result.Grand.AmountOwed.InexactFloat64(),
				Result:               result,
			}
			if err := d.store.SaveRun(r.Context(), run); err != nil {
				api.LogError("persist run %s: %v", runID, err)
			} else {
				persisted = true
			}
		}

		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogRun(runID, header.Filename,
				fmt.Sprintf("reconciled %d transactions across %d regions, %d flagged",
					result.Grand.TransactionCount, result.Grand.RegionCount, result.Grand.ImpactedRegions))
		}

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":     true,
			"run_id":      runID,
			"filename":    header.Filename,
			"file_hash":   fileHash,
			"persisted":   persisted,
			"archive_url": archiveURL,
			"result":      result,
		})
	}
}
