package constants

// Common error messages
const (
	ErrMethodNotAllowed   = "Method Not Allowed"
	ErrFileRequired       = "file is required in form-data"
	ErrUploadTooLarge     = "uploaded workbook exceeds the size limit"
	ErrEmptyUpload        = "uploaded workbook is empty"
	ErrRunHistoryDisabled = "run history unavailable: no database configured"
	ErrRunNotFound        = "run not found"
	ErrMissingRunID       = "Missing or invalid run id"
)

// Error templates
const (
	ErrTooManyRowsFmt   = "detail sheet has %d rows, limit is %d"
	ErrArchiveFailedFmt = "failed to archive workbook: %v"
)

// Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Date formats
const (
	DateTimeFormat = "2006-01-02 15:04:05"
	DateFormat     = "2006-01-02"
)
