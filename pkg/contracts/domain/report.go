package domain

import (
	"time"
)

// ReportFormat is a file format accepted for analysis or produced by export
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatJSON ReportFormat = "json"
)

// StoredReport is an analysis result together with its upload metadata.
// ID is assigned by the report store.
type StoredReport struct {
	ID           string          `json:"id"`
	RunID        string          `json:"run_id"`
	FileName     string          `json:"file_name"`
	SourceFormat ReportFormat    `json:"source_format"`
	Checksum     string          `json:"checksum,omitempty"`
	ContractID   string          `json:"contract_id,omitempty"`
	PeriodStart  string          `json:"period_start,omitempty"`
	PeriodEnd    string          `json:"period_end,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	Statistics   Statistics      `json:"aggregate"`
	Entries      []AnalyzedEntry `json:"entries"`
}

// NewStoredReport wraps a result for persistence.
func NewStoredReport(result AnalysisResult, fileName string, format ReportFormat) *StoredReport {
	return &StoredReport{
		RunID:        result.RunID,
		FileName:     fileName,
		SourceFormat: format,
		CreatedAt:    time.Now().UTC(),
		Statistics:   result.Statistics.Clone(),
		Entries:      CloneEntries(result.Entries),
	}
}

// Clone returns a deep copy.
func (r *StoredReport) Clone() *StoredReport {
	if r == nil {
		return nil
	}
	out := *r
	out.Statistics = r.Statistics.Clone()
	out.Entries = CloneEntries(r.Entries)
	return &out
}

// Result returns the analysis bundle carried by the report.
func (r *StoredReport) Result() AnalysisResult {
	return AnalysisResult{
		RunID:      r.RunID,
		Statistics: r.Statistics.Clone(),
		Entries:    CloneEntries(r.Entries),
	}
}

// Summary returns the listing view of the report.
func (r *StoredReport) Summary() ReportSummary {
	return ReportSummary{
		ID:                 r.ID,
		RunID:              r.RunID,
		FileName:           r.FileName,
		ContractID:         r.ContractID,
		CreatedAt:          r.CreatedAt,
		Total:              r.Statistics.Total,
		Errors:             r.Statistics.Errors,
		SuccessRatePercent: r.Statistics.SuccessRatePercent,
	}
}

// ReportSummary is the lightweight listing view of a stored report
type ReportSummary struct {
	ID                 string    `json:"id"`
	RunID              string    `json:"run_id"`
	FileName           string    `json:"file_name"`
	ContractID         string    `json:"contract_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	Total              int       `json:"total"`
	Errors             int       `json:"errors"`
	SuccessRatePercent int       `json:"success_rate_percent"`
}
