package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// Workbook sheet names
const (
	SheetSummary = "Summary"
	SheetEntries = "Entries"
	SheetUsers   = "Users"
	SheetErrors  = "Errors"
)

// XLSXWriter renders a stored report as an Excel workbook
type XLSXWriter struct{}

// NewXLSXWriter creates an XLSX writer
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

// Write renders report to out
func (x *XLSXWriter) Write(out io.Writer, report *domain.StoredReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetEntries, SheetUsers, SheetErrors} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSheet(f, SheetSummary, bold, StatisticsHeaders, summaryRows(report)); err != nil {
		return err
	}

	entries := make([][]string, len(report.Entries))
	var invalid [][]string
	for i, e := range report.Entries {
		entries[i] = EntryRecord(e)
		if !e.IsValid {
			invalid = append(invalid, []string{e.FaxID, e.User, e.OriginalNumber, e.NormalizedNumber, formatReasons(e.Reasons)})
		}
	}
	if err := writeSheet(f, SheetEntries, bold, EntryHeaders, entries); err != nil {
		return err
	}

	users := make([][]string, 0, len(report.Statistics.PerUser))
	for _, name := range sortedKeys(report.Statistics.PerUser) {
		u := report.Statistics.PerUser[name]
		users = append(users, []string{name, formatInt(u.Total), formatInt(u.Errors), formatInt(u.Pages)})
	}
	if err := writeSheet(f, SheetUsers, bold, []string{"user", "total", "errors", "pages"}, users); err != nil {
		return err
	}

	errorHeaders := []string{"fax_id", "user", "original_number", "normalized_number", "reasons"}
	if err := writeSheet(f, SheetErrors, bold, errorHeaders, invalid); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func summaryRows(report *domain.StoredReport) [][]string {
	rows := [][]string{
		{"report_id", report.ID},
		{"run_id", report.RunID},
		{"file_name", report.FileName},
	}
	if report.ContractID != "" {
		rows = append(rows, []string{"contract_id", report.ContractID})
	}
	if report.PeriodStart != "" || report.PeriodEnd != "" {
		rows = append(rows, []string{"period", report.PeriodStart + " / " + report.PeriodEnd})
	}
	return append(rows, StatisticsRecords(report.Statistics)...)
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, headers []string, rows [][]string) error {
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
